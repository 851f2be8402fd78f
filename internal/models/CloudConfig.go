package models

// AwsConfig contains all configuration values / credentials for AWS cloud storage
type AwsConfig struct {
	Bucket    string `yaml:"Bucket"`
	Region    string `yaml:"Region"`
	Endpoint  string `yaml:"Endpoint"`
	KeyId     string `yaml:"KeyId"`
	KeySecret string `yaml:"KeySecret"`
}

// IsAllProvided returns true if all required variables have been set for using AWS S3 / Backblaze
func (c *AwsConfig) IsAllProvided() bool {
	return c.Bucket != "" &&
		c.Region != "" &&
		c.KeyId != "" &&
		c.KeySecret != ""
}

// BrokerConfig contains the connection details for the notification topic
type BrokerConfig struct {
	// Url is either mqtt(s)://, tcp://, ws(s):// for MQTT or amqp(s):// for AMQP
	Url      string `yaml:"Url"`
	Topic    string `yaml:"Topic"`
	ClientId string `yaml:"ClientId"`
	Username string `yaml:"Username"`
	Password string `yaml:"Password"`
	// Exchange is only used for AMQP
	Exchange string `yaml:"Exchange"`
}

// IsProvided returns true if a broker has been configured
func (c *BrokerConfig) IsProvided() bool {
	return c.Url != ""
}
