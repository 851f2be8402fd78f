package cloudconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/casedrop/casedrop/internal/environment"
	"github.com/casedrop/casedrop/internal/helper"
	"github.com/casedrop/casedrop/internal/models"
	"gopkg.in/yaml.v3"
)

// CloudConfig contains all configuration values / credentials for cloud storage and the notification broker
type CloudConfig struct {
	Aws    models.AwsConfig    `yaml:"aws"`
	Broker models.BrokerConfig `yaml:"broker"`
}

// Load loads the configuration from env variables or config/cloudconfig.yml. Env variables take
// precedence, the result is false if neither storage nor broker are configured
func Load(env *environment.Environment) (CloudConfig, bool) {
	var result CloudConfig
	path := env.GetCloudConfigPath()
	if helper.FileExists(path) {
		fileConfig, ok := loadFromFile(path)
		if ok {
			result = fileConfig
		}
	}
	if env.IsAwsProvided() {
		result.Aws = loadAwsFromEnv(env)
	}
	if env.BrokerUrl != "" {
		result.Broker = env.GetBrokerConfig()
	}
	if result.Broker.Topic == "" {
		result.Broker.Topic = env.BrokerTopic
	}
	if result.Broker.Exchange == "" {
		result.Broker.Exchange = env.BrokerExchange
	}
	return result, result.Aws.IsAllProvided() || result.Broker.IsProvided()
}

// Write saves the cloudconfig file to the set config path
func Write(env *environment.Environment, config CloudConfig) error {
	path := env.GetCloudConfigPath()
	helper.CreateDir(filepath.Dir(path))
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	err = encoder.Encode(config)
	if err != nil {
		return err
	}
	return encoder.Close()
}

// Delete removes the cloud config file from the set config path
func Delete(env *environment.Environment) error {
	path := env.GetCloudConfigPath()
	if helper.FileExists(path) {
		return os.Remove(path)
	}
	return nil
}

func loadAwsFromEnv(env *environment.Environment) models.AwsConfig {
	return models.AwsConfig{
		Bucket:    env.AwsBucket,
		Region:    env.AwsRegion,
		Endpoint:  env.AwsEndpoint,
		KeyId:     env.AwsKeyId,
		KeySecret: env.AwsKeySecret,
	}
}

func loadFromFile(path string) (CloudConfig, bool) {
	var result CloudConfig
	file, err := os.ReadFile(path)
	if err != nil {
		fmt.Println("Warning: Unable to read cloudconfig.yml!")
		return CloudConfig{}, false
	}
	err = yaml.Unmarshal(file, &result)
	if err != nil {
		fmt.Println("Warning: cloudconfig.yml contains invalid yaml!")
		return CloudConfig{}, false
	}
	return result, true
}
