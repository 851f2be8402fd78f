package environment

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	envParser "github.com/caarlos0/env/v6"
	"github.com/casedrop/casedrop/internal/environment/flagparser"
	"github.com/casedrop/casedrop/internal/models"
)

// DefaultPort for the webserver
const DefaultPort = 53843

const (
	// StorageAws uploads with the AWS SDK
	StorageAws = "aws"
	// StorageMinio uploads with the MinIO client
	StorageMinio = "minio"
)

// Environment is a struct containing available env variables
type Environment struct {
	ConfigDir   string `env:"CONFIG_DIR" envDefault:"config"`
	DataDir     string `env:"DATA_DIR" envDefault:"data"`
	DatabaseUrl string `env:"DATABASE_URL" envDefault:"sqlite://[data]/casedrop.sqlite"`
	// WebserverPort is only used by the server
	WebserverPort int    `env:"PORT" envDefault:"53843"`
	LogToStdout   bool   `env:"LOG_STDOUT" envDefault:"false"`
	ApiKey        string `env:"API_KEY"`
	// UploadUrl is returned to clients when a new case is created
	UploadUrl string `env:"UPLOAD_URL"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"aws"`
	AwsBucket      string `env:"AWS_BUCKET"`
	AwsRegion      string `env:"AWS_REGION"`
	AwsKeyId       string `env:"AWS_KEY"`
	AwsKeySecret   string `env:"AWS_KEY_SECRET"`
	AwsEndpoint    string `env:"AWS_ENDPOINT"`

	MaxParallelUploads int `env:"MAX_PARALLEL_UPLOADS" envDefault:"4"`
	// UploadRateLimitKB limits the bandwidth of each upload, 0 for unlimited
	UploadRateLimitKB int `env:"UPLOAD_RATE_LIMIT_KB" envDefault:"0"`

	BrokerUrl             string `env:"BROKER_URL"`
	BrokerTopic           string `env:"BROKER_TOPIC" envDefault:"stepfunction/status"`
	BrokerClientId        string `env:"BROKER_CLIENT_ID"`
	BrokerUsername        string `env:"BROKER_USERNAME"`
	BrokerPassword        string `env:"BROKER_PASSWORD"`
	BrokerExchange        string `env:"BROKER_EXCHANGE" envDefault:"amq.topic"`
	ReconnectRetries      int    `env:"RECONNECT_RETRIES" envDefault:"5"`
	ReconnectDelaySeconds int    `env:"RECONNECT_DELAY" envDefault:"5"`

	StatusApiUrl        string `env:"STATUS_API_URL"`
	PollIntervalSeconds int    `env:"POLL_INTERVAL" envDefault:"5"`

	OidcIssuer       string `env:"OIDC_ISSUER"`
	OidcClientId     string `env:"OIDC_CLIENT_ID"`
	OidcClientSecret string `env:"OIDC_CLIENT_SECRET"`
	UserName         string `env:"USER_NAME"`
	UserEmail        string `env:"USER_EMAIL"`
	UserSub          string `env:"USER_SUB"`
}

// New parses the env variables
func New() Environment {
	result := Environment{WebserverPort: DefaultPort}
	err := envParser.Parse(&result, envParser.Options{
		Prefix: "CASEDROP_",
	})
	if err != nil {
		fmt.Println("Error parsing env variables:", err)
		osExit(1)
		return Environment{}
	}
	result.normalise()
	return result
}

// ApplyFlags overwrites the env variables with the passed command line arguments
func (e *Environment) ApplyFlags(flags flagparser.MainFlags) {
	if flags.IsPortSet {
		e.WebserverPort = flags.Port
	}
	if flags.IsConfigDirSet {
		e.ConfigDir = flags.ConfigDir
	}
	if flags.IsDataDirSet {
		e.DataDir = flags.DataDir
	}
	if flags.IsDatabaseUrlSet {
		e.DatabaseUrl = flags.DatabaseUrl
	}
	e.normalise()
}

func (e *Environment) normalise() {
	e.ConfigDir = path.Clean(e.ConfigDir)
	e.DataDir = path.Clean(e.DataDir)
	e.DatabaseUrl = strings.Replace(e.DatabaseUrl, "[data]", e.DataDir, 1)
	e.StorageBackend = strings.ToLower(e.StorageBackend)
	if e.StorageBackend != StorageMinio {
		e.StorageBackend = StorageAws
	}
	if e.MaxParallelUploads < 1 {
		e.MaxParallelUploads = 1
	}
	if e.UploadRateLimitKB < 0 {
		e.UploadRateLimitKB = 0
	}
	if e.ReconnectRetries < 0 {
		e.ReconnectRetries = 0
	}
	if e.ReconnectDelaySeconds < 1 {
		e.ReconnectDelaySeconds = 1
	}
	if e.PollIntervalSeconds < 1 {
		e.PollIntervalSeconds = 1
	}
	e.StatusApiUrl = strings.TrimSuffix(e.StatusApiUrl, "/")
}

// IsAwsProvided returns true if all required env variables have been set for using AWS S3 / MinIO
func (e *Environment) IsAwsProvided() bool {
	return e.AwsBucket != "" &&
		e.AwsRegion != "" &&
		e.AwsKeyId != "" &&
		e.AwsKeySecret != ""
}

// IsOidcProvided returns true if an OIDC issuer has been configured
func (e *Environment) IsOidcProvided() bool {
	return e.OidcIssuer != "" && e.OidcClientId != ""
}

// IsStaticUserProvided returns true if the user attributes are set with env variables
func (e *Environment) IsStaticUserProvided() bool {
	return e.UserSub != ""
}

// GetStaticUser returns the user that has been set with env variables
func (e *Environment) GetStaticUser() models.UserInfo {
	return models.UserInfo{
		Username: e.UserName,
		Email:    e.UserEmail,
		Sub:      e.UserSub,
	}
}

// GetBrokerConfig returns the connection details for the notification topic
func (e *Environment) GetBrokerConfig() models.BrokerConfig {
	return models.BrokerConfig{
		Url:      e.BrokerUrl,
		Topic:    e.BrokerTopic,
		ClientId: e.BrokerClientId,
		Username: e.BrokerUsername,
		Password: e.BrokerPassword,
		Exchange: e.BrokerExchange,
	}
}

// ReconnectDelay returns the fixed delay between two subscription attempts
func (e *Environment) ReconnectDelay() time.Duration {
	return time.Duration(e.ReconnectDelaySeconds) * time.Second
}

// PollInterval returns the interval for polling the job status
func (e *Environment) PollInterval() time.Duration {
	return time.Duration(e.PollIntervalSeconds) * time.Second
}

// UploadRateLimit returns the maximum bytes per second for each upload, 0 for unlimited
func (e *Environment) UploadRateLimit() int64 {
	return int64(e.UploadRateLimitKB) * 1024
}

// GetCloudConfigPath returns the path to the cloud storage configuration file
func (e *Environment) GetCloudConfigPath() string {
	return e.ConfigDir + "/cloudconfig.yml"
}

var osExit = os.Exit
