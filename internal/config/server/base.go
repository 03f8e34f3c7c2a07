package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type BaseServerConfig struct {
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log      LogServerConfig      `mapstructure:"log"      yaml:"log"`
	HTTP     HTTPServerConfig     `mapstructure:"http"     yaml:"http"`
	Metadata MetadataServerConfig `mapstructure:"metadata" yaml:"metadata"`
	Blob     BlobServerConfig     `mapstructure:"blob"     yaml:"blob"`
	Security SecurityServerConfig `mapstructure:"security" yaml:"security"`
	Kafka    KafkaServerConfig    `mapstructure:"kafka"    yaml:"kafka"`
	Ingest   IngestServerConfig   `mapstructure:"ingest"   yaml:"ingest"`
}

func LoadServerConfig() (*BaseServerConfig, error) {
	cfg := &BaseServerConfig{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings required to serve requests.
func (c *BaseServerConfig) Validate() error {
	if c.Security.SecretKey == "" {
		return fmt.Errorf("security.secret_key is required")
	}
	switch c.Metadata.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown metadata type '%s'", c.Metadata.Type)
	}
	switch c.Blob.Driver {
	case "fs", "s3", "memory":
	default:
		return fmt.Errorf("unknown blob driver '%s'", c.Blob.Driver)
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka is enabled but brokers or topic are missing")
	}
	return nil
}

// GetShutdownTimeout parses the shutdown timeout, falling back to 60 seconds.
func (c *BaseServerConfig) GetShutdownTimeout() time.Duration {
	timeout, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil || timeout <= 0 {
		return 60 * time.Second
	}
	return timeout
}
