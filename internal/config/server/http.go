package server

import "time"

type HTTPServerConfig struct {
	Address       string `mapstructure:"address"         yaml:"address"`
	OwnerHeader   string `mapstructure:"owner_header"    yaml:"owner_header"`
	MaxUploadSize int64  `mapstructure:"max_upload_size" yaml:"max_upload_size"`
	ReadTimeout   string `mapstructure:"read_timeout"    yaml:"read_timeout"`
	WriteTimeout  string `mapstructure:"write_timeout"   yaml:"write_timeout"`
}

func (c HTTPServerConfig) GetReadTimeout() time.Duration {
	return parseDurationOr(c.ReadTimeout, 30*time.Second)
}

func (c HTTPServerConfig) GetWriteTimeout() time.Duration {
	return parseDurationOr(c.WriteTimeout, 120*time.Second)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
