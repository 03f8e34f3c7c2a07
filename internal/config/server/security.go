package server

type SecurityServerConfig struct {
	SecretKey      string `mapstructure:"secret_key"      yaml:"secret_key"`
	EncryptUploads bool   `mapstructure:"encrypt_uploads" yaml:"encrypt_uploads"`
}
