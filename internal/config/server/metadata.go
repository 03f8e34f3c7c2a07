package server

// MetadataServerConfig holds metadata store configuration
type MetadataServerConfig struct {
	Type     string                 `mapstructure:"type"      yaml:"type"`
	LogLevel string                 `mapstructure:"log_level" yaml:"log_level"`
	SQLite   MetadataSQLiteConfig   `mapstructure:"sqlite"    yaml:"sqlite"`
	Postgres MetadataPostgresConfig `mapstructure:"postgres"  yaml:"postgres"`
}

// MetadataSQLiteConfig holds SQLite-specific configuration
type MetadataSQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// MetadataPostgresConfig holds PostgreSQL-specific configuration.
// Replicas are optional read-only DSNs.
type MetadataPostgresConfig struct {
	DSN      string   `mapstructure:"dsn"      yaml:"dsn"`
	Replicas []string `mapstructure:"replicas" yaml:"replicas"`
}
