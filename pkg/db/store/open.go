package store

import (
	"fmt"

	config "github.com/mwantia/agrilink/internal/config/server"
)

// Open constructs the metadata store named by cfg.Type. The store is not
// connected yet.
func Open(cfg config.MetadataServerConfig) (MetadataStore, error) {
	level := ParseLogLevel(cfg.LogLevel)

	switch cfg.Type {
	case "sqlite", "":
		return NewSQLiteStore(SQLiteConfig{
			Path:     cfg.SQLite.Path,
			LogLevel: level,
		})
	case "postgres":
		return NewPostgresStore(PostgresConfig{
			DSN:      cfg.Postgres.DSN,
			Replicas: cfg.Postgres.Replicas,
			LogLevel: level,
		})
	default:
		return nil, fmt.Errorf("unknown metadata type '%s'", cfg.Type)
	}
}
