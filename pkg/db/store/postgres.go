package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// PostgresConfig holds PostgreSQL-specific configuration
type PostgresConfig struct {
	DSN          string
	Replicas     []string
	MaxOpenConns int
	LogLevel     logger.LogLevel
}

// PostgresStore implements MetadataStore using PostgreSQL with optional read replicas
type PostgresStore struct {
	GormStore
	maxOpenConns int
}

// NewPostgresStore creates a new PostgreSQL-backed metadata store
func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), gormConfig(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	if len(cfg.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(cfg.Replicas))
		for _, dsn := range cfg.Replicas {
			replicas = append(replicas, postgres.Open(dsn))
		}

		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("failed to register read replicas: %w", err)
		}
	}

	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 16
	}

	return &PostgresStore{
		GormStore:    GormStore{db: db, dialect: "postgres"},
		maxOpenConns: cfg.MaxOpenConns,
	}, nil
}

// Connect initializes the database connection
func (s *PostgresStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(s.maxOpenConns)
	sqlDB.SetMaxIdleConns(s.maxOpenConns / 2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return sqlDB.PingContext(ctx)
}
