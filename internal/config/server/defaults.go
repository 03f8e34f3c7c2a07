package server

import "github.com/spf13/viper"

func GetServerDefault() BaseServerConfig {
	return BaseServerConfig{
		ShutdownTimeout: "10s",

		Log: LogServerConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},

		HTTP: HTTPServerConfig{
			Address:       ":8080",
			OwnerHeader:   "X-User-ID",
			MaxUploadSize: 50 << 20,
			ReadTimeout:   "30s",
			WriteTimeout:  "120s",
		},

		Metadata: MetadataServerConfig{
			Type:     "sqlite",
			LogLevel: "silent",
			SQLite: MetadataSQLiteConfig{
				Path: "./agrilink.db",
			},
			Postgres: MetadataPostgresConfig{
				DSN:      "",
				Replicas: []string{},
			},
		},

		Blob: BlobServerConfig{
			Driver: "fs",
			FS: BlobFSConfig{
				Root: "./media",
			},
			S3: BlobS3Config{
				Region: "us-east-1",
			},
		},

		Security: SecurityServerConfig{
			SecretKey:      "",
			EncryptUploads: true,
		},

		Kafka: KafkaServerConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "agri-data",
		},

		Ingest: IngestServerConfig{
			PreviewRows:      5,
			ChunkSize:        1 << 20,
			ChunkThreshold:   10 << 20,
			PreviewCacheSize: 64,
			PreviewCacheTTL:  "10m",
		},
	}
}

func setDefaults() {
	defaults := GetServerDefault()

	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("http.address", defaults.HTTP.Address)
	viper.SetDefault("http.owner_header", defaults.HTTP.OwnerHeader)
	viper.SetDefault("http.max_upload_size", defaults.HTTP.MaxUploadSize)
	viper.SetDefault("http.read_timeout", defaults.HTTP.ReadTimeout)
	viper.SetDefault("http.write_timeout", defaults.HTTP.WriteTimeout)

	viper.SetDefault("metadata.type", defaults.Metadata.Type)
	viper.SetDefault("metadata.log_level", defaults.Metadata.LogLevel)
	viper.SetDefault("metadata.sqlite.path", defaults.Metadata.SQLite.Path)
	viper.SetDefault("metadata.postgres.dsn", defaults.Metadata.Postgres.DSN)
	viper.SetDefault("metadata.postgres.replicas", defaults.Metadata.Postgres.Replicas)

	viper.SetDefault("blob.driver", defaults.Blob.Driver)
	viper.SetDefault("blob.fs.root", defaults.Blob.FS.Root)
	viper.SetDefault("blob.s3.bucket", defaults.Blob.S3.Bucket)
	viper.SetDefault("blob.s3.region", defaults.Blob.S3.Region)
	viper.SetDefault("blob.s3.endpoint", defaults.Blob.S3.Endpoint)
	viper.SetDefault("blob.s3.path_style", defaults.Blob.S3.PathStyle)

	viper.SetDefault("security.secret_key", defaults.Security.SecretKey)
	viper.SetDefault("security.encrypt_uploads", defaults.Security.EncryptUploads)

	viper.SetDefault("kafka.enabled", defaults.Kafka.Enabled)
	viper.SetDefault("kafka.brokers", defaults.Kafka.Brokers)
	viper.SetDefault("kafka.topic", defaults.Kafka.Topic)

	viper.SetDefault("ingest.preview_rows", defaults.Ingest.PreviewRows)
	viper.SetDefault("ingest.chunk_size", defaults.Ingest.ChunkSize)
	viper.SetDefault("ingest.chunk_threshold", defaults.Ingest.ChunkThreshold)
	viper.SetDefault("ingest.preview_cache_size", defaults.Ingest.PreviewCacheSize)
	viper.SetDefault("ingest.preview_cache_ttl", defaults.Ingest.PreviewCacheTTL)
}
