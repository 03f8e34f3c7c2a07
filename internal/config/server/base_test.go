package server

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.HTTP.OwnerHeader != "X-User-ID" {
		t.Errorf("owner header = %q", cfg.HTTP.OwnerHeader)
	}
	if cfg.Metadata.Type != "sqlite" {
		t.Errorf("metadata type = %q", cfg.Metadata.Type)
	}
	if !cfg.Security.EncryptUploads {
		t.Error("encrypt_uploads should default to true")
	}
	if cfg.Kafka.Enabled {
		t.Error("kafka should be disabled by default")
	}
	if cfg.Ingest.PreviewRows != 5 {
		t.Errorf("preview rows = %d", cfg.Ingest.PreviewRows)
	}
}

func TestValidateRequiresSecret(t *testing.T) {
	cfg := GetServerDefault()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without secret key")
	}

	cfg.Security.SecretKey = "s3cr3t"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Blob.Driver = "ftp"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown blob driver")
	}
}

func TestValidateKafkaNeedsTopic(t *testing.T) {
	cfg := GetServerDefault()
	cfg.Security.SecretKey = "s3cr3t"
	cfg.Kafka.Enabled = true
	cfg.Kafka.Topic = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for kafka without topic")
	}
}

func TestShutdownTimeoutFallback(t *testing.T) {
	cfg := GetServerDefault()
	if got := cfg.GetShutdownTimeout(); got != 10*time.Second {
		t.Errorf("timeout = %v", got)
	}
	cfg.ShutdownTimeout = "soon"
	if got := cfg.GetShutdownTimeout(); got != 60*time.Second {
		t.Errorf("fallback timeout = %v", got)
	}
}
