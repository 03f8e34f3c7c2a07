// Package blob selects the configured blob store implementation.
package blob

import (
	"context"
	"fmt"

	config "github.com/mwantia/agrilink/internal/config/server"
	"github.com/mwantia/agrilink/pkg/blob/core"
	"github.com/mwantia/agrilink/pkg/blob/fs"
	"github.com/mwantia/agrilink/pkg/blob/memory"
	"github.com/mwantia/agrilink/pkg/blob/s3"
)

// Open constructs the store named by cfg.Driver.
func Open(ctx context.Context, cfg config.BlobServerConfig) (core.Store, error) {
	switch core.Driver(cfg.Driver) {
	case core.DriverFilesystem, "":
		return fs.New(cfg.FS.Root)
	case core.DriverMemory:
		return memory.New(), nil
	case core.DriverS3:
		return s3.New(ctx, s3.Config{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown blob driver '%s'", cfg.Driver)
	}
}
