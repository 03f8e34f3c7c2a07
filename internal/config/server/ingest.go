package server

import "time"

type IngestServerConfig struct {
	PreviewRows      int    `mapstructure:"preview_rows"       yaml:"preview_rows"`
	ChunkSize        int    `mapstructure:"chunk_size"         yaml:"chunk_size"`
	ChunkThreshold   int64  `mapstructure:"chunk_threshold"    yaml:"chunk_threshold"`
	PreviewCacheSize int    `mapstructure:"preview_cache_size" yaml:"preview_cache_size"`
	PreviewCacheTTL  string `mapstructure:"preview_cache_ttl"  yaml:"preview_cache_ttl"`
}

func (c IngestServerConfig) GetPreviewCacheTTL() time.Duration {
	return parseDurationOr(c.PreviewCacheTTL, 10*time.Minute)
}
