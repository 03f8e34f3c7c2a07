package ingest

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mwantia/agrilink/pkg/tabular"
)

// PreviewCache keeps parsed tables keyed by content fingerprint.
type PreviewCache struct {
	cache *expirable.LRU[string, *tabular.Table]
}

func NewPreviewCache(size int, ttl time.Duration) *PreviewCache {
	if size <= 0 {
		size = 64
	}
	return &PreviewCache{
		cache: expirable.NewLRU[string, *tabular.Table](size, nil, ttl),
	}
}

func (c *PreviewCache) Get(hash string) (*tabular.Table, bool) {
	table, ok := c.cache.Get(hash)
	if ok {
		previewCacheTotal.WithLabelValues("hit").Inc()
	} else {
		previewCacheTotal.WithLabelValues("miss").Inc()
	}
	return table, ok
}

func (c *PreviewCache) Add(hash string, table *tabular.Table) {
	c.cache.Add(hash, table)
}

func (c *PreviewCache) Len() int {
	return c.cache.Len()
}
