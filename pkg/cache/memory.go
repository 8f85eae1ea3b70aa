package cache

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/arbitros/designaciones/pkg/observability"
)

// MemoryCache is an in-process expirable LRU
type MemoryCache struct {
	cache   *lru.LRU[string, []byte]
	metrics metricsRecorder
}

// NewMemoryCache creates a memory cache; metrics may be nil
func NewMemoryCache(config Config, metrics *observability.Metrics) *MemoryCache {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultConfig().MaxEntries
	}
	if config.TTL <= 0 {
		config.TTL = DefaultConfig().TTL
	}
	return &MemoryCache{
		cache:   lru.NewLRU[string, []byte](config.MaxEntries, nil, config.TTL),
		metrics: metricsRecorder{metrics: metrics, layer: "memory"},
	}
}

// Get implements Cache
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidCacheKey
	}
	value, ok := c.cache.Get(key)
	if !ok {
		c.metrics.miss()
		return nil, ErrCacheMiss
	}
	c.metrics.hit()
	return value, nil
}

// Set implements Cache
func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrInvalidCacheKey
	}
	c.cache.Add(key, value)
	return nil
}

// InvalidatePrefix implements Cache
func (c *MemoryCache) InvalidatePrefix(_ context.Context, prefixes ...string) (int, error) {
	removed := 0
	for _, key := range c.cache.Keys() {
		for _, prefix := range prefixes {
			if prefix != "" && strings.HasPrefix(key, prefix) {
				if c.cache.Remove(key) {
					removed++
				}
				break
			}
		}
	}
	c.metrics.invalidated(removed)
	return removed, nil
}

// Len returns the number of live entries
func (c *MemoryCache) Len() int {
	return c.cache.Len()
}
