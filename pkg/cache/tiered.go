package cache

import (
	"context"
	"errors"

	"github.com/arbitros/designaciones/pkg/observability"
)

// TieredCache reads through a local layer to a shared one. Shared-layer errors
// degrade to misses so a Redis outage only costs latency.
type TieredCache struct {
	local  Cache
	shared Cache
}

// NewTieredCache combines local and shared; shared may be nil
func NewTieredCache(local, shared Cache) *TieredCache {
	return &TieredCache{local: local, shared: shared}
}

// Get implements Cache
func (c *TieredCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.local.Get(ctx, key)
	if err == nil || c.shared == nil {
		return value, err
	}

	value, err = c.shared.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			observability.LoggerFrom(ctx).WithError(err).Warn("shared cache read failed")
		}
		return nil, ErrCacheMiss
	}
	_ = c.local.Set(ctx, key, value)
	return value, nil
}

// Set implements Cache
func (c *TieredCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.local.Set(ctx, key, value); err != nil {
		return err
	}
	if c.shared != nil {
		return c.shared.Set(ctx, key, value)
	}
	return nil
}

// InvalidatePrefix implements Cache. Both layers are always attempted.
func (c *TieredCache) InvalidatePrefix(ctx context.Context, prefixes ...string) (int, error) {
	removed, err := c.local.InvalidatePrefix(ctx, prefixes...)
	if err != nil || c.shared == nil {
		return removed, err
	}
	n, err := c.shared.InvalidatePrefix(ctx, prefixes...)
	return removed + n, err
}
