package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arbitros/designaciones/pkg/observability"
)

// Cache stores opaque values under string keys with a fixed TTL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// InvalidatePrefix removes every key starting with one of prefixes and
	// returns how many were removed
	InvalidatePrefix(ctx context.Context, prefixes ...string) (int, error)
}

// Config holds cache configuration
type Config struct {
	MaxEntries int
	TTL        time.Duration
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{
		MaxEntries: 10000,
		TTL:        time.Minute,
	}
}

// metricsRecorder records hits and misses per layer; nil metrics are ignored
type metricsRecorder struct {
	metrics *observability.Metrics
	layer   string
}

func (r metricsRecorder) hit() {
	if r.metrics != nil {
		r.metrics.CacheHitsTotal.WithLabelValues(r.layer).Inc()
	}
}

func (r metricsRecorder) miss() {
	if r.metrics != nil {
		r.metrics.CacheMissesTotal.WithLabelValues(r.layer).Inc()
	}
}

func (r metricsRecorder) invalidated(n int) {
	if r.metrics != nil && n > 0 {
		r.metrics.CacheInvalidationsTotal.WithLabelValues(r.layer).Add(float64(n))
	}
}

// Fetch is a read-through helper: it returns the cached value for key or calls
// load and caches its result. Cache failures never fail the read.
func Fetch[T any](ctx context.Context, c Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	if data, err := c.Get(ctx, key); err == nil {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		observability.LoggerFrom(ctx).WithError(err).WithField("key", key).Warn("cache read failed")
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return value, fmt.Errorf("failed to encode cache value: %w", err)
	}
	if err := c.Set(ctx, key, data); err != nil {
		observability.LoggerFrom(ctx).WithError(err).WithField("key", key).Warn("cache write failed")
	}
	return value, nil
}

// Invalidate removes prefixes from c, logging failures. A nil cache is a no-op.
func Invalidate(ctx context.Context, c Cache, prefixes ...string) {
	if c == nil || len(prefixes) == 0 {
		return
	}
	if _, err := c.InvalidatePrefix(ctx, prefixes...); err != nil {
		observability.LoggerFrom(ctx).WithError(err).WithField("prefixes", prefixes).Error("cache invalidation failed")
	}
}
