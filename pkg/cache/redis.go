package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/arbitros/designaciones/pkg/observability"
)

// RedisCache shares cached reads across instances
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	namespace string
	metrics   metricsRecorder
}

// NewRedisClient parses url and verifies the connection
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisCache creates a Redis cache. Keys are stored under namespace.
func NewRedisCache(client *redis.Client, namespace string, ttl time.Duration, metrics *observability.Metrics) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultConfig().TTL
	}
	return &RedisCache{
		client:    client,
		ttl:       ttl,
		namespace: namespace,
		metrics:   metricsRecorder{metrics: metrics, layer: "redis"},
	}
}

func (c *RedisCache) key(key string) string {
	if c.namespace == "" {
		return key
	}
	return c.namespace + ":" + key
}

// Get implements Cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidCacheKey
	}
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.miss()
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	c.metrics.hit()
	return data, nil
}

// Set implements Cache
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrInvalidCacheKey
	}
	if err := c.client.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// InvalidatePrefix implements Cache using SCAN so large keyspaces are not blocked
func (c *RedisCache) InvalidatePrefix(ctx context.Context, prefixes ...string) (int, error) {
	removed := 0
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		pattern := escapeGlob(c.key(prefix)) + "*"
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			n, err := c.client.Del(ctx, iter.Val()).Result()
			if err != nil {
				return removed, fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
			}
			removed += int(n)
		}
		if err := iter.Err(); err != nil {
			return removed, fmt.Errorf("scan failed for pattern %s: %w", pattern, err)
		}
	}
	c.metrics.invalidated(removed)
	return removed, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
