package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbitros/designaciones/pkg/observability"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func seed(t *testing.T, c Cache, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, c.Set(context.Background(), k, []byte(k)))
	}
}

func assertPresent(t *testing.T, c Cache, key string, present bool) {
	t.Helper()
	_, err := c.Get(context.Background(), key)
	if present {
		assert.NoError(t, err, key)
	} else {
		assert.ErrorIs(t, err, ErrCacheMiss, key)
	}
}

func TestCaches_InvalidatePrefix(t *testing.T) {
	_, client := newRedis(t)

	caches := map[string]Cache{
		"memory": NewMemoryCache(DefaultConfig(), nil),
		"redis":  NewRedisCache(client, "test", time.Minute, nil),
		"tiered": NewTieredCache(NewMemoryCache(DefaultConfig(), nil), NewRedisCache(client, "tiered", time.Minute, nil)),
	}

	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, c, "scope:del_a:leagues", "scope:del_a:teams:g1", "scope:del_c:leagues", "scope:all:leagues")

			removed, err := c.InvalidatePrefix(ctx, "scope:del_a:", "scope:all:")
			require.NoError(t, err)
			assert.GreaterOrEqual(t, removed, 3)

			assertPresent(t, c, "scope:del_a:leagues", false)
			assertPresent(t, c, "scope:del_a:teams:g1", false)
			assertPresent(t, c, "scope:all:leagues", false)
			assertPresent(t, c, "scope:del_c:leagues", true)
		})
	}
}

func TestMemoryCache_TTLAndMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	c := NewMemoryCache(Config{MaxEntries: 2, TTL: 20 * time.Millisecond}, metrics)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("memory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheMissesTotal.WithLabelValues("memory")))

	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, "a")
		return errors.Is(err, ErrCacheMiss)
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.CacheMissesTotal.WithLabelValues("memory")), 2.0)

	_, err = c.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidCacheKey)
	assert.ErrorIs(t, c.Set(ctx, "", nil), ErrInvalidCacheKey)
}

func TestRedisCache_NamespaceAndTTL(t *testing.T) {
	mr, client := newRedis(t)
	c := NewRedisCache(client, "designaciones", time.Minute, nil)
	ctx := context.Background()

	seed(t, c, "scope:del_a:x")
	assert.True(t, mr.Exists("designaciones:scope:del_a:x"))
	assert.Equal(t, time.Minute, mr.TTL("designaciones:scope:del_a:x"))

	removed, err := c.InvalidatePrefix(ctx, "scope:del_a:", "")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.False(t, mr.Exists("designaciones:scope:del_a:x"))
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `scope:del\*\?\[x\]\\:`, escapeGlob(`scope:del*?[x]\:`))
	assert.Equal(t, "scope:del_a:", escapeGlob("scope:del_a:"))
}

func TestTieredCache_SharedOutageIsMiss(t *testing.T) {
	mr, client := newRedis(t)
	c := NewTieredCache(NewMemoryCache(DefaultConfig(), nil), NewRedisCache(client, "ns", time.Minute, nil))
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "ns:k", "v", time.Minute).Err())
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got, "filled from shared layer")

	mr.Close()
	got, err = c.Get(ctx, "k")
	require.NoError(t, err, "served from local layer")
	assert.Equal(t, []byte("v"), got)

	_, err = c.Get(ctx, "other")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestFetch(t *testing.T) {
	c := NewMemoryCache(DefaultConfig(), nil)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"liga norte"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(ctx, c, "scope:del_a:leagues", load)
		require.NoError(t, err)
		assert.Equal(t, []string{"liga norte"}, got)
	}
	assert.Equal(t, 1, calls)

	Invalidate(ctx, c, "scope:del_a:")
	_, err := Fetch(ctx, c, "scope:del_a:leagues", load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	boom := errors.New("boom")
	_, err = Fetch(ctx, c, "other", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assertPresent(t, c, "other", false)

	got, err := Fetch[int](ctx, nil, "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}
