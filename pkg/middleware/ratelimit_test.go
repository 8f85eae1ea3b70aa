package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbitros/designaciones/pkg/rbac"
)

func TestRateLimiter_TokenBucket(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute, BurstSize: 1})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "user:a")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, _ := rl.Allow(ctx, "user:a")
	assert.False(t, ok)

	ok, _ = rl.Allow(ctx, "user:b")
	assert.True(t, ok, "keys are independent")

	now = now.Add(30 * time.Second)
	ok, _ = rl.Allow(ctx, "user:a")
	assert.True(t, ok, "refilled after half a window")

	now = now.Add(5 * time.Minute)
	rl.Cleanup()
	assert.Empty(t, rl.buckets)
}

// failingLimiter always errors
type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) { return false, errors.New("down") }
func (failingLimiter) Limit() int                                 { return 1 }
func (failingLimiter) Window() time.Duration                      { return time.Second }

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Hour})
	handler := NewRateLimitMiddleware(limiter).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), rbac.RoleDelegado)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "3600", rr.Header().Get("Retry-After"))

	// anonymous callers are keyed by IP
	anon := httptest.NewRequest(http.MethodGet, "/", nil)
	anon.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, anon)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	handler := NewRateLimitMiddleware(failingLimiter{}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestDistributedRateLimiter(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	rl := NewDistributedRateLimiter(client, &RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute}, "")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "user:a")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, "user:a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:user:a"))

	mr.FastForward(time.Minute + time.Second)
	ok, err = rl.Allow(ctx, "user:a")
	require.NoError(t, err)
	assert.True(t, ok, "window expired")

	require.NoError(t, rl.Reset(ctx, "user:a"))
	assert.False(t, mr.Exists("ratelimit:user:a"))

	mr.Close()
	ok, err = rl.Allow(ctx, "user:a")
	assert.Error(t, err)
	assert.True(t, ok, "fails open")
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:5555"
	assert.Equal(t, "192.168.1.5", getClientIP(req))

	req.Header.Set("X-Real-IP", "10.1.1.1")
	assert.Equal(t, "10.1.1.1", getClientIP(req))
}
