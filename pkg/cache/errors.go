package cache

import "errors"

var (
	// ErrCacheMiss is returned when a cache key is not found
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidCacheKey is returned for empty keys
	ErrInvalidCacheKey = errors.New("invalid cache key")
)
