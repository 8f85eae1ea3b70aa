// Package cache provides the TTL cache in front of scoped repository reads.
//
// Keys are built by scope.Scope.CacheKey, so every entry starts with
// "scope:<delegate|all>:". Switching the active delegate or writing tenant data
// removes whole prefixes with InvalidatePrefix before the response is sent.
//
// MemoryCache is an expirable LRU local to the process. RedisCache shares
// entries across instances and invalidates with SCAN. TieredCache combines both:
//
//	local := cache.NewMemoryCache(cache.DefaultConfig(), metrics)
//	shared := cache.NewRedisCache(redisClient, "designaciones", time.Minute, metrics)
//	c := cache.NewTieredCache(local, shared)
//
//	leagues, err := cache.Fetch(ctx, c, sc.CacheKey("leagues"), loadLeagues)
//
// Local layers on other instances are only cleared by TTL expiry.
package cache
