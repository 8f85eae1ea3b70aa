// Package middleware provides HTTP middleware for authentication, authorization, and rate limiting.
//
// # Middleware Components
//
// AuthMiddleware resolves the caller identity and stores it in the request context:
//
//	authn := middleware.NewAuthMiddleware(auth.NewOIDCResolver(verifier), false)
//	router.Use(authn.Handler)
//
// RequireRole and RequireAction guard individual routes:
//
//	r.Handle("/api/scope/active-delegate", middleware.RequireRole(rbac.RoleSuperusuario)(h))
//	r.Handle("/api/matches/{id}/designation", middleware.RequireAction(rbac.ActionDesignacionesUpdate)(h))
//
// Denials always answer 403 {"error":"forbidden"}.
//
// # Rate Limiting
//
// RateLimitMiddleware keys on the caller uid, or the client IP when no identity
// is present. RateLimiter is an in-process token bucket; DistributedRateLimiter
// is a Redis fixed window shared across instances. Limiter errors fail open.
//
// # Related Packages
//
//   - pkg/auth: identity resolution
//   - pkg/rbac: permission matrix
//   - pkg/scope: delegate scope resolution, installed after AuthMiddleware
package middleware
