// Package contextkeys provides centralized context key definitions
//
// All context keys used across the service are defined here so their producers
// and consumers are discoverable in one place.
//
// USAGE PATTERN:
//
//	import "github.com/arbitros/designaciones/pkg/contextkeys"
//	ctx = contextkeys.WithIdentity(ctx, id)
//	id, ok := contextkeys.GetIdentity(ctx)
package contextkeys

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/arbitros/designaciones/pkg/auth"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains auth.Identity
	// Set by: middleware.AuthMiddleware (pkg/middleware/auth.go)
	// Required by: scope middleware, every /api handler
	IdentityKey Key = "identity"

	// ScopeKey contains scope.Scope
	// Set by: scope.Middleware (pkg/scope/middleware.go)
	// Required by: handlers that touch tenant data
	// Accessed only through scope.WithScope and scope.FromContext, which own the type
	ScopeKey Key = "delegate_scope"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, error responses
	RequestIDKey Key = "request_id"

	// UserIDKey contains the caller uid string
	// Set by: middleware.AuthMiddleware
	// Used by: Logger, audit fields (updatedBy, assignedBy)
	UserIDKey Key = "user_id"

	// LoggerKey contains *logrus.Entry
	// Set by: httputil.LoggingMiddleware
	// Used by: handlers and repositories that log with request fields
	LoggerKey Key = "logger"
)

// WithIdentity adds the caller identity to the context
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// GetIdentity retrieves the caller identity from context
func GetIdentity(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(auth.Identity)
	return id, ok
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithUserID adds user ID to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithLogger adds a request-scoped log entry to the context
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, LoggerKey, entry)
}

// GetLogger retrieves the request-scoped log entry from context
func GetLogger(ctx context.Context) (*logrus.Entry, bool) {
	entry, ok := ctx.Value(LoggerKey).(*logrus.Entry)
	return entry, ok && entry != nil
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetUserID retrieves user ID from context
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}
