package middleware

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/arbitros/designaciones/pkg/auth"
	"github.com/arbitros/designaciones/pkg/contextkeys"
	"github.com/arbitros/designaciones/pkg/httputil"
	"github.com/arbitros/designaciones/pkg/observability"
	"github.com/arbitros/designaciones/pkg/rbac"
)

// AuthMiddleware resolves the caller identity on every request
type AuthMiddleware struct {
	resolver auth.Resolver
	optional bool // If true, allow requests without auth
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(resolver auth.Resolver, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.resolver.Resolve(r)
		if err != nil {
			if m.optional && errors.Is(err, auth.ErrUnauthenticated) && !hasCredentials(r) {
				next.ServeHTTP(w, r)
				return
			}
			observability.LoggerFrom(r.Context()).WithError(err).Debug("authentication failed")
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}

		r = httputil.AddLogFields(r, logrus.Fields{
			"uid":  id.UID,
			"role": id.Role,
		})
		ctx := contextkeys.WithIdentity(r.Context(), id)
		ctx = contextkeys.WithUserID(ctx, id.UID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func hasCredentials(r *http.Request) bool {
	if r.Header.Get("Authorization") != "" || r.Header.Get(auth.HeaderUserID) != "" {
		return true
	}
	_, err := r.Cookie(auth.SessionCookieName)
	return err == nil
}

// GetIdentity extracts the caller identity from request
func GetIdentity(r *http.Request) (auth.Identity, bool) {
	return contextkeys.GetIdentity(r.Context())
}

// RequireRole creates middleware that admits only the listed roles
func RequireRole(roles ...rbac.Role) func(http.Handler) http.Handler {
	allowed := make(map[rbac.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r)
			if !ok || !allowed[id.Role] {
				httputil.WriteForbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAction creates middleware that checks the permission matrix
func RequireAction(action rbac.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r)
			if !ok || !rbac.Can(id.Role, action) {
				httputil.WriteForbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
