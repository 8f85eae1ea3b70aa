package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbitros/designaciones/pkg/auth"
	"github.com/arbitros/designaciones/pkg/contextkeys"
	"github.com/arbitros/designaciones/pkg/rbac"
)

// mockResolver is a mock implementation of auth.Resolver for testing
type mockResolver struct {
	ResolveFunc func(r *http.Request) (auth.Identity, error)
}

func (m *mockResolver) Resolve(r *http.Request) (auth.Identity, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(r)
	}
	return auth.Identity{}, auth.ErrUnauthenticated
}

func identityHandler(seen *auth.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := GetIdentity(r); ok {
			*seen = id
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	delegado := auth.Identity{UID: "u1", Role: rbac.RoleDelegado, DelegateID: "del_a"}

	tests := []struct {
		name       string
		resolver   *mockResolver
		optional   bool
		header     string
		wantStatus int
		wantID     auth.Identity
	}{
		{
			name:       "resolved",
			resolver:   &mockResolver{ResolveFunc: func(*http.Request) (auth.Identity, error) { return delegado, nil }},
			wantStatus: http.StatusOK,
			wantID:     delegado,
		},
		{
			name:       "missing credentials",
			resolver:   &mockResolver{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "optional passes anonymous",
			resolver:   &mockResolver{},
			optional:   true,
			wantStatus: http.StatusOK,
		},
		{
			name: "optional still rejects bad token",
			resolver: &mockResolver{ResolveFunc: func(*http.Request) (auth.Identity, error) {
				return auth.Identity{}, errors.Join(auth.ErrUnauthenticated, errors.New("expired"))
			}},
			optional:   true,
			header:     "Bearer stale",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen auth.Identity
			handler := NewAuthMiddleware(tt.resolver, tt.optional).Handler(identityHandler(&seen))

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantID, seen)
		})
	}
}

func TestAuthMiddleware_SetsUserID(t *testing.T) {
	var uid string
	handler := NewAuthMiddleware(&mockResolver{ResolveFunc: func(*http.Request) (auth.Identity, error) {
		return auth.Identity{UID: "u9", Role: rbac.RoleArbitro}, nil
	}}, false).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid = contextkeys.GetUserID(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "u9", uid)
}

func withIdentity(r *http.Request, role rbac.Role) *http.Request {
	return r.WithContext(contextkeys.WithIdentity(r.Context(), auth.Identity{UID: "u", Role: role}))
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(rbac.RoleSuperusuario, rbac.RoleDelegado)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		role rbac.Role
		want int
	}{
		{rbac.RoleSuperusuario, http.StatusOK},
		{rbac.RoleDelegado, http.StatusOK},
		{rbac.RoleAsistente, http.StatusForbidden},
		{rbac.RoleArbitro, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), tt.role))
			assert.Equal(t, tt.want, rr.Code)
		})
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"forbidden"}`, rr.Body.String())
}

func TestRequireAction(t *testing.T) {
	handler := RequireAction(rbac.ActionDesignacionesOverride)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, role := range rbac.Roles() {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, withIdentity(httptest.NewRequest(http.MethodPut, "/", nil), role))
		want := http.StatusForbidden
		if role == rbac.RoleSuperusuario {
			want = http.StatusOK
		}
		require.Equal(t, want, rr.Code, role)
	}
}
