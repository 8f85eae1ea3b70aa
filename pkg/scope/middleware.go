package scope

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/arbitros/designaciones/pkg/contextkeys"
	"github.com/arbitros/designaciones/pkg/httputil"
	"github.com/arbitros/designaciones/pkg/observability"
	"github.com/arbitros/designaciones/pkg/rbac"
)

// Middleware resolves the request scope from the identity placed in the context
// by the auth middleware and the active delegate cookie. Requests without an
// identity are denied.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := contextkeys.GetIdentity(r.Context())
		if !ok {
			httputil.WriteForbidden(w)
			return
		}

		requested := ReadCookie(r)
		if id.Role == rbac.RoleDelegado && requested != "" && requested != id.DelegateID {
			observability.LoggerFrom(r.Context()).WithFields(logrus.Fields{
				"requested": requested,
				"delegate":  id.DelegateID,
			}).Warn("ignoring active delegate override from DELEGADO")
		}
		if id.Role == rbac.RoleSuperusuario && requested != "" && !ValidDelegateID(requested) {
			observability.LoggerFrom(r.Context()).WithField("requested", requested).Warn("ignoring malformed active delegate cookie")
			requested = ""
		}

		s, err := Resolve(id, requested)
		if err != nil {
			httputil.WriteForbidden(w)
			return
		}

		r = httputil.AddLogFields(r, logrus.Fields{"scope": s.Key()})
		next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), s)))
	})
}

// WithScope stores s in ctx
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, contextkeys.ScopeKey, s)
}

// FromContext returns the scope stored by Middleware
func FromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(contextkeys.ScopeKey).(Scope)
	return s, ok
}
