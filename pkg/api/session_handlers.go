package api

import (
	"net/http"

	"github.com/arbitros/designaciones/pkg/auth"
	"github.com/arbitros/designaciones/pkg/httputil"
	"github.com/arbitros/designaciones/pkg/middleware"
	"github.com/arbitros/designaciones/pkg/rbac"
	"github.com/arbitros/designaciones/pkg/scope"
)

// MeResponse describes the caller so the dashboard can render affordances
type MeResponse struct {
	Identity             auth.Identity        `json:"identity"`
	Scope                scope.Scope          `json:"scope"`
	Permissions          map[rbac.Action]bool `json:"permissions"`
	CanEditDesignaciones bool                 `json:"canEditDesignaciones"`
	CanWriteRules        bool                 `json:"canWriteRules"`
	// TenantAccess is false when the scope denies tenant reads despite a view grant
	TenantAccess bool `json:"tenantAccess"`
}

// ActiveDelegateRequest selects the delegate a SUPERUSUARIO works as
type ActiveDelegateRequest struct {
	DelegateID string `json:"delegateId"`
}

// getMe handles GET /api/me
func (s *Server) getMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r)
	if !ok {
		httputil.WriteForbidden(w)
		return
	}
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}

	permissions := make(map[rbac.Action]bool, len(rbac.Actions()))
	for _, action := range rbac.Actions() {
		permissions[action] = rbac.Can(id.Role, action)
	}
	httputil.WriteSuccess(w, MeResponse{
		Identity:             id,
		Scope:                sc,
		Permissions:          permissions,
		CanEditDesignaciones: rbac.CanEditDesignaciones(id.Role),
		CanWriteRules:        rbac.CanWriteRules(id.Role),
		TenantAccess:         sc.Require() == nil,
	})
}

// setActiveDelegate handles PUT /api/scope/active-delegate
func (s *Server) setActiveDelegate(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	var req ActiveDelegateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.DelegateID == "" {
		httputil.WriteValidationFields(w, map[string]string{"delegateId": "required"})
		return
	}
	s.switchScope(w, r, sc, req.DelegateID)
}

// clearActiveDelegate handles DELETE /api/scope/active-delegate
func (s *Server) clearActiveDelegate(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	s.switchScope(w, r, sc, "")
}

func (s *Server) switchScope(w http.ResponseWriter, r *http.Request, sc scope.Scope, delegateID string) {
	next, err := s.switcher.Switch(r.Context(), w, sc, delegateID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, next)
}
