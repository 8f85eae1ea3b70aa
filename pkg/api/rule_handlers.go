package api

import (
	"net/http"

	"github.com/arbitros/designaciones/pkg/httputil"
	"github.com/arbitros/designaciones/pkg/repository"
	"github.com/arbitros/designaciones/pkg/rules"
)

// EnabledRequest toggles a rule
type EnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// listRules handles GET /api/referees/{id}/rules
func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	refereeID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	list, err := s.repos.Rules.ListByReferee(r.Context(), sc, refereeID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, list)
}

// createRule handles POST /api/referees/{id}/rules
func (s *Server) createRule(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	refereeID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var in rules.Input
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}
	rule, err := s.repos.Rules.Save(r.Context(), sc, repository.SaveRuleRequest{
		RefereeID: refereeID,
		Input:     in,
		UpdatedBy: sc.UID,
	})
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteCreated(w, rule)
}

// updateRule handles PUT /api/rules/{id}. The rule keeps its referee.
func (s *Server) updateRule(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var in rules.Input
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}
	rule, err := s.repos.Rules.Save(r.Context(), sc, repository.SaveRuleRequest{
		RuleID:    id,
		Input:     in,
		UpdatedBy: sc.UID,
	})
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, rule)
}

// setRuleEnabled handles PATCH /api/rules/{id}/enabled
func (s *Server) setRuleEnabled(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req EnabledRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		httputil.WriteValidationFields(w, map[string]string{"enabled": "required"})
		return
	}
	rule, err := s.repos.Rules.SetEnabled(r.Context(), sc, id, *req.Enabled, sc.UID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, rule)
}
