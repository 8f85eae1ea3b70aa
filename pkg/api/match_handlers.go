package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/arbitros/designaciones/pkg/difficulty"
	"github.com/arbitros/designaciones/pkg/httputil"
	"github.com/arbitros/designaciones/pkg/observability"
	"github.com/arbitros/designaciones/pkg/rbac"
)

// MDSResponse is the difficulty of a match and the tiers it derives from
type MDSResponse struct {
	MatchID  string           `json:"matchId"`
	MDS      *int             `json:"mds"`
	HomeTier *difficulty.Tier `json:"homeTier"`
	AwayTier *difficulty.Tier `json:"awayTier"`
}

// DesignationRequest designates a referee to a match
type DesignationRequest struct {
	RefereeID string `json:"refereeId"`
}

// getMatch handles GET /api/matches/{id}
func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	match, err := s.repos.Matches.Get(r.Context(), sc, id)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, match)
}

// getMatchMDS handles GET /api/matches/{id}/mds
func (s *Server) getMatchMDS(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	match, err := s.repos.Matches.Get(ctx, sc, id)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	home, err := s.repos.Teams.Get(ctx, sc, match.HomeTeamID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	away, err := s.repos.Teams.Get(ctx, sc, match.AwayTeamID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, MDSResponse{
		MatchID:  match.ID,
		MDS:      difficulty.ComputeMatchMDS(home.Tier, away.Tier),
		HomeTier: home.Tier,
		AwayTier: away.Tier,
	})
}

// getSuggestions handles GET /api/matches/{id}/suggestions
func (s *Server) getSuggestions(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	candidates, err := s.suggestions.Suggest(r.Context(), sc, id)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, candidates)
}

// assignReferee handles PUT /api/matches/{id}/designation. Replacing a
// designated referee needs designaciones.override on top of edit rights.
func (s *Server) assignReferee(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	if !rbac.CanEditDesignaciones(sc.Role) {
		httputil.WriteForbidden(w)
		return
	}
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req DesignationRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.RefereeID == "" {
		httputil.WriteValidationFields(w, map[string]string{"refereeId": "required"})
		return
	}

	allowOverride := rbac.Can(sc.Role, rbac.ActionDesignacionesOverride)
	match, err := s.repos.Matches.Assign(r.Context(), sc, id, req.RefereeID, sc.UID, allowOverride)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	s.recordDesignation("assign")
	observability.LoggerFrom(r.Context()).WithFields(logrus.Fields{
		"match_id":   match.ID,
		"referee_id": match.RefereeID,
	}).Info("referee designated")
	httputil.WriteSuccess(w, match)
}

// unassignReferee handles DELETE /api/matches/{id}/designation
func (s *Server) unassignReferee(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	if !rbac.CanEditDesignaciones(sc.Role) {
		httputil.WriteForbidden(w)
		return
	}
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	match, err := s.repos.Matches.Unassign(r.Context(), sc, id, sc.UID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	s.recordDesignation("unassign")
	observability.LoggerFrom(r.Context()).WithField("match_id", match.ID).Info("designation removed")
	httputil.WriteSuccess(w, match)
}

func (s *Server) recordDesignation(operation string) {
	if s.metrics != nil {
		s.metrics.DesignationsTotal.WithLabelValues(operation).Inc()
	}
}
