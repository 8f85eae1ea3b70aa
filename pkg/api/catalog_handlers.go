package api

import (
	"net/http"

	"github.com/arbitros/designaciones/pkg/httputil"
	"github.com/arbitros/designaciones/pkg/repository"
)

// TierRequest sets or clears a team tier
type TierRequest struct {
	Tier *string `json:"tier"`
}

// createLeague handles POST /api/leagues
func (s *Server) createLeague(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	var in repository.LeagueInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}
	league, err := s.repos.Leagues.Create(r.Context(), sc, in, sc.UID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteCreated(w, league)
}

// listLeagues handles GET /api/leagues
func (s *Server) listLeagues(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	leagues, err := s.repos.Leagues.List(r.Context(), sc)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, leagues)
}

// getLeague handles GET /api/leagues/{id}
func (s *Server) getLeague(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	league, err := s.repos.Leagues.Get(r.Context(), sc, id)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, league)
}

// updateLeague handles PUT /api/leagues/{id}
func (s *Server) updateLeague(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var in repository.LeagueInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}
	league, err := s.repos.Leagues.Update(r.Context(), sc, id, in, sc.UID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, league)
}

// createGroup handles POST /api/leagues/{id}/groups
func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	leagueID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var in repository.GroupInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}
	group, err := s.repos.Groups.Create(r.Context(), sc, leagueID, in)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteCreated(w, group)
}

// listGroups handles GET /api/leagues/{id}/groups
func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	leagueID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	groups, err := s.repos.Groups.ListByLeague(r.Context(), sc, leagueID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, groups)
}

// createTeam handles POST /api/groups/{id}/teams
func (s *Server) createTeam(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	groupID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var in repository.TeamInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}
	team, err := s.repos.Teams.Create(r.Context(), sc, groupID, in)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteCreated(w, team)
}

// listTeams handles GET /api/groups/{id}/teams
func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	groupID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	teams, err := s.repos.Teams.ListByGroup(r.Context(), sc, groupID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, teams)
}

// setTeamTier handles PUT /api/teams/{id}/tier. A null tier clears it.
func (s *Server) setTeamTier(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req TierRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	team, err := s.repos.Teams.SetTier(r.Context(), sc, id, req.Tier)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, team)
}

// createMatchday handles POST /api/groups/{id}/matchdays
func (s *Server) createMatchday(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	groupID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var in repository.MatchdayInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}
	matchday, err := s.repos.Matchdays.Create(r.Context(), sc, groupID, in)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteCreated(w, matchday)
}

// listMatchdays handles GET /api/groups/{id}/matchdays
func (s *Server) listMatchdays(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	groupID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	matchdays, err := s.repos.Matchdays.ListByGroup(r.Context(), sc, groupID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, matchdays)
}

// createMatch handles POST /api/matchdays/{id}/matches
func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	matchdayID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var in repository.MatchInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}
	match, err := s.repos.Matches.Create(r.Context(), sc, matchdayID, in)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteCreated(w, match)
}

// listMatches handles GET /api/matchdays/{id}/matches
func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	matchdayID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	matches, err := s.repos.Matches.ListByMatchday(r.Context(), sc, matchdayID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, matches)
}

// createVenue handles POST /api/venues
func (s *Server) createVenue(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	var in repository.VenueInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}
	venue, err := s.repos.Venues.Create(r.Context(), sc, in)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteCreated(w, venue)
}

// listVenues handles GET /api/venues
func (s *Server) listVenues(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	venues, err := s.repos.Venues.List(r.Context(), sc)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, venues)
}

// createReferee handles POST /api/referees
func (s *Server) createReferee(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	var in repository.RefereeInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}
	referee, err := s.repos.Referees.Create(r.Context(), sc, in)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteCreated(w, referee)
}

// listReferees handles GET /api/referees?active=true
func (s *Server) listReferees(w http.ResponseWriter, r *http.Request) {
	sc, ok := requestScope(w, r)
	if !ok {
		return
	}
	activeOnly, err := httputil.ParseQueryBool(r, "active", false)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	referees, err := s.repos.Referees.List(r.Context(), sc, activeOnly)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, referees)
}
