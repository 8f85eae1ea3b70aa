package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/arbitros/designaciones/pkg/httputil"
	"github.com/arbitros/designaciones/pkg/middleware"
	"github.com/arbitros/designaciones/pkg/observability"
	"github.com/arbitros/designaciones/pkg/rbac"
	"github.com/arbitros/designaciones/pkg/repository"
	"github.com/arbitros/designaciones/pkg/scope"
	"github.com/arbitros/designaciones/pkg/suggest"
)

// Server represents our API server
type Server struct {
	router      *mux.Router
	repos       *repository.Repositories
	suggestions *suggest.Service
	switcher    *scope.Switcher
	metrics     *observability.Metrics
}

// NewServer creates a new API server. metrics may be nil.
func NewServer(repos *repository.Repositories, suggestions *suggest.Service, switcher *scope.Switcher, metrics *observability.Metrics) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		repos:       repos,
		suggestions: suggestions,
		switcher:    switcher,
		metrics:     metrics,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(observability.RouteSpanMiddleware)
	if s.metrics != nil {
		api.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}

	create := middleware.RequireAction(rbac.ActionDesignacionesCreate)
	update := middleware.RequireAction(rbac.ActionDesignacionesUpdate)

	// Session
	api.HandleFunc("/me", s.getMe).Methods("GET")
	api.HandleFunc("/scope/active-delegate", s.setActiveDelegate).Methods("PUT")
	api.HandleFunc("/scope/active-delegate", s.clearActiveDelegate).Methods("DELETE")

	// Competition structure
	api.Handle("/leagues", create(http.HandlerFunc(s.createLeague))).Methods("POST")
	api.HandleFunc("/leagues", s.listLeagues).Methods("GET")
	api.HandleFunc("/leagues/{id}", s.getLeague).Methods("GET")
	api.Handle("/leagues/{id}", update(http.HandlerFunc(s.updateLeague))).Methods("PUT")
	api.Handle("/leagues/{id}/groups", create(http.HandlerFunc(s.createGroup))).Methods("POST")
	api.HandleFunc("/leagues/{id}/groups", s.listGroups).Methods("GET")
	api.Handle("/groups/{id}/teams", create(http.HandlerFunc(s.createTeam))).Methods("POST")
	api.HandleFunc("/groups/{id}/teams", s.listTeams).Methods("GET")
	api.Handle("/teams/{id}/tier", update(http.HandlerFunc(s.setTeamTier))).Methods("PUT")
	api.Handle("/groups/{id}/matchdays", create(http.HandlerFunc(s.createMatchday))).Methods("POST")
	api.HandleFunc("/groups/{id}/matchdays", s.listMatchdays).Methods("GET")
	api.Handle("/matchdays/{id}/matches", create(http.HandlerFunc(s.createMatch))).Methods("POST")
	api.HandleFunc("/matchdays/{id}/matches", s.listMatches).Methods("GET")

	// Venues and referees
	api.Handle("/venues", create(http.HandlerFunc(s.createVenue))).Methods("POST")
	api.HandleFunc("/venues", s.listVenues).Methods("GET")
	api.Handle("/referees", create(http.HandlerFunc(s.createReferee))).Methods("POST")
	api.HandleFunc("/referees", s.listReferees).Methods("GET")

	// Internal rules
	api.HandleFunc("/referees/{id}/rules", s.listRules).Methods("GET")
	api.HandleFunc("/referees/{id}/rules", s.createRule).Methods("POST")
	api.HandleFunc("/rules/{id}", s.updateRule).Methods("PUT")
	api.HandleFunc("/rules/{id}/enabled", s.setRuleEnabled).Methods("PATCH")

	// Designations
	api.HandleFunc("/matches/{id}", s.getMatch).Methods("GET")
	api.HandleFunc("/matches/{id}/mds", s.getMatchMDS).Methods("GET")
	api.HandleFunc("/matches/{id}/suggestions", s.getSuggestions).Methods("GET")
	api.HandleFunc("/matches/{id}/designation", s.assignReferee).Methods("PUT")
	api.HandleFunc("/matches/{id}/designation", s.unassignReferee).Methods("DELETE")
}

// ServeHTTP implements the http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the route table, mainly for tests
func (s *Server) Router() *mux.Router {
	return s.router
}

// requestScope returns the scope resolved by scope.Middleware. A request that
// reached a handler without one is refused.
func requestScope(w http.ResponseWriter, r *http.Request) (scope.Scope, bool) {
	sc, ok := scope.FromContext(r.Context())
	if !ok {
		httputil.WriteForbidden(w)
		return scope.Scope{}, false
	}
	return sc, true
}
