// Package api provides the HTTP JSON API behind the designations dashboard.
//
// # Overview
//
// The API exposes the competition structure of a delegate (leagues, groups,
// teams, matchdays and matches), their venues and referees, the internal rules
// attached to referees, and the designation of referees to matches.
//
// Every handler works on the scope.Scope that scope.Middleware resolved from
// the authenticated identity and the active delegate cookie. The server does
// not authenticate by itself; mount it behind middleware.AuthMiddleware and
// scope.Middleware:
//
//	srv := api.NewServer(repos, suggest.NewService(repos, metrics), switcher, metrics)
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware,
//		authMiddleware.Handler,
//		scope.Middleware,
//	)(srv)
//
// # API Endpoints
//
// Session:
//
//	GET    /api/me                          identity, scope and permissions
//	PUT    /api/scope/active-delegate       SUPERUSUARIO selects a delegate
//	DELETE /api/scope/active-delegate       back to the unscoped view
//
// Competition structure:
//
//	POST/GET /api/leagues                   GET/PUT /api/leagues/{id}
//	POST/GET /api/leagues/{id}/groups       POST/GET /api/groups/{id}/teams
//	PUT      /api/teams/{id}/tier           POST/GET /api/groups/{id}/matchdays
//	POST/GET /api/matchdays/{id}/matches    POST/GET /api/venues
//	POST/GET /api/referees
//
// Rules and designations:
//
//	GET/POST /api/referees/{id}/rules       PUT   /api/rules/{id}
//	PATCH    /api/rules/{id}/enabled
//	GET      /api/matches/{id}              GET   /api/matches/{id}/mds
//	GET      /api/matches/{id}/suggestions
//	PUT/DELETE /api/matches/{id}/designation
//
// # Errors
//
// Errors use the shape {"error": "...", "fields": {...}}. Validation failures
// answer 400 with per-field messages, authorization failures 403 with the
// generic message "forbidden", entities outside the caller's scope 404, and
// uniqueness violations 409.
package api
