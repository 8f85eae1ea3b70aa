// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
//	httputil.WriteSuccess(w, league)
//	httputil.WriteCreated(w, team)
//	httputil.WriteAppError(w, r, err) // apperr -> 400/403/404/409, else 500
//
// Validation failures render as:
//
//	{"error":"validation failed","fields":{"params.dias":"..."}}
//
// # Request Parsing
//
//	var req createLeagueRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//	id, ok := httputil.ParsePathStringOrError(w, r, "id")
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware,
//		httputil.MaxBytesMiddleware(1<<20),
//	)
//
// RequestIDMiddleware must run before LoggingMiddleware so the id is logged.
package httputil
