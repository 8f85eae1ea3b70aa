// Package scope decides which delegate's data a request may touch.
//
// # Overview
//
// Every tenant-scoped read and write takes a Scope. It is built per request by
// Middleware from the verified identity and, for SUPERUSUARIO only, the
// activeDelegateId cookie:
//
//	DELEGADO      effective = own delegate id; client input ignored
//	SUPERUSUARIO  effective = cookie value; empty means all delegates
//	ASISTENTE     not applicable; tenant operations are denied
//	ARBITRO       not applicable; tenant operations are denied
//
// A request with no identity never resolves to the all-delegates view.
//
// # Switching
//
// Switcher.Switch removes cached entries under the previous and the new scope
// prefix, then writes the cookie (HttpOnly, SameSite=Lax, 30 days).
//
// # Cache keys
//
//	sc.CacheKey("leagues")          // scope:del_a:leagues
//	unscoped.CacheKey("referees")   // scope:all:referees
package scope
