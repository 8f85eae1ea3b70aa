// Package auth resolves the caller identity for every dashboard request.
//
// # Overview
//
// The identity provider issues ID tokens carrying two custom claims: role (one
// of SUPERUSUARIO, DELEGADO, ASISTENTE, ARBITRO) and delegateId. The login UI
// stores the token in the __session cookie; API clients may send it as a
// bearer token instead.
//
//	verifier, err := auth.DiscoverOIDCVerifier(ctx, issuerURL, clientID)
//	resolver := auth.NewOIDCResolver(verifier)
//	id, err := resolver.Resolve(r)
//
// HeaderResolver is for deployments behind an authenticating proxy and for
// local development. It reads X-User-Id, X-User-Role and X-Delegate-Id.
//
// Resolvers return ErrUnauthenticated (possibly wrapped) when the request
// carries no valid credentials. The middleware package turns that into a 401.
package auth
