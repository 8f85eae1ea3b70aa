package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/arbitros/designaciones/pkg/rbac"
)

const (
	// SessionCookieName holds the ID token set by the login flow
	SessionCookieName = "__session"

	HeaderUserID     = "X-User-Id"
	HeaderUserRole   = "X-User-Role"
	HeaderDelegateID = "X-Delegate-Id"
	HeaderUserEmail  = "X-User-Email"
)

// Resolver extracts the caller identity from a request
type Resolver interface {
	Resolve(r *http.Request) (Identity, error)
}

// TokenVerifier verifies a raw ID token and returns its claims
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (Claims, error)
}

// OIDCResolver reads an ID token from the session cookie or a bearer header
type OIDCResolver struct {
	verifier TokenVerifier
}

// NewOIDCResolver creates a resolver backed by verifier
func NewOIDCResolver(verifier TokenVerifier) *OIDCResolver {
	return &OIDCResolver{verifier: verifier}
}

// Resolve implements Resolver
func (o *OIDCResolver) Resolve(r *http.Request) (Identity, error) {
	raw := bearerToken(r)
	if raw == "" {
		if c, err := r.Cookie(SessionCookieName); err == nil {
			raw = c.Value
		}
	}
	if raw == "" {
		return Identity{}, ErrUnauthenticated
	}

	claims, err := o.verifier.Verify(r.Context(), raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	id, err := claims.Identity()
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return id, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// OIDCVerifier adapts a go-oidc verifier to TokenVerifier
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier wraps an existing go-oidc verifier
func NewOIDCVerifier(verifier *oidc.IDTokenVerifier) *OIDCVerifier {
	return &OIDCVerifier{verifier: verifier}
}

// DiscoverOIDCVerifier queries the issuer's discovery document
func DiscoverOIDCVerifier(ctx context.Context, issuerURL, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return NewOIDCVerifier(provider.Verifier(&oidc.Config{ClientID: clientID})), nil
}

// Verify implements TokenVerifier
func (v *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (Claims, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Claims{}, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return Claims{}, fmt.Errorf("failed to parse claims: %w", err)
	}
	if claims.Subject == "" {
		claims.Subject = idToken.Subject
	}
	return claims, nil
}

// HeaderResolver trusts identity headers injected by an authenticating proxy.
// It must only be exposed behind that proxy.
type HeaderResolver struct{}

// NewHeaderResolver creates a HeaderResolver
func NewHeaderResolver() *HeaderResolver {
	return &HeaderResolver{}
}

// Resolve implements Resolver
func (HeaderResolver) Resolve(r *http.Request) (Identity, error) {
	uid := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if uid == "" {
		return Identity{}, ErrUnauthenticated
	}
	role, ok := rbac.ParseRole(r.Header.Get(HeaderUserRole))
	if !ok {
		return Identity{}, fmt.Errorf("%w: invalid role header", ErrUnauthenticated)
	}
	return Identity{
		UID:        uid,
		Email:      strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
		Role:       role,
		DelegateID: strings.TrimSpace(r.Header.Get(HeaderDelegateID)),
	}, nil
}
