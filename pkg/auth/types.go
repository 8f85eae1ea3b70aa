package auth

import (
	"errors"

	"github.com/arbitros/designaciones/pkg/rbac"
)

// ErrUnauthenticated is returned when a request carries no usable credentials
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the authenticated caller as asserted by the identity provider.
// Role and DelegateID come from verified claims, never from request bodies.
type Identity struct {
	UID        string    `json:"uid"`
	Email      string    `json:"email,omitempty"`
	Role       rbac.Role `json:"role"`
	DelegateID string    `json:"delegateId,omitempty"`
}

// Valid reports whether the identity can be used for authorization
func (id Identity) Valid() bool {
	return id.UID != "" && id.Role.Valid()
}

// Claims are the custom token claims read from the identity provider
type Claims struct {
	Subject    string `json:"sub"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	DelegateID string `json:"delegateId"`
}

// Identity converts verified claims. Unknown roles fail.
func (c Claims) Identity() (Identity, error) {
	if c.Subject == "" {
		return Identity{}, errors.New("token has no subject")
	}
	role, ok := rbac.ParseRole(c.Role)
	if !ok {
		return Identity{}, errors.New("token has no valid role claim")
	}
	return Identity{
		UID:        c.Subject,
		Email:      c.Email,
		Role:       role,
		DelegateID: c.DelegateID,
	}, nil
}
