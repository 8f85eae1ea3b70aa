package scope

import (
	"regexp"
	"strings"

	"github.com/arbitros/designaciones/pkg/apperr"
	"github.com/arbitros/designaciones/pkg/auth"
	"github.com/arbitros/designaciones/pkg/rbac"
)

// allScopes is the cache key segment for an unscoped SUPERUSUARIO view
const allScopes = "all"

var delegateIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Scope is the tenant view of one request. It is assembled server-side from the
// verified identity; only SUPERUSUARIO callers can influence ActiveDelegateID.
type Scope struct {
	UID              string    `json:"uid"`
	Role             rbac.Role `json:"role"`
	UserDelegateID   string    `json:"userDelegateId,omitempty"`
	ActiveDelegateID string    `json:"activeDelegateId,omitempty"`
	Effective        string    `json:"effectiveDelegateId,omitempty"`
	Applicable       bool      `json:"applicable"`
}

// ValidDelegateID reports whether s can be used as a delegate id and cookie value
func ValidDelegateID(s string) bool {
	return delegateIDPattern.MatchString(s)
}

// Resolve computes the scope for id. requestedActive is the client-held active
// delegate and is only honoured for SUPERUSUARIO. Invalid identities fail closed.
func Resolve(id auth.Identity, requestedActive string) (Scope, error) {
	if !id.Valid() {
		return Scope{}, apperr.Forbidden()
	}

	s := Scope{
		UID:            id.UID,
		Role:           id.Role,
		UserDelegateID: id.DelegateID,
	}

	switch id.Role {
	case rbac.RoleDelegado:
		if id.DelegateID == "" {
			return Scope{}, apperr.Forbidden()
		}
		s.ActiveDelegateID = id.DelegateID
		s.Effective = id.DelegateID
		s.Applicable = true
	case rbac.RoleSuperusuario:
		active := strings.TrimSpace(requestedActive)
		if active != "" && !ValidDelegateID(active) {
			return Scope{}, apperr.FieldError("delegateId", "invalid delegate id")
		}
		s.ActiveDelegateID = active
		s.Effective = active
		s.Applicable = true
	default:
		// ASISTENTE and ARBITRO have no delegate concept
	}
	return s, nil
}

// Filter returns the delegate every tenant query must be restricted to.
// scoped is false for an unscoped SUPERUSUARIO view and for non-applicable scopes,
// so callers must check Require first.
func (s Scope) Filter() (delegateID string, scoped bool) {
	return s.Effective, s.Effective != ""
}

// Require fails closed for scopes that cannot touch tenant data
func (s Scope) Require() error {
	if !s.Applicable || !s.Role.Valid() {
		return apperr.Forbidden()
	}
	return nil
}

// Allows reports whether a document owned by delegateID is visible in s
func (s Scope) Allows(delegateID string) bool {
	if s.Require() != nil {
		return false
	}
	effective, scoped := s.Filter()
	return !scoped || delegateID == effective
}

// Unscoped reports whether s is the all-tenants view
func (s Scope) Unscoped() bool {
	return s.Applicable && s.Effective == ""
}

// Is reports whether two scopes see the same tenant data
func (s Scope) Is(other Scope) bool {
	return s.Applicable == other.Applicable && s.Effective == other.Effective
}

// Key is the cache key segment naming s
func (s Scope) Key() string {
	if s.Effective == "" {
		return allScopes
	}
	return s.Effective
}

// Prefix is the prefix shared by every cache key built from s
func (s Scope) Prefix() string {
	return PrefixFor(s.Effective)
}

// CacheKey builds "scope:<effective|all>:<parts>"
func (s Scope) CacheKey(parts ...string) string {
	return s.Prefix() + strings.Join(parts, ":")
}

// PrefixFor returns the cache prefix for delegateID, or the unscoped prefix when empty
func PrefixFor(delegateID string) string {
	if delegateID == "" {
		return "scope:" + allScopes + ":"
	}
	return "scope:" + delegateID + ":"
}
