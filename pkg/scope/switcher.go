package scope

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/arbitros/designaciones/pkg/apperr"
	"github.com/arbitros/designaciones/pkg/cache"
	"github.com/arbitros/designaciones/pkg/observability"
	"github.com/arbitros/designaciones/pkg/rbac"
)

// Switcher changes the SUPERUSUARIO active delegate
type Switcher struct {
	cache   cache.Cache
	cookie  CookieOptions
	metrics *observability.Metrics
}

// NewSwitcher creates a Switcher. c and metrics may be nil.
func NewSwitcher(c cache.Cache, cookie CookieOptions, metrics *observability.Metrics) *Switcher {
	return &Switcher{
		cache:   c,
		cookie:  cookie,
		metrics: metrics,
	}
}

// Cookie returns the cookie attributes used by the switcher
func (s *Switcher) Cookie() CookieOptions {
	return s.cookie
}

// Switch moves current to newActive. An empty newActive selects the unscoped view.
// Cached results of the previous and the new scope are removed before the cookie
// is written, so a failed invalidation leaves the selection unchanged.
func (s *Switcher) Switch(ctx context.Context, w http.ResponseWriter, current Scope, newActive string) (Scope, error) {
	if current.Role != rbac.RoleSuperusuario || current.UID == "" {
		return Scope{}, apperr.Forbidden()
	}

	newActive = strings.TrimSpace(newActive)
	if newActive != "" && !ValidDelegateID(newActive) {
		return Scope{}, apperr.FieldError("delegateId", "invalid delegate id")
	}

	next := current
	next.ActiveDelegateID = newActive
	next.Effective = newActive

	if s.cache != nil {
		prefixes := []string{current.Prefix()}
		if next.Prefix() != current.Prefix() {
			prefixes = append(prefixes, next.Prefix())
		}
		removed, err := s.cache.InvalidatePrefix(ctx, prefixes...)
		if err != nil {
			return Scope{}, fmt.Errorf("failed to invalidate scope cache: %w", err)
		}
		observability.LoggerFrom(ctx).WithFields(logrus.Fields{
			"prefixes": prefixes,
			"removed":  removed,
		}).Debug("scope cache invalidated")
	}

	if newActive == "" {
		ClearCookie(w, s.cookie)
	} else {
		WriteCookie(w, newActive, s.cookie)
	}

	if s.metrics != nil {
		s.metrics.ScopeSwitchesTotal.Inc()
	}
	observability.LoggerFrom(ctx).WithFields(logrus.Fields{
		"from": current.Key(),
		"to":   next.Key(),
	}).Info("active delegate switched")

	return next, nil
}
