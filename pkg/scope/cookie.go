package scope

import (
	"net/http"
	"strings"
	"time"
)

const (
	// CookieName holds the SUPERUSUARIO active delegate selection
	CookieName = "activeDelegateId"

	// CookieMaxAge is how long a selection survives without being rewritten
	CookieMaxAge = 30 * 24 * time.Hour
)

// CookieOptions are the deployment-dependent cookie attributes
type CookieOptions struct {
	Secure bool
	Domain string
}

// ReadCookie returns the active delegate selection carried by r, or ""
func ReadCookie(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

// WriteCookie persists delegateID as the active delegate
func WriteCookie(w http.ResponseWriter, delegateID string, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    delegateID,
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   int(CookieMaxAge / time.Second),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the active delegate selection
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
