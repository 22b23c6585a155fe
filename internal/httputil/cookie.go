package httputil

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the session credential.
const SessionCookieName = "wc_session"

// CookieConfig holds cookie configuration.
type CookieConfig struct {
	Domain string
	Path   string
	Secure bool
}

// DefaultCookieConfig returns the production cookie configuration. SameSite
// is always None: the verification flow is driven by cross-site polling while
// the game webhook completes out of band, and None requires Secure.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Path:   "/",
		Secure: true,
	}
}

// SetSessionCookie sets the httpOnly session cookie.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}

// ClearSessionCookie clears the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}

// GetSessionFromCookie extracts the session credential from the cookie.
func GetSessionFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
