package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/weathercraft/weathercraft/internal/auth"
	"github.com/weathercraft/weathercraft/internal/domain"
	"github.com/weathercraft/weathercraft/internal/httputil"
)

type contextKey string

// AccountKey is the context key for the authenticated account.
const AccountKey contextKey = "account"

// Auth creates middleware that validates the session credential on protected
// routes. Checks the Authorization header first, then falls back to the
// session cookie for web clients. A missing or invalid credential is a plain
// 401; the middleware does not distinguish the two.
func Auth(sessions *auth.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := CredentialFromRequest(r)
			if credential == "" {
				httputil.Error(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
				return
			}

			acct, err := sessions.Authorize(r.Context(), credential)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
				return
			}

			ctx := context.WithValue(r.Context(), AccountKey, acct)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CredentialFromRequest extracts the bearer credential from the Authorization
// header or the session cookie. Returns "" if neither is present.
func CredentialFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	if token, ok := httputil.GetSessionFromCookie(r); ok {
		return token
	}
	return ""
}

// GetAccount extracts the authenticated account from the request context.
func GetAccount(ctx context.Context) (*domain.Account, bool) {
	acct, ok := ctx.Value(AccountKey).(*domain.Account)
	return acct, ok
}
