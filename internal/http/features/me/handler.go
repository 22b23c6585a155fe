// Package me exposes the current-user and logout endpoints.
package me

import (
	"log/slog"
	"net/http"

	"github.com/weathercraft/weathercraft/internal/auth"
	"github.com/weathercraft/weathercraft/internal/http/features/verify"
	"github.com/weathercraft/weathercraft/internal/http/middleware"
	"github.com/weathercraft/weathercraft/internal/httputil"
)

// Handler handles current-user endpoints.
type Handler struct {
	logger       *slog.Logger
	sessions     *auth.SessionService
	cookieConfig httputil.CookieConfig
}

// NewHandler creates a new me handler.
func NewHandler(logger *slog.Logger, sessions *auth.SessionService, cookieConfig httputil.CookieConfig) *Handler {
	return &Handler{
		logger:       logger,
		sessions:     sessions,
		cookieConfig: cookieConfig,
	}
}

// GetMe returns the account for the current session, or null when there is
// none. The page renders logged-out rather than erroring, so this never 401s.
// GET /api/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	credential := middleware.CredentialFromRequest(r)
	if credential == "" {
		httputil.JSON(w, http.StatusOK, map[string]any{"account": nil})
		return
	}

	acct, err := h.sessions.Authorize(r.Context(), credential)
	if err != nil {
		httputil.JSON(w, http.StatusOK, map[string]any{"account": nil})
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]any{
		"account": verify.NewAccountResponse(acct),
	})
}

// Logout clears the session cookie.
// POST /api/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	httputil.ClearSessionCookie(w, h.cookieConfig)
	httputil.JSON(w, http.StatusOK, map[string]any{"success": true})
}
