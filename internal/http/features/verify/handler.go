// Package verify exposes the out-of-band identity verification endpoints:
// code issuance for the web client, the redemption webhook for the game
// server plugin, and the status poll that establishes the session.
package verify

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/weathercraft/weathercraft/internal/auth"
	"github.com/weathercraft/weathercraft/internal/domain"
	"github.com/weathercraft/weathercraft/internal/httputil"
	"github.com/weathercraft/weathercraft/internal/observability"
)

// Handler handles verification endpoints.
type Handler struct {
	logger       *slog.Logger
	verification *auth.VerificationService
	sessions     *auth.SessionService
	metrics      *observability.Metrics
	cookieConfig httputil.CookieConfig
}

// NewHandler creates a new verification handler.
func NewHandler(
	logger *slog.Logger,
	verification *auth.VerificationService,
	sessions *auth.SessionService,
	metrics *observability.Metrics,
	cookieConfig httputil.CookieConfig,
) *Handler {
	return &Handler{
		logger:       logger,
		verification: verification,
		sessions:     sessions,
		metrics:      metrics,
		cookieConfig: cookieConfig,
	}
}

// InitRequest is the issuance request from the web client.
type InitRequest struct {
	Username string `json:"username"`
}

// InitResponse carries the freshly issued code back to the web client.
type InitResponse struct {
	Success   bool   `json:"success"`
	AccountID string `json:"accountId"`
	UUID      string `json:"uuid"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
	Code      string `json:"code"`
	ExpiresIn int    `json:"expiresIn"`
}

// Init issues a verification code for the claimed player name.
// POST /api/auth/init
func (h *Handler) Init(w http.ResponseWriter, r *http.Request) {
	var req InitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" {
		h.metrics.IssueFailures.WithLabelValues("validation").Inc()
		httputil.Error(w, http.StatusBadRequest, "username is required")
		return
	}

	res, err := h.verification.Issue(r.Context(), req.Username)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			h.metrics.IssueFailures.WithLabelValues("validation").Inc()
			httputil.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrLookupFailed):
			h.metrics.IssueFailures.WithLabelValues("lookup").Inc()
			h.logger.Warn("player lookup failed", "username", req.Username, "error", err)
			httputil.Error(w, http.StatusBadGateway, "failed to resolve player name")
		default:
			h.metrics.IssueFailures.WithLabelValues("storage").Inc()
			h.logger.Error("failed to issue verification code", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "failed to initiate verification")
		}
		return
	}

	h.metrics.CodesIssued.Inc()
	h.logger.Info("verification code issued", "uuid", res.MinecraftUUID, "username", res.Username)

	httputil.JSON(w, http.StatusOK, InitResponse{
		Success:   true,
		AccountID: res.AccountID.String(),
		UUID:      res.MinecraftUUID,
		Username:  res.Username,
		AvatarURL: res.AvatarURL,
		Code:      res.Code,
		ExpiresIn: int(res.ExpiresIn.Seconds()),
	})
}

// WebhookRequest is the redemption claim delivered by the game server plugin.
type WebhookRequest struct {
	Nick string `json:"nick"`
	UUID string `json:"uuid"`
	Code string `json:"code"`
}

// Webhook redeems a verification code on behalf of the in-game player.
// POST /api/verify
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UUID == "" || req.Code == "" {
		httputil.Error(w, http.StatusBadRequest, "uuid and code are required")
		return
	}

	acct, err := h.verification.Redeem(r.Context(), req.UUID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCodeNotFound):
			h.metrics.Redemptions.WithLabelValues("not_found").Inc()
			httputil.Error(w, http.StatusNotFound, "invalid code")
		case errors.Is(err, domain.ErrCodeExpired):
			h.metrics.Redemptions.WithLabelValues("expired").Inc()
			httputil.Error(w, http.StatusBadRequest, "code expired")
		case errors.Is(err, domain.ErrIdentityMismatch):
			h.metrics.Redemptions.WithLabelValues("mismatch").Inc()
			h.logger.Warn("redemption identity mismatch", "nick", req.Nick)
			httputil.Error(w, http.StatusForbidden, "uuid mismatch")
		default:
			h.metrics.Redemptions.WithLabelValues("error").Inc()
			h.logger.Error("redemption failed", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "failed to verify")
		}
		return
	}

	h.metrics.Redemptions.WithLabelValues("success").Inc()
	h.logger.Info("player verified", "nick", req.Nick, "uuid", acct.MinecraftUUID)

	httputil.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Verified",
	})
}

// StatusResponse answers a status poll. Account is only present once
// verified.
type StatusResponse struct {
	Verified bool             `json:"verified"`
	Account  *AccountResponse `json:"account,omitempty"`
}

// AccountResponse is the public account shape.
type AccountResponse struct {
	ID        string    `json:"id"`
	UUID      string    `json:"uuid"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatarUrl"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewAccountResponse maps an account to its public shape.
func NewAccountResponse(acct *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        acct.ID.String(),
		UUID:      acct.MinecraftUUID,
		Username:  acct.Username,
		AvatarURL: acct.AvatarURL,
		Verified:  acct.Verified,
		CreatedAt: acct.CreatedAt,
	}
}

// Status reports whether the pending verification completed and, once it has,
// sets the session cookie. Polling while pending has no side effects.
// GET /api/auth/status/{uuid}
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	mcUUID := chi.URLParam(r, "uuid")

	acct, err := h.verification.CheckStatus(r.Context(), mcUUID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			h.metrics.StatusPolls.WithLabelValues("not_found").Inc()
			httputil.Error(w, http.StatusNotFound, "account not found")
			return
		}
		h.logger.Error("status check failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to check status")
		return
	}

	if !acct.Verified {
		h.metrics.StatusPolls.WithLabelValues("pending").Inc()
		httputil.JSON(w, http.StatusOK, StatusResponse{Verified: false})
		return
	}

	token, err := h.sessions.Issue(r.Context(), acct.ID)
	if err != nil {
		h.logger.Error("failed to mint session", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to establish session")
		return
	}

	h.metrics.StatusPolls.WithLabelValues("verified").Inc()
	httputil.SetSessionCookie(w, token, h.sessions.SessionTTL(), h.cookieConfig)
	httputil.JSON(w, http.StatusOK, StatusResponse{
		Verified: true,
		Account:  NewAccountResponse(acct),
	})
}
