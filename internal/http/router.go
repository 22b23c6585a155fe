package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/weathercraft/weathercraft/internal/auth"
	"github.com/weathercraft/weathercraft/internal/config"
	"github.com/weathercraft/weathercraft/internal/http/features/me"
	"github.com/weathercraft/weathercraft/internal/http/features/reports"
	"github.com/weathercraft/weathercraft/internal/http/features/verify"
	"github.com/weathercraft/weathercraft/internal/http/middleware"
	"github.com/weathercraft/weathercraft/internal/httputil"
	"github.com/weathercraft/weathercraft/internal/observability"
	"github.com/weathercraft/weathercraft/internal/repository"
	"github.com/weathercraft/weathercraft/internal/upload"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger              *slog.Logger
	VerificationService *auth.VerificationService
	SessionService      *auth.SessionService
	ReportsRepo         *repository.ReportsRepository
	Uploads             *upload.Storage
	Metrics             *observability.Metrics
	RateLimit           config.RateLimitConfig
	MaxRequestBodySize  int64
	CookieSecure        bool
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodySize))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	cookieConfig := httputil.DefaultCookieConfig()
	cookieConfig.Secure = cfg.CookieSecure

	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimit, cfg.Logger)

	// Verification flow
	verifyHandler := verify.NewHandler(
		cfg.Logger,
		cfg.VerificationService,
		cfg.SessionService,
		cfg.Metrics,
		cookieConfig,
	)
	r.With(rateLimiters["init"]).Post("/api/auth/init", verifyHandler.Init)
	r.With(rateLimiters["webhook"]).Post("/api/verify", verifyHandler.Webhook)
	r.With(rateLimiters["status"]).Get("/api/auth/status/{uuid}", verifyHandler.Status)

	// Current user
	meHandler := me.NewHandler(cfg.Logger, cfg.SessionService, cookieConfig)
	r.Get("/api/me", meHandler.GetMe)
	r.Post("/api/logout", meHandler.Logout)

	// Reports
	reportsHandler := reports.NewHandler(cfg.Logger, cfg.ReportsRepo, cfg.Uploads, cfg.Metrics, nil)
	r.Get("/api/reports", reportsHandler.List)
	r.With(middleware.Auth(cfg.SessionService)).Post("/api/reports", reportsHandler.Create)

	// Uploaded photos
	r.Handle(upload.URLPrefix+"*", cfg.Uploads.Handler())

	return r
}
