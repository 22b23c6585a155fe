package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/weathercraft/weathercraft/internal/auth"
	"github.com/weathercraft/weathercraft/internal/config"
	"github.com/weathercraft/weathercraft/internal/database"
	httpserver "github.com/weathercraft/weathercraft/internal/http"
	"github.com/weathercraft/weathercraft/internal/mojang"
	"github.com/weathercraft/weathercraft/internal/observability"
	"github.com/weathercraft/weathercraft/internal/repository"
	"github.com/weathercraft/weathercraft/internal/upload"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	// Open database and run migrations
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("database ready", "path", cfg.DBPath)

	// Initialize repositories
	accountsRepo := repository.NewAccountsRepository(db)
	reportsRepo := repository.NewReportsRepository(db)

	// Initialize collaborators
	directory := mojang.NewClient(cfg.MojangTimeout, logger)
	uploads, err := upload.New(cfg.UploadsDir)
	if err != nil {
		logger.Error("failed to prepare uploads directory", "error", err)
		os.Exit(1)
	}
	metrics := observability.NewMetrics()

	// Initialize services
	verificationService := auth.NewVerificationService(auth.VerificationConfig{
		CodeTTL: cfg.CodeTTL,
	}, accountsRepo, directory, nil)

	sessionService := auth.NewSessionService(auth.SessionConfig{
		SessionTTL: cfg.SessionTTL,
		JWTSecret:  []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
	}, accountsRepo, nil)

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:              logger,
		VerificationService: verificationService,
		SessionService:      sessionService,
		ReportsRepo:         reportsRepo,
		Uploads:             uploads,
		Metrics:             metrics,
		RateLimit:           cfg.RateLimit,
		MaxRequestBodySize:  cfg.MaxRequestBodySize,
		CookieSecure:        cfg.CookieSecure,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
