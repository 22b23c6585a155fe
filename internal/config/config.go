package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// RateLimitConfig holds rate limiting settings per endpoint group.
type RateLimitConfig struct {
	Enabled bool

	// Issuance triggers an outbound Mojang lookup per request.
	InitRequestsPerMinute int

	// The webhook is retried by the game server plugin on delivery failure.
	WebhookRequestsPerMinute int

	// The web client polls status every few seconds while waiting.
	StatusRequestsPerMinute int
}

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int

	// Storage
	DBPath     string
	UploadsDir string

	// Sessions
	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration

	// Verification
	CodeTTL       time.Duration
	MojangTimeout time.Duration

	// HTTP
	CookieSecure       bool
	MaxRequestBodySize int64
	RateLimit          RateLimitConfig

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 3000),

		// Storage defaults
		DBPath:     getEnv("DB_PATH", "data/weathercraft.db"),
		UploadsDir: getEnv("UPLOADS_DIR", "uploads"),

		// Session defaults
		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTIssuer:  getEnv("JWT_ISSUER", "weathercraft"),
		SessionTTL: getEnvDuration("SESSION_TTL", 30*24*time.Hour),

		// Verification defaults
		CodeTTL:       getEnvDuration("CODE_TTL", 10*time.Minute),
		MojangTimeout: getEnvDuration("MOJANG_TIMEOUT", 5*time.Second),

		// HTTP defaults
		CookieSecure:       getEnvBool("COOKIE_SECURE", true),
		MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 10<<20)),
		RateLimit: RateLimitConfig{
			Enabled:                  getEnvBool("RATE_LIMIT_ENABLED", true),
			InitRequestsPerMinute:    getEnvInt("RATE_LIMIT_INIT_PER_MINUTE", 10),
			WebhookRequestsPerMinute: getEnvInt("RATE_LIMIT_WEBHOOK_PER_MINUTE", 60),
			StatusRequestsPerMinute:  getEnvInt("RATE_LIMIT_STATUS_PER_MINUTE", 60),
		},

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
