package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/weathercraft/weathercraft/internal/domain"
)

// DefaultSessionTTL is the lifetime of a session credential.
const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionConfig holds session settings.
type SessionConfig struct {
	SessionTTL time.Duration
	JWTSecret  []byte
	Issuer     string
}

// SessionService mints and validates bearer session credentials. Credentials
// carry their own issuance time and expiry rather than living as long as the
// account row does.
type SessionService struct {
	config SessionConfig
	store  AccountStore
	clock  clockwork.Clock
}

// NewSessionService creates a new session service.
func NewSessionService(config SessionConfig, store AccountStore, clock clockwork.Clock) *SessionService {
	if config.SessionTTL == 0 {
		config.SessionTTL = DefaultSessionTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionService{
		config: config,
		store:  store,
		clock:  clock,
	}
}

// SessionTTL returns the credential lifetime.
func (s *SessionService) SessionTTL() time.Duration {
	return s.config.SessionTTL
}

// SessionClaims are the claims carried by a session credential.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
}

// Issue mints a fresh credential for the account. Each call produces a new
// token; repeated status polls after verification may each mint their own.
func (s *SessionService) Issue(ctx context.Context, accountID uuid.UUID) (string, error) {
	acct, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.SessionTTL)),
			Issuer:    s.config.Issuer,
			ID:        uuid.NewString(),
		},
		Username: acct.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.JWTSecret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Authorize validates a credential and resolves the acting account. A
// missing, malformed, expired or dangling credential all collapse to
// domain.ErrUnauthorized.
func (s *SessionService) Authorize(ctx context.Context, credential string) (*domain.Account, error) {
	if credential == "" {
		return nil, domain.ErrUnauthorized
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(credential, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.config.JWTSecret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	acct, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	return acct, nil
}
