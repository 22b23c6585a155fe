package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/weathercraft/weathercraft/internal/domain"
)

const (
	// DefaultCodeTTL is the verification window for a freshly issued code.
	DefaultCodeTTL = 10 * time.Minute

	// codeRetries bounds re-generation when a code collides with another
	// account's outstanding code. Collisions are rare in a 24-bit space;
	// more than a couple in a row means something is broken.
	codeRetries = 3
)

// VerificationConfig holds verification settings.
type VerificationConfig struct {
	CodeTTL time.Duration
}

// VerificationService issues and redeems one-time verification codes.
//
// Issuance and redemption are two independent entry points mutating shared
// account state: the web client requests a code, the game server plugin
// redeems it over the webhook, and the two are connected only by the code
// value and its expiry.
type VerificationService struct {
	config    VerificationConfig
	store     AccountStore
	directory Directory
	clock     clockwork.Clock
}

// NewVerificationService creates a new verification service.
func NewVerificationService(config VerificationConfig, store AccountStore, directory Directory, clock clockwork.Clock) *VerificationService {
	if config.CodeTTL == 0 {
		config.CodeTTL = DefaultCodeTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &VerificationService{
		config:    config,
		store:     store,
		directory: directory,
		clock:     clock,
	}
}

// CodeTTL returns the verification window.
func (s *VerificationService) CodeTTL() time.Duration {
	return s.config.CodeTTL
}

// IssueResult is the outcome of starting a verification attempt.
type IssueResult struct {
	AccountID     uuid.UUID
	MinecraftUUID string
	Username      string
	AvatarURL     string
	Code          string
	ExpiresIn     time.Duration
}

// Issue resolves the claimed player name through the directory, generates a
// fresh code and upserts the account. Re-issuing for a known player
// invalidates any previous outstanding code and resets verified, so at most
// one code is ever live per account.
func (s *VerificationService) Issue(ctx context.Context, displayNameClaim string) (*IssueResult, error) {
	if displayNameClaim == "" {
		return nil, fmt.Errorf("%w: player name is required", domain.ErrValidation)
	}

	mcUUID, canonicalName, err := s.directory.Resolve(ctx, displayNameClaim)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}
	mcUUID = NormalizeUUID(mcUUID)

	now := s.clock.Now()
	expiresAt := now.Add(s.config.CodeTTL)

	var acct *domain.Account
	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}

		acct, err = s.upsert(ctx, mcUUID, canonicalName, code, now, expiresAt)
		if errors.Is(err, domain.ErrCodeCollision) {
			continue
		}
		if err != nil {
			return nil, err
		}

		return &IssueResult{
			AccountID:     acct.ID,
			MinecraftUUID: mcUUID,
			Username:      canonicalName,
			AvatarURL:     acct.AvatarURL,
			Code:          code,
			ExpiresIn:     s.config.CodeTTL,
		}, nil
	}
	return nil, domain.ErrCodeCollision
}

// upsert hands the store a candidate row; the store keeps the stored identity
// when the player is already known, so concurrent issuances for the same
// player converge on one account.
func (s *VerificationService) upsert(ctx context.Context, mcUUID, username, code string, now, expiresAt time.Time) (*domain.Account, error) {
	return s.store.Upsert(ctx, &domain.Account{
		ID:                    uuid.New(),
		MinecraftUUID:         mcUUID,
		Username:              username,
		AvatarURL:             AvatarURL(mcUUID),
		VerificationCode:      &code,
		VerificationExpiresAt: &expiresAt,
		Verified:              false,
		CreatedAt:             now,
	})
}

// Redeem validates an inbound claim from the game server plugin and flips the
// account to verified. The code is consumed exactly once: the conditional
// clear in the store guarantees a second redemption, or a concurrent one,
// fails with domain.ErrCodeNotFound.
func (s *VerificationService) Redeem(ctx context.Context, claimedUUID, code string) (*domain.Account, error) {
	if code == "" || claimedUUID == "" {
		return nil, fmt.Errorf("%w: uuid and code are required", domain.ErrValidation)
	}

	acct, err := s.store.GetByActiveCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if acct.VerificationExpiresAt == nil || s.clock.Now().After(*acct.VerificationExpiresAt) {
		return nil, domain.ErrCodeExpired
	}

	if NormalizeUUID(claimedUUID) != acct.MinecraftUUID {
		return nil, domain.ErrIdentityMismatch
	}

	if err := s.store.ConsumeCode(ctx, acct.ID, code); err != nil {
		return nil, err
	}

	acct.Verified = true
	acct.VerificationCode = nil
	return acct, nil
}

// CheckStatus answers whether the player's account has completed
// verification. While pending it is side-effect free and safe to poll.
func (s *VerificationService) CheckStatus(ctx context.Context, mcUUID string) (*domain.Account, error) {
	return s.store.GetByMinecraftUUID(ctx, NormalizeUUID(mcUUID))
}

// AvatarURL derives the advisory avatar image URL for a player UUID.
func AvatarURL(mcUUID string) string {
	return fmt.Sprintf("https://crafatar.com/avatars/%s?size=100&overlay", mcUUID)
}
