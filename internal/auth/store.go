package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/weathercraft/weathercraft/internal/domain"
)

// AccountStore is the persistence capability the verification and session
// services need. *repository.AccountsRepository implements it; tests use an
// in-memory fake.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByMinecraftUUID(ctx context.Context, mcUUID string) (*domain.Account, error)

	// GetByActiveCode returns the account holding an outstanding code,
	// or domain.ErrCodeNotFound.
	GetByActiveCode(ctx context.Context, code string) (*domain.Account, error)

	// Upsert writes a fresh verification attempt. An unseen player gets the
	// candidate row; a known player's stored account is overwritten with the
	// candidate's username, code and expiry, verified reset, identity and
	// created_at kept. Returns the stored account. Must be atomic: two
	// concurrent issuances for the same player may not both insert. Returns
	// domain.ErrCodeCollision if the code is already active elsewhere.
	Upsert(ctx context.Context, candidate *domain.Account) (*domain.Account, error)

	// ConsumeCode clears the code and sets verified, but only if the code is
	// still outstanding on the account. Must be atomic: under concurrent
	// redemption exactly one caller succeeds, the rest get
	// domain.ErrCodeNotFound.
	ConsumeCode(ctx context.Context, id uuid.UUID, code string) error
}

// Directory resolves a claimed player name to its canonical identity.
// The Mojang profile API client implements it.
type Directory interface {
	Resolve(ctx context.Context, name string) (id string, canonicalName string, err error)
}
