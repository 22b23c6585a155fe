package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account links a Minecraft identity to application state. It is created on
// the first verification attempt for an unseen player UUID and only ever
// updated afterwards; re-issuing a code overwrites the previous one.
type Account struct {
	ID uuid.UUID

	// MinecraftUUID is the canonical player identifier: lowercase hex,
	// no dashes, as returned by the Mojang profile API.
	MinecraftUUID string

	// Username is the canonical player name, refreshed on each issuance.
	Username string

	// AvatarURL is derived from MinecraftUUID and is advisory only.
	AvatarURL string

	// VerificationCode is non-nil only while a verification attempt is
	// outstanding. At most one code is active per account.
	VerificationCode      *string
	VerificationExpiresAt *time.Time

	Verified  bool
	CreatedAt time.Time
}

// CodeValidAt reports whether the account has an outstanding code that has
// not expired at the given instant.
func (a *Account) CodeValidAt(now time.Time) bool {
	return a.VerificationCode != nil &&
		a.VerificationExpiresAt != nil &&
		!now.After(*a.VerificationExpiresAt)
}
