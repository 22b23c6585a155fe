package domain

import (
	"time"

	"github.com/google/uuid"
)

// Report is a community weather report submitted by a verified account.
type Report struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	City           string
	ObservedAt     string
	EffectiveUntil string
	Kind           string
	Clouds         *string
	Moisture       string
	ActKind        string
	DamageClass    string
	Title          string
	PhotoURL       *string
	CreatedAt      time.Time

	// AuthorName is joined from the accounts table on listing.
	AuthorName string
}
