package domain

import "errors"

// Verification errors
var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrCodeNotFound     = errors.New("verification code not found")
	ErrCodeExpired      = errors.New("verification code expired")
	ErrCodeCollision    = errors.New("verification code already active")
	ErrIdentityMismatch = errors.New("identity mismatch")
	ErrLookupFailed     = errors.New("player directory lookup failed")
)

// Session errors
var (
	ErrUnauthorized = errors.New("unauthorized")
)

// Validation errors
var (
	ErrValidation = errors.New("invalid input")
)
