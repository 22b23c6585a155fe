package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// codeBytes yields 6 uppercase hex characters, a 24-bit space. Short enough
// to type into game chat, large enough that guessing within the ten minute
// window is infeasible.
const codeBytes = 3

// GenerateCode returns a fresh random verification code such as "AB12CD".
func GenerateCode() (string, error) {
	b := make([]byte, codeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// NormalizeUUID canonicalizes a player UUID for comparison. The game server
// plugin reports dashed UUIDs while the Mojang API returns undashed lowercase
// hex; both normalize to the latter.
func NormalizeUUID(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
}
