package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes даёт 32 hex-символа на токен.
const tokenBytes = 16

// NewSessionToken returns a random session token (32 hex characters).
func NewSessionToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
