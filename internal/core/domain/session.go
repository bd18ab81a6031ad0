package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives the session lookup key for a bearer token. Raw tokens
// are never stored.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
