package ports

import "github.com/jwt-pizza/pizza-service/internal/core/domain"

// PasswordHasher performs one-way salted hashing.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Verify returns false, nil on mismatch and an error only when the digest
	// itself cannot be evaluated.
	Verify(plain, digest string) (bool, error)
}

// TokenCodec signs and verifies bearer tokens. It holds no mutable state.
type TokenCodec interface {
	Issue(identity domain.Identity) (string, error)
	// Decode fails with domain.ErrInvalidToken for malformed, tampered or
	// expired tokens.
	Decode(token string) (*domain.Identity, error)
}
