package security

import (
	"sync"

	"github.com/jwt-pizza/pizza-service/internal/core/ports"
)

const decoyPassword = "decoy-password-never-issued"

// DecoyVerifier spends one password verification against a throwaway digest.
// Credential stores call it for unknown emails so that path costs the same as
// a wrong password.
type DecoyVerifier struct {
	hasher ports.PasswordHasher
	once   sync.Once
	digest string
}

func NewDecoyVerifier(hasher ports.PasswordHasher) *DecoyVerifier {
	return &DecoyVerifier{hasher: hasher}
}

// Verify checks password against the decoy digest and discards the result.
// The digest is built lazily with the hasher's own cost.
func (d *DecoyVerifier) Verify(password string) {
	d.once.Do(func() {
		d.digest, _ = d.hasher.Hash(decoyPassword)
	})
	if d.digest == "" {
		return
	}
	_, _ = d.hasher.Verify(password, d.digest)
}
