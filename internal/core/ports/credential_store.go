package ports

import (
	"context"

	"github.com/jwt-pizza/pizza-service/internal/core/domain"
)

// CredentialStore persists user accounts. Returned users never carry the
// password hash.
type CredentialStore interface {
	Add(ctx context.Context, user domain.NewUser) (*domain.User, error)
	// Find returns domain.ErrNotFound both for an unknown email and for a wrong
	// password.
	Find(ctx context.Context, email, password string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// Update changes email and/or password; empty values are left untouched.
	Update(ctx context.Context, id int64, email, password string) (*domain.User, error)
}
