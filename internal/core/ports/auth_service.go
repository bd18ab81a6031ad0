package ports

import (
	"context"

	"github.com/jwt-pizza/pizza-service/internal/core/domain"
)

// RegisterInput carries a registration request. Roles defaults to diner.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Roles    []domain.RoleAssignment
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Authorizer is the slice of the auth service the request middleware needs.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*domain.Identity, error)
}

type AuthService interface {
	Authorizer
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
	UpdateUser(ctx context.Context, actor domain.Identity, userID int64, email, password string) (*domain.User, error)
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
}
