package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/jwt-pizza/pizza-service/internal/core/domain"
	"github.com/jwt-pizza/pizza-service/internal/core/ports"
)

// AuthService implements registration, login, logout and token authorization
// on top of the credential and session stores.
type AuthService struct {
	users    ports.CredentialStore
	sessions ports.SessionStore
	codec    ports.TokenCodec
	throttle ports.LoginThrottle
	log      zerolog.Logger
}

func NewAuthService(users ports.CredentialStore, sessions ports.SessionStore, codec ports.TokenCodec, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, sessions: sessions, codec: codec, log: log}
}

// WithThrottle enables per-email login attempt limiting.
func (s *AuthService) WithThrottle(t ports.LoginThrottle) *AuthService {
	s.throttle = t
	return s
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := normalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || in.Password == "" || !validEmail(email) {
		return nil, fmt.Errorf("%w: name, email, and password are required", domain.ErrInvalidInput)
	}

	roles := in.Roles
	if len(roles) == 0 {
		roles = []domain.RoleAssignment{{Role: domain.RoleDiner}}
	}

	user, err := s.users.Add(ctx, domain.NewUser{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: in.Password,
		Roles:    roles,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user registered")
	return s.openSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrNotFound
	}

	if s.throttle != nil {
		ok, err := s.throttle.Allow(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Msg("login throttle unavailable, allowing attempt")
		} else if !ok {
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.users.Find(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("reset login throttle")
		}
	}

	return s.openSession(ctx, user)
}

// Logout closes the session for token. Unknown or already closed tokens are
// not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Close(ctx, domain.Fingerprint(token))
}

// Authorize accepts a token only if it decodes and its session is still live.
func (s *AuthService) Authorize(ctx context.Context, token string) (*domain.Identity, error) {
	identity, err := s.codec.Decode(token)
	if err != nil {
		return nil, err
	}

	live, err := s.sessions.IsLive(ctx, domain.Fingerprint(token))
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, domain.ErrRevoked
	}
	return identity, nil
}

// UpdateUser lets a user change their own email or password. Admins may
// update anyone.
func (s *AuthService) UpdateUser(ctx context.Context, actor domain.Identity, userID int64, email, password string) (*domain.User, error) {
	if actor.UserID != userID && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	email = normalizeEmail(email)
	if email != "" && !validEmail(email) {
		return nil, fmt.Errorf("%w: malformed email", domain.ErrInvalidInput)
	}

	user, err := s.users.Update(ctx, userID, email, password)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", userID).Int64("actor_id", actor.UserID).Msg("user updated")
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// EnsureAdmin creates an admin account unless the email is already taken.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	_, err := s.users.Add(ctx, domain.NewUser{
		Name:     name,
		Email:    normalizeEmail(email),
		Password: password,
		Roles:    []domain.RoleAssignment{{Role: domain.RoleAdmin}},
	})
	if errors.Is(err, domain.ErrConflict) {
		s.log.Debug().Msg("admin account already present")
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	s.log.Info().Msg("admin account created")
	return nil
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*ports.AuthResult, error) {
	token, err := s.codec.Issue(domain.NewIdentity(user))
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Open(ctx, user.ID, domain.Fingerprint(token)); err != nil {
		return nil, err
	}
	return &ports.AuthResult{User: user.Redacted(), Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var validate = validator.New()

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}
