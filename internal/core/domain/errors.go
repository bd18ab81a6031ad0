package domain

import "errors"

// ErrNotFound is returned for unknown credentials. Callers must not be able to
// tell a missing email from a wrong password, so both paths share this value.
var ErrNotFound = errors.New("unknown user")

var (
	ErrConflict        = errors.New("email already registered")
	ErrInvalidToken    = errors.New("invalid token")
	ErrRevoked         = errors.New("token revoked")
	ErrForbidden       = errors.New("access forbidden")
	ErrPersistence     = errors.New("persistence failure")
	ErrInvalidInput    = errors.New("invalid input")
	ErrTooManyAttempts = errors.New("too many login attempts")
)
