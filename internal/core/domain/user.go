package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is a capability tag from a closed set.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleFranchisee Role = "franchisee"
	RoleDiner      Role = "diner"
)

// ParseRole validates a wire value against the known roles.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleFranchisee, RoleDiner:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
}

// RoleAssignment grants a role, optionally scoped to a franchise.
type RoleAssignment struct {
	Role     Role   `json:"role"`
	ObjectID *int64 `json:"objectId,omitempty"`
}

// User models a registered account. PasswordHash never leaves the stores.
type User struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	PasswordHash string           `json:"-"`
	Roles        []RoleAssignment `json:"roles"`
	CreatedAt    time.Time        `json:"-"`
	UpdatedAt    time.Time        `json:"-"`
}

// Redacted returns a copy of u without the password hash.
func (u *User) Redacted() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	clone.Roles = append([]RoleAssignment(nil), u.Roles...)
	return &clone
}

// NewUser carries what the credential store needs to create an account.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Roles    []RoleAssignment
}

// Session associates a token fingerprint with the user it was issued to.
type Session struct {
	Key       string
	UserID    int64
	CreatedAt time.Time
}
