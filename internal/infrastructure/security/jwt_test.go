package security

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jwt-pizza/pizza-service/internal/core/domain"
)

func newCodec(t *testing.T, secret string) *JWTCodec {
	t.Helper()
	c, err := NewJWTCodec(secret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}
	return c
}

func sampleIdentity() domain.Identity {
	franchise := int64(4)
	return domain.Identity{
		UserID: 42,
		Name:   "Ann",
		Email:  "ann@x.com",
		Roles: []domain.RoleAssignment{
			{Role: domain.RoleDiner},
			{Role: domain.RoleFranchisee, ObjectID: &franchise},
		},
	}
}

func TestJWTCodec_RoundTrip(t *testing.T) {
	c := newCodec(t, "super-secret")

	tok, err := c.Issue(sampleIdentity())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := c.Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.UserID != 42 || got.Email != "ann@x.com" || got.Name != "Ann" {
		t.Fatalf("unexpected identity: %+v", got)
	}
	if len(got.Roles) != 2 || got.Roles[1].ObjectID == nil || *got.Roles[1].ObjectID != 4 {
		t.Fatalf("roles not preserved: %+v", got.Roles)
	}
}

func TestJWTCodec_TokensAreUnique(t *testing.T) {
	c := newCodec(t, "k")

	a, _ := c.Issue(sampleIdentity())
	b, _ := c.Issue(sampleIdentity())
	if a == b {
		t.Fatalf("two issues for the same identity produced the same token")
	}
}

func TestJWTCodec_WrongSecret(t *testing.T) {
	tok, _ := newCodec(t, "right").Issue(sampleIdentity())

	_, err := newCodec(t, "wrong").Decode(tok)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTCodec_Malformed(t *testing.T) {
	c := newCodec(t, "k")
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := c.Decode(tok); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("Decode(%q): expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestJWTCodec_Expired(t *testing.T) {
	c := newCodec(t, "k")
	c.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := c.Issue(sampleIdentity())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c.now = time.Now
	if _, err := c.Decode(tok); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestJWTCodec_RejectsOtherAlgorithms(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"id": 1}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := newCodec(t, "k").Decode(tok); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for HS512 token, got %v", err)
	}
}

func TestNewJWTCodec_Validation(t *testing.T) {
	if _, err := NewJWTCodec("", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	c, err := NewJWTCodec("k", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ttl != defaultTokenTTL {
		t.Fatalf("expected default ttl, got %v", c.ttl)
	}
}
