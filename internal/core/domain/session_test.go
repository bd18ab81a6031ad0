package domain

import "testing"

func TestFingerprint(t *testing.T) {
	a := Fingerprint("token-a")
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a != Fingerprint("token-a") {
		t.Fatalf("fingerprint must be deterministic")
	}
	if a == Fingerprint("token-b") {
		t.Fatalf("different tokens must not collide")
	}
}
