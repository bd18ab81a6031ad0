package ports

import "context"

// SessionStore tracks which tokens are currently honoured. Keys are token
// fingerprints, never raw tokens.
type SessionStore interface {
	Open(ctx context.Context, userID int64, key string) error
	// IsLive reports false (and no error) for unknown keys.
	IsLive(ctx context.Context, key string) (bool, error)
	// Close is a no-op for unknown keys.
	Close(ctx context.Context, key string) error
}
