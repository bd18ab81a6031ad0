package ports

import "context"

// LoginThrottle limits credential guessing per account.
type LoginThrottle interface {
	Allow(ctx context.Context, email string) (bool, error)
	Reset(ctx context.Context, email string) error
}
