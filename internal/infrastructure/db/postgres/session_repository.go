package postgres

import (
	"context"
)

// SessionRepository stores live sessions keyed by token fingerprint.
type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Open(ctx context.Context, userID int64, key string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_sessions (token_key, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (token_key) DO NOTHING`,
		key, userID,
	)
	if err != nil {
		return mapError("open session", err)
	}
	return nil
}

func (r *SessionRepository) IsLive(ctx context.Context, key string) (bool, error) {
	var live bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM auth_sessions WHERE token_key = $1)`,
		key,
	).Scan(&live)
	if err != nil {
		return false, mapError("check session", err)
	}
	return live, nil
}

// Close removes the session. Closing an unknown key is not an error.
func (r *SessionRepository) Close(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE token_key = $1`, key); err != nil {
		return mapError("close session", err)
	}
	return nil
}
