package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jwt-pizza/pizza-service/internal/core/domain"
	"github.com/jwt-pizza/pizza-service/internal/core/ports"
	"github.com/jwt-pizza/pizza-service/internal/infrastructure/security"
)

const uniqueViolation = "23505"

// UserRepository is the PostgreSQL-backed credential store. Passwords are
// hashed before they reach the database and never leave it.
type UserRepository struct {
	db     *sql.DB
	hasher ports.PasswordHasher
	decoy  *security.DecoyVerifier
}

func NewUserRepository(db *sql.DB, hasher ports.PasswordHasher) *UserRepository {
	return &UserRepository{db: db, hasher: hasher, decoy: security.NewDecoyVerifier(hasher)}
}

func (r *UserRepository) Add(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	hash, err := r.hasher.Hash(nu.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{Name: nu.Name, Email: nu.Email, Roles: nu.Roles}

	err = WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO users (name, email, password_hash)
			 VALUES ($1, $2, $3)
			 RETURNING id, created_at, updated_at`,
			nu.Name, nu.Email, hash,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return err
		}

		for _, ra := range nu.Roles {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_roles (user_id, role, object_id) VALUES ($1, $2, $3)`,
				user.ID, string(ra.Role), nullInt64(ra.ObjectID),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapError("add user", err)
	}

	return user, nil
}

// Find returns the user only if email exists and password verifies against
// the stored hash. Both failure cases yield domain.ErrNotFound and both pay
// for one password verification.
func (r *UserRepository) Find(ctx context.Context, email, password string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		r.decoy.Verify(password)
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, mapError("find user", err)
	}

	ok, err := r.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, domain.ErrNotFound
	}

	if user.Roles, err = r.roles(ctx, r.db, user.ID); err != nil {
		return nil, err
	}
	return user.Redacted(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at, updated_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapError("find user by id", err)
	}

	if user.Roles, err = r.roles(ctx, r.db, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// Update changes email and/or password. Empty values leave the column as is.
func (r *UserRepository) Update(ctx context.Context, id int64, email, password string) (*domain.User, error) {
	var hash sql.NullString
	if password != "" {
		h, err := r.hasher.Hash(password)
		if err != nil {
			return nil, err
		}
		hash = sql.NullString{String: h, Valid: true}
	}
	newEmail := sql.NullString{String: email, Valid: email != ""}

	user := &domain.User{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE users
		 SET email = COALESCE($2, email),
		     password_hash = COALESCE($3, password_hash),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING id, name, email, created_at, updated_at`,
		id, newEmail, hash,
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapError("update user", err)
	}

	if user.Roles, err = r.roles(ctx, r.db, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) roles(ctx context.Context, q DBTX, userID int64) ([]domain.RoleAssignment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT role, object_id FROM user_roles WHERE user_id = $1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, mapError("load roles", err)
	}
	defer rows.Close()

	roles := []domain.RoleAssignment{}
	for rows.Next() {
		var (
			role     string
			objectID sql.NullInt64
		)
		if err := rows.Scan(&role, &objectID); err != nil {
			return nil, mapError("scan role", err)
		}
		ra := domain.RoleAssignment{Role: domain.Role(role)}
		if objectID.Valid {
			id := objectID.Int64
			ra.ObjectID = &id
		}
		roles = append(roles, ra)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate roles", err)
	}
	return roles, nil
}

// mapError translates driver errors into domain errors.
func mapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrConflict
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
