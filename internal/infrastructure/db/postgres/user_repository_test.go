package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jwt-pizza/pizza-service/internal/core/domain"
)

// fakeHasher keeps repository tests independent of bcrypt timing.
type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (fakeHasher) Verify(plain, digest string) (bool, error) {
	if !strings.HasPrefix(digest, "hashed:") {
		return false, errors.New("malformed digest")
	}
	return digest == "hashed:"+plain, nil
}

// countingHasher records every call so tests can compare the work done on
// each failure path.
type countingHasher struct {
	fakeHasher
	hashes   int
	verifies int
}

func (h *countingHasher) Hash(plain string) (string, error) {
	h.hashes++
	return h.fakeHasher.Hash(plain)
}

func (h *countingHasher) Verify(plain, digest string) (bool, error) {
	h.verifies++
	return h.fakeHasher.Verify(plain, digest)
}

func newUserRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewUserRepository(db, fakeHasher{}), mock, db
}

const (
	qInsertUser = `(?s)^INSERT\s+INTO\s+users\s*\(name,\s*email,\s*password_hash\).*RETURNING\s+id`
	qInsertRole = `(?s)^INSERT\s+INTO\s+user_roles\s*\(user_id,\s*role,\s*object_id\)`
	qSelectRole = `(?s)^SELECT\s+role,\s*object_id\s+FROM\s+user_roles\s+WHERE\s+user_id\s*=\s*\$1`
	qFindEmail  = `(?s)^SELECT\s+id,\s*name,\s*email,\s*password_hash.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1`
	qFindID     = `(?s)^SELECT\s+id,\s*name,\s*email,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1`
	qUpdateUser = `(?s)^UPDATE\s+users\s+SET\s+email\s*=\s*COALESCE\(\$2,\s*email\)`
)

func TestUserRepository_Add_Success(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	franchise := int64(3)

	mock.ExpectBegin()
	mock.ExpectQuery(qInsertUser).
		WithArgs("Ann", "ann@x.com", "hashed:pw123").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))
	mock.ExpectExec(qInsertRole).
		WithArgs(int64(7), "diner", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(qInsertRole).
		WithArgs(int64(7), "franchisee", int64(3)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	got, err := repo.Add(context.Background(), domain.NewUser{
		Name: "Ann", Email: "ann@x.com", Password: "pw123",
		Roles: []domain.RoleAssignment{
			{Role: domain.RoleDiner},
			{Role: domain.RoleFranchisee, ObjectID: &franchise},
		},
	})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if got.ID != 7 || got.PasswordHash != "" || len(got.Roles) != 2 {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_Add_DuplicateEmail(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(qInsertUser).
		WithArgs("Ann", "ann@x.com", "hashed:pw").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	mock.ExpectRollback()

	_, err := repo.Add(context.Background(), domain.NewUser{Name: "Ann", Email: "ann@x.com", Password: "pw"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_Add_RoleInsertFailureRollsBack(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(qInsertUser).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))
	mock.ExpectExec(qInsertRole).WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	_, err := repo.Add(context.Background(), domain.NewUser{
		Name: "Ann", Email: "ann@x.com", Password: "pw",
		Roles: []domain.RoleAssignment{{Role: domain.RoleDiner}},
	})
	if !errors.Is(err, domain.ErrPersistence) || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("want wrapped persistence error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_Find_Success(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(qFindEmail).
		WithArgs("ann@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at", "updated_at"}).
			AddRow(int64(7), "Ann", "ann@x.com", "hashed:pw123", now, now))
	mock.ExpectQuery(qSelectRole).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"role", "object_id"}).
			AddRow("diner", nil).
			AddRow("franchisee", int64(4)))

	got, err := repo.Find(context.Background(), "ann@x.com", "pw123")
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if got.ID != 7 || got.PasswordHash != "" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if len(got.Roles) != 2 || got.Roles[0].ObjectID != nil || got.Roles[1].ObjectID == nil || *got.Roles[1].ObjectID != 4 {
		t.Fatalf("unexpected roles: %+v", got.Roles)
	}
}

func TestUserRepository_Find_WrongPasswordAndUnknownEmailMatch(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(qFindEmail).
		WithArgs("ann@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at", "updated_at"}).
			AddRow(int64(7), "Ann", "ann@x.com", "hashed:pw123", now, now))
	mock.ExpectQuery(qFindEmail).
		WithArgs("ghost@x.com").
		WillReturnError(sql.ErrNoRows)

	_, wrong := repo.Find(context.Background(), "ann@x.com", "nope")
	_, ghost := repo.Find(context.Background(), "ghost@x.com", "pw123")

	if !errors.Is(wrong, domain.ErrNotFound) || !errors.Is(ghost, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound twice, got %v / %v", wrong, ghost)
	}
	if wrong.Error() != ghost.Error() {
		t.Fatalf("errors distinguishable: %q vs %q", wrong, ghost)
	}
}

func TestUserRepository_Find_UnknownEmailCostsAVerification(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer db.Close()
	hasher := &countingHasher{}
	repo := NewUserRepository(db, hasher)

	now := time.Now()
	mock.ExpectQuery(qFindEmail).
		WithArgs("ann@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at", "updated_at"}).
			AddRow(int64(7), "Ann", "ann@x.com", "hashed:pw123", now, now))
	mock.ExpectQuery(qFindEmail).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(qFindEmail).WithArgs("ghost2@x.com").WillReturnError(sql.ErrNoRows)

	_, _ = repo.Find(context.Background(), "ann@x.com", "nope")
	if hasher.verifies != 1 {
		t.Fatalf("wrong password: want 1 verification, got %d", hasher.verifies)
	}
	_, err = repo.Find(context.Background(), "ghost@x.com", "nope")
	if !errors.Is(err, domain.ErrNotFound) || hasher.verifies != 2 {
		t.Fatalf("unknown email: want ErrNotFound after a verification, got %v with %d", err, hasher.verifies)
	}
	_, _ = repo.Find(context.Background(), "ghost2@x.com", "nope")
	if hasher.verifies != 3 || hasher.hashes != 1 {
		t.Fatalf("decoy digest should be built once, got %d hashes %d verifies", hasher.hashes, hasher.verifies)
	}
}

func TestUserRepository_Find_DBError(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qFindEmail).WithArgs("ann@x.com").WillReturnError(errors.New("db err"))

	_, err := repo.Find(context.Background(), "ann@x.com", "pw")
	if !errors.Is(err, domain.ErrPersistence) || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want persistence error, got %v", err)
	}
}

func TestUserRepository_Find_MalformedDigest(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(qFindEmail).
		WithArgs("ann@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at", "updated_at"}).
			AddRow(int64(7), "Ann", "ann@x.com", "garbage", now, now))

	_, err := repo.Find(context.Background(), "ann@x.com", "pw")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want verification error, got %v", err)
	}
}

func TestUserRepository_FindByID(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(qFindID).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at", "updated_at"}).
			AddRow(int64(7), "Ann", "ann@x.com", now, now))
	mock.ExpectQuery(qSelectRole).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"role", "object_id"}).AddRow("admin", nil))
	mock.ExpectQuery(qFindID).
		WithArgs(int64(8)).
		WillReturnError(sql.ErrNoRows)

	got, err := repo.FindByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if got.Email != "ann@x.com" || len(got.Roles) != 1 || got.Roles[0].Role != domain.RoleAdmin {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := repo.FindByID(context.Background(), 8); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUserRepository_Update(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(qUpdateUser).
		WithArgs(int64(7), nil, "hashed:newpw").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at", "updated_at"}).
			AddRow(int64(7), "Ann", "ann@x.com", now, now))
	mock.ExpectQuery(qSelectRole).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"role", "object_id"}).AddRow("diner", nil))

	got, err := repo.Update(context.Background(), 7, "", "newpw")
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.Email != "ann@x.com" || len(got.Roles) != 1 {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_Update_Errors(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qUpdateUser).
		WithArgs(int64(404), "a@x.com", nil).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(qUpdateUser).
		WithArgs(int64(7), "taken@x.com", nil).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	if _, err := repo.Update(context.Background(), 404, "a@x.com", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := repo.Update(context.Background(), 7, "taken@x.com", ""); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}
