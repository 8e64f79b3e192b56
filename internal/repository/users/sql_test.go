package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/echo/backend/internal/database"
	"github.com/zhouzirui/echo/backend/internal/model/account"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	// bound as pgx so placeholders are rebound to $n
	return NewSQLRepository(sqlx.NewDb(db, "pgx")), mock, db
}

const (
	insertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*password_hash,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*$`
	selectQuery = `(?s)^SELECT\s+id,\s*email,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec(insertQuery).
		WithArgs("u-1", "a@x.com", "hash", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &account.User{ID: "u-1", Email: "a@x.com", PasswordHash: "hash", CreatedAt: now})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQuery).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

	err := repo.Create(context.Background(), &account.User{ID: "u-1", Email: "a@x.com"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQuery).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &account.User{ID: "u-1", Email: "a@x.com"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
		AddRow("u-1", "a@x.com", "hash", now)
	mock.ExpectQuery(selectQuery).WithArgs("a@x.com").WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "u-1", got.ID)
	require.Equal(t, "hash", got.PasswordHash)
	require.True(t, now.Equal(got.CreatedAt))
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQuery).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetByEmail_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQuery).WithArgs("a@x.com").WillReturnError(errors.New("db err"))

	_, err := repo.GetByEmail(context.Background(), "a@x.com")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSQLiteDuplicateIsDetected(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.DriverSQLite, "file:users_repo_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(ctx, db.DB, database.DriverSQLite))

	repo := NewSQLRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Create(ctx, &account.User{ID: "u-1", Email: "a@x.com", PasswordHash: "h1", CreatedAt: now}))
	err = repo.Create(ctx, &account.User{ID: "u-2", Email: "a@x.com", PasswordHash: "h2", CreatedAt: now})
	require.ErrorIs(t, err, ErrDuplicate)

	got, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "u-1", got.ID)
	require.Equal(t, "h1", got.PasswordHash)

	_, err = repo.GetByEmail(ctx, "b@x.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.Create(ctx, &account.User{ID: "u-1", Email: "a@x.com"}))
	require.ErrorIs(t, repo.Create(ctx, &account.User{ID: "u-2", Email: "a@x.com"}), ErrDuplicate)

	got, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "u-1", got.ID)

	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	require.ErrorIs(t, err, ErrNotFound)
}
