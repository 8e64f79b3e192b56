package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/zhouzirui/echo/backend/internal/model/account"
)

const pgUniqueViolation = "23505"

// SQLRepository stores users in the `users` table.
type SQLRepository struct {
	db sqlx.ExtContext
}

// NewSQLRepository binds the repository to db, which may be a *sqlx.DB or *sqlx.Tx.
func NewSQLRepository(db sqlx.ExtContext) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, user *account.User) error {
	query := r.db.Rebind(
		`INSERT INTO users (id, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	query := r.db.Rebind(
		`SELECT id, email, password_hash, created_at FROM users
		 WHERE email = ?`)

	user := &account.User{}
	if err := sqlx.GetContext(ctx, r.db, user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
