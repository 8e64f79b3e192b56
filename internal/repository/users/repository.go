package users

import (
	"context"
	"errors"

	"github.com/zhouzirui/echo/backend/internal/model/account"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

// Repository persists accounts.
type Repository interface {
	// Create inserts user, failing with ErrDuplicate when the email is taken.
	Create(ctx context.Context, user *account.User) error
	// GetByEmail returns ErrNotFound when no account has email.
	GetByEmail(ctx context.Context, email string) (*account.User, error)
}
