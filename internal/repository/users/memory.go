package users

import (
	"context"
	"sync"

	"github.com/zhouzirui/echo/backend/internal/model/account"
)

// MemoryRepository keeps accounts in a map. Used by tests and local runs
// without a database.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]account.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]account.User)}
}

func (r *MemoryRepository) Create(_ context.Context, user *account.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Email]; ok {
		return ErrDuplicate
	}
	r.users[user.Email] = *user
	return nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*account.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}
