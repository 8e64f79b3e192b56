// Package account implements the credential store: account creation and
// password verification.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	model "github.com/zhouzirui/echo/backend/internal/model/account"
	"github.com/zhouzirui/echo/backend/internal/repository/users"
	"github.com/zhouzirui/echo/backend/internal/security/password"
)

var (
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("email and password are required")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// Service creates and verifies accounts.
type Service struct {
	repo   users.Repository
	hasher password.Hasher
	logger *slog.Logger
	now    func() time.Time

	// dummyHash is verified against when the email is unknown so both failure
	// paths cost one hash comparison.
	dummyHash string
}

// NewService wires the repository and password hasher.
func NewService(repo users.Repository, hasher password.Hasher, logger *slog.Logger) (*Service, error) {
	if repo == nil || hasher == nil {
		return nil, errors.New("account: repository and hasher are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("account: prepare dummy hash: %w", err)
	}

	return &Service{
		repo:      repo,
		hasher:    hasher,
		logger:    logger,
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

// CreateAccount stores a new account for email, failing with
// ErrDuplicateAccount when the email is already registered.
func (s *Service) CreateAccount(ctx context.Context, email, plain string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" || plain == "" {
		return nil, ErrInvalidInput
	}
	if len(plain) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateAccount
	} else if !errors.Is(err, users.ErrNotFound) {
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	digest, err := s.hasher.Hash(plain)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.InfoContext(ctx, "account created", "user_id", user.ID)
	return user, nil
}

// VerifyAccount checks email/password. Unknown emails and wrong passwords both
// return ErrInvalidCredentials after the same amount of hashing work.
func (s *Service) VerifyAccount(ctx context.Context, email, plain string) (*model.User, error) {
	email = model.NormalizeEmail(email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.hasher.Verify(plain, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if !s.hasher.Verify(plain, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
