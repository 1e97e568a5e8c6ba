package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/frotadesk/frotadesk/internal/authz"
)

// MinPasswordLength matches the legacy back office rule.
const MinPasswordLength = 3

// Service wraps user administration rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new account with a hashed password.
func (s *Service) Create(ctx context.Context, username, password, role string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, fmt.Errorf("%w: username required", ErrValidation)
	}
	if len(password) < MinPasswordLength {
		return User{}, fmt.Errorf("%w: password must have at least %d characters", ErrValidation, MinPasswordLength)
	}
	if !authz.ValidRole(role) {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user := User{Username: username, Role: authz.Role(strings.ToLower(role)), PasswordHash: string(hash)}
	id, err := s.repo.Create(ctx, user)
	if err != nil {
		return User{}, err
	}
	user.ID = id
	return user, nil
}

// Update rewrites username and role; password is changed only when provided.
func (s *Service) Update(ctx context.Context, id int64, username, role, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username required", ErrValidation)
	}
	if !authz.ValidRole(role) {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	user := User{ID: id, Username: username, Role: authz.Role(strings.ToLower(role))}
	if password != "" {
		if len(password) < MinPasswordLength {
			return fmt.Errorf("%w: password must have at least %d characters", ErrValidation, MinPasswordLength)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user.PasswordHash = string(hash)
	}
	return s.repo.Update(ctx, user)
}

// Delete removes an account. Users may not delete themselves.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return ErrSelfDelete
	}
	return s.repo.Delete(ctx, id)
}
