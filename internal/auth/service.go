// Package auth verifies credentials and binds identities to sessions.
package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/frotadesk/frotadesk/internal/shared"
	"github.com/frotadesk/frotadesk/internal/users"
)

// UserSource resolves accounts for credential checks.
type UserSource interface {
	FindByUsername(ctx context.Context, username string) (users.User, error)
}

// Service wraps authentication business rules.
type Service struct {
	source UserSource
}

// NewService constructs a new Service.
func NewService(source UserSource) *Service {
	return &Service{source: source}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (users.User, error) {
	user, err := s.source.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, shared.ErrInvalidCredentials
		}
		return users.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}
