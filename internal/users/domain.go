package users

import (
	"errors"
	"time"

	"github.com/frotadesk/frotadesk/internal/authz"
)

// User represents a back-office account.
type User struct {
	ID           int64
	Username     string
	Role         authz.Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("users: not found")
	// ErrDuplicateUsername indicates the username is taken.
	ErrDuplicateUsername = errors.New("users: username already exists")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("users: invalid input")
	// ErrSelfDelete indicates a user attempted to delete their own account.
	ErrSelfDelete = errors.New("users: cannot delete own account")
)
