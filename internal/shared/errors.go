package shared

import "errors"

var (
	// ErrInvalidCredentials indicates a failed username/password check.
	ErrInvalidCredentials = errors.New("shared: invalid credentials")
	// ErrCSRFTokenMissing indicates a mutating request without a CSRF token.
	ErrCSRFTokenMissing = errors.New("shared: csrf token missing")
	// ErrCSRFTokenMismatch indicates a CSRF token bound to another session.
	ErrCSRFTokenMismatch = errors.New("shared: csrf token mismatch")
)
