package domain

import (
	"errors"
	"fmt"
)

// Error codes surfaced to the HTTP layer.
const (
	ErrorCodeValidation   = "VALIDATION"
	ErrorCodeNotFound     = "NOT_FOUND"
	ErrorCodeUnauthorized = "UNAUTHORIZED"
	ErrorCodeConflict     = "CONFLICT"
	ErrorCodeStorage      = "STORAGE"
)

var (
	// ErrValidation marks malformed input; the operation aborts with no
	// partial state.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a bug id (or user) does not exist,
	// whether it never did or was already closed.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized means the caller lacks an authenticated session.
	ErrUnauthorized = errors.New("unauthorized")

	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")

	// ErrStorage wraps store failures. Fatal to the operation and always
	// surfaced before any notification attempt.
	ErrStorage = errors.New("storage error")
)

// Validationf builds a ValidationError with a caller-facing message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Storagef wraps an underlying store failure as a StorageError.
func Storagef(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
