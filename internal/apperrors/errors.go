// Package apperrors defines the failure taxonomy shared by the auth
// service, middleware and HTTP layer. Callers classify with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrMissingToken       = errors.New("refresh token is required")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidSession     = errors.New("no active session for token")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrValidation         = errors.New("validation failed")
)

// Conflict tags a duplicate-key failure with the offending field so the
// HTTP boundary can format a field-specific 409 message.
func Conflict(field string) error {
	return fmt.Errorf("%w: %s", ErrConflict, field)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrInvalidSession)
}
