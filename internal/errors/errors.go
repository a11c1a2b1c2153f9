package errors

import (
	"errors"
	"fmt"
)

// Common error types for the attendance admin client
var (
	// Authentication errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUserNotFound     = errors.New("user not found")

	// Token errors
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// ErrStorageUnavailable wraps backend I/O failures of the session store
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrValidation     = errors.New("validation failed")

	// General errors
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Validationf returns an error wrapping ErrValidation with a user facing message
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
