package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrHashing            = errors.New("password hashing failed")
	ErrStoreUnavailable   = errors.New("credential store unavailable")
	ErrInvalidSession     = errors.New("invalid or expired session")

	// ErrAccountNotFound is returned by stores on lookup misses. Services must
	// translate it before it reaches a caller.
	ErrAccountNotFound = errors.New("account not found")
)

// ValidationError describes malformed input for a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
