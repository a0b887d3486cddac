package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrInvalidToken)
	ErrInternal           = errors.New("internal error")

	// ErrParentNotFound rejects a business unit whose parent_id does not exist.
	ErrParentNotFound = NewValidationError("parent_id", "does not reference an existing business unit")
)

// ValidationError describes a rejected input field. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InternalError wraps an unexpected failure from storage, hashing or signing.
// The wrapped cause is for logs only.
type InternalError struct {
	Op  string
	Err error
}

// Internal wraps err as an InternalError tagged with op.
func Internal(op string, err error) error {
	return &InternalError{Op: op, Err: err}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}
