package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the requested operation is not allowed in the
// resource's current state (e.g. an illegal settlement transition).
var ErrConflict = errors.New("operation conflicts with current state")

// ErrConfiguration indicates that required configuration is missing or invalid.
// Fail-closed: operations depending on the missing value are refused outright.
var ErrConfiguration = errors.New("configuration error")

// ErrIntegrity indicates a broken data invariant (e.g. a balance that does not
// reconcile against its settlement trail). It is surfaced, never silently fixed.
var ErrIntegrity = errors.New("data integrity violation")

// AppError wraps an underlying error with a status code and message for
// transport layers that need to map failures onto HTTP responses.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
