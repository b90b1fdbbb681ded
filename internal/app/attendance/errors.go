// internal/app/attendance/errors.go
package attendance

import "errors"

// Operation error kinds. Validation errors (ErrNotFound, ErrInvalidState,
// ErrInvalidInput, ErrUnauthorized) are detected before any write and
// carry no side effects. ErrWriteConflict wraps an underlying batch or
// transaction failure and may follow partial writes on deployments
// without transaction support; every operation is safe to retry.
var (
	ErrNotFound      = errors.New("referenced record not found")
	ErrInvalidState  = errors.New("operation not valid in the current state")
	ErrInvalidInput  = errors.New("invalid input")
	ErrWriteConflict = errors.New("write conflict")
	ErrUnauthorized  = errors.New("caller lacks admin capability")
)

// IsValidation reports whether err is one of the pre-write validation
// kinds (as opposed to a store failure).
func IsValidation(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnauthorized)
}
