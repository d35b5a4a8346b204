package store

import (
	"errors"
	"fmt"
)

// Store errors shared by every driver. Drivers translate their own
// error types into these before returning.
var (
	// ErrNotFound is the root of every "not found" error.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is the root of every unique-constraint error.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when the database rejects a row,
	// e.g. a check or foreign-key violation.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrDeleteFailed is returned when a delete stops part way,
	// e.g. a user's tasks were removed but the user was not.
	ErrDeleteFailed = errors.New("delete failed")

	// ErrTransactionFailed is returned when a transaction cannot begin or commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrUserNotFound indicates that no user matches the lookup. A lookup by
	// id and token reports it for a revoked token as well.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrTaskNotFound indicates that the task does not exist or is owned by another user.
	// The two cases are indistinguishable.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrEmailExists indicates that another user already has the (normalized) email.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)
)

// IsNotFoundError reports whether err is ErrNotFound or one of the
// entity-specific errors wrapping it.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is ErrDuplicate or one of the
// entity-specific errors wrapping it.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError adds the entity and operation to a driver failure.
type StoreError struct {
	Entity    string // "user" or "task"
	Operation string // e.g. "create", "list"
	Message   string
	Err       error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Entity, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Entity, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a StoreError for entity and operation wrapping err.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
