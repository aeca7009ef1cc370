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

// ErrConflict indicates the request conflicts with the current state of the resource.
var ErrConflict = errors.New("conflict with current state")

// ErrInternal indicates an unexpected failure, usually in storage.
var ErrInternal = errors.New("internal error")

// Ledger and vault specific errors.
var (
	ErrUnbalancedTransaction = errors.New("transaction is not balanced")
	ErrAccountNotFound       = fmt.Errorf("account %w", ErrNotFound)
	ErrVaultNotFound         = fmt.Errorf("vault %w", ErrNotFound)
	ErrVaultLocked           = errors.New("vault is locked")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrMissingFxRate         = errors.New("no exchange rate available")
	ErrAlreadyReversed       = errors.New("transaction already reversed")
	ErrInvalidCurrency       = errors.New("invalid currency")
)

// AppError carries an HTTP-ish status code along with the wrapped cause.
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

// NewAppError wraps err with a code and message. A nil err is replaced by ErrInternal
// so that storage failures always match errors.Is(err, ErrInternal).
func NewAppError(code int, message string, err error) *AppError {
	if err == nil {
		err = ErrInternal
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError returns ErrNotFound annotated with the missing resource.
func NewNotFoundError(resource string) error {
	return fmt.Errorf("%s: %w", resource, ErrNotFound)
}

// NewValidationError returns ErrValidation annotated with msg.
func NewValidationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// NewStorageError wraps a driver failure so that it matches ErrInternal while keeping the cause.
func NewStorageError(message string, err error) error {
	return NewAppError(500, message, fmt.Errorf("%w: %w", ErrInternal, err))
}
