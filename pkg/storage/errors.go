package storage

import (
	"errors"
	"fmt"
)

// ErrValidation is returned when input is missing or malformed. It is never retried.
var ErrValidation = errors.New("validation failed")

// ErrNotFound is returned when a flight, account or purchase does not exist.
var ErrNotFound = errors.New("not found")

// ErrCapacityExhausted is returned when a flight has no seats left.
var ErrCapacityExhausted = errors.New("flight capacity exhausted")

// ErrInsufficientMiles is returned when an account balance cannot cover a debit.
var ErrInsufficientMiles = errors.New("insufficient miles")

// ErrConflict is returned when creating a record that already exists.
var ErrConflict = errors.New("already exists")

// ErrAlreadySettled is returned when a purchase is no longer PENDING at settlement time.
var ErrAlreadySettled = errors.New("purchase already settled")

// ErrTransient marks I/O failures that survived the retry policy of the store.
var ErrTransient = errors.New("transient store failure")

// TransientError wraps a backend failure after retries have been exhausted.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() []error {
	return []error{ErrTransient, e.Err}
}

// Transient wraps err as a TransientError for the given operation.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// Validationf builds an ErrValidation with a formatted reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
