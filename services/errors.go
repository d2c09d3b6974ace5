package services

import (
	"errors"
	"fmt"
)

// ValidationError means the caller sent bad input (name charset/length,
// negative amount). Maps to 400 at the HTTP layer.
type ValidationError struct {
	Reason  string // machine-readable, e.g. "name_too_long"
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Reason, e.Message)
}

// ConflictError means a precondition is unmet (rename gate, season already
// reset). Maps to 409 at the HTTP layer.
type ConflictError struct {
	Reason  string // e.g. "tier_too_low", "already_renamed_in_code"
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict (%s): %s", e.Reason, e.Message)
}

// StoreError wraps any underlying read/write failure. Maps to 500. Side
// effects already committed before the failure are NOT rolled back — the
// coordinator logs a [RECONCILE] line instead.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error in %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// AsValidationError reports whether err is (or wraps) a ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// AsConflictError reports whether err is (or wraps) a ConflictError.
func AsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	ok := errors.As(err, &ce)
	return ce, ok
}
