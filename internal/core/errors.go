package core

import (
	"errors"
	"fmt"
)

// ValidationError reports invalid or missing user input. It is never persisted.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError wraps err for field.
func NewValidationError(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// StorageCorruptionError reports a persisted payload that is not well-formed.
type StorageCorruptionError struct {
	Key string
	Err error
}

func (e *StorageCorruptionError) Error() string {
	return fmt.Sprintf("corrupted payload under %q: %v", e.Key, e.Err)
}

func (e *StorageCorruptionError) Unwrap() error { return e.Err }

// StorageUnavailableError reports a backend that cannot be read or written.
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable during %s: %v", e.Op, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCorruption reports whether err is (or wraps) a StorageCorruptionError.
func IsCorruption(err error) bool {
	var ce *StorageCorruptionError
	return errors.As(err, &ce)
}

// IsUnavailable reports whether err is (or wraps) a StorageUnavailableError.
func IsUnavailable(err error) bool {
	var ue *StorageUnavailableError
	return errors.As(err, &ue)
}
