// Package service implements account registration and credential
// authentication on top of the database package.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks user-correctable input problems.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a signup for an email that is already registered.
	ErrConflict = errors.New("account already exists")
	// ErrTransient marks store or hashing faults; the request may succeed later.
	ErrTransient = errors.New("service temporarily unavailable")
)

// ValidationError carries the message key shown on the form.
type ValidationError struct {
	Key string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Key)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(key string) error {
	return &ValidationError{Key: key}
}

func transient(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
}
