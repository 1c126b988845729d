package core

import (
	"errors"
	"fmt"
)

// Failure taxonomy shared by every service. Callers discriminate with
// errors.Is; the HTTP layer maps each class to a status code.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrPrecondition = errors.New("precondition failed")
	ErrStorage      = errors.New("storage failure")
)

// Field-level validation errors. All of them match ErrValidation.
var (
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidDate        = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrEmptyDescription   = fmt.Errorf("%w: empty description", ErrValidation)
	ErrEmptyName          = fmt.Errorf("%w: empty name", ErrValidation)
	ErrMissingOwner       = fmt.Errorf("%w: missing owner", ErrValidation)
	ErrMissingAccount     = fmt.Errorf("%w: missing account", ErrValidation)
	ErrMissingCategory    = fmt.Errorf("%w: missing category", ErrValidation)
	ErrUnknownRole        = fmt.Errorf("%w: unknown account role", ErrValidation)
	ErrUnknownCategory    = fmt.Errorf("%w: unknown category type", ErrValidation)
	ErrNegativeBudget     = fmt.Errorf("%w: negative budgeted amount", ErrValidation)
	ErrNonPositiveAmount  = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidMonth       = fmt.Errorf("%w: month out of range", ErrValidation)
	ErrUnknownTargetRole  = fmt.Errorf("%w: unknown target role", ErrValidation)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
)

// NotFound wraps ErrNotFound with the entity kind for log and API messages.
func NotFound(kind string) error {
	return fmt.Errorf("%s %w", kind, ErrNotFound)
}

// Conflict wraps ErrConflict with a human-readable reason.
func Conflict(reason string) error {
	return fmt.Errorf("%w: %s", ErrConflict, reason)
}

// Precondition wraps ErrPrecondition with a human-readable reason.
func Precondition(reason string) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, reason)
}
