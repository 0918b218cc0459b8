package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrInvalidState  = errors.New("invalid state")

	// ErrOutOfWindow is returned when a task is completed on a day other than its own.
	ErrOutOfWindow = errors.New("task can only be completed on its own date")

	ErrAlreadyCompleted = fmt.Errorf("task already completed: %w", ErrInvalidState)
	ErrHabitNotActive   = fmt.Errorf("habit is not active: %w", ErrInvalidState)
	ErrMissingCategory  = fmt.Errorf("habit has no category: %w", ErrInvalidState)
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field-level problems. It matches ErrValidation.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// Err returns nil when nothing was added.
func (e *ValidationError) Err() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func NewValidationError(field, message string) error {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}
