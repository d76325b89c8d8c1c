package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrProductNotFound   = errors.New("product not found")
	ErrNoImage           = errors.New("product has no photo")
	ErrInvalidTransition = errors.New("transition not allowed in current moderation state")
	ErrDuplicate         = errors.New("product duplicates a confirmed product")
	ErrForbidden         = errors.New("forbidden")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError that matches ErrValidation.
func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Bulk item outcome codes.
const (
	CodeNotFound     = "not_found"
	CodeNoImage      = "no_image"
	CodeDuplicate    = "duplicate"
	CodeInvalidState = "invalid_state"
	CodeError        = "error"
)

// CodeFor maps an error to the bulk item outcome code.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, ErrProductNotFound):
		return CodeNotFound
	case errors.Is(err, ErrNoImage):
		return CodeNoImage
	case errors.Is(err, ErrDuplicate):
		return CodeDuplicate
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidState
	default:
		return CodeError
	}
}
