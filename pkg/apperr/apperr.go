// Package apperr defines the error kinds shared by the stores, services and
// HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("unavailable")
)

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound returns a NotFoundError for entity/id.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError reports a rejected field.
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

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Invalid returns a ValidationError for field.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Required is shorthand for Invalid(field, "is required").
func Required(field string) error {
	return Invalid(field, "is required")
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// Conflict reports an operation that clashes with current state.
func Conflict(format string, args ...any) error {
	return &kindError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

// Unauthorized reports missing or bad credentials.
func Unauthorized(msg string) error {
	return &kindError{kind: ErrUnauthorized, msg: msg}
}

// Forbidden reports an authenticated caller touching something it does not own.
func Forbidden(msg string) error {
	return &kindError{kind: ErrForbidden, msg: msg}
}

// Unavailable reports a dependency that is not configured or not reachable.
func Unavailable(msg string) error {
	return &kindError{kind: ErrUnavailable, msg: msg}
}

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsInvalid(err error) bool      { return errors.Is(err, ErrInvalidInput) }
func IsConflict(err error) bool     { return errors.Is(err, ErrConflict) }
func IsForbidden(err error) bool    { return errors.Is(err, ErrForbidden) }
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// HTTPStatus maps err to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
