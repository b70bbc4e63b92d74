package service

import (
	"errors"
	"fmt"
)

// Error classes. Handlers map each class to one HTTP status.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

var (
	ErrMissingTitle = classed(ErrInvalidInput, "title is required")
	ErrNoFields     = classed(ErrInvalidInput, "no fields to update")

	ErrUsernameTaken = classed(ErrConflict, "username already exists")
	ErrEmailTaken    = classed(ErrConflict, "email already exists")

	ErrUserNotFound = classed(ErrNotFound, "user not found")
	ErrTaskNotFound = classed(ErrNotFound, "task not found")

	ErrInvalidCredentials = classed(ErrUnauthorized, "invalid credentials")
)

// classError carries a client-facing message and unwraps to its class.
type classError struct {
	class error
	msg   string
}

func (e *classError) Error() string { return e.msg }
func (e *classError) Unwrap() error { return e.class }

func classed(class error, msg string) error {
	return &classError{class: class, msg: msg}
}

func invalidf(format string, args ...any) error {
	return classed(ErrInvalidInput, fmt.Sprintf(format, args...))
}
