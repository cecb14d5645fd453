// Package apperrors defines the error kinds the service layer reports.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error.
type Kind string

const (
	// KindValidation marks malformed or empty input.
	KindValidation Kind = "VALIDATION"
	// KindAuthorization marks an actor lacking permission for a mutation.
	KindAuthorization Kind = "AUTHORIZATION"
	// KindCapability marks a target reviewer without the required role or language.
	KindCapability Kind = "CAPABILITY"
	// KindConflict marks a violated one-time or at-most-one invariant.
	KindConflict Kind = "CONFLICT"
	// KindNotFound marks a missing entity.
	KindNotFound Kind = "NOT_FOUND"
	// KindInternal marks an unexpected failure.
	KindInternal Kind = "INTERNAL"
)

var statusByKind = map[Kind]int{
	KindValidation:    http.StatusBadRequest,
	KindAuthorization: http.StatusForbidden,
	KindCapability:    http.StatusUnprocessableEntity,
	KindConflict:      http.StatusConflict,
	KindNotFound:      http.StatusNotFound,
	KindInternal:      http.StatusInternalServerError,
}

// Error is a domain error with a machine-readable kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status for the error kind.
func (e *Error) HTTPStatus() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind wrapping a cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
