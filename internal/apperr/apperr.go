// Package apperr defines the error taxonomy surfaced to API callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation    Kind = "invalid_request"
	KindConfigMissing Kind = "configuration_missing"
	KindBackendParse  Kind = "backend_parse_failure"
	KindBackend       Kind = "backend_unavailable"
	KindNotFound      Kind = "not_found"
	KindPersistence   Kind = "persistence_failure"
	KindUnknown       Kind = "internal_error"
)

// Error is the application error type. Message is safe to show to callers;
// Err carries the underlying cause for logs only.
type Error struct {
	Kind    Kind
	Message string
	Status  int
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

// HTTPStatusCode returns the explicit status or the default for the kind.
func (e *Error) HTTPStatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindBackendParse:
		return http.StatusBadGateway
	case KindBackend:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

// ConfigMissing reports a missing credential or backing service. status lets
// callers pick 500 (misconfigured backend key) or 503 (optional store absent).
func ConfigMissing(msg string, status int) *Error {
	return &Error{Kind: KindConfigMissing, Message: msg, Status: status}
}

func BackendParse(err error) *Error {
	return &Error{Kind: KindBackendParse, Message: "Model output could not be parsed.", Err: err}
}

func Backend(err error) *Error {
	return &Error{Kind: KindBackend, Message: "Generation backend is unavailable.", Err: err}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Persistence(err error) *Error {
	return &Error{Kind: KindPersistence, Message: "Failed to persist result.", Err: err}
}

// Unknown wraps an unexpected fault with a generic caller-facing message.
func Unknown(msg string, err error) *Error {
	return &Error{Kind: KindUnknown, Message: msg, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
