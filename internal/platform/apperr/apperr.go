// Package apperr defines the error taxonomy shared by all domain services.
// Handlers translate these into HTTP responses; store errors are wrapped as
// Dependency so their internal detail never reaches the caller.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthenticated
	KindUnauthorized
	KindNotFound
	KindInvalidInput
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindDependency:
		return "dependency_failure"
	}
	return "unknown"
}

// Error carries a taxonomy kind, a caller-safe message, and an optional
// wrapped cause. The cause is for server-side logs only.
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

func (e *Error) Unwrap() error { return e.Err }

func Unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Invalid(msg string) error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func Invalidf(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// Dependency wraps an unexpected store or collaborator error. The message is
// what callers see; err holds the internal detail.
func Dependency(err error, msg string) error {
	return &Error{Kind: KindDependency, Message: msg, Err: err}
}

// KindOf extracts the taxonomy kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the caller-safe message for err. Dependency and unknown
// errors get a generic message so internal detail is never leaked.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindDependency {
			return "internal error"
		}
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindDependency:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
