// Package apierror provides the error taxonomy shared by services and
// handlers, plus the standardized response envelopes for the API.
// Services return *Error values with a discriminated Kind; handlers map
// the kind to an HTTP status. Internal details (stack traces, DB errors)
// never reach clients.
package apierror

import (
	"errors"
	"net/http"
)

// Kind discriminates the failure classes callers branch on.
type Kind int

const (
	// KindConflict — operation clashes with existing state, e.g. opening a
	// register while another session is already open. Not retriable until
	// the existing session is resolved.
	KindConflict Kind = iota
	// KindNotFound — the referenced entity does not exist.
	KindNotFound
	// KindInvalidState — operation invalid for the entity's current state,
	// e.g. closing an already-closed session or paying into a closed one.
	KindInvalidState
	// KindValidation — malformed input: negative amounts, bad enums.
	KindValidation
)

// Error is the discriminated error type returned by all services.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// HTTPStatus maps the kind to the response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState:
		return http.StatusUnprocessableEntity
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func InvalidState(msg string) *Error { return &Error{Kind: KindInvalidState, Message: msg} }
func Invalid(msg string) *Error      { return &Error{Kind: KindValidation, Message: msg} }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation error", Fields: fields}
}
