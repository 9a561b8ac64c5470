package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the categories the API surfaces.
// Handlers map a Kind to an HTTP status; clients switch on Kind and Code,
// never on message text.
type Kind string

const (
	KindConflict          Kind = "conflict"
	KindForbidden         Kind = "forbidden"
	KindInvalidTransition Kind = "invalid_transition"
	KindNotFound          Kind = "not_found"
	KindSelfReferential   Kind = "self_referential"
	KindUnauthorized      Kind = "unauthorized"
	KindInternal          Kind = "internal"
)

// Code narrows a Kind into a machine-readable sub-condition, so the client
// can distinguish e.g. "you already sent a request" from "they already sent
// you one" without parsing prose.
const (
	CodeRequestPending    = "request_pending"
	CodeReciprocalPending = "reciprocal_pending"
	CodeAlreadyConnected  = "already_connected"
	CodeBlocked           = "blocked"
	CodeDuplicate         = "duplicate"
)

// Error is the tagged error type raised by the service layer.
type Error struct {
	Kind    Kind
	Code    string
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

// New creates an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewWithCode creates an Error carrying a sub-condition code.
func NewWithCode(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches an underlying cause to a new Error.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Conflict is a shorthand for New(KindConflict, ...).
func Conflict(code, message string) *Error {
	return NewWithCode(KindConflict, code, message)
}

// Forbidden is a shorthand for New(KindForbidden, ...).
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// NotFound is a shorthand for New(KindNotFound, ...).
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// InvalidTransition is a shorthand for New(KindInvalidTransition, ...).
func InvalidTransition(message string) *Error {
	return New(KindInvalidTransition, message)
}

// SelfReferential is a shorthand for New(KindSelfReferential, ...).
func SelfReferential(message string) *Error {
	return New(KindSelfReferential, message)
}

// Internal wraps an unexpected error from a lower layer.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf returns the Kind of err, unwrapping as needed, or KindInternal for
// any error with no *Error in its chain. A nil err has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the sub-condition code of err, if any.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps a Kind to the HTTP status the API responds with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindSelfReferential:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
