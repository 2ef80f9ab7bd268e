// AppError value type.
//
// This file defines Error, the single error value raised by pipeline stages
// and domain handlers, plus constructors for each kind. An Error is created
// at the point a failure is detected, travels up the call stack like any
// other Go error, and is consumed by Translate when the response is written.
// It is never persisted.
package apperr

import (
	"errors"
	"fmt"
)

// FieldError describes a single field-level validation failure. Details of a
// KindValidation error hold the full ordered list, covering every failing
// field rather than just the first.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error is the application error value. It pairs a Kind with an optional
// message override, a machine-readable detail payload, and free-form context
// for server-side logging.
type Error struct {
	// Kind selects the HTTP status, code, and default message.
	Kind Kind
	// Message overrides the kind's default user-facing message when non-empty.
	Message string
	// Details carries structured data for the client, e.g. []FieldError for
	// validation failures or a retry hint for rate limiting. For
	// KindInternal, details are stripped before transmission unless the
	// translator is explicitly configured to expose them.
	Details any
	// Context holds extra key/value pairs for logs. Never sent to clients.
	Context map[string]any
	// cause is the wrapped underlying error, if any.
	cause error
}

// New constructs an Error of the given kind. An empty msg falls back to the
// kind's default message at translation time.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf constructs an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and msg to an underlying error, preserving it for
// errors.Is / errors.Unwrap chains and for server-side logging.
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, cause: err}
}

// WithDetails returns e with its detail payload set. It mutates and returns
// the receiver for fluent construction at raise sites.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// WithContext adds a key/value pair to the error's logging context.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any, 4)
	}
	e.Context[key] = value
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.DefaultMessage()
	}
	if e.cause != nil {
		return e.Kind.Code() + ": " + msg + ": " + e.cause.Error()
	}
	return e.Kind.Code() + ": " + msg
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status the error translates to.
func (e *Error) Status() int { return e.Kind.Status() }

// userMessage returns the message sent to clients: the override when set,
// otherwise the kind default.
func (e *Error) userMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.DefaultMessage()
}

// Convenience constructors, one per kind. Handlers and services should use
// these rather than spelling out kinds at every raise site.

// Validation builds a 400 error carrying the given field errors.
func Validation(fields []FieldError) *Error {
	return New(KindValidation, "").WithDetails(fields)
}

// Authentication builds a 401 error.
func Authentication(msg string) *Error { return New(KindAuthentication, msg) }

// Authorization builds a 403 error.
func Authorization(msg string) *Error { return New(KindAuthorization, msg) }

// NotFound builds a 404 error.
func NotFound(msg string) *Error { return New(KindNotFound, msg) }

// Conflict builds a 409 error.
func Conflict(msg string) *Error { return New(KindConflict, msg) }

// RateLimited builds a 429 error with a retry-after hint in seconds.
func RateLimited(retryAfterSeconds int) *Error {
	return New(KindRateLimited, "").WithDetails(map[string]int{"retryAfterSeconds": retryAfterSeconds})
}

// Internal wraps an unexpected error as a 500 without leaking its message to
// clients. The original error remains available via Unwrap for logging.
func Internal(err error) *Error {
	return Wrap(err, KindInternal, "")
}

// From extracts an *Error from err's chain, or nil when err carries none.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	ae := From(err)
	return ae != nil && ae.Kind == kind
}
