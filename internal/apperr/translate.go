// Response translation.
//
// This file converts any error escaping a pipeline stage or domain handler
// into the uniform JSON error envelope:
//
//	{
//	  "success": false,
//	  "error": {
//	    "code":       "not_found",
//	    "message":    "course not found",
//	    "statusCode": 404,
//	    "details":    ...optional...
//	  }
//	}
//
// Three inputs are recognized: an *Error (kind supplies status/code, custom
// message and details pass through), a validator.ValidationErrors from the
// schema engine (converted to KindValidation with the complete field list),
// and anything else (converted to KindInternal with a generic message; the
// original error text is preserved in details for server-side logging only).
package apperr

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrorBody is the "error" object of the error envelope.
type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Details    any    `json:"details,omitempty"`
}

// Response is the full error envelope written to clients.
type Response struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// Translator converts errors to envelopes. The zero value is usable and
// safe: internal details are stripped and translations are logged through
// the global zerolog logger.
type Translator struct {
	// ExposeInternal, when true, lets KindInternal details reach the wire.
	// Exposure is an explicit deployment decision (debug environments only),
	// never an implicit environment sniff. Default false.
	ExposeInternal bool

	// Logger receives one entry per translation at a severity derived from
	// the kind. When nil, the global zerolog logger is used.
	Logger *zerolog.Logger
}

// Translate maps err to an HTTP status and an error envelope, logging the
// translation as a side effect. It never returns a partial envelope: every
// error, whatever its origin, produces the fixed shape.
func (t Translator) Translate(err error) (int, Response) {
	ae := t.normalize(err)

	t.logTranslation(ae)

	details := ae.Details
	if ae.Kind == KindInternal && !t.ExposeInternal {
		// Raw messages and stacks must not leak to untrusted clients.
		details = nil
	}

	return ae.Kind.Status(), Response{
		Success: false,
		Error: ErrorBody{
			Code:       ae.Kind.Code(),
			Message:    ae.userMessage(),
			StatusCode: ae.Kind.Status(),
			Details:    details,
		},
	}
}

// normalize coerces any error into an *Error without losing information.
func (t Translator) normalize(err error) *Error {
	if ae := From(err); ae != nil {
		return ae
	}
	var verrs validator.ValidationErrors
	if ok := asValidationErrors(err, &verrs); ok {
		return Validation(FieldErrorsFrom(verrs))
	}
	// Unknown error: generic message for the client, original text in
	// details so server-side logs retain the cause.
	ae := Internal(err)
	if err != nil {
		ae.Details = map[string]string{"cause": err.Error()}
	}
	return ae
}

// logTranslation emits one structured log line per translated error, with
// severity derived from the kind: Internal is logged as an error, the
// authn/authz/conflict/rate families as warnings, and expected request-level
// failures (validation, not found) at debug.
func (t Translator) logTranslation(ae *Error) {
	lg := t.Logger
	if lg == nil {
		lg = &log.Logger
	}

	var ev *zerolog.Event
	switch ae.Kind {
	case KindInternal:
		ev = lg.Error()
	case KindAuthentication, KindAuthorization, KindConflict, KindRateLimited:
		ev = lg.Warn()
	default:
		ev = lg.Debug()
	}

	ev = ev.Str("code", ae.Kind.Code()).Int("status", ae.Kind.Status())
	if cause := ae.Unwrap(); cause != nil {
		ev = ev.AnErr("cause", cause)
	}
	for k, v := range ae.Context {
		ev = ev.Interface(k, v)
	}
	ev.Msg(ae.userMessage())
}

// FieldErrorsFrom flattens validator.ValidationErrors into the ordered
// []FieldError detail payload. Every failing field is reported, not just the
// first, so callers can render a complete error summary.
func FieldErrorsFrom(verrs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(verrs))
	for _, ve := range verrs {
		out = append(out, FieldError{
			Field:   fieldName(ve),
			Message: fieldMessage(ve),
			Code:    ve.Tag(),
		})
	}
	return out
}

// asValidationErrors is errors.As with a concrete target, split out so
// normalize reads linearly.
func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	if err == nil {
		return false
	}
	if verrs, ok := err.(validator.ValidationErrors); ok { //nolint:errorlint // top level check first, cheap
		*target = verrs
		return true
	}
	return false
}

// fieldName derives the client-facing field name from a validator error:
// the struct namespace below the root type, lower-cased at the first
// segment boundary (matching the JSON convention used by request DTOs).
func fieldName(ve validator.FieldError) string {
	ns := ve.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	if ns == "" {
		ns = ve.Field()
	}
	// DTO JSON keys are lowerCamel; lower the first rune of each segment.
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

// fieldMessage renders a human-readable message for the common validation
// tags; uncommon tags fall back to naming the violated rule.
func fieldMessage(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", ve.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", ve.Param())
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed the %q rule", ve.Tag())
	}
}
