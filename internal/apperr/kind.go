// Package apperr defines the application error taxonomy shared by every
// layer of the API: a closed set of error kinds, the AppError value that
// carries them, and the translator that turns any failure into the uniform
// JSON error envelope returned to clients.
//
// Conventions:
//   - Pipeline stages and services raise the narrowest applicable kind.
//   - Each kind maps to exactly one HTTP status, one stable machine-readable
//     code, and one default user-facing message. The mapping is fixed at
//     compile time and never mutated.
//   - Codes are lowercase snake_case so clients can branch on them
//     programmatically.
package apperr

import "net/http"

// Kind is a closed enumeration of failure categories. The zero value is
// KindInternal so that an uninitialized AppError still translates to a safe
// 500 response.
type Kind uint8

const (
	// KindInternal covers unexpected server-side failures (500).
	KindInternal Kind = iota
	// KindValidation covers malformed or invalid request payloads (400).
	KindValidation
	// KindAuthentication covers missing or invalid caller identity (401).
	KindAuthentication
	// KindAuthorization covers authenticated callers lacking rights (403).
	KindAuthorization
	// KindNotFound covers requests for resources that do not exist (404).
	KindNotFound
	// KindConflict covers requests that clash with existing state (409).
	KindConflict
	// KindRateLimited covers requests rejected by quota enforcement (429).
	KindRateLimited
)

// kindInfo holds the immutable per-kind mapping. The table is package-private
// so the "one kind, one status, one code" invariant cannot be broken at
// runtime.
type kindInfo struct {
	code    string
	status  int
	message string
}

var kinds = [...]kindInfo{
	KindInternal:       {"internal_error", http.StatusInternalServerError, "internal server error"},
	KindValidation:     {"validation_error", http.StatusBadRequest, "request validation failed"},
	KindAuthentication: {"unauthorized", http.StatusUnauthorized, "authentication required"},
	KindAuthorization:  {"forbidden", http.StatusForbidden, "insufficient permissions"},
	KindNotFound:       {"not_found", http.StatusNotFound, "resource not found"},
	KindConflict:       {"conflict", http.StatusConflict, "resource conflict"},
	KindRateLimited:    {"too_many_requests", http.StatusTooManyRequests, "rate limit exceeded"},
}

// valid reports whether k is a member of the closed set. Unknown values are
// treated as KindInternal by the accessors below.
func (k Kind) valid() bool { return int(k) < len(kinds) }

// Code returns the stable machine-readable code for the kind,
// e.g. "not_found".
func (k Kind) Code() string {
	if !k.valid() {
		k = KindInternal
	}
	return kinds[k].code
}

// Status returns the fixed HTTP status for the kind, e.g. 404.
func (k Kind) Status() int {
	if !k.valid() {
		k = KindInternal
	}
	return kinds[k].status
}

// DefaultMessage returns the default user-facing message for the kind. An
// AppError may override it with a more specific message.
func (k Kind) DefaultMessage() string {
	if !k.valid() {
		k = KindInternal
	}
	return kinds[k].message
}

// String implements fmt.Stringer using the stable code.
func (k Kind) String() string { return k.Code() }
