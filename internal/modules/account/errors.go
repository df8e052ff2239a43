package account

import (
	"fmt"
	"net/http"
)

// DomainError is a structured, self-describing domain error used across the
// account module. It carries RFC7807-friendly metadata so a shared formatter
// can convert any domain error into a Problem response without enumerating
// error types.
type DomainError struct {
	// Code is a stable, machine-readable business code (e.g., "ErrInvalidCredentials").
	Code string

	// HTTPStatus is the HTTP status suggested for this error.
	HTTPStatus int

	// Title is a short human summary; if empty the formatter defaults to StatusText(HTTPStatus).
	Title string

	// Message is a human-readable message primarily for logs. When Detail is
	// empty, this is used as the public detail.
	Message string

	// Detail is a user-friendly, safe explanation for clients.
	Detail string

	// TypeURI is an RFC7807 type URI, e.g., "urn:problem:account/err-not-found".
	TypeURI string

	// Context is an optional extension payload for clients.
	Context any

	// cause is the underlying error that triggered this one, if any.
	cause error
}

// Error satisfies the standard Go error interface.
func (e *DomainError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Message
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap provides compatibility for errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is enables errors.Is comparisons based on the stable Code rather than
// pointer identity, so copies created via WithCause match their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the DomainError wrapping the provided cause.
func (e *DomainError) WithCause(err error) *DomainError {
	if err == nil {
		return e
	}
	cp := *e
	cp.cause = err
	return &cp
}

// WithDetail sets a public-friendly detail message for clients.
func (e *DomainError) WithDetail(detail string) *DomainError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithContext attaches an extension payload for clients.
func (e *DomainError) WithContext(ctx any) *DomainError {
	cp := *e
	cp.Context = ctx
	return &cp
}

// --- RFC7807 mapping accessors (satisfy httpx.DomainProblem) ---

func (e *DomainError) ProblemCode() string { return e.Code }
func (e *DomainError) ProblemStatus() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}
func (e *DomainError) ProblemTitle() string { return e.Title }
func (e *DomainError) ProblemDetail() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}
func (e *DomainError) ProblemTypeURI() string { return e.TypeURI }
func (e *DomainError) ProblemContext() any    { return e.Context }

// --- Pre-defined Domain Errors ---

var (
	ErrNotFound = &DomainError{
		Code:       "ErrNotFound",
		HTTPStatus: http.StatusNotFound,
		Title:      "Not Found",
		Message:    "account not found",
		TypeURI:    "urn:problem:account/err-not-found",
	}

	ErrUnauthorized = &DomainError{
		Code:       "ErrUnauthorized",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "no active session",
		TypeURI:    "urn:problem:account/err-unauthorized",
	}

	ErrInvalidCredentials = &DomainError{
		Code:       "ErrInvalidCredentials",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "invalid email or password",
		TypeURI:    "urn:problem:account/err-invalid-credentials",
	}

	ErrEmailExists = &DomainError{
		Code:       "ErrEmailExists",
		HTTPStatus: http.StatusConflict,
		Title:      "Conflict",
		Message:    "an account with this email already exists",
		TypeURI:    "urn:problem:account/err-email-exists",
	}

	ErrInvalidRole = &DomainError{
		Code:       "ErrInvalidRole",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "unknown marketplace role",
		TypeURI:    "urn:problem:account/err-invalid-role",
	}

	ErrInvalidResetToken = &DomainError{
		Code:       "ErrInvalidResetToken",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "the provided token is invalid or has expired",
		TypeURI:    "urn:problem:account/err-invalid-reset-token",
	}

	// OAuth
	ErrUnsupportedOAuthProvider = &DomainError{
		Code:       "ErrUnsupportedOAuthProvider",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "unsupported oauth provider",
		TypeURI:    "urn:problem:account/err-unsupported-oauth-provider",
	}

	ErrOAuthStateInvalid = &DomainError{
		Code:       "ErrOAuthStateInvalid",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "invalid oauth state",
		TypeURI:    "urn:problem:account/err-oauth-state-invalid",
	}

	ErrOAuthExchangeFailed = &DomainError{
		Code:       "ErrOAuthExchangeFailed",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "oauth authentication failed",
		TypeURI:    "urn:problem:account/err-oauth-exchange-failed",
	}

	ErrOAuthEmailMissing = &DomainError{
		Code:       "ErrOAuthEmailMissing",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "email not provided by oauth provider",
		TypeURI:    "urn:problem:account/err-oauth-email-missing",
	}

	ErrInternal = &DomainError{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "internal server error",
		TypeURI:    "urn:problem:account/err-internal",
	}
)
