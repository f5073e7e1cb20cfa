// Package errs provides the unified error type used across all of OrgRoute.
//
// Every subsystem (tenant registry, database drivers, async bridge, HTTP
// handlers) wraps its native errors into *errs.Error before returning them
// to callers. Callers use the Is* predicates to handle errors without
// importing driver-specific packages, and the HTTP layer uses HTTPStatus /
// PublicMessage to translate any error into a JSON envelope.
//
// Usage:
//
//	// In a driver — wrap native errors:
//	return errs.Wrap(errs.ErrKindQueryFailed, "insert failed", pgErr)
//
//	// In a handler — translate to a response:
//	respondError(w, errs.HTTPStatus(err), errs.PublicMessage(err))
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// All backends (Postgres, MySQL) and the routing layers map their native
// errors to one of these kinds, giving callers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindUnknownTenant            // selector does not match a configured tenant
	ErrKindPoolExhausted            // no connection or worker capacity within the deadline
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // SQL execution error
	ErrKindConnectionFailed         // cannot reach the tenant database
	ErrKindInvalidInput             // bad arguments from the caller
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindUnknownTenant:
		return "unknown_tenant"
	case ErrKindPoolExhausted:
		return "pool_exhausted"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all OrgRoute subsystems.
// Subsystems produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsUnknownTenant reports whether err means the tenant selector did not
// match any configured tenant.
func IsUnknownTenant(err error) bool {
	return kindOf(err) == ErrKindUnknownTenant
}

// IsPoolExhausted reports whether err means a capacity limit was hit
// (connection pool or worker queue) within the allowed wait.
func IsPoolExhausted(err error) bool {
	return kindOf(err) == ErrKindPoolExhausted
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return kindOf(err) == ErrKindTimeout
}

// IsQueryFailed reports whether err is a SQL execution error.
func IsQueryFailed(err error) bool {
	return kindOf(err) == ErrKindQueryFailed
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return kindOf(err) == ErrKindConnectionFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return kindOf(err) == ErrKindInvalidInput
}

// --- HTTP translation ---

// HTTPStatus maps an error to the response status code the gateway returns.
// Transient capacity and connectivity failures surface as 503 so callers can
// retry with backoff; deadline overruns as 504 so they can be told apart
// from permanent query failures.
func HTTPStatus(err error) int {
	switch kindOf(err) {
	case ErrKindUnknownTenant, ErrKindInvalidInput:
		return http.StatusBadRequest
	case ErrKindPoolExhausted, ErrKindConnectionFailed:
		return http.StatusServiceUnavailable
	case ErrKindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to expose in a response body.
// Only the *Error message is used; raw cause chains (which may carry DSNs
// or driver internals) never reach the client.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// kindOf extracts the ErrKind from any error in the chain.
func kindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
