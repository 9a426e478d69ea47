// Package fault defines the adapter error taxonomy. Every error surfaced to the
// orchestrator carries a Code so callers can distinguish "fix your configuration"
// conditions from transient connectivity and per-call failures.
package fault

import (
	"errors"
	"fmt"
)

// Code categorises an adapter error.
type Code string

const (
	// Connection indicates a transport-level failure; the session retries these
	// with backoff before surfacing them.
	Connection Code = "CONNECTION"
	// IncompatibleProtocol indicates no mutually supported protocol version;
	// fatal for the session, never retried.
	IncompatibleProtocol Code = "INCOMPATIBLE_PROTOCOL"
	// AuthConfig indicates invalid authentication configuration, reported
	// synchronously at configuration time.
	AuthConfig Code = "AUTH_CONFIG"
	// CatalogFetch indicates a failed tool catalog refresh; the previous
	// snapshot stays in use.
	CatalogFetch Code = "CATALOG_FETCH"
	// UnknownTool indicates an invocation of a tool outside the exposed set,
	// rejected locally without a network round-trip.
	UnknownTool Code = "UNKNOWN_TOOL"
	// InvalidArguments indicates an argument payload that does not match the
	// tool's input schema, rejected locally.
	InvalidArguments Code = "INVALID_ARGUMENTS"
	// SessionUnavailable indicates the session was not ready within the
	// configured wait; the caller may retry later.
	SessionUnavailable Code = "SESSION_UNAVAILABLE"
	// SessionClosed indicates the session reached its terminal state.
	SessionClosed Code = "SESSION_CLOSED"
	// Invocation indicates a server-reported failure for one call; it does not
	// affect the session or other in-flight calls.
	Invocation Code = "INVOCATION"
)

// Error is the adapter error type.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works with sentinel-style targets.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code && (other.Message == "" || other.Message == e.Message)
}

// New creates an error with the given code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error with the given code and underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of err, or the empty code when err is not an adapter error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsFatal reports whether err denotes a condition that requires operator
// intervention rather than a retry.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case IncompatibleProtocol, AuthConfig, SessionClosed:
		return true
	}
	return false
}

// IsRetryable reports whether the caller may reasonably retry the operation later.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case Connection, CatalogFetch, SessionUnavailable:
		return true
	}
	return false
}
