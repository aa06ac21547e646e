// Package errs is the single error taxonomy used across the foundation
// modules: registry, config, hub, and resilience all construct their
// failures through this package instead of bare fmt.Errorf.
package errs

import (
	"fmt"
	"time"
)

// Code identifies the kind of failure a caller can switch on without
// string-matching messages.
type Code string

const (
	CodeConfiguration      Code = "CONFIGURATION_ERROR"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeAmbiguousLookup    Code = "AMBIGUOUS_LOOKUP"
	CodeDependencyMissing  Code = "DEPENDENCY_MISSING"
	CodeCircuitOpen        Code = "CIRCUIT_OPEN"
	CodeAllFallbacksFailed Code = "ALL_FALLBACKS_FAILED"
	CodeRetryExhausted     Code = "RETRY_EXHAUSTED"
	CodeIntegrity          Code = "INTEGRITY_ERROR"
	CodeGeneric            Code = "FOUNDATION_ERROR"
)

// Error is the base error type. Every specialized constructor below
// returns one of these with Code pre-populated.
type Error struct {
	Code      Code
	Message   string
	Context   map[string]any
	Cause     error
	Timestamp time.Time
}

// New creates a base error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Context:   make(map[string]any),
		Timestamp: time.Now(),
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCause attaches an underlying cause and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// With adds a context key/value pair and returns the receiver. Never
// attach a value from a field marked sensitive in configuration.
func (e *Error) With(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Is enables errors.Is(err, target) to match on Code, the common case
// for library callers that only care about the error kind. Targets may
// be a bare *Error or any of the wrapper types below.
func (e *Error) Is(target error) bool {
	var t *Error
	switch v := target.(type) {
	case *Error:
		t = v
	case *CircuitOpenError:
		t = v.Base
	case *AllFallbacksFailedError:
		t = v.Base
	case *DependencyError:
		t = v.Base
	case *RetryExhaustedError:
		t = v.Base
	default:
		return false
	}
	return t != nil && t.Code == e.Code
}

// Specialized constructors, one per taxonomy entry.

func Configuration(message string) *Error   { return New(CodeConfiguration, message) }
func Validation(message string) *Error      { return New(CodeValidation, message) }
func NotFound(message string) *Error        { return New(CodeNotFound, message) }
func AlreadyExists(message string) *Error   { return New(CodeAlreadyExists, message) }
func AmbiguousLookup(message string) *Error { return New(CodeAmbiguousLookup, message) }
func Integrity(message string) *Error       { return New(CodeIntegrity, message) }
func Generic(message string) *Error         { return New(CodeGeneric, message) }

// CircuitOpenError is raised by a breaker in the OPEN state; it never
// reaches the guarded callable.
//
// The base *Error is held in a named field (Base) rather than embedded
// anonymously: an anonymous *Error field would be named Error after its
// type, colliding with the Error() string method required to satisfy
// the error interface.
type CircuitOpenError struct {
	Base    *Error
	Breaker string
}

func CircuitOpen(breaker string) *CircuitOpenError {
	return &CircuitOpenError{
		Base:    New(CodeCircuitOpen, fmt.Sprintf("circuit breaker %q is open", breaker)),
		Breaker: breaker,
	}
}

// AllFallbacksFailedError carries every cause from a FallbackChain in
// attempt order.
type AllFallbacksFailedError struct {
	Base   *Error
	Causes []error
}

func AllFallbacksFailed(causes []error) *AllFallbacksFailedError {
	e := New(CodeAllFallbacksFailed, fmt.Sprintf("all %d fallbacks failed", len(causes)))
	if len(causes) > 0 {
		e.Cause = causes[len(causes)-1]
	}
	return &AllFallbacksFailedError{Base: e, Causes: causes}
}

// DependencyError names a missing optional collaborator and how to add it.
type DependencyError struct {
	Base        *Error
	Dependency  string
	InstallHint string
}

func DependencyMissing(dependency, installHint string) *DependencyError {
	return &DependencyError{
		Base:        New(CodeDependencyMissing, fmt.Sprintf("optional dependency %q is not available", dependency)),
		Dependency:  dependency,
		InstallHint: installHint,
	}
}

// RetryExhaustedError optionally wraps the original error on final
// retry failure. RetryExecutor re-raises the ORIGINAL error by default;
// this wrapper exists only for callers that explicitly want to
// distinguish "exhausted retries" from "single failure" in a type
// switch, and is never returned unless the caller asks for it.
type RetryExhaustedError struct {
	Base     *Error
	Attempts int
}

func RetryExhausted(attempts int, original error) *RetryExhaustedError {
	return &RetryExhaustedError{
		Base:     New(CodeRetryExhausted, fmt.Sprintf("retry exhausted after %d attempts", attempts)).WithCause(original),
		Attempts: attempts,
	}
}

// Error, Unwrap, and Is forward to Base so these wrapper types satisfy
// the error interface and work with errors.Is/errors.As the same way a
// bare *Error does.
func (e *CircuitOpenError) Error() string        { return e.Base.Error() }
func (e *AllFallbacksFailedError) Error() string { return e.Base.Error() }
func (e *DependencyError) Error() string         { return e.Base.Error() }
func (e *RetryExhaustedError) Error() string     { return e.Base.Error() }

func (e *CircuitOpenError) Unwrap() error        { return e.Base.Unwrap() }
func (e *AllFallbacksFailedError) Unwrap() error { return e.Base.Unwrap() }
func (e *DependencyError) Unwrap() error         { return e.Base.Unwrap() }
func (e *RetryExhaustedError) Unwrap() error     { return e.Base.Unwrap() }

// Is implementations for the wrapper types so errors.Is(err, errs.CircuitOpen("x"))
// style comparisons work against the Code alone.
func (e *CircuitOpenError) Is(target error) bool        { return e.Base.Is(target) }
func (e *AllFallbacksFailedError) Is(target error) bool { return e.Base.Is(target) }
func (e *DependencyError) Is(target error) bool         { return e.Base.Is(target) }
func (e *RetryExhaustedError) Is(target error) bool     { return e.Base.Is(target) }
