// Package errors provides error types and utilities for paperflow.
// It extends the standard errors package with a tagged Kind variant, context
// wrapping and the sentinel errors used to classify transport failures.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios
var (
	// ErrTimeout indicates an operation exceeded its time limit
	ErrTimeout = errors.New("operation timed out")

	// ErrRateLimit indicates the upstream rejected the call for exceeding its quota
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input was provided
	ErrInvalidInput = errors.New("invalid input")

	// ErrConnectionFailed indicates a connection could not be established
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnauthorized indicates authentication or authorization failed
	ErrUnauthorized = errors.New("unauthorized")

	// ErrServiceUnavailable indicates a service is temporarily unavailable
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInvalidResponse indicates a response could not be parsed or was malformed
	ErrInvalidResponse = errors.New("invalid response")
)

// Kind classifies an Error. The zero value is KindInternal.
type Kind int

const (
	// KindInternal is a generic wrapped failure that preserves its cause.
	KindInternal Kind = iota
	// KindDomain covers source items that cannot be found or parsed.
	KindDomain
	// KindValidation covers rejected input.
	KindValidation
	// KindModelConfiguration covers invalid worker or model configuration.
	KindModelConfiguration
	// KindToolNotAvailable covers a required tool that cannot be used.
	KindToolNotAvailable
	// KindToolExecution covers a tool that failed while running.
	KindToolExecution
	// KindCoordination covers stage and run level failures.
	KindCoordination
	// KindExternalService covers network and upstream failures.
	KindExternalService
)

var kindNames = map[Kind]string{
	KindInternal:           "internal",
	KindDomain:             "domain",
	KindValidation:         "validation",
	KindModelConfiguration: "model_configuration",
	KindToolNotAvailable:   "tool_not_available",
	KindToolExecution:      "tool_execution",
	KindCoordination:       "coordination",
	KindExternalService:    "external_service",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText lets Kind render by name in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	name := strings.TrimSpace(string(text))
	for kind, n := range kindNames {
		if n == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", name)
}

// Error is the tagged error carried across component boundaries.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "httpclient.get".
	Op string
	// Tool identifies the failing tool for KindToolExecution.
	Tool string
	Msg  string
	Err  error

	// Retryable marks transient external failures.
	Retryable bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Tool != "" {
		fmt.Fprintf(&b, "tool %q failed: ", e.Tool)
	}
	b.WriteString(e.Msg)
	if e.Err != nil {
		if e.Msg != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind when target carries no message, so
// errors.Is(err, &Error{Kind: KindValidation}) tests the classification.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// E builds a tagged error.
func E(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

// Domain reports a source item that could not be found or parsed.
func Domain(op, msg string, cause error) *Error { return E(KindDomain, op, msg, cause) }

// Validation reports rejected input.
func Validation(op, msg string) *Error { return E(KindValidation, op, msg, nil) }

// ModelConfiguration reports invalid worker or model configuration.
func ModelConfiguration(op, msg string) *Error { return E(KindModelConfiguration, op, msg, nil) }

// ToolNotAvailable reports a required tool that is not usable.
func ToolNotAvailable(op, tool string) *Error {
	return &Error{Kind: KindToolNotAvailable, Op: op, Tool: tool, Msg: "not available"}
}

// ToolExecution reports a tool that failed while running.
func ToolExecution(tool, msg string, cause error) *Error {
	return &Error{Kind: KindToolExecution, Tool: tool, Msg: msg, Err: cause}
}

// Coordination reports a stage or run level failure.
func Coordination(op, msg string) *Error { return E(KindCoordination, op, msg, nil) }

// ExternalService reports an upstream failure carrying the last underlying cause.
func ExternalService(op, msg string, cause error, retryable bool) *Error {
	return &Error{Kind: KindExternalService, Op: op, Msg: msg, Err: cause, Retryable: retryable}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err's chain carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// wrappedError wraps an error with additional context
type wrappedError struct {
	msg   string
	cause error
}

// Error implements the error interface
func (e *wrappedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Unwrap returns the underlying error
func (e *wrappedError) Unwrap() error {
	return e.cause
}

// Wrap wraps an error with additional context message.
// If err is nil, Wrap returns nil.
//
// Example:
//
//	err := someOperation()
//	if err != nil {
//	    return errors.Wrap(err, "failed to perform operation")
//	}
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg:   msg,
		cause: err,
	}
}

// Wrapf wraps an error with a formatted context message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg:   fmt.Sprintf(format, args...),
		cause: err,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// New creates a new error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// Errorf formats according to a format specifier and returns the string as a value that satisfies error.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Join returns an error that wraps the given errors.
// Any nil error values are discarded.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// IsTimeout reports whether the error is a timeout error
func IsTimeout(err error) bool {
	return Is(err, ErrTimeout)
}

// IsRateLimit reports whether the error is a rate limit error
func IsRateLimit(err error) bool {
	return Is(err, ErrRateLimit)
}

// IsNotFound reports whether the error is a not found error
func IsNotFound(err error) bool {
	return Is(err, ErrNotFound)
}

// IsConnectionFailed reports whether the error is a connection failed error
func IsConnectionFailed(err error) bool {
	return Is(err, ErrConnectionFailed)
}

// IsServiceUnavailable reports whether the error is a service unavailable error
func IsServiceUnavailable(err error) bool {
	return Is(err, ErrServiceUnavailable)
}

// IsRetryable reports whether err is a transient external failure.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return IsTimeout(err) || IsConnectionFailed(err) || IsServiceUnavailable(err) || IsRateLimit(err)
}
