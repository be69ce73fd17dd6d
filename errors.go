package icecore

import (
	"errors"
	"fmt"

	"github.com/marmotdata/icecore/scan"
)

// ErrorKind classifies why an icecore operation failed (spec.md §7).
// It is a closed set; callers switch on it rather than string-matching
// error messages.
type ErrorKind string

const (
	NotFound           ErrorKind = "not_found"
	AlreadyExists      ErrorKind = "already_exists"
	Invalid            ErrorKind = "invalid"
	Incompatible       ErrorKind = "incompatible"
	UnsupportedFeature ErrorKind = "unsupported_feature"
	InvariantViolation ErrorKind = "invariant_violation"
	Timeout            ErrorKind = "timeout"
	IO                 ErrorKind = "io"
	Conflict           ErrorKind = "conflict"
	SignatureError     ErrorKind = "signature_error"
)

// Error is the single error type icecore's public API returns,
// wrapping an underlying cause the way the teacher's provider code
// wraps errors with fmt.Errorf("...: %w", err) rather than defining a
// bespoke framework per package.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func newError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("icecore: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("icecore: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same Kind, so
// errors.Is(err, &icecore.Error{Kind: icecore.NotFound}) matches any
// error of that kind anywhere in a fmt.Errorf %w chain.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// classify wraps a lower-level package error into an *Error, mapping
// scan's sentinel errors to their corresponding kinds without scan
// importing icecore (avoiding an import cycle).
func classify(err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	switch {
	case errors.Is(err, scan.ErrUnsupportedFeature):
		return &Error{Kind: UnsupportedFeature, Message: err.Error(), Cause: err}
	case errors.Is(err, scan.ErrInvariantViolation):
		return &Error{Kind: InvariantViolation, Message: err.Error(), Cause: err}
	default:
		return &Error{Kind: IO, Message: err.Error(), Cause: err}
	}
}
