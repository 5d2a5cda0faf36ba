// Package fault defines the closed set of error kinds surfaced to callers.
// Every error leaving the resolver, executor or orchestrator is classified
// into exactly one kind; nothing is swallowed.
package fault

import (
	"github.com/pkg/errors"
)

type Kind string

const (
	InvalidParameters Kind = "INVALID_PARAMETERS"
	UnresolvableURI   Kind = "UNRESOLVABLE_URI"
	NoPresignMethod   Kind = "NO_PRESIGN_METHOD_AVAILABLE"
	TransferFailed    Kind = "TRANSFER_FAILED"
	TransformFailed   Kind = "TRANSFORM_FAILED"
	StagingFailed     Kind = "STAGING_FAILED"
)

// Error carries a kind alongside a human-readable message and an optional
// cause. It satisfies the errors.Wrapper chain so callers can use
// errors.Is/As through it.
type Error struct {
	Kind  Kind
	Msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Kind) + ": " + e.Msg + ": " + e.cause.Error()
	}
	return string(e.Kind) + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a fault with no underlying cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates a fault with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: errors.Errorf(format, args...).Error()}
}

// Wrap attaches a kind to an underlying error. Returns nil if err is nil.
// If err already carries a kind, that kind is preserved so the first
// classification wins (STAGING_FAILED wrapping keeps the code path explicit
// via Rewrap below).
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	if existing := find(err); existing != nil {
		return errors.WithMessage(err, msg)
	}
	return &Error{Kind: kind, Msg: msg, cause: err}
}

// Rewrap forces a new kind onto an error chain, used when a lower-level
// fault changes meaning at a boundary (e.g. any failure during staging
// becomes STAGING_FAILED).
func Rewrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, cause: err}
}

// KindOf extracts the kind from an error chain. Unclassified errors report
// TRANSFER_FAILED, the broadest externally-caused kind.
func KindOf(err error) Kind {
	if e := find(err); e != nil {
		return e.Kind
	}
	return TransferFailed
}

// Is reports whether the error chain carries the given kind.
func Is(err error, kind Kind) bool {
	e := find(err)
	return e != nil && e.Kind == kind
}

func find(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}
