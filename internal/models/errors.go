package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures. The API client resolves transient
// rate and network issues internally via retry; everything else propagates
// to the scraper and from there to the orchestrator, which records
// per-account failures without aborting the run.
type ErrorKind string

const (
	// KindInvalidArgument is a caller error and is never retried.
	KindInvalidArgument ErrorKind = "invalid_argument"
	// KindNotFound means the account or content does not exist remotely
	// or locally.
	KindNotFound ErrorKind = "not_found"
	// KindAuth means credentials were rejected; fatal until configuration
	// is fixed.
	KindAuth ErrorKind = "auth"
	// KindRateLimited is terminal: the client already exhausted its
	// internal retries and the caller must not immediately retry.
	KindRateLimited ErrorKind = "rate_limited"
	// KindParse means the remote response shape could not be mapped.
	KindParse ErrorKind = "parse"
	// KindTimeout and KindNetwork are transient transport failures, safe
	// to retry on a later cycle.
	KindTimeout ErrorKind = "timeout"
	KindNetwork ErrorKind = "network"
	// KindNotImplemented marks a platform that is registered but whose
	// scraper is stubbed.
	KindNotImplemented ErrorKind = "not_implemented"
)

// Error is the engine's typed error wrapper.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a typed engine error.
func NewError(kind ErrorKind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// WrapError attaches kind and op to an underlying error.
func WrapError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the kind from err, defaulting to KindNetwork for
// untyped errors so orchestrator accounting still has a bucket.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNetwork
}
