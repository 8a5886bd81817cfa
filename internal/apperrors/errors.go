// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies failures at the service boundary so that orchestration
// code never has to re-parse prose error messages from upstream services.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindBucketMissing   Kind = "bucket_missing"
	KindAccessDenied    Kind = "access_denied"
	KindPayloadTooLarge Kind = "payload_too_large"
	KindAuthFailure     Kind = "auth_failure"
	KindNetwork         Kind = "network"
	KindNotFound        Kind = "not_found"
	KindTableMissing    Kind = "table_missing"
	KindColumnMissing   Kind = "column_missing"
	KindChainRejected   Kind = "chain_rejected"
	KindInternal        Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the classified kind of err, or KindInternal when the error
// was never classified by an adapter.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether the failure is worth retrying with backoff.
// Validation and policy failures are permanent; only transport-level
// failures are transient.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindInternal:
		return true
	default:
		return false
	}
}
