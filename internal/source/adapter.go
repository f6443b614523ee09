package source

import (
	"context"
	"errors"
	"fmt"

	"go-data-concierge/internal/model"
)

// Adapter translates one provider-specific fetch into a RawRecord. Adapters
// must not mutate shared state beyond their own connection handle.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, req model.CollectionRequest) (*model.RawRecord, error)
}

// ErrorKind classifies adapter failures for the retry policy.
type ErrorKind string

const (
	// KindUnavailable covers network errors, timeouts and upstream outages.
	// These are the only failures worth retrying.
	KindUnavailable ErrorKind = "source_unavailable"
	// KindRejected covers bad credentials or parameters.
	KindRejected ErrorKind = "source_rejected"
	// KindMalformed covers unparsable payloads. Deterministic, never retried.
	KindMalformed ErrorKind = "source_malformed"
)

// Error is the typed failure every adapter returns.
type Error struct {
	Kind   ErrorKind
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func Unavailable(source string, err error) *Error {
	return &Error{Kind: KindUnavailable, Source: source, Err: err}
}

func Rejected(source string, err error) *Error {
	return &Error{Kind: KindRejected, Source: source, Err: err}
}

func Malformed(source string, err error) *Error {
	return &Error{Kind: KindMalformed, Source: source, Err: err}
}

// KindOf extracts the error kind, if err came from an adapter.
func KindOf(err error) (ErrorKind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// Retryable reports whether the failure is transport-level and may resolve on
// its own. Rejected and malformed failures are deterministic.
func Retryable(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindUnavailable
}
