package collector

import "fmt"

// ExhaustedError reports that every fetch attempt failed on transport. It
// carries the last underlying error for caller inspection.
type ExhaustedError struct {
	Source   string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("collection from %s exhausted after %d attempts: %v", e.Source, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// NormalizationError reports a payload that could not be mapped into the
// canonical record shape. Deterministic given the payload, so never retried.
type NormalizationError struct {
	Source string
	Reason string
	Err    error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("normalize %s payload: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("normalize %s payload: %s", e.Source, e.Reason)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// UnknownSourceError reports a request naming a source nobody configured.
type UnknownSourceError struct {
	Source string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source %q", e.Source)
}
