package model

import "time"

// RetryPolicy controls how the collector retries transport failures.
type RetryPolicy struct {
	MaxAttempts int           `json:"maxAttempts"`
	BackoffBase time.Duration `json:"backoffBase"` // delay before the second attempt
	BackoffCap  time.Duration `json:"backoffCap"`  // ceiling for the backoff schedule
}

// CollectionRequest is an immutable description of one collection task.
// It is created by the caller and consumed exactly once by the pipeline.
type CollectionRequest struct {
	ID     string            `json:"id"`
	Source string            `json:"source"` // source name as configured
	Symbol string            `json:"symbol"` // target symbol/key, e.g. "AAPL"
	Params map[string]string `json:"params,omitempty"`
	Retry  RetryPolicy       `json:"retry"`
}

// RequestState tracks where a request currently sits in the pipeline.
type RequestState string

const (
	StatePending    RequestState = "pending"
	StateCollecting RequestState = "collecting"
	StateValidating RequestState = "validating"
	StateAccepted   RequestState = "accepted"
	StateRejected   RequestState = "rejected"
	StateExhausted  RequestState = "retry-exhausted"
	StateFailed     RequestState = "failed"
)

// Terminal reports whether the state is final for the request.
func (s RequestState) Terminal() bool {
	switch s {
	case StateAccepted, StateRejected, StateExhausted, StateFailed:
		return true
	}
	return false
}
