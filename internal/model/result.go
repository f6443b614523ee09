package model

import "time"

// Decision is the terminal outcome of one collection request.
type Decision string

const (
	DecisionAccepted  Decision = "accepted"
	DecisionRejected  Decision = "rejected"
	DecisionExhausted Decision = "retry-exhausted" // transport retries ran out
	DecisionFailed    Decision = "failed"          // non-retryable collection error
)

// PipelineResult is the terminal artifact of one request: the record (when one
// was produced), its score, the decision and the reasons behind it. Immutable
// once created.
type PipelineResult struct {
	Request     CollectionRequest `json:"request"`
	Record      *NormalizedRecord `json:"record,omitempty"`
	Score       *QualityScore     `json:"score,omitempty"`
	Decision    Decision          `json:"decision"`
	Reasons     []string          `json:"reasons,omitempty"` // failed sub-scores / flag tags
	Error       string            `json:"error,omitempty"`   // set for exhausted/failed decisions
	ErrorKind   string            `json:"errorKind,omitempty"`
	CompletedAt time.Time         `json:"completedAt"`
}

// Accepted is a convenience for callers that only care about usable data.
func (r *PipelineResult) Accepted() bool { return r.Decision == DecisionAccepted }

// BatchSummary aggregates the outcomes of a batch submission.
type BatchSummary struct {
	Total         int              `json:"total"`
	ByDecision    map[Decision]int `json:"byDecision"`
	MeanAggregate float64          `json:"meanAggregate"` // over scored records only
	Elapsed       time.Duration    `json:"elapsed"`
}
