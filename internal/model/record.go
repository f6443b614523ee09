package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawRecord is the untouched output of a single adapter fetch. It only lives
// for the duration of one collection attempt.
type RawRecord struct {
	Source    string                 `json:"source"`
	FetchedAt time.Time              `json:"fetchedAt"`
	Latency   time.Duration          `json:"latency"`
	Payload   map[string]interface{} `json:"payload"`
}

// Provenance ties a normalized record back to the single raw fetch it came from.
type Provenance struct {
	Source    string        `json:"source"`
	RequestID string        `json:"requestId"`
	FetchedAt time.Time     `json:"fetchedAt"`
	Latency   time.Duration `json:"latency"`
	Attempts  int           `json:"attempts"` // attempts spent, including the successful one
}

// NormalizedRecord is the canonical record shape every source is mapped into.
// Fields holds the full canonical field set (value included) for scoring;
// Value/Unit/Timestamp are the typed views of the primary observation.
type NormalizedRecord struct {
	Symbol     string                 `json:"symbol"`
	Value      decimal.Decimal        `json:"value"`
	Unit       string                 `json:"unit,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Fields     map[string]interface{} `json:"fields"`
	Provenance Provenance             `json:"provenance"`
}
