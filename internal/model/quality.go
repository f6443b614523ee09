package model

// Severity ranks anomaly flags. A critical flag forces rejection regardless of
// the aggregate score.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AnomalyFlag marks one suspicious property of a scored record.
type AnomalyFlag struct {
	Tag      string   `json:"tag"` // e.g. "completeness_low", "value_outlier"
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail,omitempty"`
}

// QualityScore carries the three sub-scores, their weighted aggregate and any
// anomaly flags. All scores are in [0,1]. The aggregate is always derived from
// the sub-scores and never set independently.
type QualityScore struct {
	Completeness float64       `json:"completeness"`
	Consistency  float64       `json:"consistency"`
	Accuracy     float64       `json:"accuracy"`
	Aggregate    float64       `json:"aggregate"`
	Flags        []AnomalyFlag `json:"flags,omitempty"`
}

// HasCritical reports whether any flag alone forces rejection.
func (q *QualityScore) HasCritical() bool {
	for _, f := range q.Flags {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// FlagTags returns the tags of all flags, for reporting.
func (q *QualityScore) FlagTags() []string {
	tags := make([]string, 0, len(q.Flags))
	for _, f := range q.Flags {
		tags = append(tags, f.Tag)
	}
	return tags
}
