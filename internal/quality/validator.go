package quality

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"go-data-concierge/internal/config"
	"go-data-concierge/internal/model"
	"go-data-concierge/pkg/utils"
)

// minWindowForOutlier is how many observations a symbol needs before z-score
// outlier detection kicks in; below that the std estimate is too noisy.
const minWindowForOutlier = 8

// Validator scores normalized records against a schema. Data-quality problems
// never raise: they lower scores and attach flags. Only a structurally broken
// schema is an error.
type Validator struct {
	weights   config.ScoreWeights
	flagAt    float64
	tolerance float64
	outlierZ  float64
	maxSkew   time.Duration
	windows   *ReferenceWindows
	logger    *zap.Logger

	now func() time.Time // test hook
}

func NewValidator(qcfg config.QualityConfig, weights config.ScoreWeights, logger *zap.Logger) *Validator {
	return &Validator{
		weights:   weights,
		flagAt:    qcfg.FlagThreshold,
		tolerance: qcfg.AccuracyTolerance,
		outlierZ:  qcfg.OutlierZ,
		maxSkew:   qcfg.MaxTimestampSkew,
		windows:   NewReferenceWindows(qcfg.WindowSize),
		logger:    logger,
		now:       time.Now,
	}
}

// Windows exposes the shared reference state, mainly for tests and warm-up.
func (v *Validator) Windows() *ReferenceWindows { return v.windows }

// Validate computes the quality score for one record. The record's value is
// appended to its symbol's reference window after scoring, so a record is
// never compared against itself.
func (v *Validator) Validate(rec *model.NormalizedRecord, schema *model.Schema) (*model.QualityScore, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	score := &model.QualityScore{}

	score.Completeness = v.completeness(rec, schema)
	score.Consistency = v.consistency(rec, schema, score)
	score.Accuracy = v.accuracy(rec, score)

	w := v.weights
	total := w.Completeness + w.Consistency + w.Accuracy
	score.Aggregate = (w.Completeness*score.Completeness +
		w.Consistency*score.Consistency +
		w.Accuracy*score.Accuracy) / total

	v.flagLow(score, "completeness_low", score.Completeness)
	v.flagLow(score, "consistency_low", score.Consistency)
	v.flagLow(score, "accuracy_low", score.Accuracy)

	value, _ := rec.Value.Float64()
	v.windows.Observe(rec.Symbol, value)

	return score, nil
}

// completeness is the fraction of schema-required fields present and non-nil.
func (v *Validator) completeness(rec *model.NormalizedRecord, schema *model.Schema) float64 {
	required, present := 0, 0
	for name, spec := range schema.Fields {
		if !spec.Required {
			continue
		}
		required++
		if val, ok := rec.Fields[name]; ok && val != nil {
			present++
		}
	}
	if required == 0 {
		return 1.0
	}
	return float64(present) / float64(required)
}

// consistency is the fraction of present fields satisfying their declared
// kind and range, plus a plausibility check on the record timestamp.
func (v *Validator) consistency(rec *model.NormalizedRecord, schema *model.Schema, score *model.QualityScore) float64 {
	checked, ok := 0, 0

	for name, spec := range schema.Fields {
		val, present := rec.Fields[name]
		if !present || val == nil {
			continue
		}
		checked++
		if v.fieldConsistent(val, spec) {
			ok++
		}
	}

	// Timestamp plausibility counts as one more check: nothing before the
	// epoch, nothing much past now.
	checked++
	if ts := rec.Timestamp; !ts.IsZero() && ts.Unix() >= 0 && !ts.After(v.now().Add(v.maxSkew)) {
		ok++
	} else {
		score.Flags = append(score.Flags, model.AnomalyFlag{
			Tag:      "timestamp_implausible",
			Severity: model.SeverityWarning,
			Detail:   fmt.Sprintf("timestamp %s outside plausible window", rec.Timestamp),
		})
	}

	return float64(ok) / float64(checked)
}

func (v *Validator) fieldConsistent(val interface{}, spec model.FieldSpec) bool {
	switch spec.Kind {
	case model.KindNumber:
		f, numeric := utils.Numeric(val)
		if !numeric {
			return false
		}
		if spec.Min != nil && f < *spec.Min {
			return false
		}
		if spec.Max != nil && f > *spec.Max {
			return false
		}
		return true
	case model.KindString:
		_, isStr := val.(string)
		return isStr
	case model.KindTimestamp:
		_, parses := utils.ParseTimestamp(val)
		return parses
	default:
		return false
	}
}

// accuracy cross-checks the value against the symbol's last observation:
// deviation within the tolerance scores 1.0, then decays linearly to 0 at
// twice the tolerance. Without a reference the score defaults to 1.0. A
// z-score outlier against the rolling window draws a critical flag.
func (v *Validator) accuracy(rec *model.NormalizedRecord, score *model.QualityScore) float64 {
	value, _ := rec.Value.Float64()

	stats, haveRef := v.windows.Stats(rec.Symbol)
	if !haveRef {
		return 1.0
	}

	if stats.Count >= minWindowForOutlier && stats.StdDev > 0 {
		if z := math.Abs(value-stats.Mean) / stats.StdDev; z > v.outlierZ {
			v.logger.Warn("value outlier",
				zap.String("symbol", rec.Symbol),
				zap.Float64("value", value),
				zap.Float64("z", z))
			score.Flags = append(score.Flags, model.AnomalyFlag{
				Tag:      "value_outlier",
				Severity: model.SeverityCritical,
				Detail:   fmt.Sprintf("z-score %.2f beyond %.1f over %d observations", z, v.outlierZ, stats.Count),
			})
		}
	}

	ref := math.Abs(stats.Last)
	if ref == 0 {
		if value == 0 {
			return 1.0
		}
		return 0.0
	}
	deviation := math.Abs(value-stats.Last) / ref
	if deviation <= v.tolerance {
		return 1.0
	}
	acc := 1.0 - (deviation-v.tolerance)/v.tolerance
	return math.Max(0, acc)
}

func (v *Validator) flagLow(score *model.QualityScore, tag string, value float64) {
	if value < v.flagAt {
		score.Flags = append(score.Flags, model.AnomalyFlag{
			Tag:      tag,
			Severity: model.SeverityWarning,
			Detail:   fmt.Sprintf("%.3f below threshold %.3f", value, v.flagAt),
		})
	}
}
