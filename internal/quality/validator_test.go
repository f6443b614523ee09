package quality

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-data-concierge/internal/config"
	"go-data-concierge/internal/model"
)

func testQualityConfig() config.QualityConfig {
	return config.QualityConfig{
		FlagThreshold:     0.7,
		AccuracyTolerance: 0.2,
		OutlierZ:          3.0,
		WindowSize:        64,
		MaxTimestampSkew:  5 * time.Minute,
	}
}

func equalWeights() config.ScoreWeights {
	return config.ScoreWeights{Completeness: 1, Consistency: 1, Accuracy: 1}
}

func testSchema() *model.Schema {
	zero := 0.0
	return &model.Schema{
		Name: "market",
		Fields: map[string]model.FieldSpec{
			"value":     {Required: true, Kind: model.KindNumber, Min: &zero},
			"volume":    {Required: true, Kind: model.KindNumber, Min: &zero},
			"timestamp": {Kind: model.KindTimestamp},
		},
	}
}

func record(symbol string, value float64, fields map[string]interface{}) *model.NormalizedRecord {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	if _, ok := fields["value"]; !ok {
		fields["value"] = value
	}
	return &model.NormalizedRecord{
		Symbol:    symbol,
		Value:     decimal.NewFromFloat(value),
		Timestamp: time.Now().UTC(),
		Fields:    fields,
	}
}

func TestValidatePerfectRecord(t *testing.T) {
	v := NewValidator(testQualityConfig(), equalWeights(), zap.NewNop())

	score, err := v.Validate(record("AAPL", 150.0, map[string]interface{}{
		"volume":    1000.0,
		"timestamp": "2024-01-01T00:00:00Z",
	}), testSchema())
	require.NoError(t, err)

	assert.Equal(t, 1.0, score.Completeness)
	assert.Equal(t, 1.0, score.Consistency)
	assert.Equal(t, 1.0, score.Accuracy)
	assert.Equal(t, 1.0, score.Aggregate)
	assert.Empty(t, score.Flags)
	assert.False(t, score.HasCritical())
}

func TestValidateMissingRequiredField(t *testing.T) {
	v := NewValidator(testQualityConfig(), equalWeights(), zap.NewNop())

	score, err := v.Validate(record("AAPL", 150.0, nil), testSchema())
	require.NoError(t, err)

	assert.Equal(t, 0.5, score.Completeness, "one of two required fields present")
	assert.Equal(t, 1.0, score.Consistency, "absent fields are not consistency failures")
	assert.Equal(t, 1.0, score.Accuracy)
	assert.InDelta(t, 2.5/3.0, score.Aggregate, 1e-9)
	assert.Contains(t, score.FlagTags(), "completeness_low")
	assert.False(t, score.HasCritical())
}

func TestValidateWeightedAggregate(t *testing.T) {
	weights := config.ScoreWeights{Completeness: 2, Consistency: 1, Accuracy: 1}
	v := NewValidator(testQualityConfig(), weights, zap.NewNop())

	score, err := v.Validate(record("AAPL", 150.0, nil), testSchema())
	require.NoError(t, err)

	// (2*0.5 + 1*1.0 + 1*1.0) / 4
	assert.InDelta(t, 0.75, score.Aggregate, 1e-9)
}

func TestValidateOutOfRangeField(t *testing.T) {
	v := NewValidator(testQualityConfig(), equalWeights(), zap.NewNop())

	score, err := v.Validate(record("AAPL", 150.0, map[string]interface{}{
		"volume": -5.0, // below schema minimum
	}), testSchema())
	require.NoError(t, err)

	assert.Equal(t, 1.0, score.Completeness, "present but invalid still counts as present")
	// value ok, volume fails, timestamp plausible: 2 of 3 checks pass.
	assert.InDelta(t, 2.0/3.0, score.Consistency, 1e-9)
	assert.Contains(t, score.FlagTags(), "consistency_low")
}

func TestValidateBrokenSchema(t *testing.T) {
	v := NewValidator(testQualityConfig(), equalWeights(), zap.NewNop())
	lo, hi := 10.0, 1.0
	schema := &model.Schema{
		Name:   "broken",
		Fields: map[string]model.FieldSpec{"value": {Kind: model.KindNumber, Min: &lo, Max: &hi}},
	}

	_, err := v.Validate(record("AAPL", 150.0, nil), schema)

	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestValidateTimestampImplausible(t *testing.T) {
	v := NewValidator(testQualityConfig(), equalWeights(), zap.NewNop())

	rec := record("AAPL", 150.0, map[string]interface{}{"volume": 1000.0})
	rec.Timestamp = time.Now().Add(time.Hour) // well past the allowed skew

	score, err := v.Validate(rec, testSchema())
	require.NoError(t, err)

	assert.Less(t, score.Consistency, 1.0)
	assert.Contains(t, score.FlagTags(), "timestamp_implausible")
}

func TestAccuracyObservedAfterScoring(t *testing.T) {
	v := NewValidator(testQualityConfig(), equalWeights(), zap.NewNop())

	// First record for a symbol has nothing to compare against.
	score, err := v.Validate(record("AAPL", 150.0, map[string]interface{}{"volume": 1000.0}), testSchema())
	require.NoError(t, err)
	assert.Equal(t, 1.0, score.Accuracy)

	// Second record at the same value deviates by zero.
	score, err = v.Validate(record("AAPL", 150.0, map[string]interface{}{"volume": 1000.0}), testSchema())
	require.NoError(t, err)
	assert.Equal(t, 1.0, score.Accuracy)
}

func TestAccuracyDeviationBeyondTolerance(t *testing.T) {
	v := NewValidator(testQualityConfig(), equalWeights(), zap.NewNop())
	v.Windows().Observe("AAPL", 100.0)

	// Deviation 0.5 against tolerance 0.2 decays past zero and clamps.
	score, err := v.Validate(record("AAPL", 150.0, map[string]interface{}{"volume": 1000.0}), testSchema())
	require.NoError(t, err)

	assert.Equal(t, 0.0, score.Accuracy)
	assert.Contains(t, score.FlagTags(), "accuracy_low")
}

func TestAccuracyWithinTolerance(t *testing.T) {
	v := NewValidator(testQualityConfig(), equalWeights(), zap.NewNop())
	v.Windows().Observe("AAPL", 100.0)

	score, err := v.Validate(record("AAPL", 110.0, map[string]interface{}{"volume": 1000.0}), testSchema())
	require.NoError(t, err)

	assert.Equal(t, 1.0, score.Accuracy)
}

func TestAccuracyLinearDecay(t *testing.T) {
	v := NewValidator(testQualityConfig(), equalWeights(), zap.NewNop())
	v.Windows().Observe("AAPL", 100.0)

	// Deviation 0.3: halfway into the decay band.
	score, err := v.Validate(record("AAPL", 130.0, map[string]interface{}{"volume": 1000.0}), testSchema())
	require.NoError(t, err)

	assert.InDelta(t, 0.5, score.Accuracy, 1e-9)
}

func TestOutlierDrawsCriticalFlag(t *testing.T) {
	v := NewValidator(testQualityConfig(), equalWeights(), zap.NewNop())
	// A stable reference band around 100 with a little spread.
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			v.Windows().Observe("AAPL", 99.5)
		} else {
			v.Windows().Observe("AAPL", 100.5)
		}
	}

	score, err := v.Validate(record("AAPL", 1000.0, map[string]interface{}{"volume": 1000.0}), testSchema())
	require.NoError(t, err)

	assert.Contains(t, score.FlagTags(), "value_outlier")
	assert.True(t, score.HasCritical())
}

func TestNoOutlierBelowMinimumWindow(t *testing.T) {
	v := NewValidator(testQualityConfig(), equalWeights(), zap.NewNop())
	v.Windows().Observe("AAPL", 99.5)
	v.Windows().Observe("AAPL", 100.5)

	score, err := v.Validate(record("AAPL", 1000.0, map[string]interface{}{"volume": 1000.0}), testSchema())
	require.NoError(t, err)

	assert.NotContains(t, score.FlagTags(), "value_outlier")
	assert.False(t, score.HasCritical())
}
