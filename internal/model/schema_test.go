package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f64(v float64) *float64 { return &v }

func TestSchemaValidate(t *testing.T) {
	valid := &Schema{
		Name: "market",
		Fields: map[string]FieldSpec{
			"value":     {Required: true, Kind: KindNumber, Min: f64(0)},
			"name":      {Kind: KindString},
			"timestamp": {Kind: KindTimestamp},
		},
	}
	assert.NoError(t, valid.Validate())
}

func TestSchemaValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		schema *Schema
	}{
		{"nil schema", nil},
		{"no fields", &Schema{Name: "empty"}},
		{"unknown kind", &Schema{Name: "x", Fields: map[string]FieldSpec{
			"value": {Kind: "blob"},
		}}},
		{"min above max", &Schema{Name: "x", Fields: map[string]FieldSpec{
			"value": {Kind: KindNumber, Min: f64(10), Max: f64(1)},
		}}},
		{"bounds on string", &Schema{Name: "x", Fields: map[string]FieldSpec{
			"name": {Kind: KindString, Min: f64(0)},
		}}},
	}
	for _, tc := range cases {
		err := tc.schema.Validate()
		var schemaErr *SchemaError
		assert.ErrorAs(t, err, &schemaErr, tc.name)
	}
}

func TestRequestStateTerminal(t *testing.T) {
	for _, s := range []RequestState{StateAccepted, StateRejected, StateExhausted, StateFailed} {
		assert.True(t, s.Terminal(), string(s))
	}
	for _, s := range []RequestState{StatePending, StateCollecting, StateValidating} {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestQualityScoreFlags(t *testing.T) {
	score := &QualityScore{Flags: []AnomalyFlag{
		{Tag: "completeness_low", Severity: SeverityWarning},
		{Tag: "value_outlier", Severity: SeverityCritical},
	}}

	assert.True(t, score.HasCritical())
	assert.Equal(t, []string{"completeness_low", "value_outlier"}, score.FlagTags())

	clean := &QualityScore{}
	assert.False(t, clean.HasCritical())
	assert.Empty(t, clean.FlagTags())
}
