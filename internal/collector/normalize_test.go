package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-data-concierge/internal/config"
	"go-data-concierge/internal/model"
)

func testNormalizer() *Normalizer {
	return NewNormalizer([]config.SourceConfig{
		{
			Name: "market",
			Fields: map[string]string{
				"value":     "price",
				"volume":    "vol",
				"timestamp": "ts",
			},
			Unit: "USD",
		},
		{Name: "plain"},
	})
}

func TestNormalizeMapsFields(t *testing.T) {
	n := testNormalizer()
	raw := &model.RawRecord{
		Source:    "market",
		FetchedAt: time.Now().UTC(),
		Payload: map[string]interface{}{
			"price": 150.0,
			"vol":   1000.0,
			"ts":    "2024-01-01T00:00:00Z",
			"noise": "ignored", // not in the table
		},
	}

	rec, err := n.Normalize(model.CollectionRequest{ID: "r1", Symbol: "AAPL"}, raw, 2)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, "150", rec.Value.String())
	assert.Equal(t, "USD", rec.Unit)
	assert.Equal(t, 1000.0, rec.Fields["volume"])
	assert.NotContains(t, rec.Fields, "noise")
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rec.Timestamp.UTC())
	assert.Equal(t, 2, rec.Provenance.Attempts)
}

func TestNormalizePassthroughWithoutTable(t *testing.T) {
	n := testNormalizer()
	raw := &model.RawRecord{
		Source:    "plain",
		FetchedAt: time.Now().UTC(),
		Payload:   map[string]interface{}{"value": "42.5", "note": "hi"},
	}

	rec, err := n.Normalize(model.CollectionRequest{Symbol: "BTC"}, raw, 1)
	require.NoError(t, err)

	assert.Equal(t, "42.5", rec.Value.String())
	assert.Equal(t, "hi", rec.Fields["note"])
	assert.Empty(t, rec.Unit)
}

func TestNormalizeMissingValue(t *testing.T) {
	n := testNormalizer()
	raw := &model.RawRecord{
		Source:  "market",
		Payload: map[string]interface{}{"vol": 1000.0},
	}

	_, err := n.Normalize(model.CollectionRequest{Symbol: "AAPL"}, raw, 1)

	var norm *NormalizationError
	require.ErrorAs(t, err, &norm)
	assert.Equal(t, "market", norm.Source)
}

func TestNormalizeNonNumericValue(t *testing.T) {
	n := testNormalizer()
	raw := &model.RawRecord{
		Source:  "market",
		Payload: map[string]interface{}{"price": "not a number"},
	}

	_, err := n.Normalize(model.CollectionRequest{Symbol: "AAPL"}, raw, 1)

	var norm *NormalizationError
	require.ErrorAs(t, err, &norm)
}

func TestNormalizeUnparsableTimestamp(t *testing.T) {
	n := testNormalizer()
	raw := &model.RawRecord{
		Source:  "market",
		Payload: map[string]interface{}{"price": 1.0, "ts": "yesterday-ish"},
	}

	_, err := n.Normalize(model.CollectionRequest{Symbol: "AAPL"}, raw, 1)

	var norm *NormalizationError
	require.ErrorAs(t, err, &norm)
}

func TestNormalizeTimestampDefaultsToFetchTime(t *testing.T) {
	n := testNormalizer()
	fetched := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	raw := &model.RawRecord{
		Source:    "market",
		FetchedAt: fetched,
		Payload:   map[string]interface{}{"price": 1.0},
	}

	rec, err := n.Normalize(model.CollectionRequest{Symbol: "AAPL"}, raw, 1)
	require.NoError(t, err)
	assert.Equal(t, fetched, rec.Timestamp)
}

func TestScreenDropsSensitiveFields(t *testing.T) {
	rec := &model.NormalizedRecord{
		Fields: map[string]interface{}{
			"value":  1.0,
			"email":  "a@b.com",
			"ssn":    "000-00-0000",
			"volume": 10.0,
		},
	}

	dropped := Screen(rec)

	assert.ElementsMatch(t, []string{"email", "ssn"}, dropped)
	assert.NotContains(t, rec.Fields, "email")
	assert.NotContains(t, rec.Fields, "ssn")
	assert.Contains(t, rec.Fields, "value")
	assert.Contains(t, rec.Fields, "volume")
}

func TestScreenCleanRecord(t *testing.T) {
	rec := &model.NormalizedRecord{Fields: map[string]interface{}{"value": 1.0}}
	assert.Empty(t, Screen(rec))
}
