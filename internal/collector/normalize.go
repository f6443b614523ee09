package collector

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"go-data-concierge/internal/config"
	"go-data-concierge/internal/model"
	"go-data-concierge/pkg/utils"
)

// FieldTable maps canonical field names to the keys a source's payload uses.
type FieldTable map[string]string

// Normalizer maps raw payloads into the canonical record shape. Renaming and
// coercion are table-driven per source; a source without a table passes its
// payload keys through unchanged.
type Normalizer struct {
	tables map[string]FieldTable
	units  map[string]string
}

func NewNormalizer(sources []config.SourceConfig) *Normalizer {
	n := &Normalizer{
		tables: make(map[string]FieldTable),
		units:  make(map[string]string),
	}
	for _, sc := range sources {
		if len(sc.Fields) > 0 {
			n.tables[sc.Name] = sc.Fields
		}
		if sc.Unit != "" {
			n.units[sc.Name] = sc.Unit
		}
	}
	return n
}

// Normalize converts one RawRecord into a NormalizedRecord. The record's
// provenance always points at exactly this raw fetch.
func (n *Normalizer) Normalize(req model.CollectionRequest, raw *model.RawRecord, attempts int) (*model.NormalizedRecord, error) {
	fields := make(map[string]interface{})

	if table, ok := n.tables[raw.Source]; ok {
		for canonical, from := range table {
			if v, exists := raw.Payload[from]; exists {
				fields[canonical] = v
			}
		}
	} else {
		for k, v := range raw.Payload {
			fields[k] = v
		}
	}

	rawValue, ok := fields["value"]
	if !ok {
		return nil, &NormalizationError{Source: raw.Source, Reason: `canonical field "value" missing from payload`}
	}
	f, numeric := utils.Numeric(rawValue)
	if !numeric {
		return nil, &NormalizationError{Source: raw.Source, Reason: fmt.Sprintf("value %v (%T) is not numeric", rawValue, rawValue)}
	}
	value := decimal.NewFromFloat(f)
	fields["value"] = f

	ts := raw.FetchedAt
	if rawTS, exists := fields["timestamp"]; exists {
		parsed, ok := utils.ParseTimestamp(rawTS)
		if !ok {
			return nil, &NormalizationError{Source: raw.Source, Reason: fmt.Sprintf("unparsable timestamp %v", rawTS)}
		}
		ts = parsed
		fields["timestamp"] = parsed.Format(time.RFC3339)
	}

	return &model.NormalizedRecord{
		Symbol:    req.Symbol,
		Value:     value,
		Unit:      n.units[raw.Source],
		Timestamp: ts,
		Fields:    fields,
		Provenance: model.Provenance{
			Source:    raw.Source,
			RequestID: req.ID,
			FetchedAt: raw.FetchedAt,
			Latency:   raw.Latency,
			Attempts:  attempts,
		},
	}, nil
}

// sensitiveFields are dropped from normalized records before they leave the
// collector; this pipeline never stores personal data.
var sensitiveFields = map[string]bool{
	"email":       true,
	"phone":       true,
	"password":    true,
	"ssn":         true,
	"credit_card": true,
}

// Screen strips sensitive keys from a record and returns what was removed.
func Screen(rec *model.NormalizedRecord) []string {
	var dropped []string
	for k := range rec.Fields {
		if sensitiveFields[k] {
			delete(rec.Fields, k)
			dropped = append(dropped, k)
		}
	}
	return dropped
}
