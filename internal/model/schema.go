package model

import "fmt"

// FieldKind declares the expected type of a canonical field.
type FieldKind string

const (
	KindNumber    FieldKind = "number"
	KindString    FieldKind = "string"
	KindTimestamp FieldKind = "timestamp"
)

// FieldSpec declares the constraints for one canonical field.
type FieldSpec struct {
	Required bool      `json:"required"`
	Kind     FieldKind `json:"kind"`
	Min      *float64  `json:"min,omitempty"` // numeric fields only
	Max      *float64  `json:"max,omitempty"`
}

// Schema declares the expected shape of a normalized record for scoring.
type Schema struct {
	Name   string               `json:"name"`
	Fields map[string]FieldSpec `json:"fields"`
}

// SchemaError reports a structurally broken schema. Data-quality problems are
// never a SchemaError; they surface through scores and flags instead.
type SchemaError struct {
	Schema string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %q invalid: %s", e.Schema, e.Reason)
}

// Validate checks the schema itself for structural problems.
func (s *Schema) Validate() error {
	if s == nil {
		return &SchemaError{Schema: "", Reason: "schema is nil"}
	}
	if len(s.Fields) == 0 {
		return &SchemaError{Schema: s.Name, Reason: "no fields declared"}
	}
	for name, spec := range s.Fields {
		switch spec.Kind {
		case KindNumber, KindString, KindTimestamp:
		default:
			return &SchemaError{Schema: s.Name, Reason: fmt.Sprintf("field %q has unknown kind %q", name, spec.Kind)}
		}
		if spec.Min != nil && spec.Max != nil && *spec.Min > *spec.Max {
			return &SchemaError{Schema: s.Name, Reason: fmt.Sprintf("field %q has min > max", name)}
		}
		if (spec.Min != nil || spec.Max != nil) && spec.Kind != KindNumber {
			return &SchemaError{Schema: s.Name, Reason: fmt.Sprintf("field %q declares bounds but is not numeric", name)}
		}
	}
	return nil
}
