package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// FieldKind distinguishes how a field is validated and encoded.
type FieldKind string

const (
	Numeric     FieldKind = "numeric"
	Categorical FieldKind = "categorical"
)

// FieldSpec describes one input field: enough to render a form control
// and to validate a submitted value. Loaded once at startup, never mutated.
type FieldSpec struct {
	Name          string    `json:"name"`
	Kind          FieldKind `json:"kind"`
	Label         string    `json:"label,omitempty"`
	AllowedValues []string  `json:"allowed_values,omitempty"`
	Min           float64   `json:"min,omitempty"`
	Max           float64   `json:"max,omitempty"`
	HasRange      bool      `json:"has_range,omitempty"`
	Default       string    `json:"default"`
}

// SchemaError reports malformed or empty feature metadata. Startup-time fatal.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "schema: " + e.Reason
	}
	return fmt.Sprintf("schema %s: %s", e.Path, e.Reason)
}

// Load reads the feature metadata file and returns the field specs in file
// order. The order is significant: it is the deterministic iteration order
// for validation and encoding.
func Load(path string) ([]FieldSpec, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, &SchemaError{Path: path, Reason: err.Error()}
	}
	var fields []FieldSpec
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, &SchemaError{Path: path, Reason: err.Error()}
	}
	if len(fields) == 0 {
		return nil, &SchemaError{Path: path, Reason: "no fields declared"}
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, &SchemaError{Path: path, Reason: "field with empty name"}
		}
		if seen[f.Name] {
			return nil, &SchemaError{Path: path, Reason: "duplicate field " + f.Name}
		}
		seen[f.Name] = true
		switch f.Kind {
		case Numeric:
			if f.HasRange && f.Min >= f.Max {
				return nil, &SchemaError{Path: path, Reason: "field " + f.Name + ": empty numeric range"}
			}
			value, err := strconv.ParseFloat(f.Default, 64)
			if err != nil {
				return nil, &SchemaError{Path: path, Reason: "field " + f.Name + ": non-numeric default " + f.Default}
			}
			if f.HasRange && (value < f.Min || value > f.Max) {
				return nil, &SchemaError{Path: path, Reason: "field " + f.Name + ": default outside range"}
			}
		case Categorical:
			if len(f.AllowedValues) == 0 {
				return nil, &SchemaError{Path: path, Reason: "field " + f.Name + ": no allowed values"}
			}
			if !contains(f.AllowedValues, f.Default) {
				return nil, &SchemaError{Path: path, Reason: "field " + f.Name + ": default not an allowed value"}
			}
		default:
			return nil, &SchemaError{Path: path, Reason: fmt.Sprintf("field %s: unknown kind %q", f.Name, f.Kind)}
		}
	}
	return fields, nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// FieldNames returns the schema field names in declaration order.
func FieldNames(fields []FieldSpec) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
