package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// RawInput holds one request's validated field values, keyed by field name.
// Numeric values are parsed, categorical values are kept verbatim; membership
// in the model's encoding table is enforced downstream by the encoder.
type RawInput struct {
	Numeric     map[string]float64
	Categorical map[string]string
}

// ValidationError names the first offending field of a request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

// Collect validates raw caller-supplied values against the schema and returns
// a complete RawInput. Missing fields take the schema default. Validation is
// deterministic: fields are checked in schema order and the first failure is
// returned. No partial input ever reaches the vector builder.
func Collect(raw map[string]any, fields []FieldSpec) (RawInput, error) {
	input := RawInput{
		Numeric:     make(map[string]float64),
		Categorical: make(map[string]string),
	}
	for _, f := range fields {
		value, ok := raw[f.Name]
		if !ok || value == nil {
			value = f.Default
		}
		switch f.Kind {
		case Numeric:
			parsed, err := toFloat(value)
			if err != nil {
				return RawInput{}, &ValidationError{Field: f.Name, Reason: err.Error()}
			}
			if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
				return RawInput{}, &ValidationError{Field: f.Name, Reason: "value is not finite"}
			}
			if f.HasRange && (parsed < f.Min || parsed > f.Max) {
				return RawInput{}, &ValidationError{
					Field:  f.Name,
					Reason: fmt.Sprintf("%g outside range [%g, %g]", parsed, f.Min, f.Max),
				}
			}
			input.Numeric[f.Name] = parsed
		case Categorical:
			text, ok := value.(string)
			if !ok {
				return RawInput{}, &ValidationError{
					Field:  f.Name,
					Reason: fmt.Sprintf("expected string, got %T", value),
				}
			}
			if text == "" {
				return RawInput{}, &ValidationError{Field: f.Name, Reason: "empty value"}
			}
			input.Categorical[f.Name] = text
		default:
			return RawInput{}, &ValidationError{Field: f.Name, Reason: "unknown field kind"}
		}
	}
	return input, nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as number", v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}
