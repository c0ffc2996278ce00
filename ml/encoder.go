package ml

import (
	"fmt"
	"sync"

	"heartrisk/schema"
)

// Scaler holds the training-time standardization for one numeric field.
type Scaler struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Encoder maps validated input onto the model's fixed column order using the
// tables shipped inside the artifact: a standard scaler per numeric field and
// a value-to-column one-hot table per categorical field. The tables are part
// of the trained artifact and are never re-derived here.
type Encoder struct {
	Columns     []string
	Numeric     map[string]Scaler
	Categorical map[string]map[string]string

	indexOnce sync.Once
	index     map[string]int
}

// columnIndex is safe for concurrent use: the index is built exactly once.
func (e *Encoder) columnIndex(name string) (int, bool) {
	e.indexOnce.Do(func() {
		e.index = make(map[string]int, len(e.Columns))
		for i, col := range e.Columns {
			e.index[col] = i
		}
	})
	i, ok := e.index[name]
	return i, ok
}

// BuildVector encodes one collected input into the model's feature vector.
// Output length always equals len(e.Columns). Unknown categorical values fail
// with EncodingError; any disagreement between schema and artifact fails with
// ContractMismatchError.
func (e *Encoder) BuildVector(input schema.RawInput, fields []schema.FieldSpec) ([]float64, error) {
	vector := make([]float64, len(e.Columns))
	for _, f := range fields {
		switch f.Kind {
		case schema.Numeric:
			value, ok := input.Numeric[f.Name]
			if !ok {
				return nil, &ContractMismatchError{Reason: "numeric field " + f.Name + " missing from input"}
			}
			scaler, ok := e.Numeric[f.Name]
			if !ok {
				return nil, &ContractMismatchError{Reason: "no scaler for field " + f.Name}
			}
			if scaler.Std == 0 {
				return nil, &ContractMismatchError{Reason: "zero std scaler for field " + f.Name}
			}
			idx, ok := e.columnIndex(f.Name)
			if !ok {
				return nil, &ContractMismatchError{Reason: "no column for field " + f.Name}
			}
			vector[idx] = (value - scaler.Mean) / scaler.Std
		case schema.Categorical:
			value, ok := input.Categorical[f.Name]
			if !ok {
				return nil, &ContractMismatchError{Reason: "categorical field " + f.Name + " missing from input"}
			}
			table, ok := e.Categorical[f.Name]
			if !ok {
				return nil, &ContractMismatchError{Reason: "no encoding table for field " + f.Name}
			}
			column, ok := table[value]
			if !ok {
				return nil, &EncodingError{Field: f.Name, Value: value}
			}
			idx, ok := e.columnIndex(column)
			if !ok {
				return nil, &ContractMismatchError{Reason: "encoding table for " + f.Name + " references unknown column " + column}
			}
			vector[idx] = 1
		default:
			return nil, &ContractMismatchError{Reason: fmt.Sprintf("field %s: unknown kind %q", f.Name, f.Kind)}
		}
	}
	return vector, nil
}

// Validate cross-checks the encoder against the feature schema: every field
// must be encodable, every allowed categorical value must have a column, and
// every column must be produced by some field. Run once at startup so that
// version skew halts the process instead of surfacing mid-request.
func (e *Encoder) Validate(fields []schema.FieldSpec) error {
	covered := make(map[string]bool, len(e.Columns))
	for _, f := range fields {
		switch f.Kind {
		case schema.Numeric:
			if _, ok := e.Numeric[f.Name]; !ok {
				return &ContractMismatchError{Reason: "no scaler for field " + f.Name}
			}
			if _, ok := e.columnIndex(f.Name); !ok {
				return &ContractMismatchError{Reason: "no column for field " + f.Name}
			}
			covered[f.Name] = true
		case schema.Categorical:
			table, ok := e.Categorical[f.Name]
			if !ok {
				return &ContractMismatchError{Reason: "no encoding table for field " + f.Name}
			}
			for _, value := range f.AllowedValues {
				column, ok := table[value]
				if !ok {
					return &ContractMismatchError{
						Reason: fmt.Sprintf("field %s: allowed value %q has no encoding", f.Name, value),
					}
				}
				if _, ok := e.columnIndex(column); !ok {
					return &ContractMismatchError{
						Reason: "encoding table for " + f.Name + " references unknown column " + column,
					}
				}
				covered[column] = true
			}
		}
	}
	for _, column := range e.Columns {
		if !covered[column] {
			return &ContractMismatchError{Reason: "column " + column + " not produced by any schema field"}
		}
	}
	return nil
}
