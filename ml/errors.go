package ml

import "fmt"

// EncodingError reports a categorical value with no column in the artifact's
// encoding table. Per-request, recoverable: the caller sent a value the model
// was never trained on.
type EncodingError struct {
	Field string
	Value string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("field %s: value %q has no encoding", e.Field, e.Value)
}

// ContractMismatchError reports schema/artifact version skew: a missing
// column, a missing scaler, or a vector length disagreement. Fatal — scoring
// must refuse rather than guess.
type ContractMismatchError struct {
	Reason string
}

func (e *ContractMismatchError) Error() string {
	return "model contract mismatch: " + e.Reason
}
