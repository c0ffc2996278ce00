package risk

import (
	"fmt"

	"heartrisk/ml"
)

// Label is the screening outcome shown to the caller.
type Label string

const (
	AtRisk    Label = "at_risk"
	NotAtRisk Label = "not_at_risk"
)

// Verdict is the final decision for one request. ConfidencePercent is
// confidence in the chosen label, not the raw positive-class probability:
// p*100 when at risk, (1-p)*100 otherwise.
type Verdict struct {
	Label             Label   `json:"label"`
	ConfidencePercent float64 `json:"confidence_percent"`
	Probability       float64 `json:"probability"`
	Threshold         float64 `json:"threshold"`
}

// InvalidThresholdError reports a threshold outside (0,1).
type InvalidThresholdError struct {
	Value float64
}

func (e *InvalidThresholdError) Error() string {
	return fmt.Sprintf("threshold %g not strictly between 0 and 1", e.Value)
}

// Decide applies the threshold rule to a model probability. The rule is
// inclusive: probability == threshold classifies as at risk.
func Decide(probability, threshold float64) (Verdict, error) {
	if !(threshold > 0 && threshold < 1) {
		return Verdict{}, &InvalidThresholdError{Value: threshold}
	}
	verdict := Verdict{
		Probability: probability,
		Threshold:   threshold,
	}
	if probability >= threshold {
		verdict.Label = AtRisk
		verdict.ConfidencePercent = probability * 100
	} else {
		verdict.Label = NotAtRisk
		verdict.ConfidencePercent = (1 - probability) * 100
	}
	return verdict, nil
}

// TopFeatures returns the first count entries of the artifact's importance
// ranking. Informational only; count <= 0 or beyond the ranking length is
// clamped.
func TopFeatures(importances []ml.Importance, count int) []ml.Importance {
	if count <= 0 {
		return nil
	}
	if count > len(importances) {
		count = len(importances)
	}
	return append([]ml.Importance(nil), importances[:count]...)
}
