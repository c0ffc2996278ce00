package ml

import (
	"fmt"
	"math"
)

// LogisticModel is a serialized logistic regression: probability of the
// positive class is sigmoid(intercept + weights · vector).
type LogisticModel struct {
	Weights   []float64
	Intercept float64
}

func (m *LogisticModel) NumFeatures() int {
	return len(m.Weights)
}

func (m *LogisticModel) PredictProbability(vector []float64) (float64, error) {
	if len(vector) != len(m.Weights) {
		return 0, &ContractMismatchError{
			Reason: fmt.Sprintf("model expects %d features, got %d", len(m.Weights), len(vector)),
		}
	}
	z := m.Intercept
	for i, w := range m.Weights {
		z += w * vector[i]
	}
	return 1 / (1 + math.Exp(-z)), nil
}
