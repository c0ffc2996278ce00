package ml

// Model scores a fixed-order feature vector. Implementations are pure and
// deterministic: same vector, same probability, no side effects.
type Model interface {
	PredictProbability(vector []float64) (float64, error)
	NumFeatures() int
}

// Importance is one entry of the artifact's static feature ranking. Display
// only; it never influences a verdict.
type Importance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}
