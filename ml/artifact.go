package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Artifact is the loaded model bundle: the scoring model, the encoding
// tables it was trained with, and its static feature-importance ranking.
// Loaded once at startup and treated as read-only for the process lifetime.
type Artifact struct {
	Version     string
	Model       Model
	Encoder     *Encoder
	Importances []Importance
}

type artifactFile struct {
	Version     string                       `json:"version"`
	ModelType   string                       `json:"model_type"`
	Columns     []string                     `json:"columns"`
	Weights     []float64                    `json:"weights"`
	Intercept   float64                      `json:"intercept"`
	Scaler      map[string]Scaler            `json:"scaler"`
	Encoder     map[string]map[string]string `json:"encoder"`
	Importances []Importance                 `json:"importances"`
}

// LoadArtifact reads and verifies a serialized model artifact. Failure to
// load is fatal to the caller: the process cannot serve without a model.
func LoadArtifact(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load model artifact: %w", err)
	}
	var file artifactFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if len(file.Columns) == 0 {
		return nil, fmt.Errorf("model artifact %s: no columns", path)
	}

	var model Model
	switch file.ModelType {
	case "logistic_regression":
		model = &LogisticModel{Weights: file.Weights, Intercept: file.Intercept}
	default:
		return nil, fmt.Errorf("unsupported model type %q", file.ModelType)
	}

	if model.NumFeatures() != len(file.Columns) {
		return nil, &ContractMismatchError{
			Reason: fmt.Sprintf("%d weights for %d columns", model.NumFeatures(), len(file.Columns)),
		}
	}

	importances := append([]Importance(nil), file.Importances...)
	sort.SliceStable(importances, func(i, j int) bool {
		return importances[i].Importance > importances[j].Importance
	})

	return &Artifact{
		Version: file.Version,
		Model:   model,
		Encoder: &Encoder{
			Columns:     file.Columns,
			Numeric:     file.Scaler,
			Categorical: file.Encoder,
		},
		Importances: importances,
	}, nil
}
