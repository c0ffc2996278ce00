package predict

import (
	"errors"
	"sync/atomic"

	"heartrisk/ml"
	"heartrisk/risk"
	"heartrisk/schema"
)

// ErrModelStale is returned once the loaded artifact has been invalidated
// (for example, the file changed on disk after load). The predictor refuses
// further requests rather than score against an artifact of unknown version.
var ErrModelStale = errors.New("model artifact is stale, refusing to score")

// Predictor runs the full pipeline for one request: collect and validate the
// raw values, build the feature vector, score it, apply the threshold rule.
// It holds only read-only state and is safe for concurrent use.
type Predictor struct {
	fields   []schema.FieldSpec
	artifact *ml.Artifact
	stale    atomic.Bool
}

// New wires a schema and a loaded artifact together, cross-checking them
// first. A schema/artifact mismatch here is a fatal configuration error and
// must abort startup.
func New(fields []schema.FieldSpec, artifact *ml.Artifact) (*Predictor, error) {
	if len(fields) == 0 {
		return nil, errors.New("predictor: empty schema")
	}
	if artifact == nil || artifact.Model == nil || artifact.Encoder == nil {
		return nil, errors.New("predictor: incomplete artifact")
	}
	if err := artifact.Encoder.Validate(fields); err != nil {
		return nil, err
	}
	if artifact.Model.NumFeatures() != len(artifact.Encoder.Columns) {
		return nil, &ml.ContractMismatchError{Reason: "model width differs from encoder columns"}
	}
	return &Predictor{fields: fields, artifact: artifact}, nil
}

// Predict runs one request through the pipeline. Pure with respect to the
// predictor: identical input and threshold always yield an identical verdict.
func (p *Predictor) Predict(raw map[string]any, threshold float64) (risk.Verdict, error) {
	if p.stale.Load() {
		return risk.Verdict{}, ErrModelStale
	}
	input, err := schema.Collect(raw, p.fields)
	if err != nil {
		return risk.Verdict{}, err
	}
	vector, err := p.artifact.Encoder.BuildVector(input, p.fields)
	if err != nil {
		return risk.Verdict{}, err
	}
	probability, err := p.artifact.Model.PredictProbability(vector)
	if err != nil {
		return risk.Verdict{}, err
	}
	return risk.Decide(probability, threshold)
}

// Fields returns the schema in declaration order, for rendering input forms.
func (p *Predictor) Fields() []schema.FieldSpec {
	return p.fields
}

// TopFeatures exposes the artifact's static importance ranking.
func (p *Predictor) TopFeatures(count int) []ml.Importance {
	return risk.TopFeatures(p.artifact.Importances, count)
}

// Version reports the loaded artifact version.
func (p *Predictor) Version() string {
	return p.artifact.Version
}

// Columns reports the model's input width.
func (p *Predictor) Columns() int {
	return len(p.artifact.Encoder.Columns)
}

// MarkStale makes every subsequent Predict fail with ErrModelStale.
func (p *Predictor) MarkStale() {
	p.stale.Store(true)
}

// Stale reports whether the predictor has been invalidated.
func (p *Predictor) Stale() bool {
	return p.stale.Load()
}
