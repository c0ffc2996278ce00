package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"heartrisk/db"
	"heartrisk/ml"
	"heartrisk/risk"
	"heartrisk/schema"
)

type fakePredictor struct {
	verdict risk.Verdict
	err     error
	calls   int
	stale   bool
}

func (f *fakePredictor) Predict(raw map[string]any, threshold float64) (risk.Verdict, error) {
	f.calls++
	if f.err != nil {
		return risk.Verdict{}, f.err
	}
	verdict := f.verdict
	verdict.Threshold = threshold
	return verdict, nil
}

func (f *fakePredictor) Fields() []schema.FieldSpec {
	return []schema.FieldSpec{{Name: "BMI", Kind: schema.Numeric, Default: "25"}}
}

func (f *fakePredictor) TopFeatures(count int) []ml.Importance {
	return []ml.Importance{{Feature: "Stroke_Yes", Importance: 0.4}}
}

func (f *fakePredictor) Version() string { return "test-1" }
func (f *fakePredictor) Columns() int    { return 3 }
func (f *fakePredictor) Stale() bool     { return f.stale }

func setupHandlers(t *testing.T, fake *fakePredictor) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	RegisterHandlers(mux)
	SetPredictor(fake)
	savePrediction = func(risk.Verdict, map[string]any, string) error { return nil }
	queryPredictions = func(limit int) ([]db.PredictionRecord, error) {
		return []db.PredictionRecord{{Label: risk.AtRisk, Probability: 0.8, CreatedAt: time.Now()}}, nil
	}
	t.Cleanup(func() {
		SetPredictor(nil)
		savePrediction = db.SavePrediction
		queryPredictions = db.QueryPredictions
	})
	return mux
}

func TestHandleHealth(t *testing.T) {
	mux := setupHandlers(t, &fakePredictor{})
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHandleSchema(t *testing.T) {
	mux := setupHandlers(t, &fakePredictor{})
	req := httptest.NewRequest(http.MethodGet, "/api/schema", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload struct {
		Fields []schema.FieldSpec `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(payload.Fields) != 1 || payload.Fields[0].Name != "BMI" {
		t.Fatalf("unexpected fields: %+v", payload.Fields)
	}
}

func TestHandleImportances(t *testing.T) {
	mux := setupHandlers(t, &fakePredictor{})
	req := httptest.NewRequest(http.MethodGet, "/api/importances?count=5", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Stroke_Yes") {
		t.Fatalf("expected importances in body: %s", w.Body.String())
	}
}

func TestHandleHistory(t *testing.T) {
	mux := setupHandlers(t, &fakePredictor{})
	req := httptest.NewRequest(http.MethodGet, "/api/history?limit=10", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "at_risk") {
		t.Fatalf("expected history in body: %s", w.Body.String())
	}
}

func TestHandleModel(t *testing.T) {
	mux := setupHandlers(t, &fakePredictor{})
	req := httptest.NewRequest(http.MethodGet, "/api/model", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload["version"] != "test-1" {
		t.Fatalf("unexpected version: %v", payload["version"])
	}
}
