package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"heartrisk/db"
	"heartrisk/ml"
	"heartrisk/monitoring"
	"heartrisk/predict"
	"heartrisk/risk"
	"heartrisk/schema"
)

// PredictService is the slice of the predictor the handlers need. Kept as an
// interface so tests can inject a fake.
type PredictService interface {
	Predict(raw map[string]any, threshold float64) (risk.Verdict, error)
	Fields() []schema.FieldSpec
	TopFeatures(count int) []ml.Importance
	Version() string
	Columns() int
	Stale() bool
}

var (
	predictor        PredictService
	hub              *monitoring.Hub
	defaultThreshold = 0.5
	topFeatureCount  = 10

	// Overridable in tests.
	savePrediction   = db.SavePrediction
	queryPredictions = db.QueryPredictions

	// The pipeline is pure and the artifact immutable, so identical request
	// payloads can safely share one verdict.
	verdictCache *lru.Cache[string, risk.Verdict]
)

func init() {
	verdictCache, _ = lru.New[string, risk.Verdict](512)
}

// SetPredictor installs the predictor used by the API handlers.
func SetPredictor(p PredictService) {
	predictor = p
	verdictCache.Purge()
}

// SetHub installs the prediction event hub. Optional; nil disables streaming.
func SetHub(h *monitoring.Hub) {
	hub = h
}

// SetDecisionDefaults configures the threshold used when a request omits one
// and the importance count returned by default.
func SetDecisionDefaults(threshold float64, topFeatures int) {
	if threshold > 0 && threshold < 1 {
		defaultThreshold = threshold
	}
	if topFeatures > 0 {
		topFeatureCount = topFeatures
	}
}

// RegisterHandlers registers the screening API routes.
func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/predict", handlePredict)
	mux.HandleFunc("GET /api/schema", handleSchema)
	mux.HandleFunc("GET /api/model", handleModel)
	mux.HandleFunc("GET /api/importances", handleImportances)
	mux.HandleFunc("GET /api/history", handleHistory)
}

type predictRequest struct {
	Fields    map[string]any `json:"fields"`
	Threshold *float64       `json:"threshold,omitempty"`
}

type predictResponse struct {
	risk.Verdict
	ModelVersion string `json:"model_version"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func handlePredict(w http.ResponseWriter, r *http.Request) {
	if predictor == nil {
		respondError(w, http.StatusServiceUnavailable, "model not loaded", "")
		return
	}
	// Staleness is checked before the cache: an invalidated artifact must
	// refuse every request, not just the ones that miss the cache.
	if predictor.Stale() {
		respondError(w, http.StatusServiceUnavailable, predict.ErrModelStale.Error(), "")
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}
	threshold := defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	key := cacheKey(req.Fields, threshold)
	if key != "" {
		if verdict, ok := verdictCache.Get(key); ok {
			respondJSON(w, predictResponse{Verdict: verdict, ModelVersion: predictor.Version()})
			return
		}
	}

	verdict, err := predictor.Predict(req.Fields, threshold)
	if err != nil {
		writePredictError(w, err)
		return
	}
	if key != "" {
		verdictCache.Add(key, verdict)
	}

	if err := savePrediction(verdict, req.Fields, predictor.Version()); err != nil {
		log.Printf("Failed to persist prediction: %v", err)
	}
	if hub != nil {
		hub.Publish(monitoring.PredictionEvent{
			Label:             verdict.Label,
			Probability:       verdict.Probability,
			ConfidencePercent: verdict.ConfidencePercent,
			Threshold:         verdict.Threshold,
			ModelVersion:      predictor.Version(),
			Timestamp:         time.Now(),
		})
	}

	respondJSON(w, predictResponse{Verdict: verdict, ModelVersion: predictor.Version()})
}

func writePredictError(w http.ResponseWriter, err error) {
	var validationErr *schema.ValidationError
	var encodingErr *ml.EncodingError
	var thresholdErr *risk.InvalidThresholdError
	var mismatchErr *ml.ContractMismatchError
	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Error(), validationErr.Field)
	case errors.As(err, &encodingErr):
		respondError(w, http.StatusBadRequest, encodingErr.Error(), encodingErr.Field)
	case errors.As(err, &thresholdErr):
		respondError(w, http.StatusBadRequest, thresholdErr.Error(), "")
	case errors.Is(err, predict.ErrModelStale):
		respondError(w, http.StatusServiceUnavailable, err.Error(), "")
	case errors.As(err, &mismatchErr):
		// Version skew between schema and artifact: refuse, never coerce.
		log.Printf("FATAL contract mismatch during scoring: %v", err)
		respondError(w, http.StatusInternalServerError, mismatchErr.Error(), "")
	default:
		respondError(w, http.StatusInternalServerError, err.Error(), "")
	}
}

func handleSchema(w http.ResponseWriter, r *http.Request) {
	if predictor == nil {
		respondError(w, http.StatusServiceUnavailable, "model not loaded", "")
		return
	}
	respondJSON(w, map[string]any{"fields": predictor.Fields()})
}

func handleModel(w http.ResponseWriter, r *http.Request) {
	if predictor == nil {
		respondError(w, http.StatusServiceUnavailable, "model not loaded", "")
		return
	}
	respondJSON(w, map[string]any{
		"version":           predictor.Version(),
		"columns":           predictor.Columns(),
		"default_threshold": defaultThreshold,
	})
}

func handleImportances(w http.ResponseWriter, r *http.Request) {
	if predictor == nil {
		respondError(w, http.StatusServiceUnavailable, "model not loaded", "")
		return
	}
	count := topFeatureCount
	if v := r.URL.Query().Get("count"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			count = parsed
		}
	}
	respondJSON(w, map[string]any{"importances": predictor.TopFeatures(count)})
}

func handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	records, err := queryPredictions(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	respondJSON(w, map[string]any{"predictions": records})
}

func cacheKey(fields map[string]any, threshold float64) string {
	payload, err := json.Marshal(struct {
		Fields    map[string]any `json:"fields"`
		Threshold float64        `json:"threshold"`
	}{fields, threshold})
	if err != nil {
		return ""
	}
	return string(payload)
}

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]string{"error": message}
	if field != "" {
		body["field"] = field
	}
	json.NewEncoder(w).Encode(body)
}
