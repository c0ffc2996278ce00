package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"heartrisk/risk"
)

var database *sql.DB

// PredictionRecord is one persisted screening result.
type PredictionRecord struct {
	ID                int64          `json:"id"`
	Label             risk.Label     `json:"label"`
	Probability       float64        `json:"probability"`
	ConfidencePercent float64        `json:"confidence_percent"`
	Threshold         float64        `json:"threshold"`
	ModelVersion      string         `json:"model_version"`
	Inputs            map[string]any `json:"inputs,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// InitDB initializes the SQLite database
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        label TEXT NOT NULL,
        probability REAL NOT NULL,
        confidence REAL NOT NULL,
        threshold REAL NOT NULL,
        model_version TEXT,
        inputs TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
    `

	_, err = database.Exec(query)
	return err
}

// Close closes the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	return database.Close()
}

// SavePrediction persists one verdict together with the inputs that produced
// it. Inputs are stored as JSON for audit, not for re-scoring.
func SavePrediction(verdict risk.Verdict, inputs map[string]any, modelVersion string) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	payload, err := json.Marshal(inputs)
	if err != nil {
		return err
	}
	_, err = database.Exec(`
        INSERT INTO predictions (label, probability, confidence, threshold, model_version, inputs, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(verdict.Label), verdict.Probability, verdict.ConfidencePercent,
		verdict.Threshold, modelVersion, string(payload), time.Now())
	return err
}

// QueryPredictions returns the most recent predictions, newest first.
func QueryPredictions(limit int) ([]PredictionRecord, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(`
        SELECT id, label, probability, confidence, threshold, model_version, inputs, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PredictionRecord
	for rows.Next() {
		var r PredictionRecord
		var label string
		var version, inputs sql.NullString
		if err := rows.Scan(&r.ID, &label, &r.Probability, &r.ConfidencePercent,
			&r.Threshold, &version, &inputs, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Label = risk.Label(label)
		if version.Valid {
			r.ModelVersion = version.String
		}
		if inputs.Valid && inputs.String != "" {
			_ = json.Unmarshal([]byte(inputs.String), &r.Inputs)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
