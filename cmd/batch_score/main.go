// Command batch_score runs the screening pipeline over a CSV of patient
// records: one row per patient, header row naming the schema fields. Verdicts
// are written as CSV to stdout. Clinical exports are often Windows-1252
// encoded; -encoding converts them before parsing.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"heartrisk/ml"
	"heartrisk/predict"
	"heartrisk/schema"
)

func main() {
	schemaPath := flag.String("schema", "data/feature_metadata.json", "feature metadata file")
	modelPath := flag.String("model", "data/model.json", "model artifact file")
	inputPath := flag.String("input", "", "CSV file of patient records (required)")
	encoding := flag.String("encoding", "utf-8", "input encoding: utf-8 or windows-1252")
	threshold := flag.Float64("threshold", 0.5, "risk threshold in (0,1)")
	flag.Parse()

	if *inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	fields, err := schema.Load(*schemaPath)
	if err != nil {
		log.Fatalf("Failed to load feature schema: %v", err)
	}
	artifact, err := ml.LoadArtifact(*modelPath)
	if err != nil {
		log.Fatalf("Failed to load model artifact: %v", err)
	}
	predictor, err := predict.New(fields, artifact)
	if err != nil {
		log.Fatalf("Schema/model contract check failed: %v", err)
	}

	file, err := os.Open(*inputPath)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer file.Close()

	var reader io.Reader = file
	switch *encoding {
	case "utf-8":
	case "windows-1252":
		reader = transform.NewReader(file, charmap.Windows1252.NewDecoder())
	default:
		log.Fatalf("Unsupported encoding %q", *encoding)
	}

	if err := scoreCSV(reader, predictor, *threshold, os.Stdout); err != nil {
		log.Fatalf("Batch scoring failed: %v", err)
	}
}

func scoreCSV(in io.Reader, predictor *predict.Predictor, threshold float64, out io.Writer) error {
	records := csv.NewReader(in)
	header, err := records.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	known := make(map[string]bool)
	for _, name := range schema.FieldNames(predictor.Fields()) {
		known[name] = true
	}
	for _, name := range header {
		if !known[name] {
			return fmt.Errorf("header column %q is not a schema field", name)
		}
	}

	writer := csv.NewWriter(out)
	defer writer.Flush()
	if err := writer.Write([]string{"row", "label", "confidence_percent", "probability", "error"}); err != nil {
		return err
	}

	for row := 1; ; row++ {
		record, err := records.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}

		raw := make(map[string]any, len(header))
		for i, name := range header {
			if i < len(record) && record[i] != "" {
				raw[name] = record[i]
			}
		}

		verdict, err := predictor.Predict(raw, threshold)
		if err != nil {
			if writeErr := writer.Write([]string{fmt.Sprint(row), "", "", "", err.Error()}); writeErr != nil {
				return writeErr
			}
			continue
		}
		line := []string{
			fmt.Sprint(row),
			string(verdict.Label),
			fmt.Sprintf("%.1f", verdict.ConfidencePercent),
			fmt.Sprintf("%.4f", verdict.Probability),
			"",
		}
		if err := writer.Write(line); err != nil {
			return err
		}
	}
	return writer.Error()
}
