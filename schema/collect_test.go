package schema

import (
	"errors"
	"testing"
)

func testFields() []FieldSpec {
	return []FieldSpec{
		{Name: "BMI", Kind: Numeric, Min: 10, Max: 60, HasRange: true, Default: "25"},
		{Name: "SleepTime", Kind: Numeric, Min: 0, Max: 24, HasRange: true, Default: "7"},
		{Name: "Smoking", Kind: Categorical, AllowedValues: []string{"Yes", "No"}, Default: "No"},
	}
}

func TestCollect(t *testing.T) {
	input, err := Collect(map[string]any{
		"BMI":       31.5,
		"SleepTime": "6.5",
		"Smoking":   "Yes",
	}, testFields())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.Numeric["BMI"] != 31.5 {
		t.Fatalf("unexpected BMI: %v", input.Numeric["BMI"])
	}
	if input.Numeric["SleepTime"] != 6.5 {
		t.Fatalf("expected string numeric to parse, got %v", input.Numeric["SleepTime"])
	}
	if input.Categorical["Smoking"] != "Yes" {
		t.Fatalf("unexpected Smoking: %v", input.Categorical["Smoking"])
	}
}

func TestCollectSubstitutesDefaults(t *testing.T) {
	input, err := Collect(map[string]any{}, testFields())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.Numeric["BMI"] != 25 || input.Numeric["SleepTime"] != 7 {
		t.Fatalf("expected numeric defaults, got %+v", input.Numeric)
	}
	if input.Categorical["Smoking"] != "No" {
		t.Fatalf("expected categorical default, got %+v", input.Categorical)
	}
}

func TestCollectRejectsOutOfRange(t *testing.T) {
	_, err := Collect(map[string]any{"BMI": 100.0}, testFields())
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Field != "BMI" {
		t.Fatalf("expected BMI named, got %q", validationErr.Field)
	}
}

func TestCollectRejectsUnparsableNumber(t *testing.T) {
	_, err := Collect(map[string]any{"BMI": "heavy"}, testFields())
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "BMI" {
		t.Fatalf("expected ValidationError for BMI, got %v", err)
	}
}

func TestCollectRejectsWrongCategoricalType(t *testing.T) {
	_, err := Collect(map[string]any{"Smoking": 1.0}, testFields())
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "Smoking" {
		t.Fatalf("expected ValidationError for Smoking, got %v", err)
	}
}

func TestCollectFirstErrorIsDeterministic(t *testing.T) {
	// Both fields invalid; schema order decides which one is reported.
	bad := map[string]any{"BMI": -1.0, "SleepTime": 99.0}
	for i := 0; i < 10; i++ {
		_, err := Collect(bad, testFields())
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if validationErr.Field != "BMI" {
			t.Fatalf("expected first schema field reported, got %q", validationErr.Field)
		}
	}
}
