package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feature_metadata.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeSchema(t, `[
		{"name":"BMI","kind":"numeric","min":10,"max":60,"has_range":true,"default":"25"},
		{"name":"Smoking","kind":"categorical","allowed_values":["Yes","No"],"default":"No"}
	]`)

	fields, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Name != "BMI" || fields[0].Kind != Numeric {
		t.Fatalf("unexpected first field: %+v", fields[0])
	}
	if fields[1].Kind != Categorical || len(fields[1].AllowedValues) != 2 {
		t.Fatalf("unexpected second field: %+v", fields[1])
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeSchema(t, `{not json`)
	_, err := Load(path)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestLoadEmpty(t *testing.T) {
	path := writeSchema(t, `[]`)
	_, err := Load(path)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestLoadRejectsBadFields(t *testing.T) {
	cases := map[string]string{
		"duplicate name": `[
			{"name":"BMI","kind":"numeric","default":"25"},
			{"name":"BMI","kind":"numeric","default":"25"}
		]`,
		"unknown kind":      `[{"name":"BMI","kind":"boolean","default":"true"}]`,
		"empty name":        `[{"name":"","kind":"numeric","default":"0"}]`,
		"no allowed values": `[{"name":"Smoking","kind":"categorical","default":"No"}]`,
		"inverted range":    `[{"name":"BMI","kind":"numeric","min":60,"max":10,"has_range":true,"default":"25"}]`,
	}
	for name, content := range cases {
		path := writeSchema(t, content)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestFieldNames(t *testing.T) {
	fields := []FieldSpec{{Name: "a"}, {Name: "b"}}
	names := FieldNames(fields)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names: %v", names)
	}
}
