package config

import (
	"testing"
)

func TestValidateConfig_Valid(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{"empty mapping", map[string]any{}},
		{"data only", map[string]any{"data": map[string]any{"train": "a.csv", "test": "b.csv"}}},
		{"full", ParseYAMLString(validYAML).Data},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateConfig(tt.data)
			if !result.Valid {
				t.Errorf("expected valid config, got errors: %v", result.Errors)
			}
		})
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]any
		wantPath string
	}{
		{
			name:     "unknown top-level key",
			data:     map[string]any{"model": map[string]any{}},
			wantPath: "/",
		},
		{
			name:     "wrong type",
			data:     map[string]any{"data": map[string]any{"train": true}},
			wantPath: "/data/train",
		},
		{
			name:     "empty train path",
			data:     map[string]any{"data": map[string]any{"train": ""}},
			wantPath: "/data/train",
		},
		{
			name:     "multi-character delimiter",
			data:     map[string]any{"data": map[string]any{"delimiter": ";;"}},
			wantPath: "/data/delimiter",
		},
		{
			name:     "artifact name with directory",
			data:     map[string]any{"artifacts": map[string]any{"preprocessor": "../x.json"}},
			wantPath: "/artifacts/preprocessor",
		},
		{
			name:     "unknown format",
			data:     map[string]any{"logging": map[string]any{"format": "xml"}},
			wantPath: "/logging/format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateConfig(tt.data)
			if result.Valid {
				t.Fatal("expected validation to fail")
			}
			if len(result.Errors) == 0 {
				t.Fatal("expected validation errors")
			}
			if result.Errors[0].Path != tt.wantPath {
				t.Errorf("Path = %q, want %q (errors: %v)", result.Errors[0].Path, tt.wantPath, result.Errors)
			}
		})
	}
}

func TestValidateConfig_NilData(t *testing.T) {
	result := ValidateConfig(nil)
	if result.Valid || result.Errors[0].Type != "required" {
		t.Errorf("ValidateConfig(nil) = %+v", result)
	}
}

func TestGetEmbeddedSchema(t *testing.T) {
	if len(GetEmbeddedSchema()) == 0 {
		t.Fatal("embedded schema is empty")
	}
	if _, err := getCompiledSchema(); err != nil {
		t.Fatalf("embedded schema does not compile: %v", err)
	}
}
