package pathutil

import (
	"testing"
)

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"empty", "", true},
		{"null byte", "a\x00b", true},
		{"simple segment", "..", true},
		{"leading segment", "../train.csv", true},
		{"middle segment", "data/../etc/passwd", true},
		{"valid relative", "artifacts/train.csv", false},
		{"valid absolute", "/srv/data/test.csv", false},
		{"single segment", "train.csv", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilePath(%q) err = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFileName(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{"default artifact", "preprocessor.json", false},
		{"upper-case extension", "PREPROCESSOR.JSON", false},
		{"directory", "artifacts/preprocessor.json", true},
		{"windows directory", `artifacts\preprocessor.json`, true},
		{"wrong extension", "preprocessor.pkl", true},
		{"traversal", "..", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileName(tt.file, ".json")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFileName(%q) err = %v, wantErr %v", tt.file, err, tt.wantErr)
			}
		})
	}
}
