// Package errhandling provides error types and classification for preprocessing runs.
package errhandling

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"testing"
)

// TestErrorCategory tests error category constants and their string values.
func TestErrorCategory(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		expected string
	}{
		{CategoryInput, "input"},
		{CategoryFit, "fit"},
		{CategoryPersistence, "persistence"},
		{CategoryConfig, "config"},
		{CategoryUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if string(tt.category) != tt.expected {
				t.Errorf("ErrorCategory = %v, want %v", tt.category, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here.csv")

	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, CategoryUnknown},
		{"zero variance", fmt.Errorf("scaler: %w", ErrZeroVariance), CategoryFit},
		{"no observed values", ErrNoObservedValues, CategoryFit},
		{"unknown operation", ErrUnknownOperation, CategoryFit},
		{"missing column", ErrMissingColumn, CategoryInput},
		{"unknown category", NewColumnError("cut", 3, ErrUnknownCategory), CategoryInput},
		{"not numeric", ErrNotNumeric, CategoryInput},
		{"missing file", statErr, CategoryInput},
		{"artifact version", ErrArtifactVersion, CategoryPersistence},
		{"invalid artifact", fmt.Errorf("decoding: %w", ErrInvalidArtifact), CategoryPersistence},
		{"invalid config", ErrInvalidConfig, CategoryConfig},
		{"plain error", errors.New("boom"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		if err := Wrap(StageFit, nil); err != nil {
			t.Errorf("Wrap(nil) = %v, want nil", err)
		}
	})

	t.Run("carries stage, column and cause", func(t *testing.T) {
		cause := NewColumnError("clarity", 7, ErrUnknownCategory)
		err := Wrap(StageApplyTest, fmt.Errorf("applying transform: %w", cause))

		var te *TransformError
		if !errors.As(err, &te) {
			t.Fatalf("Wrap() returned %T, want *TransformError", err)
		}
		if te.Stage != StageApplyTest {
			t.Errorf("Stage = %v, want %v", te.Stage, StageApplyTest)
		}
		if te.Category != CategoryInput {
			t.Errorf("Category = %v, want %v", te.Category, CategoryInput)
		}
		if te.Column != "clarity" || te.Row != 7 {
			t.Errorf("Column/Row = %q/%d, want clarity/7", te.Column, te.Row)
		}
		if !errors.Is(err, ErrUnknownCategory) {
			t.Error("errors.Is should match the original sentinel")
		}
		msg := err.Error()
		if !strings.Contains(msg, "apply_test") || !strings.Contains(msg, "clarity") {
			t.Errorf("Error() = %q, want stage and column context", msg)
		}
	})

	t.Run("does not double wrap", func(t *testing.T) {
		first := Wrap(StageFit, ErrZeroVariance)
		second := Wrap(StagePersist, first)
		if first != second {
			t.Error("Wrap should return an existing TransformError unchanged")
		}
	})

	t.Run("row unknown without column error", func(t *testing.T) {
		var te *TransformError
		if !errors.As(Wrap(StageRead, ErrEmptyTable), &te) {
			t.Fatal("expected TransformError")
		}
		if te.Row != -1 || te.Column != "" {
			t.Errorf("Column/Row = %q/%d, want empty/-1", te.Column, te.Row)
		}
	})
}

func TestColumnError(t *testing.T) {
	withRow := NewColumnError("carat", 2, ErrNotNumeric)
	if !strings.Contains(withRow.Error(), "row 2") {
		t.Errorf("Error() = %q, want row index", withRow.Error())
	}

	noRow := NewColumnError("carat", -1, ErrZeroVariance)
	if strings.Contains(noRow.Error(), "row") {
		t.Errorf("Error() = %q, should not mention a row", noRow.Error())
	}
	if !errors.Is(noRow, ErrZeroVariance) {
		t.Error("errors.Is should see through ColumnError")
	}
}

func TestCategoryHelpers(t *testing.T) {
	if !IsInputError(ErrMissingColumn) {
		t.Error("IsInputError(ErrMissingColumn) = false")
	}
	if !IsFitError(Wrap(StageFit, ErrZeroVariance)) {
		t.Error("IsFitError(wrapped zero variance) = false")
	}
	if IsFitError(nil) || IsInputError(nil) || IsPersistenceError(nil) {
		t.Error("helpers must return false for nil")
	}

	pe := NewPersistenceError(&fs.PathError{Op: "open", Path: "artifacts/x", Err: fs.ErrPermission})
	if !IsPersistenceError(pe) {
		t.Error("NewPersistenceError should be classified as persistence")
	}
	if pe.Stage != StagePersist {
		t.Errorf("Stage = %v, want %v", pe.Stage, StagePersist)
	}
	if GetErrorCategory(pe) != CategoryPersistence {
		t.Errorf("GetErrorCategory() = %v", GetErrorCategory(pe))
	}
}
