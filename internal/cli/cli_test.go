package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/Klnishant/DiamondPricePrediction/internal/config"
	"github.com/Klnishant/DiamondPricePrediction/internal/errhandling"
	"github.com/Klnishant/DiamondPricePrediction/pkg/preprocess"
)

func TestFormatErrorLocation(t *testing.T) {
	tests := []struct {
		path         string
		line, column int
		want         string
	}{
		{"", 3, 4, ""},
		{"run.yaml", 0, 0, "run.yaml"},
		{"run.yaml", 3, 0, "run.yaml:3"},
		{"run.yaml", 3, 4, "run.yaml:3:4"},
	}
	for _, tt := range tests {
		if got := formatErrorLocation(tt.path, tt.line, tt.column); got != tt.want {
			t.Errorf("formatErrorLocation(%q, %d, %d) = %q, want %q", tt.path, tt.line, tt.column, got, tt.want)
		}
	}
}

func TestPrintParseErrors(t *testing.T) {
	var buf bytes.Buffer
	PrintParseErrors(&buf, []config.ParseError{
		{Path: "run.yaml", Line: 2, Column: 5, Message: "mapping values are not allowed", Type: config.ErrorTypeSyntax},
	}, true)

	out := buf.String()
	for _, want := range []string{"Parse errors", "run.yaml:2:5: mapping values are not allowed", "Type: syntax"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintValidationErrors(t *testing.T) {
	long := strings.Repeat("x", 100)
	errs := []config.ValidationError{
		{Path: "/logging/level", Type: "enum", Message: "value must be one of debug, info, warn, error"},
		{Message: long},
	}

	t.Run("compact", func(t *testing.T) {
		var buf bytes.Buffer
		PrintValidationErrors(&buf, errs, false, false)
		out := buf.String()
		if !strings.Contains(out, "/logging/level: value must be one of") {
			t.Errorf("missing path line:\n%s", out)
		}
		if !strings.Contains(out, "  /: "+long[:77]+"...") {
			t.Errorf("long message not truncated at root path:\n%s", out)
		}
		if !strings.Contains(out, "Hint:") {
			t.Errorf("missing hint:\n%s", out)
		}
	})

	t.Run("verbose", func(t *testing.T) {
		var buf bytes.Buffer
		PrintValidationErrors(&buf, errs, true, false)
		out := buf.String()
		if !strings.Contains(out, "Type: enum") || !strings.Contains(out, long) {
			t.Errorf("verbose output incomplete:\n%s", out)
		}
		if strings.Contains(out, "Hint:") {
			t.Error("hint printed in verbose mode")
		}
	})
}

func TestPrintRunError(t *testing.T) {
	cause := errhandling.NewColumnError("cut", 1, fmt.Errorf("ordinal_encode: %w", errhandling.ErrUnknownCategory))
	err := errhandling.Wrap(errhandling.StageApplyTest, cause)

	var buf bytes.Buffer
	PrintRunError(&buf, err, true)
	out := buf.String()
	for _, want := range []string{"Stage: apply_test", "Category: input", "Column: cut", "Row: 1", "Caused by:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	PrintRunError(&buf, fmt.Errorf("plain failure"), false)
	if !strings.Contains(buf.String(), "plain failure") {
		t.Errorf("plain error not printed: %s", buf.String())
	}
}

func TestPrintRunResult(t *testing.T) {
	result := &preprocess.RunResult{
		RunID:        "run-1",
		Train:        mat.NewDense(3, 10, nil),
		Test:         mat.NewDense(2, 10, nil),
		ArtifactPath: "artifacts/preprocessor.json",
		Columns:      []string{"carat", "price"},
		Summary:      "Transformed 3 train and 2 test rows into 10 columns in 4ms",
	}

	var buf bytes.Buffer
	PrintRunResult(&buf, result, OutputOptions{Verbose: true})
	out := buf.String()
	for _, want := range []string{"Train: 3 rows x 10 columns", "Test: 2 rows x 10 columns", "artifacts/preprocessor.json", "Run ID: run-1", "Transformed 3 train and 2 test rows"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	PrintRunResult(&buf, result, OutputOptions{Quiet: true})
	if buf.Len() != 0 {
		t.Errorf("quiet output = %q, want empty", buf.String())
	}
}

func TestPrintArtifact(t *testing.T) {
	median, mean, std := 2.0, 2.0, 0.816497
	mode := "Ideal"
	fitted := &preprocess.FittedTransform{
		Version: preprocess.ArtifactVersion,
		Target:  "price",
		Branches: []preprocess.FittedBranch{
			{Name: "num_pipeline", Kind: preprocess.KindNumeric, Columns: []preprocess.FittedColumn{
				{Name: "carat", Stages: []preprocess.FittedStage{
					{Op: preprocess.OpImputeMedian, Median: &median},
					{Op: preprocess.OpStandardize, Mean: &mean, Std: &std},
				}},
			}},
			{Name: "cat_pipeline", Kind: preprocess.KindCategorical, Columns: []preprocess.FittedColumn{
				{Name: "cut", Stages: []preprocess.FittedStage{
					{Op: preprocess.OpImputeMode, Mode: &mode},
					{Op: preprocess.OpOrdinalEncode, Categories: []string{"Fair", "Good"}},
				}},
			}},
		},
	}

	var buf bytes.Buffer
	PrintArtifact(&buf, "preprocessor.json", fitted)
	out := buf.String()
	for _, want := range []string{"carat", "median=2", "std=0.816497", "mode=Ideal", "Fair < Good", "num_pipeline", "cat_pipeline"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
