package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/Klnishant/DiamondPricePrediction/internal/config"
	"github.com/Klnishant/DiamondPricePrediction/internal/runtime"
	"github.com/Klnishant/DiamondPricePrediction/pkg/preprocess"
)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
}

var (
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed)
)

func successMark() string { return green.Sprint("✓") }
func failMark() string    { return red.Sprint("✗") }

// PrintSuccess prints a success line unless quiet.
func PrintSuccess(w io.Writer, opts OutputOptions, format string, args ...any) {
	if opts.Quiet {
		return
	}
	fmt.Fprintf(w, "%s %s\n", successMark(), fmt.Sprintf(format, args...))
}

// PrintRunResult displays a completed preprocessing run.
func PrintRunResult(w io.Writer, result *preprocess.RunResult, opts OutputOptions) {
	if opts.Quiet {
		return
	}
	if result == nil {
		fmt.Fprintf(w, "%s No run result available\n", failMark())
		return
	}

	trainRows, cols := result.Train.Dims()
	testRows, _ := result.Test.Dims()

	fmt.Fprintf(w, "%s Preprocessing completed\n", successMark())
	fmt.Fprintf(w, "  Train: %d rows x %d columns\n", trainRows, cols)
	fmt.Fprintf(w, "  Test: %d rows x %d columns\n", testRows, cols)
	fmt.Fprintf(w, "  Artifact: %s\n", result.ArtifactPath)
	if opts.Verbose {
		fmt.Fprintf(w, "  Run ID: %s\n", result.RunID)
		if result.Summary != "" {
			fmt.Fprintf(w, "  %s\n", result.Summary)
		}
		fmt.Fprintf(w, "  Columns: %s\n", strings.Join(result.Columns, ", "))
	}
}

// PrintApplyResult displays the outcome of applying a persisted transform.
func PrintApplyResult(w io.Writer, result *runtime.ApplyResult, outputPath string, opts OutputOptions) {
	if opts.Quiet || result == nil {
		return
	}

	rows, cols := result.Matrix.Dims()
	fmt.Fprintf(w, "%s Transform applied\n", successMark())
	fmt.Fprintf(w, "  Rows: %d\n", rows)
	fmt.Fprintf(w, "  Columns: %d\n", cols)
	if result.HasTarget {
		fmt.Fprintln(w, "  Target: kept as last column")
	}
	if outputPath != "" {
		fmt.Fprintf(w, "  Output: %s\n", outputPath)
	}
	if opts.Verbose {
		fmt.Fprintf(w, "  Run ID: %s\n", result.RunID)
	}
}

// PrintConfigSummary prints the resolved data and artifact locations.
func PrintConfigSummary(w io.Writer, cfg *config.RunConfig) {
	if cfg == nil {
		return
	}

	fmt.Fprintf(w, "  Train: %s\n", cfg.Data.Train)
	fmt.Fprintf(w, "  Test: %s\n", cfg.Data.Test)
	fmt.Fprintf(w, "  Artifact: %s\n", cfg.ArtifactPath())
	if cfg.Data.RowFilter != "" {
		fmt.Fprintf(w, "  Row filter: %s\n", cfg.Data.RowFilter)
	}
	if cfg.Artifacts.Export != "" {
		fmt.Fprintf(w, "  Export: %s\n", cfg.Artifacts.Export)
	}
}
