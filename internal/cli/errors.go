// Package cli provides CLI output formatting and display functions.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/Klnishant/DiamondPricePrediction/internal/config"
	"github.com/Klnishant/DiamondPricePrediction/internal/errhandling"
)

// PrintParseErrors prints configuration parse errors to w.
func PrintParseErrors(w io.Writer, errs []config.ParseError, verbose bool) {
	fmt.Fprintf(w, "%s Parse errors:\n", failMark())
	for _, err := range errs {
		printSingleParseError(w, err, verbose)
	}
}

// printSingleParseError prints a single parse error with location information.
func printSingleParseError(w io.Writer, err config.ParseError, verbose bool) {
	location := formatErrorLocation(err.Path, err.Line, err.Column)

	if location != "" {
		fmt.Fprintf(w, "  %s: %s\n", location, err.Message)
	} else {
		fmt.Fprintf(w, "  %s\n", err.Message)
	}

	if verbose && err.Type != "" {
		fmt.Fprintf(w, "    Type: %s\n", err.Type)
	}
}

// formatErrorLocation formats the error location string (path:line:column).
func formatErrorLocation(path string, line, column int) string {
	if path == "" {
		return ""
	}

	location := path
	if line > 0 {
		location += fmt.Sprintf(":%d", line)
		if column > 0 {
			location += fmt.Sprintf(":%d", column)
		}
	}
	return location
}

// PrintValidationErrors prints schema validation errors to w.
func PrintValidationErrors(w io.Writer, errs []config.ValidationError, verbose, quiet bool) {
	fmt.Fprintf(w, "%s Validation errors:\n", failMark())
	for _, err := range errs {
		printSingleValidationError(w, err, verbose)
	}
	printValidationHint(w, verbose, quiet)
}

func printSingleValidationError(w io.Writer, err config.ValidationError, verbose bool) {
	path := err.Path
	if path == "" {
		path = "/"
	}

	if verbose {
		fmt.Fprintf(w, "  %s:\n", path)
		fmt.Fprintf(w, "    Message: %s\n", err.Message)
		if err.Type != "" {
			fmt.Fprintf(w, "    Type: %s\n", err.Type)
		}
		return
	}

	shortMsg := err.Message
	if len(shortMsg) > 80 {
		shortMsg = shortMsg[:77] + "..."
	}
	fmt.Fprintf(w, "  %s: %s\n", path, shortMsg)
}

func printValidationHint(w io.Writer, verbose, quiet bool) {
	if !verbose && !quiet {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Hint: Use --verbose for detailed error information")
	}
}

// PrintRunError prints a failed run. A TransformError is shown with its
// stage, category and, when known, the offending column and row.
func PrintRunError(w io.Writer, err error, verbose bool) {
	var te *errhandling.TransformError
	if !errors.As(err, &te) {
		fmt.Fprintf(w, "%s Preprocessing failed: %v\n", failMark(), err)
		return
	}

	fmt.Fprintf(w, "%s Preprocessing failed\n", failMark())
	fmt.Fprintf(w, "  Stage: %s\n", te.Stage)
	fmt.Fprintf(w, "  Category: %s\n", te.Category)
	if te.Column != "" {
		fmt.Fprintf(w, "  Column: %s\n", te.Column)
		if te.Row >= 0 {
			fmt.Fprintf(w, "  Row: %d\n", te.Row)
		}
	}
	if te.OriginalErr != nil {
		fmt.Fprintf(w, "  Error: %v\n", te.OriginalErr)
	}

	if verbose {
		for cause := errors.Unwrap(te.OriginalErr); cause != nil; cause = errors.Unwrap(cause) {
			fmt.Fprintf(w, "    Caused by: %v\n", cause)
		}
	}
}
