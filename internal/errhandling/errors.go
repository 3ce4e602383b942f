// Package errhandling provides error types and classification for preprocessing runs.
// Every failure inside building, fitting, applying or persisting a transform is
// surfaced to callers as a single TransformError carrying stage, category,
// column and the original cause.
package errhandling

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrorCategory represents the type/category of an error.
type ErrorCategory string

// Error categories for classification.
const (
	// CategoryInput represents input errors: unreadable file, missing column,
	// unparseable cell, unseen category.
	CategoryInput ErrorCategory = "input"

	// CategoryFit represents fit errors: degenerate columns that cannot yield
	// imputation or scaling statistics.
	CategoryFit ErrorCategory = "fit"

	// CategoryPersistence represents artifact save/load errors.
	CategoryPersistence ErrorCategory = "persistence"

	// CategoryConfig represents invalid run configuration.
	CategoryConfig ErrorCategory = "config"

	// CategoryUnknown represents unclassified errors.
	CategoryUnknown ErrorCategory = "unknown"
)

// Stage names the orchestrator step where an error originated.
type Stage string

// Orchestrator stages.
const (
	StageRead      Stage = "read"
	StageFilter    Stage = "filter"
	StageSplit     Stage = "split"
	StageBuild     Stage = "build"
	StageFit       Stage = "fit"
	StageApplyTest Stage = "apply_test"
	StageAssemble  Stage = "assemble"
	StagePersist   Stage = "persist"
)

// Input errors.
var (
	ErrMissingColumn   = errors.New("required column is missing")
	ErrColumnMismatch  = errors.New("feature columns do not match the fitted transform")
	ErrEmptyTable      = errors.New("table has no data rows")
	ErrMalformedTable  = errors.New("table is not valid delimited text")
	ErrNotNumeric      = errors.New("value is not numeric")
	ErrUnknownCategory = errors.New("category is not listed in the rank table")
	ErrMissingValue    = errors.New("missing value reached a stage that requires a value")
	ErrInvalidFilter   = errors.New("invalid row filter expression")
)

// Fit errors.
var (
	ErrNoObservedValues = errors.New("column has no observed values")
	ErrZeroVariance     = errors.New("column has zero variance")
	ErrUnknownOperation = errors.New("unknown operation")
)

// Persistence errors.
var (
	ErrArtifactVersion = errors.New("unsupported artifact version")
	ErrNilArtifact     = errors.New("artifact is nil")
	ErrInvalidArtifact = errors.New("artifact is not a valid fitted transform")
)

// Config errors.
var (
	ErrInvalidConfig = errors.New("invalid run configuration")
)

// ColumnError attaches a column name and, when known, a zero-based data row
// index to a cell-level failure.
type ColumnError struct {
	Column string
	Row    int
	Err    error
}

// NewColumnError creates a ColumnError. Use row -1 when the failure is not tied to a row.
func NewColumnError(column string, row int, err error) *ColumnError {
	return &ColumnError{Column: column, Row: row, Err: err}
}

// Error implements the error interface.
func (e *ColumnError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("column %q, row %d: %v", e.Column, e.Row, e.Err)
	}
	return fmt.Sprintf("column %q: %v", e.Column, e.Err)
}

// Unwrap returns the underlying error.
func (e *ColumnError) Unwrap() error {
	return e.Err
}

// TransformError is the uniform error kind returned at the orchestrator boundary.
type TransformError struct {
	// Stage is the orchestrator step that failed.
	Stage Stage

	// Category is the error classification category.
	Category ErrorCategory

	// Column is the offending column, empty when not column specific.
	Column string

	// Row is the zero-based data row, -1 when unknown.
	Row int

	// OriginalErr is the underlying cause.
	OriginalErr error
}

// Error implements the error interface.
func (e *TransformError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("preprocessing failed at stage %s (%s error)", e.Stage, e.Category))
	if e.OriginalErr != nil {
		sb.WriteString(": ")
		sb.WriteString(e.OriginalErr.Error())
	}
	return sb.String()
}

// Unwrap returns the original error for use with errors.Is and errors.As.
func (e *TransformError) Unwrap() error {
	return e.OriginalErr
}

// Wrap annotates err with the stage it originated from. Errors that are
// already a TransformError are returned unchanged. Nil stays nil.
func Wrap(stage Stage, err error) error {
	if err == nil {
		return nil
	}

	var te *TransformError
	if errors.As(err, &te) {
		return te
	}

	wrapped := &TransformError{
		Stage:       stage,
		Category:    Classify(err),
		Row:         -1,
		OriginalErr: err,
	}

	var colErr *ColumnError
	if errors.As(err, &colErr) {
		wrapped.Column = colErr.Column
		wrapped.Row = colErr.Row
	}

	return wrapped
}

// Classify maps an error to its category using the sentinel errors above.
func Classify(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	var te *TransformError
	if errors.As(err, &te) {
		return te.Category
	}

	switch {
	case errors.Is(err, ErrZeroVariance),
		errors.Is(err, ErrNoObservedValues),
		errors.Is(err, ErrUnknownOperation):
		return CategoryFit
	case errors.Is(err, ErrArtifactVersion),
		errors.Is(err, ErrNilArtifact),
		errors.Is(err, ErrInvalidArtifact):
		return CategoryPersistence
	case errors.Is(err, ErrInvalidConfig):
		return CategoryConfig
	case errors.Is(err, ErrMissingColumn),
		errors.Is(err, ErrColumnMismatch),
		errors.Is(err, ErrEmptyTable),
		errors.Is(err, ErrMalformedTable),
		errors.Is(err, ErrNotNumeric),
		errors.Is(err, ErrUnknownCategory),
		errors.Is(err, ErrMissingValue),
		errors.Is(err, ErrInvalidFilter),
		errors.Is(err, fs.ErrNotExist):
		return CategoryInput
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return CategoryInput
	}

	return CategoryUnknown
}

// GetErrorCategory returns the category of err.
// Returns CategoryUnknown for nil or unclassified errors.
func GetErrorCategory(err error) ErrorCategory {
	return Classify(err)
}

// IsInputError reports whether err is an input error.
func IsInputError(err error) bool {
	return err != nil && Classify(err) == CategoryInput
}

// IsFitError reports whether err is a fit error.
func IsFitError(err error) bool {
	return err != nil && Classify(err) == CategoryFit
}

// IsPersistenceError reports whether err is a persistence error.
func IsPersistenceError(err error) bool {
	return err != nil && Classify(err) == CategoryPersistence
}

// NewPersistenceError creates a TransformError for an artifact write or read failure.
// Filesystem errors are otherwise classified as input errors, so the persist
// stage tags them explicitly.
func NewPersistenceError(err error) *TransformError {
	return &TransformError{
		Stage:       StagePersist,
		Category:    CategoryPersistence,
		Row:         -1,
		OriginalErr: err,
	}
}
