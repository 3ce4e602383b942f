// Package preprocess provides public types for the diamond price preprocessing runtime.
// This package is intended to be importable by training and serving code that
// needs to reload a fitted transform or consume the transformed arrays.
package preprocess

import (
	"gonum.org/v1/gonum/mat"
)

// ArtifactVersion is the current version of the persisted transform format.
const ArtifactVersion = 1

// Operation identifies a single stage in a branch chain.
type Operation string

// Supported operations.
const (
	// OpImputeMedian fills missing numeric cells with the training median.
	OpImputeMedian Operation = "impute_median"
	// OpImputeMode fills missing categorical cells with the training mode.
	OpImputeMode Operation = "impute_mode"
	// OpOrdinalEncode maps a category to its rank in the declared order.
	OpOrdinalEncode Operation = "ordinal_encode"
	// OpStandardize subtracts the training mean and divides by the training standard deviation.
	OpStandardize Operation = "standardize"
)

// BranchKind tells how raw cells of a branch are interpreted.
type BranchKind string

// Branch kinds.
const (
	KindNumeric     BranchKind = "numeric"
	KindCategorical BranchKind = "categorical"
)

// RankTable declares the total order of valid categories for one column,
// from lowest to highest rank.
type RankTable struct {
	Column     string   `json:"column"`
	Categories []string `json:"categories"`
}

// Rank returns the position of value in the table, or -1 if it is not listed.
func (r RankTable) Rank(value string) int {
	for i, c := range r.Categories {
		if c == value {
			return i
		}
	}
	return -1
}

// Branch routes a group of columns through an ordered chain of operations.
type Branch struct {
	// Name identifies the branch in logs and errors (num_pipeline, cat_pipeline)
	Name string `json:"name"`

	// Kind is the cell interpretation for this branch
	Kind BranchKind `json:"kind"`

	// Columns lists the routed columns in output order
	Columns []string `json:"columns"`

	// Steps is the ordered operation chain applied to every column
	Steps []Operation `json:"steps"`

	// Ranks holds one rank table per routed column (categorical branches only)
	Ranks []RankTable `json:"ranks,omitempty"`
}

// RankTable returns the rank table declared for column.
func (b Branch) RankTable(column string) (RankTable, bool) {
	for _, r := range b.Ranks {
		if r.Column == column {
			return r, true
		}
	}
	return RankTable{}, false
}

// TransformSpec is a declarative routing table: column group to ordered
// list of operations. Building a spec never touches data.
type TransformSpec struct {
	// Target is removed before fitting and appended after each application
	Target string `json:"target"`

	// Identifier is removed before fitting and never transformed
	Identifier string `json:"identifier"`

	Branches []Branch `json:"branches"`
}

// Columns returns every routed column, branch by branch, in output order.
func (s TransformSpec) Columns() []string {
	var cols []string
	for _, b := range s.Branches {
		cols = append(cols, b.Columns...)
	}
	return cols
}

// FittedStage holds the statistics learned by one operation for one column.
// Only the fields relevant to Op are set.
type FittedStage struct {
	Op         Operation `json:"op"`
	Median     *float64  `json:"median,omitempty"`
	Mode       *string   `json:"mode,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Mean       *float64  `json:"mean,omitempty"`
	Std        *float64  `json:"std,omitempty"`
}

// FittedColumn is the fitted chain for a single column.
type FittedColumn struct {
	Name   string        `json:"name"`
	Stages []FittedStage `json:"stages"`
}

// FittedBranch is the fitted counterpart of Branch.
type FittedBranch struct {
	Name    string         `json:"name"`
	Kind    BranchKind     `json:"kind"`
	Columns []FittedColumn `json:"columns"`
}

// FittedTransform is the artifact produced once by fitting on training
// features. It is never mutated after the fit call returns.
type FittedTransform struct {
	// Version is the artifact format version
	Version int `json:"version"`

	// FeatureColumns is the feature column order seen at fit time
	FeatureColumns []string `json:"featureColumns"`

	// Target is the prediction column appended to assembled arrays
	Target string `json:"target"`

	// Identifier is the row identifier column dropped before the transform
	Identifier string `json:"identifier"`

	// Branches holds the fitted chains in output order
	Branches []FittedBranch `json:"branches"`
}

// OutputColumns returns the transformed feature columns in output order.
func (f *FittedTransform) OutputColumns() []string {
	var cols []string
	for _, b := range f.Branches {
		for _, c := range b.Columns {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// RunResult is the result of one fit/apply/persist run.
type RunResult struct {
	// RunID uniquely identifies the run in logs
	RunID string `json:"runId"`

	// Train is the transformed training array with the target as last column
	Train *mat.Dense `json:"-"`

	// Test is the transformed evaluation array with the target as last column
	Test *mat.Dense `json:"-"`

	// ArtifactPath is where the fitted transform was persisted
	ArtifactPath string `json:"artifactPath"`

	// Columns names the columns of Train and Test
	Columns []string `json:"columns"`

	// Summary is a one-line human description of row counts and timing
	Summary string `json:"summary,omitempty"`
}
