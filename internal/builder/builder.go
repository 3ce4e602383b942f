// Package builder constructs the column-routed transform specification for
// the diamond price dataset. Building never touches data.
package builder

import "github.com/Klnishant/DiamondPricePrediction/pkg/preprocess"

// Fixed dataset schema.
const (
	TargetColumn     = "price"
	IdentifierColumn = "id"

	NumericBranch     = "num_pipeline"
	CategoricalBranch = "cat_pipeline"
)

// NumericColumns are routed through median imputation and scaling.
func NumericColumns() []string {
	return []string{"carat", "depth", "table", "x", "y", "z"}
}

// CategoricalColumns are routed through mode imputation, ordinal encoding and scaling.
func CategoricalColumns() []string {
	return []string{"cut", "color", "clarity"}
}

// RankTables returns the declared order of each categorical column, worst to best.
func RankTables() []preprocess.RankTable {
	return []preprocess.RankTable{
		{Column: "cut", Categories: []string{"Fair", "Good", "Very Good", "Premium", "Ideal"}},
		{Column: "color", Categories: []string{"D", "E", "F", "G", "H", "I", "J"}},
		{Column: "clarity", Categories: []string{"I1", "SI2", "SI1", "VS2", "VS1", "VVS2", "VVS1", "IF"}},
	}
}

// BuildTransform returns a fresh TransformSpec. Every call allocates new
// slices, so callers may not affect each other through the result.
func BuildTransform() preprocess.TransformSpec {
	return preprocess.TransformSpec{
		Target:     TargetColumn,
		Identifier: IdentifierColumn,
		Branches: []preprocess.Branch{
			{
				Name:    NumericBranch,
				Kind:    preprocess.KindNumeric,
				Columns: NumericColumns(),
				Steps: []preprocess.Operation{
					preprocess.OpImputeMedian,
					preprocess.OpStandardize,
				},
			},
			{
				Name:    CategoricalBranch,
				Kind:    preprocess.KindCategorical,
				Columns: CategoricalColumns(),
				Steps: []preprocess.Operation{
					preprocess.OpImputeMode,
					preprocess.OpOrdinalEncode,
					preprocess.OpStandardize,
				},
				Ranks: RankTables(),
			},
		},
	}
}

// DropColumns is the set removed from a raw table before the transform sees it.
func DropColumns() []string {
	return []string{TargetColumn, IdentifierColumn}
}
