// Package registry provides the stage registry for transform operations.
// This file registers all built-in stages during initialization.
package registry

import "github.com/Klnishant/DiamondPricePrediction/internal/stages"

func init() {
	registerBuiltinStages()
}

// registerBuiltinStages registers all built-in stage types.
func registerBuiltinStages() {
	// impute_median - numeric imputation
	RegisterStage(stages.Median)

	// impute_mode - categorical imputation
	RegisterStage(stages.Mode)

	// ordinal_encode - declared-order category ranks
	RegisterStage(stages.Ordinal)

	// standardize - zero mean, unit variance
	RegisterStage(stages.Standardize)
}
