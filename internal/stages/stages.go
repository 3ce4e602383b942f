// Package stages implements the individual transform operations.
//
// Each operation is a pair of pure functions: a fit function that learns
// statistics from the training values of one column, and an apply function
// mapping (fitted statistics, value) to a new value. Stages never keep state
// between calls; the fitted statistics live in preprocess.FittedStage.
package stages

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/Klnishant/DiamondPricePrediction/internal/errhandling"
	"github.com/Klnishant/DiamondPricePrediction/pkg/preprocess"
)

// Value is a single cell flowing through a branch chain.
type Value struct {
	Num         float64
	Cat         string
	Categorical bool
	Missing     bool
}

// Number returns a numeric value.
func Number(v float64) Value { return Value{Num: v} }

// Category returns a categorical value.
func Category(v string) Value { return Value{Cat: v, Categorical: true} }

// MissingNumber returns a missing numeric cell.
func MissingNumber() Value { return Value{Missing: true} }

// MissingCategory returns a missing categorical cell.
func MissingCategory() Value { return Value{Categorical: true, Missing: true} }

// FitContext carries what a fit function may know besides the values.
type FitContext struct {
	Column string
	Ranks  *preprocess.RankTable
}

// FitFunc learns statistics from the training values of one column.
type FitFunc func(ctx FitContext, values []Value) (preprocess.FittedStage, error)

// ApplyFunc maps one value through a fitted stage.
type ApplyFunc func(p preprocess.FittedStage, v Value) (Value, error)

// Definition binds an operation to its fit and apply functions.
type Definition struct {
	Op    preprocess.Operation
	Fit   FitFunc
	Apply ApplyFunc
}

// Median imputes missing numeric cells with the training median.
var Median = Definition{Op: preprocess.OpImputeMedian, Fit: FitMedian, Apply: ApplyMedian}

// Mode imputes missing categorical cells with the training mode.
var Mode = Definition{Op: preprocess.OpImputeMode, Fit: FitMode, Apply: ApplyMode}

// Ordinal encodes categories to their declared rank.
var Ordinal = Definition{Op: preprocess.OpOrdinalEncode, Fit: FitOrdinal, Apply: ApplyOrdinal}

// Standardize scales values to zero mean and unit variance.
var Standardize = Definition{Op: preprocess.OpStandardize, Fit: FitStandardize, Apply: ApplyStandardize}

// FitMedian computes the median of the observed numeric values.
// For an even count the two middle values are averaged.
func FitMedian(ctx FitContext, values []Value) (preprocess.FittedStage, error) {
	observed := make([]float64, 0, len(values))
	for i, v := range values {
		if v.Missing {
			continue
		}
		if v.Categorical {
			return preprocess.FittedStage{}, errhandling.NewColumnError(ctx.Column, i, errhandling.ErrNotNumeric)
		}
		observed = append(observed, v.Num)
	}
	if len(observed) == 0 {
		return preprocess.FittedStage{}, errhandling.NewColumnError(ctx.Column, -1, errhandling.ErrNoObservedValues)
	}

	median := medianOf(observed)
	return preprocess.FittedStage{Op: preprocess.OpImputeMedian, Median: &median}, nil
}

// medianOf returns the median of xs without modifying it.
func medianOf(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// ApplyMedian replaces a missing cell with the fitted median.
func ApplyMedian(p preprocess.FittedStage, v Value) (Value, error) {
	if p.Median == nil {
		return Value{}, fmt.Errorf("%s: stage has no fitted median", p.Op)
	}
	if !v.Missing {
		return v, nil
	}
	return Number(*p.Median), nil
}

// FitMode computes the most frequent observed category.
// Ties resolve to the lexicographically smallest value.
func FitMode(ctx FitContext, values []Value) (preprocess.FittedStage, error) {
	counts := make(map[string]int)
	for _, v := range values {
		if v.Missing {
			continue
		}
		counts[v.Cat]++
	}
	if len(counts) == 0 {
		return preprocess.FittedStage{}, errhandling.NewColumnError(ctx.Column, -1, errhandling.ErrNoObservedValues)
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mode := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[mode] {
			mode = k
		}
	}
	return preprocess.FittedStage{Op: preprocess.OpImputeMode, Mode: &mode}, nil
}

// ApplyMode replaces a missing cell with the fitted mode.
func ApplyMode(p preprocess.FittedStage, v Value) (Value, error) {
	if p.Mode == nil {
		return Value{}, fmt.Errorf("%s: stage has no fitted mode", p.Op)
	}
	if !v.Missing {
		return v, nil
	}
	return Category(*p.Mode), nil
}

// FitOrdinal records the declared rank table and checks that every training
// value is listed in it.
func FitOrdinal(ctx FitContext, values []Value) (preprocess.FittedStage, error) {
	if ctx.Ranks == nil || len(ctx.Ranks.Categories) == 0 {
		return preprocess.FittedStage{}, errhandling.NewColumnError(ctx.Column, -1,
			fmt.Errorf("%w: no rank table declared", errhandling.ErrUnknownCategory))
	}

	categories := make([]string, len(ctx.Ranks.Categories))
	copy(categories, ctx.Ranks.Categories)
	fitted := preprocess.FittedStage{Op: preprocess.OpOrdinalEncode, Categories: categories}

	for i, v := range values {
		if _, err := ApplyOrdinal(fitted, v); err != nil {
			return preprocess.FittedStage{}, errhandling.NewColumnError(ctx.Column, i, err)
		}
	}
	return fitted, nil
}

// ApplyOrdinal maps a category to its zero-based rank.
func ApplyOrdinal(p preprocess.FittedStage, v Value) (Value, error) {
	if v.Missing {
		return Value{}, errhandling.ErrMissingValue
	}
	if !v.Categorical {
		return Value{}, fmt.Errorf("%w: encoder expects a category, got number %v", errhandling.ErrUnknownCategory, v.Num)
	}
	for rank, c := range p.Categories {
		if c == v.Cat {
			return Number(float64(rank)), nil
		}
	}
	return Value{}, fmt.Errorf("%w: %q", errhandling.ErrUnknownCategory, v.Cat)
}

// FitStandardize computes the population mean and standard deviation.
// A zero (or non-finite) standard deviation is reported instead of producing NaN or Inf later.
func FitStandardize(ctx FitContext, values []Value) (preprocess.FittedStage, error) {
	xs := make([]float64, len(values))
	for i, v := range values {
		if v.Missing {
			return preprocess.FittedStage{}, errhandling.NewColumnError(ctx.Column, i, errhandling.ErrMissingValue)
		}
		if v.Categorical {
			return preprocess.FittedStage{}, errhandling.NewColumnError(ctx.Column, i, errhandling.ErrNotNumeric)
		}
		xs[i] = v.Num
	}
	if len(xs) == 0 {
		return preprocess.FittedStage{}, errhandling.NewColumnError(ctx.Column, -1, errhandling.ErrNoObservedValues)
	}

	mean, std := stat.PopMeanStdDev(xs, nil)
	if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
		return preprocess.FittedStage{}, errhandling.NewColumnError(ctx.Column, -1,
			fmt.Errorf("%w (std=%v)", errhandling.ErrZeroVariance, std))
	}
	return preprocess.FittedStage{Op: preprocess.OpStandardize, Mean: &mean, Std: &std}, nil
}

// ApplyStandardize returns (v - mean) / std.
func ApplyStandardize(p preprocess.FittedStage, v Value) (Value, error) {
	if p.Mean == nil || p.Std == nil {
		return Value{}, fmt.Errorf("%s: stage has no fitted mean/std", p.Op)
	}
	if v.Missing {
		return Value{}, errhandling.ErrMissingValue
	}
	if v.Categorical {
		return Value{}, fmt.Errorf("%w: scaler expects a number, got %q", errhandling.ErrNotNumeric, v.Cat)
	}
	return Number((v.Num - *p.Mean) / *p.Std), nil
}
