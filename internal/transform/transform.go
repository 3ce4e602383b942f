// Package transform routes table columns through the branches of a
// TransformSpec. Fitting learns every stage's statistics from training
// features only; applying reuses them unchanged on any table with the
// same feature columns.
package transform

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Klnishant/DiamondPricePrediction/internal/errhandling"
	"github.com/Klnishant/DiamondPricePrediction/internal/registry"
	"github.com/Klnishant/DiamondPricePrediction/internal/stages"
	"github.com/Klnishant/DiamondPricePrediction/internal/table"
	"github.com/Klnishant/DiamondPricePrediction/pkg/preprocess"
)

// ErrNilTransform is returned when Apply is called without a fitted transform.
var ErrNilTransform = errors.New("fitted transform is nil")

// FitTransform fits spec on the training features and returns the fitted
// transform together with the transformed training array. Output columns
// follow branch order, then column order within each branch.
//
// features must contain exactly the columns routed by spec.
func FitTransform(spec preprocess.TransformSpec, features *table.Table) (*preprocess.FittedTransform, *mat.Dense, error) {
	routed := spec.Columns()
	if len(routed) == 0 {
		return nil, nil, fmt.Errorf("%w: transform routes no columns", errhandling.ErrColumnMismatch)
	}
	if err := sameColumnSet(routed, features.Columns()); err != nil {
		return nil, nil, err
	}

	fitted := &preprocess.FittedTransform{
		Version:        preprocess.ArtifactVersion,
		FeatureColumns: features.Columns(),
		Target:         spec.Target,
		Identifier:     spec.Identifier,
		Branches:       make([]preprocess.FittedBranch, 0, len(spec.Branches)),
	}
	out := mat.NewDense(features.Rows(), len(routed), nil)

	j := 0
	for _, branch := range spec.Branches {
		fb := preprocess.FittedBranch{
			Name:    branch.Name,
			Kind:    branch.Kind,
			Columns: make([]preprocess.FittedColumn, 0, len(branch.Columns)),
		}
		for _, column := range branch.Columns {
			values, err := columnValues(features, column, branch.Kind)
			if err != nil {
				return nil, nil, err
			}

			fc, values, err := fitColumn(branch, column, values)
			if err != nil {
				return nil, nil, err
			}
			if err := setColumn(out, j, column, values); err != nil {
				return nil, nil, err
			}

			fb.Columns = append(fb.Columns, fc)
			j++
		}
		fitted.Branches = append(fitted.Branches, fb)
	}

	return fitted, out, nil
}

// fitColumn fits each step in order, feeding every step the output of the
// previous one. It returns the fitted chain and the transformed values.
func fitColumn(branch preprocess.Branch, column string, values []stages.Value) (preprocess.FittedColumn, []stages.Value, error) {
	fc := preprocess.FittedColumn{Name: column, Stages: make([]preprocess.FittedStage, 0, len(branch.Steps))}

	fctx := stages.FitContext{Column: column}
	if ranks, ok := branch.RankTable(column); ok {
		fctx.Ranks = &ranks
	}

	for _, op := range branch.Steps {
		def, err := registry.GetStage(op)
		if err != nil {
			return fc, nil, errhandling.NewColumnError(column, -1, err)
		}

		params, err := def.Fit(fctx, values)
		if err != nil {
			return fc, nil, asColumnError(column, -1, err)
		}

		values, err = applyStage(def, params, column, values)
		if err != nil {
			return fc, nil, err
		}
		fc.Stages = append(fc.Stages, params)
	}
	return fc, values, nil
}

// Apply transforms features with previously fitted statistics.
// The feature columns must match the fitted FeatureColumns in name and order.
func Apply(fitted *preprocess.FittedTransform, features *table.Table) (*mat.Dense, error) {
	if fitted == nil {
		return nil, ErrNilTransform
	}
	if err := CheckColumns(fitted.FeatureColumns, features.Columns()); err != nil {
		return nil, err
	}

	outCols := fitted.OutputColumns()
	if len(outCols) == 0 {
		return nil, fmt.Errorf("%w: transform routes no columns", errhandling.ErrColumnMismatch)
	}
	out := mat.NewDense(features.Rows(), len(outCols), nil)

	j := 0
	for _, branch := range fitted.Branches {
		for _, fc := range branch.Columns {
			values, err := columnValues(features, fc.Name, branch.Kind)
			if err != nil {
				return nil, err
			}

			for _, params := range fc.Stages {
				def, err := registry.GetStage(params.Op)
				if err != nil {
					return nil, errhandling.NewColumnError(fc.Name, -1, err)
				}
				values, err = applyStage(def, params, fc.Name, values)
				if err != nil {
					return nil, err
				}
			}

			if err := setColumn(out, j, fc.Name, values); err != nil {
				return nil, err
			}
			j++
		}
	}
	return out, nil
}

// AppendTarget returns a copy of m with y added as the last column.
func AppendTarget(m *mat.Dense, y []float64) (*mat.Dense, error) {
	rows, _ := m.Dims()
	if len(y) != rows {
		return nil, fmt.Errorf("target has %d values for %d rows", len(y), rows)
	}

	target := make([]float64, rows)
	copy(target, y)

	var out mat.Dense
	out.Augment(m, mat.NewDense(rows, 1, target))
	return &out, nil
}

// CheckColumns reports an error unless got equals want in names and order.
func CheckColumns(want, got []string) error {
	if len(want) != len(got) {
		return fmt.Errorf("%w: got %d columns %v, want %d columns %v",
			errhandling.ErrColumnMismatch, len(got), got, len(want), want)
	}
	for i := range want {
		if want[i] != got[i] {
			return errhandling.NewColumnError(got[i], -1,
				fmt.Errorf("%w: position %d holds %q, want %q", errhandling.ErrColumnMismatch, i, got[i], want[i]))
		}
	}
	return nil
}

// sameColumnSet reports missing and unexpected columns, ignoring order.
func sameColumnSet(routed, got []string) error {
	present := make(map[string]bool, len(got))
	for _, c := range got {
		present[c] = true
	}
	for _, c := range routed {
		if !present[c] {
			return errhandling.NewColumnError(c, -1, errhandling.ErrMissingColumn)
		}
		delete(present, c)
	}
	for _, c := range got {
		if present[c] {
			return errhandling.NewColumnError(c, -1,
				fmt.Errorf("%w: column is not routed by any branch", errhandling.ErrColumnMismatch))
		}
	}
	return nil
}

// columnValues reads column as branch input values.
func columnValues(t *table.Table, column string, kind preprocess.BranchKind) ([]stages.Value, error) {
	cells, err := t.Column(column)
	if err != nil {
		return nil, err
	}

	values := make([]stages.Value, len(cells))
	for i, c := range cells {
		switch kind {
		case preprocess.KindNumeric:
			if c.Missing {
				values[i] = stages.MissingNumber()
				continue
			}
			v, err := table.ParseNumber(c)
			if err != nil {
				return nil, errhandling.NewColumnError(column, i, err)
			}
			values[i] = stages.Number(v)
		case preprocess.KindCategorical:
			if c.Missing {
				values[i] = stages.MissingCategory()
				continue
			}
			values[i] = stages.Category(c.Raw)
		default:
			return nil, errhandling.NewColumnError(column, -1,
				fmt.Errorf("%w: branch kind %q", errhandling.ErrUnknownOperation, kind))
		}
	}
	return values, nil
}

func applyStage(def stages.Definition, params preprocess.FittedStage, column string, values []stages.Value) ([]stages.Value, error) {
	out := make([]stages.Value, len(values))
	for i, v := range values {
		nv, err := def.Apply(params, v)
		if err != nil {
			return nil, errhandling.NewColumnError(column, i, fmt.Errorf("%s: %w", params.Op, err))
		}
		out[i] = nv
	}
	return out, nil
}

// setColumn writes the final chain output into column j of m.
func setColumn(m *mat.Dense, j int, column string, values []stages.Value) error {
	for i, v := range values {
		if v.Missing || v.Categorical {
			return errhandling.NewColumnError(column, i,
				fmt.Errorf("%w: chain did not produce a number", errhandling.ErrNotNumeric))
		}
		m.Set(i, j, v.Num)
	}
	return nil
}

// asColumnError keeps an existing ColumnError and attaches column otherwise.
func asColumnError(column string, row int, err error) error {
	var colErr *errhandling.ColumnError
	if errors.As(err, &colErr) {
		return err
	}
	return errhandling.NewColumnError(column, row, err)
}
