package table

import (
	"fmt"

	"github.com/Klnishant/DiamondPricePrediction/internal/errhandling"
)

// Split is a table separated into features and the target column.
type Split struct {
	Features *Table
	Target   []float64
}

// SplitTarget separates target from the remaining columns and drops id.
// Both columns must be present, and every target cell must be numeric.
func (t *Table) SplitTarget(target, id string) (*Split, error) {
	features, err := t.Drop(target, id)
	if err != nil {
		return nil, err
	}

	y, err := t.TargetValues(target)
	if err != nil {
		return nil, err
	}
	return &Split{Features: features, Target: y}, nil
}

// TargetValues parses column target as float64 values.
func (t *Table) TargetValues(target string) ([]float64, error) {
	cells, err := t.Column(target)
	if err != nil {
		return nil, err
	}

	y := make([]float64, len(cells))
	for i, c := range cells {
		v, err := ParseNumber(c)
		if err != nil {
			return nil, errhandling.NewColumnError(target, i, fmt.Errorf("target: %w", err))
		}
		y[i] = v
	}
	return y, nil
}
