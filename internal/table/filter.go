package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/Klnishant/DiamondPricePrediction/internal/errhandling"
)

// RowFilter keeps the rows for which a boolean expression holds.
//
// Each row is exposed to the expression as a map from column name to value:
// numeric-looking cells are float64, other cells are strings, missing cells are nil.
// Example: `carat > 0 && cut != "Fair"`.
type RowFilter struct {
	expression string
	program    *vm.Program
}

// NewRowFilter compiles expression. An empty expression yields a nil filter,
// which keeps every row.
func NewRowFilter(expression string) (*RowFilter, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, nil
	}

	program, err := expr.Compile(expression, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errhandling.ErrInvalidFilter, err)
	}
	return &RowFilter{expression: expression, program: program}, nil
}

// Expression returns the source expression.
func (f *RowFilter) Expression() string {
	if f == nil {
		return ""
	}
	return f.expression
}

// Match evaluates the filter against one row.
func (f *RowFilter) Match(row map[string]any) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, err := expr.Run(f.program, row)
	if err != nil {
		return false, fmt.Errorf("%w: %v", errhandling.ErrInvalidFilter, err)
	}
	keep, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w: expression returned %T, want bool", errhandling.ErrInvalidFilter, out)
	}
	return keep, nil
}

// Filter returns the rows of t matched by f and the number of rows removed.
// A nil filter returns t unchanged.
func (t *Table) Filter(f *RowFilter) (*Table, int, error) {
	if f == nil {
		return t, 0, nil
	}

	names := t.Columns()
	columns := make([][]Cell, len(names))
	for j, name := range names {
		cells, err := t.Column(name)
		if err != nil {
			return nil, 0, err
		}
		columns[j] = cells
	}

	kept := make([]int, 0, t.Rows())
	row := make(map[string]any, len(names))
	for i, n := 0, t.Rows(); i < n; i++ {
		for j, name := range names {
			row[name] = cellValue(columns[j][i])
		}
		keep, err := f.Match(row)
		if err != nil {
			return nil, 0, fmt.Errorf("%s row %d: %w", t.source, i, err)
		}
		if keep {
			kept = append(kept, i)
		}
	}

	removed := t.Rows() - len(kept)
	if removed == 0 {
		return t, 0, nil
	}
	if len(kept) == 0 {
		return nil, removed, fmt.Errorf("%w: %s: row filter %q removed every row",
			errhandling.ErrEmptyTable, t.source, f.expression)
	}

	subset, err := t.Subset(kept)
	if err != nil {
		return nil, 0, err
	}
	return subset, removed, nil
}

// cellValue converts a cell to the value seen by filter expressions.
func cellValue(c Cell) any {
	if c.Missing {
		return nil
	}
	if v, err := strconv.ParseFloat(c.Raw, 64); err == nil {
		return v
	}
	return c.Raw
}
