// Package table loads delimited tabular text and exposes column-level access
// for the transform. Tables are read entirely as strings; numeric parsing is
// done by the consumer so that parse failures can be reported per cell.
package table

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/Klnishant/DiamondPricePrediction/internal/errhandling"
)

// DefaultMissingValues are the cell contents treated as missing.
var DefaultMissingValues = []string{"", "NA", "NaN", "<nil>"}

// Options configures how a table is read.
type Options struct {
	// Delimiter separates fields, ',' if zero
	Delimiter rune
	// MissingValues lists cell contents treated as missing
	MissingValues []string
}

// DefaultOptions returns comma-delimited options with the default missing markers.
func DefaultOptions() Options {
	missing := make([]string, len(DefaultMissingValues))
	copy(missing, DefaultMissingValues)
	return Options{Delimiter: ',', MissingValues: missing}
}

// Cell is a raw table cell.
type Cell struct {
	Raw     string
	Missing bool
}

// Table is an immutable, header-addressed table.
type Table struct {
	source string
	df     dataframe.DataFrame
}

// Load opens and reads the table at path.
func Load(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table: %w", err)
	}
	defer f.Close()

	return Read(path, f, opts)
}

// Read parses a table with a header row from r. source names the table in errors.
func Read(source string, r io.Reader, opts Options) (*Table, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.MissingValues == nil {
		opts.MissingValues = DefaultMissingValues
	}

	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(opts.MissingValues),
		dataframe.WithDelimiter(opts.Delimiter),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errhandling.ErrMalformedTable, source, df.Err)
	}
	if df.Nrow() == 0 {
		return nil, fmt.Errorf("%w: %s", errhandling.ErrEmptyTable, source)
	}

	return &Table{source: source, df: df}, nil
}

// Source returns the name the table was read from.
func (t *Table) Source() string { return t.source }

// Rows returns the number of data rows.
func (t *Table) Rows() int { return t.df.Nrow() }

// Columns returns the header names in file order.
func (t *Table) Columns() []string { return t.df.Names() }

// Has reports whether the table has a column named name.
func (t *Table) Has(name string) bool {
	for _, c := range t.df.Names() {
		if c == name {
			return true
		}
	}
	return false
}

// Column returns the cells of column name, in row order.
func (t *Table) Column(name string) ([]Cell, error) {
	if !t.Has(name) {
		return nil, errhandling.NewColumnError(name, -1,
			fmt.Errorf("%w in %s", errhandling.ErrMissingColumn, t.source))
	}

	s := t.df.Col(name)
	if s.Err != nil {
		return nil, fmt.Errorf("reading column %q: %w", name, s.Err)
	}

	cells := make([]Cell, s.Len())
	for i, n := 0, s.Len(); i < n; i++ {
		e := s.Elem(i)
		if e.IsNA() {
			cells[i] = Cell{Missing: true}
			continue
		}
		cells[i] = Cell{Raw: e.String()}
	}
	return cells, nil
}

// Drop returns a copy of the table without the named columns.
// Every named column must be present.
func (t *Table) Drop(columns ...string) (*Table, error) {
	for _, c := range columns {
		if !t.Has(c) {
			return nil, errhandling.NewColumnError(c, -1,
				fmt.Errorf("%w in %s", errhandling.ErrMissingColumn, t.source))
		}
	}

	df := t.df.Drop(columns)
	if df.Err != nil {
		return nil, fmt.Errorf("dropping columns: %w", df.Err)
	}
	return &Table{source: t.source, df: df}, nil
}

// Subset returns a copy of the table holding only the given rows, in the given order.
func (t *Table) Subset(rows []int) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s: subset selects no rows", errhandling.ErrEmptyTable, t.source)
	}

	df := t.df.Subset(rows)
	if df.Err != nil {
		return nil, fmt.Errorf("selecting rows: %w", df.Err)
	}
	return &Table{source: t.source, df: df}, nil
}

// Head renders the first n rows for diagnostics.
func (t *Table) Head(n int) string {
	n = min(n, t.Rows())
	rows := make([]int, n)
	for i := 0; i < n; i++ {
		rows[i] = i
	}
	if n == 0 {
		return t.df.String()
	}
	return t.df.Subset(rows).String()
}

// ParseNumber parses a non-missing cell as a finite float64.
func ParseNumber(c Cell) (float64, error) {
	if c.Missing {
		return 0, errhandling.ErrMissingValue
	}
	v, err := strconv.ParseFloat(c.Raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", errhandling.ErrNotNumeric, c.Raw)
	}
	return v, nil
}
