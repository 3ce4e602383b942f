package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// WriteMatrix writes m as delimited text with a header row.
// Floats use the shortest representation that parses back to the same value.
func WriteMatrix(w io.Writer, header []string, m mat.Matrix) error {
	rows, cols := m.Dims()
	if len(header) != cols {
		return fmt.Errorf("header has %d names for %d columns", len(header), cols)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteMatrixFile writes m to path, creating parent directories.
func WriteMatrixFile(path string, header []string, m mat.Matrix) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	if err := WriteMatrix(f, header, m); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
