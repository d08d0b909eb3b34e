// Package sink writes normalized records to delimited files.
package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/singerliu226/AI-resipe/internal/types"
)

// ErrEmptyInput is returned when WriteCSV is called without rows.
var ErrEmptyInput = errors.New("sink: no rows to write")

// ShapeError reports a row whose columns differ from the header.
type ShapeError struct {
	Row     int
	Want    []string
	Got     []string
	Message string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("sink: row %d: %s (want %v, got %v)", e.Row, e.Message, e.Want, e.Got)
}

// WriteCSV writes rows to path with a header taken from the first row.
// Every row must report the same columns. The file is written to a
// temporary sibling and renamed into place, so path is either fully
// written or untouched.
func WriteCSV(path string, rows []types.Row) error {
	if len(rows) == 0 {
		return ErrEmptyInput
	}

	header := rows[0].Columns()
	for i, row := range rows {
		cols := row.Columns()
		if !slices.Equal(cols, header) {
			return &ShapeError{Row: i, Want: header, Got: cols, Message: "column set differs from header"}
		}
		if n := len(row.Values()); n != len(header) {
			return &ShapeError{Row: i, Want: header, Got: cols, Message: fmt.Sprintf("%d values for %d columns", n, len(header))}
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row.Values()); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to flush %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// Rows converts typed records into sink rows.
func Rows[T types.Row](records []T) []types.Row {
	rows := make([]types.Row, len(records))
	for i, r := range records {
		rows[i] = r
	}
	return rows
}
