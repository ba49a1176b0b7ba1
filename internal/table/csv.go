// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// IndexHeader is the header of the row-label column.
const IndexHeader = "ID"

// MissingMarker is written for missing cells.
const MissingMarker = "NaN"

// WriteCSV writes the frame with a header row of column labels preceded by
// IndexHeader, then one line per row label.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(f.columns)+1)
	header = append(header, IndexHeader)
	header = append(header, f.columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, row := range f.index {
		record[0] = row
		for i, col := range f.columns {
			record[i+1] = formatValue(f.Value(row, col))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return MissingMarker
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteFile writes the frame as CSV to path through a temporary file in the
// same directory followed by a rename, so readers never see a partial file.
func (f *Frame) WriteFile(path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary output: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = f.WriteCSV(tmp); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
