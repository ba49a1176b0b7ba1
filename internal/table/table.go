// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package table collates per-case feature vectors into one wide table.
//
// Merging works feature-major: every PatientResult becomes a column keyed by
// its case ID and is outer-joined onto the frame on the feature-name axis.
// The row universe is therefore the union of every feature name ever
// produced, and a cell a case never produced reads as NaN. Transposing the
// merged frame gives the output layout: one row per case, one column per
// feature.
package table

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/duke-git/lancet/v2/maputil"
	"github.com/duke-git/lancet/v2/slice"
	"github.com/specialistvlad/radiobatch/internal/model"
)

// ErrDuplicateColumn is returned when two results share a case ID.
var ErrDuplicateColumn = errors.New("duplicate column label")

type cell struct {
	row, col string
}

// Frame is a sparse two-dimensional table of float64 values with string
// labels on both axes. Row labels are kept sorted; column labels keep the
// order in which they were joined.
type Frame struct {
	index   []string
	columns []string
	colSet  map[string]struct{}
	cells   map[cell]float64
}

// New returns an empty frame.
func New() *Frame {
	return &Frame{
		colSet: make(map[string]struct{}),
		cells:  make(map[cell]float64),
	}
}

// JoinColumn outer-joins one labelled column onto the frame. Row labels of
// the column that the frame lacks are added; existing columns read NaN there.
func (f *Frame) JoinColumn(label string, values map[string]float64) error {
	if _, dup := f.colSet[label]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, label)
	}
	f.colSet[label] = struct{}{}
	f.columns = append(f.columns, label)

	f.index = slice.Union(f.index, maputil.Keys(values))
	sort.Strings(f.index)

	for row, v := range values {
		f.cells[cell{row: row, col: label}] = v
	}
	return nil
}

// Index returns the row labels.
func (f *Frame) Index() []string {
	return append([]string(nil), f.index...)
}

// Columns returns the column labels.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Value returns the cell at (row, col), or NaN when it is missing.
func (f *Frame) Value(row, col string) float64 {
	if v, ok := f.cells[cell{row: row, col: col}]; ok {
		return v
	}
	return math.NaN()
}

// Transpose returns a new frame with rows and columns swapped. The new
// columns are the old row labels in sorted order; the new rows keep the old
// column order.
func (f *Frame) Transpose() *Frame {
	t := New()
	t.index = f.Columns()
	t.columns = f.Index()
	for _, c := range t.columns {
		t.colSet[c] = struct{}{}
	}
	for k, v := range f.cells {
		t.cells[cell{row: k.col, col: k.row}] = v
	}
	return t
}

// Merge joins every result as a column of a feature-major frame, in the
// given order. A result with no features still contributes its column.
func Merge(results []model.PatientResult) (*Frame, error) {
	f := New()
	for _, r := range results {
		if err := f.JoinColumn(r.ID, r.Features); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Build merges the results and transposes them into the output layout:
// rows are case IDs in result order, columns are feature names.
func Build(results []model.PatientResult) (*Frame, error) {
	f, err := Merge(results)
	if err != nil {
		return nil, err
	}
	return f.Transpose(), nil
}
