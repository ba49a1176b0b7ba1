// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package worklist reads the delimited input file that lists the cases of a
// batch. Any failure here is fatal for the whole batch.
package worklist

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/specialistvlad/radiobatch/internal/ctxlog"
	"github.com/specialistvlad/radiobatch/internal/model"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Required column names.
const (
	ColumnID    = "ID"
	ColumnImage = "Image"
	ColumnMask  = "Mask"
)

var (
	ErrNoHeader      = errors.New("worklist has no header row")
	ErrMissingColumn = errors.New("worklist is missing a required column")
	ErrEmptyID       = errors.New("worklist row has an empty ID")
	ErrDuplicateID   = errors.New("worklist contains a duplicate ID")
)

// Load opens path and parses it with Read.
func Load(ctx context.Context, path string) ([]model.Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open worklist: %w", err)
	}
	defer f.Close()

	cases, err := Read(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read worklist %s: %w", path, err)
	}
	return cases, nil
}

// Read parses a comma-delimited worklist. The header must name the ID, Image
// and Mask columns in any order; other columns are ignored. Rows are
// returned in input order. A leading UTF-8 byte order mark is tolerated.
func Read(ctx context.Context, r io.Reader) ([]model.Case, error) {
	logger := ctxlog.FromContext(ctx)

	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, err
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var cases []model.Case
	seen := make(map[string]int)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		c := model.Case{
			ID:    strings.TrimSpace(rec[cols[ColumnID]]),
			Image: strings.TrimSpace(rec[cols[ColumnImage]]),
			Mask:  strings.TrimSpace(rec[cols[ColumnMask]]),
		}
		if c.ID == "" {
			return nil, fmt.Errorf("line %d: %w", line, ErrEmptyID)
		}
		if prev, ok := seen[c.ID]; ok {
			return nil, fmt.Errorf("line %d: %w: %q (first seen on line %d)", line, ErrDuplicateID, c.ID, prev)
		}
		seen[c.ID] = line
		cases = append(cases, c)
	}

	logger.Debug("Worklist parsed.", "cases", len(cases))
	return cases, nil
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, 3)
	for i, name := range header {
		name = strings.TrimSpace(name)
		switch name {
		case ColumnID, ColumnImage, ColumnMask:
			if _, dup := cols[name]; !dup {
				cols[name] = i
			}
		}
	}
	for _, name := range []string{ColumnID, ColumnImage, ColumnMask} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	return cols, nil
}
