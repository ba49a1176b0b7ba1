// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package params loads the feature extractor configuration. A named params
// file, when present, fully parametrizes the extractor; otherwise a fixed
// built-in configuration is used. The document is forwarded to the toolkit
// untouched, so its keys follow the toolkit's own vocabulary.
package params

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceBuiltin is the Source of parameters that did not come from a file.
const SourceBuiltin = "builtin"

// Params is one extractor configuration.
type Params struct {
	// Source is the file the document was read from, or SourceBuiltin.
	Source   string
	Document map[string]any
}

// Defaults returns the built-in configuration: bin width 25, no resampling,
// B-spline interpolation and the native extension enabled.
func Defaults() *Params {
	return &Params{
		Source: SourceBuiltin,
		Document: map[string]any{
			"setting": map[string]any{
				"binWidth":              25,
				"resampledPixelSpacing": nil,
				"interpolator":          "sitkBSpline",
				"enableCExtensions":     true,
			},
		},
	}
}

// Load reads the params file at path. A missing file (or an empty path)
// yields Defaults. The format is chosen by extension: .yaml/.yml or .hcl.
func Load(path string) (*Params, error) {
	if path == "" {
		return Defaults(), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("failed to read params file: %w", err)
	}

	var doc map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		doc, err = decodeYAML(src)
	case ".hcl":
		doc, err = decodeHCL(src, path)
	default:
		return nil, fmt.Errorf("params file %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("params file %s: %w", path, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return &Params{Source: path, Document: doc}, nil
}

func decodeYAML(src []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}
	return doc, nil
}
