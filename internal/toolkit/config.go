// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package toolkit

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Defaults used when the toolkit file or one of its attributes is absent.
const (
	DefaultCommand          = "radiomics-toolkit"
	DefaultMinROIDimensions = 3
	DefaultMinROISize       = 1000
	DefaultThreads          = 1
)

// Config describes how to reach the external toolkit.
type Config struct {
	// Command is the executable followed by any fixed leading arguments.
	Command []string
	// MinROIDimensions and MinROISize are forwarded to mask validation.
	MinROIDimensions int
	MinROISize       int
	// Threads caps the toolkit's internal image decoding threads.
	Threads int
	// Env is added to the subprocess environment.
	Env map[string]string
}

// DefaultConfig returns the configuration used when no toolkit file exists.
func DefaultConfig() Config {
	return Config{
		Command:          []string{DefaultCommand},
		MinROIDimensions: DefaultMinROIDimensions,
		MinROISize:       DefaultMinROISize,
		Threads:          DefaultThreads,
	}
}

// toolkitBlock mirrors the HCL `toolkit` block; pointers tell omitted
// attributes apart from explicit zero values.
type toolkitBlock struct {
	Command          []string          `hcl:"command,optional"`
	MinROIDimensions *int              `hcl:"min_roi_dimensions,optional"`
	MinROISize       *int              `hcl:"min_roi_size,optional"`
	Threads          *int              `hcl:"threads,optional"`
	Env              map[string]string `hcl:"env,optional"`
}

type fileRoot struct {
	Toolkit *toolkitBlock `hcl:"toolkit,block"`
	Remain  hcl.Body      `hcl:",remain"`
}

// LoadConfig reads the `toolkit` block of an HCL file. An empty path or a
// file that does not exist yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("error accessing toolkit config %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return cfg, fmt.Errorf("failed to parse toolkit config %s: %w", path, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return cfg, fmt.Errorf("failed to decode toolkit config %s: %w", path, diags)
	}
	if root.Toolkit == nil {
		return cfg, nil
	}

	b := root.Toolkit
	if len(b.Command) > 0 {
		cfg.Command = b.Command
	}
	if b.MinROIDimensions != nil {
		cfg.MinROIDimensions = *b.MinROIDimensions
	}
	if b.MinROISize != nil {
		cfg.MinROISize = *b.MinROISize
	}
	if b.Threads != nil {
		if *b.Threads < 1 {
			return cfg, fmt.Errorf("toolkit config %s: threads must be at least 1, got %d", path, *b.Threads)
		}
		cfg.Threads = *b.Threads
	}
	cfg.Env = b.Env
	return cfg, nil
}
