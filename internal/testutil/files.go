// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/radiobatch/internal/model"
	"github.com/stretchr/testify/require"
)

// WriteFile writes content to name inside dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteWorklist writes a worklist CSV for the given cases into dir.
func WriteWorklist(t *testing.T, dir string, cases ...model.Case) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("ID,Image,Mask\n")
	for _, c := range cases {
		sb.WriteString(c.ID + "," + c.Image + "," + c.Mask + "\n")
	}
	return WriteFile(t, dir, "worklist.csv", sb.String())
}
