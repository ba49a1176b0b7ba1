// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package publish uploads the finished feature table to a pre-signed URL.
package publish

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/specialistvlad/radiobatch/internal/ctxlog"
)

// Upload sends the file at path to uploadURL with an HTTP PUT. Any status
// outside 2xx is an error. A nil client selects http.DefaultClient.
func Upload(ctx context.Context, client *http.Client, path, uploadURL string) error {
	logger := ctxlog.FromContext(ctx).With("action", "upload")
	if client == nil {
		client = http.DefaultClient
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source file '%s': %w", path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file stats for '%s': %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Content-Type", contentType(path))
	req.ContentLength = stat.Size()

	logger.Info("Uploading feature table.", "source", path, "size", stat.Size())

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute upload request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload failed with status: %s", resp.Status)
	}

	logger.Info("Feature table uploaded.", "status", resp.Status)
	return nil
}

// contentType guesses the MIME type from the extension. CSV is not part of
// Go's built-in table, so it is handled here.
func contentType(path string) string {
	ext := filepath.Ext(path)
	if ext == ".csv" {
		return "text/csv"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
