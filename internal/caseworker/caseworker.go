// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package caseworker turns one worklist Case into one PatientResult.
//
// A case never fails as a whole. Label listing problems, rejected labels,
// extraction errors and even panics are logged under the case's scope and
// degrade into fewer (or zero) feature groups, so every case still yields a
// result named by its ID.
package caseworker

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/radiobatch/internal/ctxlog"
	"github.com/specialistvlad/radiobatch/internal/model"
	"github.com/specialistvlad/radiobatch/internal/params"
	"github.com/specialistvlad/radiobatch/internal/toolkit"
)

// Background is the mask value of voxels outside every region of interest.
const Background model.Label = 0

// Options tune a Worker.
type Options struct {
	// ParamsPath names the extractor params file; when it does not exist
	// the built-in configuration is used.
	ParamsPath string
	// KeepBackground submits the background label to validation like any
	// other label. By default it is never considered.
	KeepBackground bool
}

// Worker processes cases with a toolkit. It keeps no state between cases
// and is safe for concurrent use.
type Worker struct {
	toolkit toolkit.Toolkit
	opts    Options
}

// New returns a Worker using tk.
func New(tk toolkit.Toolkit, opts Options) *Worker {
	return &Worker{toolkit: tk, opts: opts}
}

// Process extracts the features of up to model.MaxLabels accepted labels of
// c and returns them with the elapsed time, measured from extractor
// configuration to result assembly.
func (w *Worker) Process(ctx context.Context, c model.Case) (result model.PatientResult, elapsed time.Duration) {
	start := time.Now()
	ctx = ctxlog.WithScope(ctx, c.ID)
	logger := ctxlog.FromContext(ctx)
	result = model.NewPatientResult(c.ID)

	// Sets elapsed on every return path.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("FEATURE EXTRACTION FAILED: case aborted", "panic", fmt.Sprint(r))
			result = model.NewPatientResult(c.ID)
		}
		elapsed = time.Since(start)
	}()

	// The extractor is configured afresh for every case.
	p, err := params.Load(w.opts.ParamsPath)
	if err != nil {
		logger.Error("FEATURE EXTRACTION FAILED: extractor configuration unusable", "error", err)
		return
	}
	logger.Debug("Extractor configured.", "params", p.Source)
	logger.Info(fmt.Sprintf("Processing Patient %s (Image: %s, Mask: %s)", c.ID, c.Image, c.Mask))

	labels := w.acceptedLabels(ctx, c)
	if len(labels) > model.MaxLabels {
		logger.Debug("Accepted labels beyond the cap are ignored.", "accepted", len(labels), "cap", model.MaxLabels)
		labels = labels[:model.MaxLabels]
	}

	for i, label := range labels {
		rank := i + 1
		logger.Info(fmt.Sprintf("Processing Patient %s (Image: %s, Mask: %s, Label: %d)", c.ID, c.Image, c.Mask, label))
		result.Add(rank, w.extract(ctx, c, label, p))
	}

	if result.Labels == 0 {
		logger.Error(fmt.Sprintf("FEATURE EXTRACTION FAILED: %s", c.ID))
	}
	return
}

// acceptedLabels lists the mask values and keeps, in discovery order, the
// ones the validator accepts.
func (w *Worker) acceptedLabels(ctx context.Context, c model.Case) []model.Label {
	logger := ctxlog.FromContext(ctx)
	if c.Mask == "" {
		logger.Error("Cannot list labels: missing Mask")
		return nil
	}

	candidates, err := w.toolkit.Labels(ctx, c.Mask)
	if err != nil {
		logger.Error("Cannot list labels of mask.", "mask", c.Mask, "error", err)
		return nil
	}

	var accepted []model.Label
	for _, label := range candidates {
		if label == Background && !w.opts.KeepBackground {
			continue
		}
		if v := w.toolkit.Validate(ctx, c.Image, c.Mask, label); v.Accepted {
			accepted = append(accepted, v.Label)
		}
	}
	logger.Debug("Labels validated.", "candidates", len(candidates), "accepted", len(accepted))
	return accepted
}

// extract returns the feature vector of one label, or an empty vector when
// the paths are absent or the extractor fails.
func (w *Worker) extract(ctx context.Context, c model.Case, label model.Label, p *params.Params) model.FeatureVector {
	logger := ctxlog.FromContext(ctx)
	if !c.HasPaths() {
		logger.Error("FEATURE EXTRACTION FAILED: Missing Image and/or Mask", "label", int(label))
		return model.FeatureVector{}
	}

	vec, err := w.safeExtract(ctx, toolkit.ExtractRequest{
		Image:  c.Image,
		Mask:   c.Mask,
		Label:  label,
		Params: p.Document,
	})
	if err != nil {
		logger.Error("FEATURE EXTRACTION FAILED:", "label", int(label), "error", err)
		return model.FeatureVector{}
	}
	return vec
}

// safeExtract converts an extractor panic into an error so that sibling
// labels are still processed.
func (w *Worker) safeExtract(ctx context.Context, req toolkit.ExtractRequest) (vec model.FeatureVector, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panicked: %v", r)
		}
	}()
	return w.toolkit.Extract(ctx, req)
}
