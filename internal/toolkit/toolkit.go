// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package toolkit defines the capabilities the batch consumes from the
// external imaging toolkit: listing the label values of a mask, validating a
// (image, mask, label) combination and extracting the feature vector of one
// label. The algorithms behind them are not part of this module.
package toolkit

import (
	"context"

	"github.com/specialistvlad/radiobatch/internal/model"
)

// LabelReader lists the distinct integer values present in a mask, in
// increasing order.
type LabelReader interface {
	Labels(ctx context.Context, mask string) ([]model.Label, error)
}

// MaskValidator decides whether a label of a mask is usable for extraction.
// It never fails: any fault inside the toolkit is reported as a rejection.
type MaskValidator interface {
	Validate(ctx context.Context, image, mask string, label model.Label) Verdict
}

// FeatureExtractor computes the named feature vector of one label.
type FeatureExtractor interface {
	Extract(ctx context.Context, req ExtractRequest) (model.FeatureVector, error)
}

// Toolkit bundles the three capabilities a case worker needs.
type Toolkit interface {
	LabelReader
	MaskValidator
	FeatureExtractor
}

// ExtractRequest is everything the extractor needs for one label.
type ExtractRequest struct {
	Image  string         `json:"image"`
	Mask   string         `json:"mask"`
	Label  model.Label    `json:"label"`
	Params map[string]any `json:"params"`
}

// Verdict is the tagged outcome of a mask validation.
type Verdict struct {
	Label    model.Label
	Accepted bool
	Reason   string
}

// Accept returns an accepting verdict for label.
func Accept(label model.Label) Verdict {
	return Verdict{Label: label, Accepted: true}
}

// Reject returns a rejecting verdict for label with a reason.
func Reject(label model.Label, reason string) Verdict {
	return Verdict{Label: label, Reason: reason}
}
