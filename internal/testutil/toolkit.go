// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/specialistvlad/radiobatch/internal/model"
	"github.com/specialistvlad/radiobatch/internal/toolkit"
)

// FakeMask describes how the FakeToolkit answers for one mask path.
type FakeMask struct {
	Labels    []model.Label
	LabelsErr error
	// Accepted lists the labels that pass validation.
	Accepted []model.Label
	Features map[model.Label]model.FeatureVector
	// Fail lists labels whose extraction returns an error.
	Fail []model.Label
	// Panic makes every extraction for this mask panic.
	Panic bool
}

// FakeToolkit is an in-memory toolkit.Toolkit keyed by mask path. Unknown
// masks fail label listing.
type FakeToolkit struct {
	Masks map[string]FakeMask
	// Delay is slept inside every extraction.
	Delay time.Duration

	mu        sync.Mutex
	validated []model.Label
	extracts  []toolkit.ExtractRequest
}

var _ toolkit.Toolkit = (*FakeToolkit)(nil)

// Labels implements toolkit.LabelReader.
func (f *FakeToolkit) Labels(_ context.Context, mask string) ([]model.Label, error) {
	m, ok := f.Masks[mask]
	if !ok {
		return nil, errors.New("fake toolkit: unknown mask " + mask)
	}
	if m.LabelsErr != nil {
		return nil, m.LabelsErr
	}
	return append([]model.Label(nil), m.Labels...), nil
}

// Validate implements toolkit.MaskValidator.
func (f *FakeToolkit) Validate(_ context.Context, _, mask string, label model.Label) toolkit.Verdict {
	f.mu.Lock()
	f.validated = append(f.validated, label)
	f.mu.Unlock()

	for _, l := range f.Masks[mask].Accepted {
		if l == label {
			return toolkit.Accept(label)
		}
	}
	return toolkit.Reject(label, "fake rejection")
}

// Extract implements toolkit.FeatureExtractor.
func (f *FakeToolkit) Extract(_ context.Context, req toolkit.ExtractRequest) (model.FeatureVector, error) {
	f.mu.Lock()
	f.extracts = append(f.extracts, req)
	f.mu.Unlock()

	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}
	m := f.Masks[req.Mask]
	if m.Panic {
		panic("fake toolkit: extraction panicked")
	}
	for _, l := range m.Fail {
		if l == req.Label {
			return nil, errors.New("fake toolkit: extraction failed")
		}
	}
	out := model.FeatureVector{}
	for k, v := range m.Features[req.Label] {
		out[k] = v
	}
	return out, nil
}

// Extracts returns a copy of every extraction request received so far.
func (f *FakeToolkit) Extracts() []toolkit.ExtractRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]toolkit.ExtractRequest(nil), f.extracts...)
}

// Validated returns every label passed to Validate so far.
func (f *FakeToolkit) Validated() []model.Label {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Label(nil), f.validated...)
}
