// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import (
	"fmt"
	"sort"
)

// MaxLabels caps how many accepted labels are extracted per case. Extra
// accepted labels are ignored.
const MaxLabels = 5

// LabelPrefix returns the feature-name prefix for a 1-based label rank.
func LabelPrefix(rank int) string {
	return fmt.Sprintf("label%d_", rank)
}

// FeatureVector maps feature names to scalar values for one (case, label).
type FeatureVector map[string]float64

// Prefixed returns a copy of v with every name prefixed by LabelPrefix(rank).
func (v FeatureVector) Prefixed(rank int) FeatureVector {
	prefix := LabelPrefix(rank)
	out := make(FeatureVector, len(v))
	for name, val := range v {
		out[prefix+name] = val
	}
	return out
}

// Names returns the feature names in lexicographic order.
func (v FeatureVector) Names() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PatientResult is the concatenation of the prefixed feature vectors of one
// case. Labels counts how many label groups were added, including groups
// whose extraction failed and contributed no features.
type PatientResult struct {
	ID       string
	Features FeatureVector
	Labels   int
}

// NewPatientResult returns an empty result named after the case ID.
func NewPatientResult(id string) PatientResult {
	return PatientResult{ID: id, Features: FeatureVector{}}
}

// Add appends the vector for the given rank, prefixing its names.
func (r *PatientResult) Add(rank int, v FeatureVector) {
	if r.Features == nil {
		r.Features = FeatureVector{}
	}
	for name, val := range v.Prefixed(rank) {
		r.Features[name] = val
	}
	r.Labels++
}

// Empty reports whether the result holds no features.
func (r PatientResult) Empty() bool {
	return len(r.Features) == 0
}
