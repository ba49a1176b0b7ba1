// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model holds the in-memory types that flow through a radiomics
// batch: the worklist Case, the mask Label, the per-label FeatureVector and
// the per-case PatientResult that the table package later merges.
//
// # Lifecycle
//
// A Case is read from the worklist, handed to exactly one case worker, and
// dropped once its PatientResult has been collected. A PatientResult always
// carries its case ID, even when it holds no features, so that a case whose
// labels all failed still produces a row in the output.
//
// # Label ranks
//
// At most MaxLabels accepted labels are processed per case. Ranks are dense
// from 1 over the accepted labels only, so rejected labels never leave gaps
// in the `label{rank}_` prefixes.
package model
