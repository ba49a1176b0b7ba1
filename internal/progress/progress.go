// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package progress publishes per-case completion events while a batch runs.
// Reporting is best effort: a reporter never fails the batch.
package progress

import (
	"context"
	"sync/atomic"

	"github.com/specialistvlad/radiobatch/internal/ctxlog"
	"github.com/specialistvlad/radiobatch/internal/timing"
)

// Event describes one finished case.
type Event struct {
	RunID    string  `json:"run_id"`
	CaseID   string  `json:"case_id"`
	Labels   int     `json:"labels"`
	Features int     `json:"features"`
	Elapsed  float64 `json:"elapsed_seconds"`
	Done     int     `json:"done"`
	Total    int     `json:"total"`
}

func (e Event) fields() map[string]any {
	return map[string]any{
		"run_id":          e.RunID,
		"case_id":         e.CaseID,
		"labels":          e.Labels,
		"features":        e.Features,
		"elapsed_seconds": e.Elapsed,
		"done":            e.Done,
		"total":           e.Total,
	}
}

// Reporter receives progress notifications. Implementations must be safe for
// concurrent use, since workers report as they finish.
type Reporter interface {
	CaseDone(ctx context.Context, ev Event)
	BatchDone(ctx context.Context, runID string, s timing.Summary)
	Close() error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) CaseDone(context.Context, Event)                   {}
func (Nop) BatchDone(context.Context, string, timing.Summary) {}
func (Nop) Close() error                                      { return nil }

// Log writes notifications to the logger found in the context.
type Log struct{}

// CaseDone implements Reporter.
func (Log) CaseDone(ctx context.Context, ev Event) {
	ctxlog.FromContext(ctx).Info("Case finished.",
		"done", ev.Done, "total", ev.Total, "labels", ev.Labels, "features", ev.Features, "elapsed_seconds", ev.Elapsed)
}

// BatchDone implements Reporter.
func (Log) BatchDone(ctx context.Context, runID string, s timing.Summary) {
	ctxlog.FromContext(ctx).Info("Batch finished.",
		"run_id", runID, "cases", s.Count, "mean_seconds", s.Mean, "std_seconds", s.StdDev,
		"p50_seconds", s.P50, "p95_seconds", s.P95, "max_seconds", s.Max)
}

// Close implements Reporter.
func (Log) Close() error { return nil }

// Tracker counts finished cases. It is shared by the batch and the
// healthcheck server.
type Tracker struct {
	total atomic.Int64
	done  atomic.Int64
}

// Start resets the tracker for a batch of n cases.
func (t *Tracker) Start(n int) {
	t.done.Store(0)
	t.total.Store(int64(n))
}

// Finish records one finished case and returns the new count.
func (t *Tracker) Finish() int {
	return int(t.done.Add(1))
}

// Snapshot returns the finished and total case counts.
func (t *Tracker) Snapshot() (done, total int) {
	return int(t.done.Load()), int(t.total.Load())
}
