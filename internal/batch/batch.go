// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package batch orchestrates one run over a worklist: fan the cases out over
// the task queue, gather every (result, elapsed) pair, summarize the timings
// and collate the results into the output table.
//
// The gather is synchronous. Nothing is produced until the last case has
// returned, and a crash mid-batch loses all progress.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/radiobatch/internal/ctxlog"
	"github.com/specialistvlad/radiobatch/internal/executor"
	"github.com/specialistvlad/radiobatch/internal/model"
	"github.com/specialistvlad/radiobatch/internal/progress"
	"github.com/specialistvlad/radiobatch/internal/table"
	"github.com/specialistvlad/radiobatch/internal/timing"
)

// Processor turns one case into its result and elapsed time.
// caseworker.Worker is the production implementation.
type Processor interface {
	Process(ctx context.Context, c model.Case) (model.PatientResult, time.Duration)
}

// Options tune a Run. Zero values are usable.
type Options struct {
	// Workers is the pool size; zero selects executor.DefaultWorkers.
	Workers  int
	RunID    string
	Reporter progress.Reporter
	Tracker  *progress.Tracker
}

// Outcome is everything a finished batch produced.
type Outcome struct {
	Results []model.PatientResult
	Times   []time.Duration
	Summary timing.Summary
	// Table has one row per case, in worklist order, and one column per
	// feature name.
	Table   *table.Frame
	Workers int
}

type caseOutcome struct {
	result  model.PatientResult
	elapsed time.Duration
}

// Run processes every case and collates the results.
func Run(ctx context.Context, cases []model.Case, p Processor, opts Options) (*Outcome, error) {
	logger := ctxlog.FromContext(ctx)
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = &progress.Tracker{}
	}
	tracker.Start(len(cases))

	queue := executor.New(opts.Workers, func(ctx context.Context, c model.Case) caseOutcome {
		res, elapsed := p.Process(ctx, c)
		done := tracker.Finish()
		reporter.CaseDone(ctxlog.WithScope(ctx, c.ID), progress.Event{
			RunID:    opts.RunID,
			CaseID:   c.ID,
			Labels:   res.Labels,
			Features: len(res.Features),
			Elapsed:  elapsed.Seconds(),
			Done:     done,
			Total:    len(cases),
		})
		return caseOutcome{result: res, elapsed: elapsed}
	})
	logger.Info("Submitting cases.", "cases", len(cases), "workers", queue.Workers())

	if err := queue.SubmitAll(ctx, cases); err != nil {
		return nil, fmt.Errorf("failed to submit batch: %w", err)
	}
	outcomes := queue.AwaitAll()

	out := &Outcome{
		Results: make([]model.PatientResult, len(outcomes)),
		Times:   make([]time.Duration, len(outcomes)),
		Workers: queue.Workers(),
	}
	for i, o := range outcomes {
		out.Results[i] = o.result
		out.Times[i] = o.elapsed
	}
	out.Summary = timing.Summarize(out.Times)
	if out.Summary.Unrecorded > 0 {
		logger.Warn("Some case durations fell outside the percentile histogram.", "unrecorded", out.Summary.Unrecorded)
	}
	reporter.BatchDone(ctx, opts.RunID, out.Summary)

	frame, err := table.Build(out.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to merge results: %w", err)
	}
	out.Table = frame
	logger.Info("Extraction complete.", "rows", len(frame.Index()), "columns", len(frame.Columns()))
	return out, nil
}
