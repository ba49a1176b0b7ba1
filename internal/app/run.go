package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/radiobatch/internal/batch"
	"github.com/specialistvlad/radiobatch/internal/caseworker"
	"github.com/specialistvlad/radiobatch/internal/ctxlog"
	"github.com/specialistvlad/radiobatch/internal/publish"
	"github.com/specialistvlad/radiobatch/internal/worklist"
)

// ErrWorklist marks a run that failed before any case was processed because
// the worklist could not be read. No output file is written in that case.
var ErrWorklist = errors.New("worklist unreadable")

// Run executes the batch: it reads the worklist, processes every case, prints
// the timing summary, writes the merged table and optionally uploads it.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := ctxlog.FromContext(ctx)
	logger.Info("Batch run starting.", "run_id", a.runID, "worklist", a.config.WorklistPath)

	a.healthCheckServer()

	logger.Info("Loading CSV")
	cases, err := worklist.Load(ctx, a.config.WorklistPath)
	if err != nil {
		logger.Error("CSV READ FAILED", "error", err)
		return fmt.Errorf("%w: %w", ErrWorklist, err)
	}
	logger.Info("Loading Done")
	logger.Info(fmt.Sprintf("Patients: %d", len(cases)))

	worker := caseworker.New(a.toolkit, caseworker.Options{
		ParamsPath:     a.config.ParamsPath,
		KeepBackground: a.config.KeepBackground,
	})
	out, err := batch.Run(ctx, cases, worker, batch.Options{
		Workers:  a.config.WorkerCount,
		RunID:    a.runID,
		Reporter: a.reporter,
		Tracker:  a.tracker,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.outW, out.Summary.String())
	logger.Info(out.Summary.String(), "p50_seconds", out.Summary.P50, "p95_seconds", out.Summary.P95, "max_seconds", out.Summary.Max)

	logger.Info("Writing features CSV", "path", a.config.OutputPath)
	if err := out.Table.WriteFile(a.config.OutputPath); err != nil {
		logger.Error("Features CSV writing failed", "error", err)
		return fmt.Errorf("failed to write features table: %w", err)
	}
	logger.Info("Features CSV writing complete", "path", a.config.OutputPath)

	if a.config.UploadURL != "" {
		if err := publish.Upload(ctx, a.httpClient, a.config.OutputPath, a.config.UploadURL); err != nil {
			logger.Error("Upload failed", "error", err)
			return fmt.Errorf("failed to upload features table: %w", err)
		}
		logger.Info("Features CSV uploaded", "url", a.config.UploadURL)
	}
	return nil
}
