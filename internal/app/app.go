// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/radiobatch/internal/ctxlog"
	"github.com/specialistvlad/radiobatch/internal/progress"
	"github.com/specialistvlad/radiobatch/internal/toolkit"
)

const (
	progressNamespace   = "/"
	progressDialTimeout = 15 * time.Second
	uploadTimeout       = 5 * time.Minute
)

// App holds the wiring for one batch run.
type App struct {
	outW       io.Writer
	config     *Config
	ctx        context.Context
	logger     *slog.Logger
	logSink    io.Closer
	runID      string
	toolkit    toolkit.Toolkit
	reporter   progress.Reporter
	tracker    *progress.Tracker
	httpClient *http.Client
	httpServer *http.Server
}

// Option customises an App at construction time.
type Option func(*App)

// WithToolkit replaces the subprocess toolkit built from the config.
func WithToolkit(tk toolkit.Toolkit) Option {
	return func(a *App) { a.toolkit = tk }
}

// WithReporter replaces the progress reporter built from the config.
func WithReporter(r progress.Reporter) Option {
	return func(a *App) { a.reporter = r }
}

// WithLogWriter sends log lines to w instead of a file under the log dir.
func WithLogWriter(w io.Writer) Option {
	return func(a *App) { a.logger = newLogger(a.config.LogLevel, a.config.LogFormat, w) }
}

// WithHTTPClient sets the client used for result upload.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) { a.httpClient = c }
}

// NewApp creates the logger, toolkit and progress reporter for a run.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	a := &App{
		outW:    outW,
		config:  cfg,
		runID:   uuid.NewString(),
		tracker: &progress.Tracker{},
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		w := outW
		if cfg.LogDir != "" {
			sink, err := openLogFile(cfg.LogDir, time.Now())
			if err != nil {
				return nil, err
			}
			a.logSink = sink
			w = sink
		}
		a.logger = newLogger(cfg.LogLevel, cfg.LogFormat, w)
	}
	a.ctx = ctxlog.WithLogger(context.Background(), a.logger)
	a.logger.Debug("Logger configured.", "level", cfg.LogLevel, "format", cfg.LogFormat, "run_id", a.runID)

	if a.toolkit == nil {
		tkCfg, err := toolkit.LoadConfig(cfg.ToolkitPath)
		if err != nil {
			a.closeLogSink()
			return nil, fmt.Errorf("failed to load toolkit config: %w", err)
		}
		tk, err := toolkit.NewExec(tkCfg)
		if err != nil {
			a.closeLogSink()
			return nil, fmt.Errorf("failed to create toolkit: %w", err)
		}
		a.toolkit = tk
	}

	if a.reporter == nil {
		a.reporter = a.newReporter()
	}
	if a.httpClient == nil {
		a.httpClient = &http.Client{Timeout: uploadTimeout}
	}
	return a, nil
}

// newReporter dials the progress server when one is configured and falls
// back to logging progress locally.
func (a *App) newReporter() progress.Reporter {
	if a.config.ProgressURL == "" {
		return progress.Log{}
	}
	r, err := progress.DialSocketIO(a.ctx, a.config.ProgressURL, progressNamespace, progressDialTimeout)
	if err != nil {
		a.logger.Warn("Progress server unavailable, reporting to log only", "url", a.config.ProgressURL, "error", err)
		return progress.Log{}
	}
	return r
}

// RunID identifies this run in progress events and log lines.
func (a *App) RunID() string { return a.runID }

// Close releases the reporter, the health check server and the log file.
func (a *App) Close() error {
	var errs []error
	if err := a.reporter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close progress reporter: %w", err))
	}
	if err := a.closeHealthCheckServer(); err != nil {
		errs = append(errs, err)
	}
	if err := a.closeLogSink(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close log file: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) closeLogSink() error {
	if a.logSink == nil {
		return nil
	}
	err := a.logSink.Close()
	a.logSink = nil
	return err
}
