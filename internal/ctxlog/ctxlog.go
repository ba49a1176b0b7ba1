// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package ctxlog provides a context key for safely passing a slog.Logger
// instance through context.Context, plus the worker and scope attributes
// that the batch log line format is built from.
package ctxlog

import (
	"context"
	"log/slog"
)

const (
	// WorkerKey names the attribute carrying the worker identity.
	WorkerKey = "worker"
	// ScopeKey names the attribute carrying the logical scope (batch or case ID).
	ScopeKey = "scope"
)

// key is an unexported type to prevent collisions with context keys from other packages.
type key struct{}

// loggerKey is the key for the slog.Logger in a context.Context.
var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the slog.Logger from a context. It panics when no
// logger was attached, since every entry point sets one up first.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	panic("ctxlog: logger missing from context")
}

// WithWorker returns a context whose logger is tagged with the worker name.
func WithWorker(ctx context.Context, name string) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(WorkerKey, name))
}

// WithScope returns a context whose logger is tagged with the logical scope.
func WithScope(ctx context.Context, scope string) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(ScopeKey, scope))
}
