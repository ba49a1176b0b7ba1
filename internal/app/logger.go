// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/specialistvlad/radiobatch/internal/ctxlog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Defaults for the worker and scope fields of a log line.
const (
	mainWorker   = "Main"
	defaultScope = "batch"
)

// logFileMaxSizeMB caps one log file before lumberjack rolls it over.
const logFileMaxSizeMB = 100

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level := parseLevel(levelStr)
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch formatStr {
	case "json":
		handler = slog.NewJSONHandler(outW, handlerOpts)
	case "text":
		handler = slog.NewTextHandler(outW, handlerOpts)
	default:
		handler = newLineHandler(outW, level)
	}
	return slog.New(handler)
}

func parseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openLogFile returns the append-only sink for this run: a file named after
// the start time inside dir.
func openLogFile(dir string, start time.Time) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename: filepath.Join(dir, start.Format("2006-01-02T15-04-05.000000")+".log"),
		MaxSize:  logFileMaxSizeMB,
	}, nil
}

// lineHandler renders records as
//
//	<LEVEL>: (<worker>) <scope>: <message> key=value ...
//
// The worker and scope come from the ctxlog.WorkerKey and ctxlog.ScopeKey
// attributes; every other attribute is appended after the message.
type lineHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	worker string
	scope  string
	prefix string
	attrs  string
}

func newLineHandler(w io.Writer, level slog.Leveler) *lineHandler {
	return &lineHandler{
		mu:     &sync.Mutex{},
		w:      w,
		level:  level,
		worker: mainWorker,
		scope:  defaultScope,
	}
}

func (h *lineHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	worker, scope := h.worker, h.scope
	var sb strings.Builder
	sb.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		switch {
		case h.prefix == "" && a.Key == ctxlog.WorkerKey:
			worker = a.Value.String()
		case h.prefix == "" && a.Key == ctxlog.ScopeKey:
			scope = a.Value.String()
		default:
			appendAttr(&sb, h.prefix, a)
		}
		return true
	})

	line := fmt.Sprintf("%s: (%s) %s: %s%s\n", levelName(r.Level), worker, scope, r.Message, sb.String())

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line)
	return err
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		switch {
		case h.prefix == "" && a.Key == ctxlog.WorkerKey:
			c.worker = a.Value.String()
		case h.prefix == "" && a.Key == ctxlog.ScopeKey:
			c.scope = a.Value.String()
		default:
			appendAttr(&sb, h.prefix, a)
		}
	}
	c.attrs = sb.String()
	return &c
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func appendAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(sb, p, ga)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	v := a.Value.String()
	if v == "" || strings.ContainsAny(v, " =\"\n\t") {
		v = strconv.Quote(v)
	}
	sb.WriteString(v)
}

// levelName maps slog levels onto the names used in the log file.
func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARNING"
	default:
		return "ERROR"
	}
}
