// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package progress

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/specialistvlad/radiobatch/internal/ctxlog"
	"github.com/specialistvlad/radiobatch/internal/timing"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Socket.IO event names emitted by SocketIO.
const (
	EventCaseDone  = "case_done"
	EventBatchDone = "batch_done"
)

// SocketIO emits progress events to a Socket.IO server.
type SocketIO struct {
	io *socket.Socket
}

var _ Reporter = (*SocketIO)(nil)

// DialSocketIO connects to rawURL (scheme://host/path, path selects the
// Socket.IO endpoint) and waits for the connection up to timeout.
func DialSocketIO(ctx context.Context, rawURL, namespace string, timeout time.Duration) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("reporter", "socketio", "url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("progress URL %q needs a scheme and a host", rawURL)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Progress reporter connected.", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketIO{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

// CaseDone implements Reporter.
func (s *SocketIO) CaseDone(_ context.Context, ev Event) {
	s.io.Emit(EventCaseDone, ev.fields())
}

// BatchDone implements Reporter.
func (s *SocketIO) BatchDone(_ context.Context, runID string, sum timing.Summary) {
	s.io.Emit(EventBatchDone, map[string]any{
		"run_id":       runID,
		"cases":        sum.Count,
		"mean_seconds": finite(sum.Mean),
		"std_seconds":  finite(sum.StdDev),
		"p50_seconds":  finite(sum.P50),
		"p95_seconds":  finite(sum.P95),
		"max_seconds":  finite(sum.Max),
	})
}

// finite maps NaN, which JSON cannot carry, to null.
func finite(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

// Close implements Reporter.
func (s *SocketIO) Close() error {
	s.io.Disconnect()
	return nil
}
