package executor

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/radiobatch/internal/ctxlog"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func TestDefaultWorkers(t *testing.T) {
	t.Parallel()
	require.GreaterOrEqual(t, DefaultWorkers(), 1)
	require.Equal(t, DefaultWorkers(), New(0, func(context.Context, int) int { return 0 }).Workers())
}

func TestQueue_ResultsInSubmissionOrder(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Later items finish first so completion order differs from submission order.
	items := []int{5, 4, 3, 2, 1}
	q := New(3, func(_ context.Context, n int) int {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * n
	})

	// --- Act ---
	require.NoError(t, q.SubmitAll(testContext(), items))
	results := q.AwaitAll()

	// --- Assert ---
	require.Equal(t, []int{25, 16, 9, 4, 1}, results)
}

func TestQueue_RespectsWorkerCount(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	q := New(2, func(_ context.Context, _ int) struct{} {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return struct{}{}
	})

	require.NoError(t, q.SubmitAll(testContext(), make([]int, 10)))
	require.Len(t, q.AwaitAll(), 10)
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestQueue_WorkerNamesReachTasks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{w: &buf, mu: &mu}, nil))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	q := New(1, func(ctx context.Context, s string) string {
		ctxlog.FromContext(ctx).Info("task", "item", s)
		return s
	})
	require.NoError(t, q.SubmitAll(ctx, []string{"a"}))
	q.AwaitAll()

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, buf.String(), "worker=worker-1")
}

func TestQueue_EmptyBatch(t *testing.T) {
	t.Parallel()

	q := New(4, func(_ context.Context, n int) int { return n })
	require.NoError(t, q.SubmitAll(testContext(), nil))
	require.Empty(t, q.AwaitAll())
}

func TestQueue_SubmitTwice(t *testing.T) {
	t.Parallel()

	q := New(1, func(_ context.Context, n int) int { return n })
	require.NoError(t, q.SubmitAll(testContext(), []int{1}))
	require.ErrorIs(t, q.SubmitAll(testContext(), []int{2}), ErrAlreadySubmitted)
	require.Equal(t, []int{1}, q.AwaitAll())
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
