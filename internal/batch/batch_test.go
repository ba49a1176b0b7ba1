package batch

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/radiobatch/internal/caseworker"
	"github.com/specialistvlad/radiobatch/internal/model"
	"github.com/specialistvlad/radiobatch/internal/progress"
	"github.com/specialistvlad/radiobatch/internal/testutil"
	"github.com/specialistvlad/radiobatch/internal/timing"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	mu     sync.Mutex
	events []progress.Event
	batch  int
}

func (r *recordingReporter) CaseDone(_ context.Context, ev progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingReporter) BatchDone(context.Context, string, timing.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batch++
}

func (r *recordingReporter) Close() error { return nil }

func scenarioToolkit() *testutil.FakeToolkit {
	return &testutil.FakeToolkit{Masks: map[string]testutil.FakeMask{
		"a-mask": {
			Labels:   []model.Label{0, 1, 2},
			Accepted: []model.Label{1, 2},
			Features: map[model.Label]model.FeatureVector{
				1: {"original_shape_Volume": 100, "original_firstorder_Mean": 1.5},
				2: {"original_shape_Volume": 200, "original_firstorder_Mean": 2.5},
			},
		},
		"b-mask": {Labels: []model.Label{0, 1}},
	}}
}

func TestRun_TwoCaseScenario(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	cases := []model.Case{
		{ID: "A", Image: "a-img", Mask: "a-mask"},
		{ID: "B", Image: "b-img", Mask: "b-mask"},
	}
	worker := caseworker.New(scenarioToolkit(), caseworker.Options{})
	reporter := &recordingReporter{}
	tracker := &progress.Tracker{}
	ctx, _ := testutil.Context()

	// --- Act ---
	out, err := Run(ctx, cases, worker, Options{Workers: 2, RunID: "run", Reporter: reporter, Tracker: tracker})

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, out.Table.Index())
	require.Equal(t, []string{
		"label1_original_firstorder_Mean",
		"label1_original_shape_Volume",
		"label2_original_firstorder_Mean",
		"label2_original_shape_Volume",
	}, out.Table.Columns())
	require.Equal(t, 200.0, out.Table.Value("A", "label2_original_shape_Volume"))
	for _, col := range out.Table.Columns() {
		require.True(t, math.IsNaN(out.Table.Value("B", col)), "column %s of B should be NaN", col)
	}

	require.Len(t, out.Times, 2)
	require.Equal(t, 2, out.Summary.Count)
	require.Len(t, reporter.events, 2)
	require.Equal(t, 1, reporter.batch)
	done, total := tracker.Snapshot()
	require.Equal(t, 2, done)
	require.Equal(t, 2, total)
}

func TestRun_IsIdempotent(t *testing.T) {
	t.Parallel()

	cases := []model.Case{
		{ID: "A", Image: "a-img", Mask: "a-mask"},
		{ID: "B", Image: "b-img", Mask: "b-mask"},
		{ID: "C", Image: "c-img", Mask: "unknown-mask"},
	}
	ctx, _ := testutil.Context()

	first, err := Run(ctx, cases, caseworker.New(scenarioToolkit(), caseworker.Options{}), Options{Workers: 3})
	require.NoError(t, err)
	second, err := Run(ctx, cases, caseworker.New(scenarioToolkit(), caseworker.Options{}), Options{Workers: 1})
	require.NoError(t, err)

	require.Equal(t, first.Results, second.Results)
	require.Equal(t, first.Table.Index(), second.Table.Index())
	require.Equal(t, first.Table.Columns(), second.Table.Columns())
}

func TestRun_ConcurrentCases(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tk := scenarioToolkit()
	tk.Delay = 20 * time.Millisecond
	var cases []model.Case
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		cases = append(cases, model.Case{ID: id, Image: "a-img", Mask: "a-mask"})
	}
	ctx, _ := testutil.Context()

	// --- Act ---
	start := time.Now()
	out, err := Run(ctx, cases, caseworker.New(tk, caseworker.Options{}), Options{Workers: 4})
	wall := time.Since(start)

	// --- Assert ---
	// Each case makes two 20ms extractions; run serially that would be 160ms.
	require.NoError(t, err)
	require.Equal(t, 4, out.Workers)
	require.Less(t, wall, 150*time.Millisecond)
	require.Len(t, out.Table.Index(), 4)
}

func TestRun_EmptyWorklist(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context()

	out, err := Run(ctx, nil, caseworker.New(scenarioToolkit(), caseworker.Options{}), Options{})

	require.NoError(t, err)
	require.Empty(t, out.Table.Index())
	require.True(t, math.IsNaN(out.Summary.Mean))
}
