package toolkit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/specialistvlad/radiobatch/internal/ctxlog"
	"github.com/specialistvlad/radiobatch/internal/model"
	"github.com/stretchr/testify/require"
)

const helperEnv = "RADIOBATCH_TOOLKIT_HELPER"

// TestHelperProcess is not a real test. It is the fake toolkit executable
// that Exec runs in the tests below.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}
	sub, flags := args[1], args[2:]
	flag := func(name string) string {
		for i := 0; i+1 < len(flags); i++ {
			if flags[i] == name {
				return flags[i+1]
			}
		}
		return ""
	}

	switch sub {
	case "labels":
		switch flag("--mask") {
		case "broken.nrrd":
			fmt.Fprintln(os.Stderr, "cannot read mask")
			os.Exit(1)
		case "huge.nrrd":
			fmt.Print(`[1, 1e300]`)
		case "fractional.nrrd":
			fmt.Print(`[1, 2.5]`)
		default:
			fmt.Print(`[0, 2, 1, 2]`)
		}
	case "validate":
		switch flag("--label") {
		case "0":
			fmt.Print(`{"accepted": false, "reason": "label 0 is background"}`)
		case "3":
			fmt.Print(`not json`)
		case "4":
			fmt.Fprintln(os.Stderr, "ROI too small")
			os.Exit(1)
		default:
			fmt.Printf(`{"accepted": %t}`, flag("--min-size") == "1000")
		}
	case "extract":
		body, _ := io.ReadAll(os.Stdin)
		var req ExtractRequest
		if err := sonic.Unmarshal(body, &req); err != nil {
			os.Exit(3)
		}
		if req.Label == 9 {
			fmt.Fprintln(os.Stderr, "extraction exploded")
			os.Exit(1)
		}
		fmt.Printf(`{"original_firstorder_Mean": %d.5, "original_shape_Volume": "1000.0", "diagnostics_Versions_PyRadiomics": "v3.1.0", "threads": "%s", "binWidth": %v}`,
			req.Label, os.Getenv("ITK_GLOBAL_DEFAULT_NUMBER_OF_THREADS"), req.Params["binWidth"])
	default:
		os.Exit(2)
	}
	os.Exit(0)
}

func helperExec(t *testing.T) *Exec {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Command = []string{os.Args[0], "-test.run=TestHelperProcess", "--"}
	cfg.Env = map[string]string{helperEnv: "1"}
	e, err := NewExec(cfg)
	require.NoError(t, err)
	return e
}

func testContext(buf *bytes.Buffer) context.Context {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger)
}

func TestNewExec_EmptyCommand(t *testing.T) {
	t.Parallel()

	_, err := NewExec(Config{})
	require.Error(t, err)
}

func TestExec_Labels(t *testing.T) {
	t.Parallel()
	e := helperExec(t)
	ctx := testContext(&bytes.Buffer{})

	labels, err := e.Labels(ctx, "mask.nrrd")
	require.NoError(t, err)
	require.Equal(t, []model.Label{0, 1, 2}, labels)

	_, err = e.Labels(ctx, "broken.nrrd")
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot read mask")
}

func TestExec_LabelsRejectsUnrepresentableValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		mask    string
		wantErr string
	}{
		{mask: "huge.nrrd", wantErr: "out-of-range label"},
		{mask: "fractional.nrrd", wantErr: "non-integer value"},
	}

	for _, tc := range testCases {
		t.Run(tc.mask, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			e := helperExec(t)
			ctx := testContext(&bytes.Buffer{})

			// --- Act ---
			labels, err := e.Labels(ctx, tc.mask)

			// --- Assert ---
			require.ErrorContains(t, err, tc.wantErr)
			require.Nil(t, labels)
		})
	}
}

func TestExec_Validate(t *testing.T) {
	t.Parallel()
	e := helperExec(t)

	testCases := []struct {
		label    model.Label
		accepted bool
		reason   string
	}{
		{label: 1, accepted: true},
		{label: 0, reason: "label 0 is background"},
		{label: 3, reason: "unreadable reply"},
		{label: 4, reason: "ROI too small"},
	}
	for _, tc := range testCases {
		t.Run(tc.label.String(), func(t *testing.T) {
			t.Parallel()
			var logs bytes.Buffer

			v := e.Validate(testContext(&logs), "image.nrrd", "mask.nrrd", tc.label)

			require.Equal(t, tc.label, v.Label)
			require.Equal(t, tc.accepted, v.Accepted)
			if !tc.accepted {
				require.Contains(t, v.Reason, tc.reason)
				require.Contains(t, logs.String(), "rejected")
			}
		})
	}
}

func TestExec_ValidateForwardsCriteria(t *testing.T) {
	t.Parallel()
	e := helperExec(t)
	e.cfg.MinROISize = 10

	v := e.Validate(testContext(&bytes.Buffer{}), "image.nrrd", "mask.nrrd", 1)
	require.False(t, v.Accepted)
}

func TestExec_Extract(t *testing.T) {
	t.Parallel()
	e := helperExec(t)
	ctx := testContext(&bytes.Buffer{})

	vec, err := e.Extract(ctx, ExtractRequest{
		Image:  "image.nrrd",
		Mask:   "mask.nrrd",
		Label:  2,
		Params: map[string]any{"binWidth": 25},
	})
	require.NoError(t, err)
	require.Equal(t, model.FeatureVector{
		"original_firstorder_Mean": 2.5,
		"original_shape_Volume":    1000,
		"threads":                  1,
		"binWidth":                 25,
	}, vec)

	_, err = e.Extract(ctx, ExtractRequest{Image: "image.nrrd", Mask: "mask.nrrd", Label: 9})
	require.Error(t, err)
	require.Contains(t, err.Error(), "extraction exploded")
}

func TestScalars(t *testing.T) {
	t.Parallel()

	got := scalars(map[string]any{
		"num":    1.25,
		"text":   " 7 ",
		"nan":    "NaN",
		"word":   "v3.1.0",
		"bool":   true,
		"list":   []any{1.0, 2.0},
		"object": map[string]any{"a": 1.0},
	})

	require.Len(t, got, 3)
	require.Equal(t, 1.25, got["num"])
	require.Equal(t, 7.0, got["text"])
	require.Contains(t, got, "nan")
}
