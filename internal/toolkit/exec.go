// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package toolkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/specialistvlad/radiobatch/internal/ctxlog"
	"github.com/specialistvlad/radiobatch/internal/model"
)

// threadEnvVars pin the toolkit's image decoding threads so that the worker
// pool is the only source of parallelism.
var threadEnvVars = []string{
	"ITK_GLOBAL_DEFAULT_NUMBER_OF_THREADS",
	"OMP_NUM_THREADS",
}

// Exec reaches the toolkit by running its command once per call. Each call
// is a fresh subprocess, so nothing is shared between cases.
//
//	<command> labels   --mask M
//	<command> validate --image I --mask M --label L --min-dims D --min-size S
//	<command> extract  (ExtractRequest as JSON on stdin)
//
// Every subcommand answers with JSON on stdout.
type Exec struct {
	cfg Config
}

var _ Toolkit = (*Exec)(nil)

// NewExec returns an Exec toolkit. The config must name a command.
func NewExec(cfg Config) (*Exec, error) {
	if len(cfg.Command) == 0 || cfg.Command[0] == "" {
		return nil, errors.New("toolkit command is empty")
	}
	if cfg.Threads < 1 {
		cfg.Threads = DefaultThreads
	}
	return &Exec{cfg: cfg}, nil
}

type verdictReply struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

// Labels implements LabelReader.
func (e *Exec) Labels(ctx context.Context, mask string) ([]model.Label, error) {
	out, err := e.run(ctx, nil, "labels", "--mask", mask)
	if err != nil {
		return nil, err
	}

	var values []float64
	if err := sonic.Unmarshal(out, &values); err != nil {
		return nil, fmt.Errorf("failed to decode labels reply: %w", err)
	}

	labels := make([]model.Label, 0, len(values))
	for _, v := range values {
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("mask %s holds a non-integer value %v", mask, v)
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("mask %s holds an out-of-range label %v", mask, v)
		}
		labels = append(labels, model.Label(v))
	}
	slices.Sort(labels)
	return slices.Compact(labels), nil
}

// Validate implements MaskValidator. Subprocess failures and unreadable
// replies are turned into rejections and only logged at debug level.
func (e *Exec) Validate(ctx context.Context, image, mask string, label model.Label) Verdict {
	logger := ctxlog.FromContext(ctx)

	out, err := e.run(ctx, nil, "validate",
		"--image", image,
		"--mask", mask,
		"--label", label.String(),
		"--min-dims", strconv.Itoa(e.cfg.MinROIDimensions),
		"--min-size", strconv.Itoa(e.cfg.MinROISize),
	)
	if err != nil {
		logger.Debug("Mask validation raised, label rejected.", "label", int(label), "error", err)
		return Reject(label, err.Error())
	}

	var reply verdictReply
	if err := sonic.Unmarshal(out, &reply); err != nil {
		logger.Debug("Mask validation reply unreadable, label rejected.", "label", int(label), "error", err)
		return Reject(label, fmt.Sprintf("unreadable reply: %v", err))
	}
	if !reply.Accepted {
		logger.Debug("Label rejected by mask validation.", "label", int(label), "reason", reply.Reason)
		return Reject(label, reply.Reason)
	}
	return Accept(label)
}

// Extract implements FeatureExtractor.
func (e *Exec) Extract(ctx context.Context, req ExtractRequest) (model.FeatureVector, error) {
	body, err := sonic.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extract request: %w", err)
	}
	out, err := e.run(ctx, body, "extract")
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := sonic.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode extract reply: %w", err)
	}
	return scalars(raw), nil
}

// scalars keeps the numeric entries of a reply. Numeric strings are parsed;
// anything else (version strings, arrays, booleans) is dropped.
func scalars(raw map[string]any) model.FeatureVector {
	vec := make(model.FeatureVector, len(raw))
	for name, v := range raw {
		switch val := v.(type) {
		case float64:
			vec[name] = val
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				vec[name] = f
			}
		}
	}
	return vec
}

func (e *Exec) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	argv := append(slices.Clone(e.cfg.Command[1:]), args...)
	cmd := exec.CommandContext(ctx, e.cfg.Command[0], argv...)
	cmd.Env = e.environ()
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("toolkit %s failed: %w", args[0], err)
		}
		return nil, fmt.Errorf("toolkit %s failed: %w: %s", args[0], err, msg)
	}
	return stdout.Bytes(), nil
}

func (e *Exec) environ() []string {
	env := os.Environ()
	threads := strconv.Itoa(e.cfg.Threads)
	for _, name := range threadEnvVars {
		env = append(env, name+"="+threads)
	}

	keys := make([]string, 0, len(e.cfg.Env))
	for k := range e.cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+e.cfg.Env[k])
	}
	return env
}
