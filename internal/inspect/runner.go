package inspect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/allocscope/internal/measure"
)

// maxStderrLog bounds how much of a failing tool's stderr is logged.
const maxStderrLog = 2048

// Options configures a Runner.
type Options struct {
	// Workers is the maximum number of concurrent inspections.
	// Values below 1 mean 1 (sequential).
	Workers int

	// Timeout, when positive, kills a tool invocation that runs longer.
	// The tool enforces its own stage budgets; this is a last-resort bound
	// for a hung harness. A killed invocation is GENERIC_TOOL_ERROR.
	Timeout time.Duration

	// Clock supplies start/end readings. Defaults to SystemClock.
	Clock Clock

	// Logger receives per-target diagnostics. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Runner invokes the instrumentation tool once per target.
type Runner struct {
	tool    string
	workers int
	timeout time.Duration
	clock   Clock
	logger  *slog.Logger
}

// NewRunner creates a Runner for the tool at path.
// The tool must exist and be a regular file; this is a fatal setup error.
func NewRunner(tool string, opts Options) (*Runner, error) {
	if tool == "" {
		return nil, fmt.Errorf("inspect: tool path is required")
	}
	abs, err := filepath.Abs(tool)
	if err != nil {
		return nil, fmt.Errorf("inspect: resolve tool path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("inspect: tool %s: %w", abs, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("inspect: tool %s is not a regular file", abs)
	}

	r := &Runner{
		tool:    abs,
		workers: opts.Workers,
		timeout: opts.Timeout,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
	if r.workers < 1 {
		r.workers = 1
	}
	if r.clock == nil {
		r.clock = SystemClock{}
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r, nil
}

// Tool returns the absolute path of the instrumentation tool.
func (r *Runner) Tool() string {
	return r.tool
}

// WithLogger returns a copy of r that logs to logger.
func (r *Runner) WithLogger(logger *slog.Logger) *Runner {
	c := *r
	c.logger = logger
	return &c
}

// Inspect runs the tool against every target and returns one row per
// target, in input order.
//
// If ctx is cancelled, no new inspections are started; inspections already
// running finish normally. The rows of completed inspections are returned
// (still in input order) together with the context's error.
func (r *Runner) Inspect(ctx context.Context, targets []string) ([]measure.Row, error) {
	rows := make([]measure.Row, len(targets))
	done := make([]bool, len(targets))

	g := new(errgroup.Group)
	g.SetLimit(r.workers)

	for i, target := range targets {
		if ctx.Err() != nil {
			break
		}
		// Go blocks while all workers are busy, so the context is checked
		// again once a slot is free.
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			rows[i] = r.InspectOne(ctx, target)
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	remaining := 0
	for _, d := range done {
		if !d {
			remaining++
		}
	}
	if remaining == 0 {
		return rows, nil
	}

	completed := make([]measure.Row, 0, len(rows))
	for i, row := range rows {
		if done[i] {
			completed = append(completed, row)
		}
	}
	r.logger.Warn("inspection cancelled",
		"completed", len(completed),
		"remaining", remaining,
	)
	return completed, ctx.Err()
}

// InspectOne runs the tool against a single target and returns its row.
// It never fails: every outcome is encoded in the row's status and reason.
func (r *Runner) InspectOne(ctx context.Context, target string) measure.Row {
	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}

	start := r.clock.Now()
	res := r.invoke(ctx, abs)
	end := r.clock.Now()

	elapsed := measure.Number(end.Sub(start).Seconds())
	size := executableSize(abs)

	outcome := Classify(res.exitCode, res.stdout)
	if res.startErr != nil {
		outcome = Outcome{Reason: measure.ReasonGenericToolError, Detail: res.startErr.Error()}
	}

	if outcome.OK() {
		r.logger.Debug("inspected",
			"executable", target,
			"status", true,
			"elapsed", elapsed.String(),
		)
		return measure.Succeeded(target, outcome.Metrics, size, elapsed)
	}

	r.logger.Warn("inspection failed",
		"executable", target,
		"status", false,
		"reason", string(outcome.Reason),
		"exit_code", res.exitCode,
		"detail", outcome.Detail,
		"stderr", tail(res.stderr, maxStderrLog),
		"elapsed", elapsed.String(),
	)
	return measure.Failed(target, outcome.Reason, size, elapsed)
}

type invocation struct {
	stdout   []byte
	stderr   []byte
	exitCode int
	startErr error
}

// invoke runs the tool once.
// The subprocess is detached from ctx cancellation so an in-flight
// inspection always runs to completion; only Options.Timeout can kill it.
func (r *Runner) invoke(ctx context.Context, target string) invocation {
	procCtx := context.WithoutCancel(ctx)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		procCtx, cancel = context.WithTimeout(procCtx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(procCtx, r.tool, target)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	res := invocation{stdout: stdout.Bytes(), stderr: stderr.Bytes()}
	if err == nil {
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// -1 when the process was killed by a signal.
		res.exitCode = exitErr.ExitCode()
		if procCtx.Err() != nil {
			res.stderr = append(res.stderr, fmt.Sprintf("\nallocscope: killed after %s\n", r.timeout)...)
		}
		return res
	}
	res.exitCode = -1
	res.startErr = fmt.Errorf("run tool: %w", err)
	return res
}

// executableSize reads the target's size; a vanished target yields the
// missing marker rather than zero.
func executableSize(path string) measure.Value {
	info, err := os.Stat(path)
	if err != nil {
		return measure.Missing()
	}
	return measure.Number(float64(info.Size()))
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(bytes.TrimSpace(b))
}
