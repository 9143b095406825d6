// Package runner executes the benchmark target and times each execution.
//
// Repetitions run strictly one after another. There is no timeout: a child
// that never exits blocks the runner.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/violenttestpen/mesa/internal/config"
	"github.com/violenttestpen/mesa/internal/stats"
)

// Batch holds the timings of consecutive repetitions.
type Batch struct {
	// Durations are wall-clock seconds, one per repetition.
	Durations []float64
	// User and Kernel are total CPU times over the batch, where the
	// platform can measure them.
	User   time.Duration
	Kernel time.Duration
}

// Result is the outcome of one benchmark invocation.
type Result struct {
	Warmup   Batch
	Measured Batch
}

// Runner spawns the configured target.
type Runner struct {
	cfg      config.Run
	timer    timer
	echo     io.Writer
	progress *progress
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithEcho sets where captured child output is written when verbose.
func WithEcho(w io.Writer) Option {
	return func(r *Runner) { r.echo = w }
}

// WithProgress draws a progress line on w, which must be a terminal of the
// width reported by width.
func WithProgress(w io.Writer, width func() int) Option {
	return func(r *Runner) { r.progress = &progress{w: w, width: width} }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New returns a Runner for cfg.
func New(cfg config.Run, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		timer:  processTimer,
		echo:   io.Discard,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Benchmark runs the setup command, if any, then the warmup batch and the
// measured batch. Warmup timings are returned but are not part of the
// measured statistics.
func (r *Runner) Benchmark(ctx context.Context) (*Result, error) {
	if r.cfg.Setup != "" {
		if err := r.Setup(ctx); err != nil {
			return nil, err
		}
	}

	warmup, err := r.Run(ctx, "Performing warmup runs", r.cfg.Warmup)
	if err != nil {
		return nil, fmt.Errorf("warmup: %w", err)
	}
	measured, err := r.Run(ctx, "Current estimate", r.cfg.Runs)
	if err != nil {
		return nil, err
	}
	return &Result{Warmup: *warmup, Measured: *measured}, nil
}

// Setup runs the configured setup command once, untimed.
func (r *Runner) Setup(ctx context.Context) error {
	parts := splitCommand(r.cfg.Setup)
	if len(parts) == 0 {
		return &config.Error{Param: "setup", Err: fmt.Errorf("empty command string")}
	}
	r.logger.Debug("running setup command", "command", parts)

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Stdout, cmd.Stderr = &output, &output
	err := cmd.Run()
	r.echoOutput(&output)
	if err == nil {
		return nil
	}

	m := Measurement{}
	if exitStatus(&m, err) == nil {
		return fmt.Errorf("setup: %w", &FailureError{Executable: parts[0], Run: 0, ExitCode: m.ExitCode})
	}
	return fmt.Errorf("setup: %w", &SpawnError{Executable: parts[0], Err: err})
}

// Run executes the target n times and returns the timings. Any failure
// aborts the batch and discards every timing taken so far in it.
func (r *Runner) Run(ctx context.Context, label string, n int) (*Batch, error) {
	batch := &Batch{Durations: make([]float64, 0, n)}
	if r.progress != nil && n > 0 {
		defer r.progress.clear()
	}

	for i := 0; i < n; i++ {
		m, output, err := r.once(ctx)
		if err != nil {
			return nil, &SpawnError{Executable: r.cfg.Executable, Err: err}
		}
		r.echoOutput(output)

		if m.ExitCode != 0 {
			if !r.cfg.IgnoreFailure {
				return nil, &FailureError{Executable: r.cfg.Executable, Run: i + 1, ExitCode: m.ExitCode}
			}
			r.logger.Debug("ignoring failed run", "run", i+1, "exit_code", m.ExitCode)
		}

		batch.Durations = append(batch.Durations, m.Real.Seconds())
		batch.User += m.User
		batch.Kernel += m.Kernel
		r.logger.Debug("timed run", "label", label, "run", i+1, "elapsed", m.Real)

		if r.progress != nil {
			estimate, _ := stats.MeanStdDev(batch.Durations)
			r.progress.update(label, i+1, n, estimate)
		}
	}
	return batch, nil
}

// once performs a single timed execution. Output is buffered while the
// clock runs and only written out by the caller afterwards.
func (r *Runner) once(ctx context.Context) (Measurement, *bytes.Buffer, error) {
	cmd := exec.CommandContext(ctx, r.cfg.Executable, r.cfg.Arguments...)

	var output *bytes.Buffer
	if r.cfg.Verbose {
		output = new(bytes.Buffer)
		cmd.Stdout, cmd.Stderr = output, output
	}

	m, err := r.timer.Run(cmd)
	return m, output, err
}

func (r *Runner) echoOutput(output *bytes.Buffer) {
	if !r.cfg.Verbose || output == nil || output.Len() == 0 {
		return
	}
	if r.progress != nil {
		r.progress.clear()
	}
	r.echo.Write(output.Bytes())
}

// SpawnError means the target could not be started at all.
type SpawnError struct {
	Executable string
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("unable to run %s: %v", e.Executable, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// FailureError means the target exited non-zero while failures were not
// tolerated. Run is 1-based; 0 denotes the setup command.
type FailureError struct {
	Executable string
	Run        int
	ExitCode   int
}

func (e *FailureError) Error() string {
	if e.Run == 0 {
		return fmt.Sprintf("%s exited with status %d", e.Executable, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d on run %d (use --ignore-failure to tolerate)",
		e.Executable, e.ExitCode, e.Run)
}
