// Package bench drives one benchmark invocation from configuration to report.
package bench

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/violenttestpen/mesa/internal/config"
	"github.com/violenttestpen/mesa/internal/history"
	"github.com/violenttestpen/mesa/internal/report"
	"github.com/violenttestpen/mesa/internal/runner"
	"github.com/violenttestpen/mesa/internal/stats"
)

// Session holds everything one invocation needs. Config must be valid and
// Target resolved before Run is called.
type Session struct {
	Config config.Run
	Target report.Target

	// Stdout receives terminal reports; Stderr receives progress, the
	// summary and child output echoed in verbose mode.
	Stdout io.Writer
	Stderr io.Writer

	// ReportColor colours terminal tables, DiagColor the summary.
	ReportColor bool
	DiagColor   bool

	// TermWidth, when set, enables the progress line on Stderr.
	TermWidth func() int

	Logger *slog.Logger
	Now    func() time.Time
}

// Run loads the history, benchmarks the target, records the result, saves
// the history unless this is a dry run, and reports the matching records.
func (s *Session) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}
	cfg := s.Config

	store := history.NewStore(cfg.Database, history.WithClock(now), history.WithLogger(logger))
	if err := store.Load(); err != nil {
		return err
	}

	sum := newSummary(s.Stderr, s.DiagColor)
	sum.header(cfg)

	opts := []runner.Option{runner.WithEcho(s.Stderr), runner.WithLogger(logger)}
	if s.TermWidth != nil {
		opts = append(opts, runner.WithProgress(s.Stderr, s.TermWidth))
	}
	res, err := runner.New(cfg, opts...).Benchmark(ctx)
	if err != nil {
		return err
	}

	mean, stddev := stats.MeanStdDev(res.Measured.Durations)
	sum.result(cfg, res, mean, stddev)

	store.Insert(cfg, mean, stddev)
	if cfg.DryRun {
		logger.Info("dry run, history not saved", "path", store.Path())
	} else if err := store.Save(); err != nil {
		return err
	}

	reporter := &report.Reporter{
		Stdout: s.Stdout,
		Diag:   s.Stderr,
		Color:  s.ReportColor,
		Now:    now,
	}
	if err := reporter.Render(s.Target, store.Search(cfg)); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
