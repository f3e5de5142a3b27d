// Package scheduler runs reconciliation periodically on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/eshaffer321/billmatch/internal/application/reconcile"
)

// Runner starts a reconciliation pass
type Runner interface {
	Run(ctx context.Context, opts reconcile.RunOptions) (*reconcile.RunResult, error)
}

// Scheduler manages the reconciliation cron task
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	opts   reconcile.RunOptions
	logger *slog.Logger
	ctx    context.Context
}

// NewScheduler creates a new Scheduler. Runs use ctx, so cancelling it
// stops an in-flight pass.
func NewScheduler(ctx context.Context, runner Runner, opts reconcile.RunOptions, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		runner: runner,
		opts:   opts,
		logger: logger,
		ctx:    ctx,
	}
}

// Register adds the reconciliation task on a standard 5-field cron spec
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunNow); err != nil {
		return fmt.Errorf("register reconcile task %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "entries", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for a running task to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow executes one reconciliation pass immediately.
// Failures are logged; the schedule keeps going.
func (s *Scheduler) RunNow() {
	s.logger.Info("running scheduled reconciliation")

	result, err := s.runner.Run(s.ctx, s.opts)
	switch {
	case errors.Is(err, reconcile.ErrDisabled):
		s.logger.Debug("reconciliation disabled, skipping")
	case errors.Is(err, reconcile.ErrRunInProgress):
		s.logger.Warn("previous reconciliation still running, skipping")
	case err != nil:
		s.logger.Error("scheduled reconciliation failed", "error", err)
	default:
		s.logger.Info("scheduled reconciliation finished",
			"run_id", result.RunID,
			"matches", len(result.Matches),
			"auto_confirmed", result.AutoConfirmed,
		)
	}
}

// cronLogger adapts slog to the cron.Logger interface
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
