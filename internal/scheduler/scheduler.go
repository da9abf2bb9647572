// Package scheduler runs a job on a cron schedule until its context ends.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a single scheduled run. A failed run is logged; the next tick is
// its retry.
type Job func(ctx context.Context) error

// Scheduler triggers a Job according to a cron expression. A tick that fires
// while the previous run is still in progress is skipped.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	job        Job
	runOnStart bool
	logger     *zap.Logger
}

// New parses spec (standard 5-field cron syntax or descriptors such as
// "@daily" and "@every 6h") and prepares a Scheduler for job.
func New(spec string, job Job, runOnStart bool, logger *zap.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	cl := cronLogger{logger: logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		spec:       spec,
		job:        job,
		runOnStart: runOnStart,
		logger:     logger,
	}, nil
}

// Run blocks until ctx is done, then waits for a run in progress to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runJob(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}
	if s.runOnStart {
		s.runJob(ctx)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", zap.String("schedule", s.spec))
	<-ctx.Done()

	s.logger.Info("Stopping scheduler...")
	<-s.cron.Stop().Done()
	return nil
}

func (s *Scheduler) runJob(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Debug("Scheduled run starting")
	if err := s.job(ctx); err != nil {
		s.logger.Error("Scheduled run failed", zap.Error(err))
		return
	}
	s.logger.Debug("Scheduled run finished")
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
