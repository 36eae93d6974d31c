// Package worker runs background jobs on a cron schedule.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"market-glance/internal/observability/logging"
	"market-glance/pkg/config"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Config controls when and how long a job runs.
type Config struct {
	// Schedule is a five-field cron expression, e.g. "*/15 * * * *".
	Schedule string
	// Timezone is the IANA zone the schedule is evaluated in.
	Timezone string
	// Timeout bounds a single run.
	Timeout time.Duration
}

// Validate checks the schedule, timezone and timeout, reporting every problem.
func (c Config) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	}
	return errors.Join(errs...)
}

// Scheduler runs a single job on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	name    string
	job     Job
	cfg     Config
	metrics *Metrics
	logger  *slog.Logger
	cron    *cron.Cron
}

// NewScheduler validates cfg and prepares the scheduler without starting it.
func NewScheduler(name string, job Job, cfg Config, metrics *Metrics, logger *slog.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{name: name, job: job, cfg: cfg, metrics: metrics, logger: logger}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithParser(config.CronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := s.cron.AddFunc(cfg.Schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("add %s job: %w", name, err)
	}
	return s, nil
}

// Start begins scheduling in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.String("job", s.name),
		slog.String("schedule", s.cfg.Schedule),
		slog.String("timezone", s.cfg.Timezone))
}

// Stop stops scheduling and waits for a running job, or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce executes the job immediately with the configured timeout.
// The job finds a logger tagged with the job name via logging.FromContext.
func (s *Scheduler) RunOnce() {
	start := time.Now()
	logger := logging.WithFields(s.logger, map[string]any{"job": s.name})
	ctx, cancel := context.WithTimeout(logging.WithLogger(context.Background(), logger), s.cfg.Timeout)
	defer cancel()

	err := s.job(ctx)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordJobDuration(elapsed.Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordJobRun(StatusFailure)
		}
		logger.Warn("scheduled job failed",
			slog.Duration("duration", elapsed),
			slog.Any("error", err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordJobRun(StatusSuccess)
		s.metrics.RecordLastSuccess()
	}
	logger.Info("scheduled job completed",
		slog.Duration("duration", elapsed))
}
