// Package cron runs the operator's periodic reports: stale pending order
// reminders and the daily revenue summary.
package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/orderbot/pkg/logger"
	"github.com/angelmondragon/orderbot/pkg/metrics"
)

const (
	defaultInterval   = 24 * time.Hour
	defaultJobTimeout = 2 * time.Minute
)

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    *metrics.CronJobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service runs every registered job once per interval while holding Lock,
// so only one replica reports per cycle.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("cron: logger required")
	case params.Lock == nil:
		return nil, errors.New("cron: lock required")
	}
	svc := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if svc.registry == nil {
		svc.registry = NewRegistry()
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	if svc.jobTimeout <= 0 {
		svc.jobTimeout = defaultJobTimeout
	}
	return svc, nil
}

// RunOnce executes a single cycle. Job failures do not stop later jobs; they
// come back combined. A cycle skipped for the lock returns nil.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.cycle(ctx)
}

// Run cycles immediately and then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithField(ctx, "interval", s.interval.String())
	s.logg.Info(ctx, "cron.started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.cycle(ctx); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cron.cycle.failed")
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) cycle(ctx context.Context) (err error) {
	if ctx.Err() != nil {
		return nil
	}
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("cron: acquire lock: %w", err)
	}
	if !acquired {
		s.metrics.IncSkipped()
		s.logg.Info(ctx, "cron.cycle.skipped")
		return nil
	}
	defer func() {
		// Release must outlive a canceled cycle context.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if relErr := s.lock.Release(releaseCtx); relErr != nil {
			s.logg.Error(ctx, "cron.lock.release_failed", relErr)
		}
	}()

	var failures error
	for _, job := range s.registry.Jobs() {
		if jobErr := s.execute(ctx, job); jobErr != nil {
			failures = multierr.Append(failures, fmt.Errorf("%s: %w", job.Name(), jobErr))
		}
	}
	return failures
}

func (s *Service) execute(ctx context.Context, job Job) error {
	ctx = s.logg.WithFields(ctx, map[string]any{"job": job.Name()})
	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	started := time.Now()
	err := runRecovered(jobCtx, job)
	finished := time.Now()
	s.metrics.ObserveRun(job.Name(), err, finished.Sub(started), finished)

	ctx = s.logg.WithField(ctx, "duration_ms", finished.Sub(started).Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "cron.job.failed", err)
		return err
	}
	s.logg.Info(ctx, "cron.job.done")
	return nil
}

func runRecovered(ctx context.Context, job Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return job.Run(ctx)
}
