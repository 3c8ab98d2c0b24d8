package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/orderbot/api"
	"github.com/angelmondragon/orderbot/internal/cron"
	"github.com/angelmondragon/orderbot/internal/notifications"
	"github.com/angelmondragon/orderbot/internal/persistence"
	"github.com/angelmondragon/orderbot/pkg/db"
	"github.com/angelmondragon/orderbot/pkg/logger"
	"github.com/angelmondragon/orderbot/pkg/redis"
)

const drainTimeout = 15 * time.Second

// ServiceParams wire the long running pieces of the process. DB, Redis and
// Cron are optional.
type ServiceParams struct {
	Logger   *logger.Logger
	Server   *api.Server
	Cron     *cron.Service
	Notifier *notifications.Async
	Mirror   persistence.Mirror
	DB       *db.Client
	Redis    *redis.Client
}

// Service runs the HTTP server and the scheduler side by side and owns
// shutdown of everything they depend on.
type Service struct {
	logg     *logger.Logger
	server   *api.Server
	cron     *cron.Service
	notifier *notifications.Async
	mirror   persistence.Mirror
	db       *db.Client
	redis    *redis.Client
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Server == nil {
		return nil, errors.New("server is required")
	}
	if params.Notifier == nil {
		return nil, errors.New("notifier is required")
	}
	mirror := params.Mirror
	if mirror == nil {
		mirror = persistence.Noop{}
	}
	return &Service{
		logg:     params.Logger,
		server:   params.Server,
		cron:     params.Cron,
		notifier: params.Notifier,
		mirror:   mirror,
		db:       params.DB,
		redis:    params.Redis,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if s.db != nil {
		if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
			return err
		}
	}
	if s.redis != nil {
		if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
			return err
		}
	}
	s.logg.Info(ctx, "all dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

// Run blocks until ctx is cancelled or a component fails, then stops the
// other component.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	running := 1
	go func() {
		errCh <- s.server.Run(runCtx)
	}()
	if s.cron != nil {
		running++
		go func() {
			err := s.cron.Run(runCtx)
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			errCh <- err
		}()
	}

	var result error
	for i := 0; i < running; i++ {
		err := <-errCh
		if err != nil {
			s.logg.Error(ctx, "component stopped unexpectedly", err)
			result = multierr.Append(result, err)
		}
		cancel()
	}
	return result
}

// Close drains queued notifications and mirror writes, then closes the
// storage clients. Every step runs even when an earlier one fails.
func (s *Service) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()

	var err error
	err = multierr.Append(err, s.notifier.Close(ctx))
	err = multierr.Append(err, s.mirror.Close(ctx))
	if s.db != nil {
		err = multierr.Append(err, s.db.Close())
	}
	if s.redis != nil {
		err = multierr.Append(err, s.redis.Close())
	}
	return err
}
