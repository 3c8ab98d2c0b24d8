package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/orderbot/api/controllers"
	"github.com/angelmondragon/orderbot/api/middleware"
	"github.com/angelmondragon/orderbot/pkg/config"
	"github.com/angelmondragon/orderbot/pkg/logger"
)

// Store backs rate limiting and idempotent replay. The redis client
// satisfies it.
type Store interface {
	middleware.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(policy, subject string) string
}

// Params carries everything NewRouter wires. Store may be nil, which disables
// rate limiting and idempotent replay.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Events   controllers.EventHandler
	Store    Store
	Gatherer prometheus.Gatherer
	Ready    []controllers.Dependency
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Ready...))
	})
	r.Method(http.MethodGet, "/metrics", controllers.Metrics(p.Gatherer))

	eventsPolicy := middleware.NewRateLimitPolicy(
		"events",
		cfg.EventAPI.RateWindow,
		cfg.EventAPI.IPLimit,
		cfg.EventAPI.UserLimit,
	)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.EventsAuth(cfg.Bot.EventsSecret, logg))
		r.Use(middleware.EventSubject(logg))

		if p.Store != nil {
			r.Use(middleware.RateLimit(eventsPolicy, p.Store, logg))
			r.Use(middleware.Idempotency(p.Store, cfg.EventAPI.IdempotencyTTL, logg))
		}

		r.Post("/events", controllers.Events(p.Events, logg))
	})

	return r
}
