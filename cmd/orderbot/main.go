package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/orderbot/api"
	"github.com/angelmondragon/orderbot/api/controllers"
	"github.com/angelmondragon/orderbot/api/routes"
	"github.com/angelmondragon/orderbot/internal/bot"
	"github.com/angelmondragon/orderbot/internal/catalog"
	"github.com/angelmondragon/orderbot/internal/cooldown"
	"github.com/angelmondragon/orderbot/internal/cron"
	"github.com/angelmondragon/orderbot/internal/moderation"
	"github.com/angelmondragon/orderbot/internal/notifications"
	"github.com/angelmondragon/orderbot/internal/orders"
	"github.com/angelmondragon/orderbot/internal/persistence"
	"github.com/angelmondragon/orderbot/internal/session"
	"github.com/angelmondragon/orderbot/internal/stats"
	"github.com/angelmondragon/orderbot/pkg/clock"
	"github.com/angelmondragon/orderbot/pkg/config"
	"github.com/angelmondragon/orderbot/pkg/db"
	"github.com/angelmondragon/orderbot/pkg/instance"
	"github.com/angelmondragon/orderbot/pkg/logger"
	"github.com/angelmondragon/orderbot/pkg/metrics"
	"github.com/angelmondragon/orderbot/pkg/migrate"
	"github.com/angelmondragon/orderbot/pkg/redis"
)

const serviceName = "orderbot"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	botMetrics := metrics.NewBotMetrics(registry)
	cronMetrics := metrics.NewCronJobMetrics(registry)
	clk := clock.Real()
	loc := cfg.Bot.Location()

	var (
		dbClient    *db.Client
		redisClient *redis.Client
		mirror      persistence.Mirror = persistence.Noop{}
		ready       []controllers.Dependency
	)

	if cfg.FeatureFlags.PersistenceEnabled {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run dev migrations", err)
			os.Exit(1)
		}
		asyncMirror, err := persistence.NewAsyncMirror(persistence.AsyncMirrorParams{
			Writer:       persistence.NewRepository(dbClient.DB()),
			Logger:       logg,
			Metrics:      botMetrics,
			QueueSize:    cfg.Mirror.QueueSize,
			Workers:      cfg.Mirror.Workers,
			WriteTimeout: cfg.Mirror.WriteTimeout,
		})
		if err != nil {
			logg.Error(ctx, "failed to start persistence mirror", err)
			os.Exit(1)
		}
		mirror = asyncMirror
		ready = append(ready, controllers.Dependency{Name: "database", Pinger: dbClient})
	}

	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		ready = append(ready, controllers.Dependency{Name: "redis", Pinger: redisClient})
	}

	var cooldownStore cooldown.Store = cooldown.NewMemoryStore()
	if cfg.FeatureFlags.RedisCooldowns && redisClient != nil {
		cooldownStore, err = cooldown.NewRedisStore(redisClient)
		if err != nil {
			logg.Error(ctx, "failed to create redis cooldown store", err)
			os.Exit(1)
		}
	}
	guard, err := cooldown.NewGuard(cooldown.GuardParams{
		Store:       cooldownStore,
		Clock:       clk,
		OrderWindow: cfg.Bot.OrderCooldown,
		HelpWindow:  cfg.Bot.HelpCooldown,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cooldown guard", err)
		os.Exit(1)
	}

	orderStore := orders.NewStore(orders.StoreParams{
		Clock: clk,
		IDs:   orders.RandomIDs{Length: cfg.Bot.OrderIDLength},
	})
	sessions := session.NewStore(orderStore, guard)
	aggregator := stats.NewAggregator(orderStore, clk, loc)

	telegram, err := notifications.NewTelegramNotifier(cfg.Bot.Token,
		notifications.WithBaseURL(cfg.Bot.APIBaseURL),
		notifications.WithChunkLen(cfg.Bot.MaxChunkLen),
		notifications.WithHTTPClient(&http.Client{Timeout: cfg.Bot.SendTimeout}),
	)
	if err != nil {
		logg.Error(ctx, "failed to create telegram notifier", err)
		os.Exit(1)
	}
	notifier, err := notifications.NewAsync(notifications.AsyncParams{
		Next:    telegram,
		Logger:  logg,
		Metrics: botMetrics,
		Timeout: cfg.Bot.SendTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create async notifier", err)
		os.Exit(1)
	}

	botService, err := bot.NewService(bot.ServiceParams{
		OperatorID: cfg.Bot.OperatorID,
		Catalog:    catalog.Default(),
		Sessions:   sessions,
		Orders:     orderStore,
		Cooldowns:  guard,
		Moderation: moderation.NewWorkflow(cfg.Bot.OperatorID, sessions, orderStore),
		Stats:      aggregator,
		Notifier:   notifier,
		Mirror:     mirror,
		Metrics:    botMetrics,
		Logger:     logg,
		Clock:      clk,
		ChunkLen:   cfg.Bot.MaxChunkLen,
	})
	if err != nil {
		logg.Error(ctx, "failed to create bot service", err)
		os.Exit(1)
	}

	var cronService *cron.Service
	if cfg.FeatureFlags.CronEnabled {
		cronService, err = buildCron(cfg, logg, cronMetrics, redisClient, orderStore, aggregator, notifier)
		if err != nil {
			logg.Error(ctx, "failed to create cron service", err)
			os.Exit(1)
		}
	}

	routeParams := routes.Params{
		Config:   cfg,
		Logger:   logg,
		Events:   botService,
		Gatherer: registry,
		Ready:    ready,
	}
	if redisClient != nil {
		routeParams.Store = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := api.NewServer(":"+port, routes.NewRouter(routeParams), logg)

	svc, err := NewService(ServiceParams{
		Logger:   logg,
		Server:   server,
		Cron:     cronService,
		Notifier: notifier,
		Mirror:   mirror,
		DB:       dbClient,
		Redis:    redisClient,
	})
	if err != nil {
		logg.Error(ctx, "failed to create service", err)
		os.Exit(1)
	}

	logg.Info(logg.WithField(ctx, "addr", server.Addr()), "starting orderbot")

	runErr := svc.Run(ctx)
	if err := svc.Close(ctx); err != nil {
		logg.Error(ctx, "shutdown incomplete", err)
	}
	if runErr != nil {
		logg.Error(ctx, "orderbot stopped unexpectedly", runErr)
		os.Exit(1)
	}
	logg.Info(ctx, "orderbot shut down gracefully")
}

func buildCron(
	cfg *config.Config,
	logg *logger.Logger,
	cronMetrics *metrics.CronJobMetrics,
	redisClient *redis.Client,
	orderStore *orders.Store,
	aggregator *stats.Aggregator,
	notifier notifications.Notifier,
) (*cron.Service, error) {
	var (
		lock   cron.Lock         = cron.NewLocalLock()
		ledger cron.ReportLedger = cron.NewMemoryLedger()
	)
	if redisClient != nil {
		redisLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron"), cfg.Cron.LockTTL)
		if err != nil {
			return nil, err
		}
		lock = redisLock
		redisLedger, err := cron.NewRedisLedger(redisClient, redisClient.IdempotencyKey("report", ""), 0)
		if err != nil {
			return nil, err
		}
		ledger = redisLedger
	}

	reminder, err := cron.NewPendingReminderJob(cron.PendingReminderParams{
		Orders:     orderStore,
		Notifier:   notifier,
		OperatorID: cfg.Bot.OperatorID,
		MinAge:     cfg.Cron.PendingReminderAge,
		Location:   cfg.Bot.Location(),
		ChunkLen:   cfg.Bot.MaxChunkLen,
	})
	if err != nil {
		return nil, err
	}
	daily, err := cron.NewDailyStatsJob(cron.DailyStatsParams{
		Stats:      aggregator,
		Notifier:   notifier,
		OperatorID: cfg.Bot.OperatorID,
		Ledger:     ledger,
	})
	if err != nil {
		return nil, err
	}

	return cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   cron.NewRegistry(reminder, daily),
		Lock:       lock,
		Metrics:    cronMetrics,
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
}
