package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kampyn/ordering-gateway/internal/journal"
	"github.com/kampyn/ordering-gateway/internal/ordersync"
	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/config"
	"github.com/kampyn/ordering-gateway/pkg/db"
	"github.com/kampyn/ordering-gateway/pkg/httptrack"
	"github.com/kampyn/ordering-gateway/pkg/logger"
	"github.com/kampyn/ordering-gateway/pkg/metrics"
	"github.com/kampyn/ordering-gateway/pkg/migrate"
	"github.com/kampyn/ordering-gateway/pkg/redis"
	"github.com/kampyn/ordering-gateway/pkg/schedule"
)

const lockKeyFormat = "vendor-sync:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "vendor-sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "vendor-sync-worker"

	logg = logger.New(logger.Options{
		ServiceName: "vendor-sync-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if len(cfg.Sync.VendorIDs) == 0 {
		logg.Warn(context.Background(), "no vendor ids configured; worker will idle")
	}

	tracker := httptrack.NewTracker(prometheus.DefaultRegisterer)
	backendClient, err := backend.NewClient(cfg.Backend, logg, tracker)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap backend client", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var recorder ordersync.SnapshotRecorder
	if cfg.FeatureFlags.Journal {
		dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()

		if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
			logg.Error(context.Background(), "failed to run dev migrations", err)
			os.Exit(1)
		}

		repo, err := journal.NewRepository(dbClient.DB())
		if err != nil {
			logg.Error(context.Background(), "failed to create journal repository", err)
			os.Exit(1)
		}
		journalService, err := journal.NewService(repo, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create journal service", err)
			os.Exit(1)
		}
		recorder = journalService
	}

	syncService, err := ordersync.NewService(backendClient, recorder, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order sync service", err)
		os.Exit(1)
	}

	lock, err := schedule.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync lock", err)
		os.Exit(1)
	}

	runner, err := schedule.NewRunner(schedule.RunnerParams{
		Logger:   logg,
		Registry: schedule.NewRegistry(ordersync.Tasks(syncService, cfg.Sync)...),
		Lock:     lock,
		Metrics:  metrics.NewSyncJobMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"vendors":     len(cfg.Sync.VendorIDs),
	})
	logg.Info(ctx, "starting vendor sync worker")

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "vendor sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "vendor sync worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
