package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kampyn/ordering-gateway/api/controllers"
	"github.com/kampyn/ordering-gateway/api/routes"
	"github.com/kampyn/ordering-gateway/internal/accounts"
	cartsvc "github.com/kampyn/ordering-gateway/internal/cart"
	"github.com/kampyn/ordering-gateway/internal/directory"
	"github.com/kampyn/ordering-gateway/internal/favorites"
	"github.com/kampyn/ordering-gateway/internal/invoices"
	"github.com/kampyn/ordering-gateway/internal/journal"
	"github.com/kampyn/ordering-gateway/internal/ordersync"
	"github.com/kampyn/ordering-gateway/internal/payment"
	"github.com/kampyn/ordering-gateway/internal/ratelimit"
	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/config"
	"github.com/kampyn/ordering-gateway/pkg/db"
	"github.com/kampyn/ordering-gateway/pkg/httptrack"
	"github.com/kampyn/ordering-gateway/pkg/logger"
	"github.com/kampyn/ordering-gateway/pkg/metrics"
	"github.com/kampyn/ordering-gateway/pkg/migrate"
	"github.com/kampyn/ordering-gateway/pkg/redis"
	"github.com/kampyn/ordering-gateway/pkg/schedule"
	"github.com/kampyn/ordering-gateway/pkg/session"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "gateway"

	logg = logger.New(logger.Options{
		ServiceName: "gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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

	readiness := map[string]controllers.Pinger{
		"backend": backendClient,
		"redis":   redisClient,
	}

	var journalService *journal.Service
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
		journalService, err = journal.NewService(repo, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create journal service", err)
			os.Exit(1)
		}
		readiness["db"] = dbClient
	}

	var sessions session.Provider = session.NewMemoryProvider()
	if cfg.Session.RedisBacked {
		sessions = session.NewRedisProvider(redisClient, cfg.Session.TTL)
	}

	accountsService, err := accounts.NewService(backendClient, sessions, cfg.Session, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create accounts service", err)
		os.Exit(1)
	}
	directoryService, err := directory.NewService(backendClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create directory service", err)
		os.Exit(1)
	}
	cartService, err := cartsvc.NewService(backendClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	paymentService, err := payment.NewService(backendClient, cartService, journalRecorder(journalService), cfg.Payment, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}
	orderSyncService, err := ordersync.NewService(backendClient, snapshotRecorder(journalService), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order sync service", err)
		os.Exit(1)
	}
	favoritesService, err := favorites.NewService(backendClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create favourites service", err)
		os.Exit(1)
	}
	invoicesService, err := invoices.NewService(backendClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoices service", err)
		os.Exit(1)
	}
	rateLimitService, err := ratelimit.NewService(backendClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create rate limit service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	router := routes.NewRouter(cfg, logg, redisClient, readiness, routes.Services{
		Accounts:   accountsService,
		Directory:  directoryService,
		Cart:       cartService,
		Payments:   paymentService,
		Orders:     orderSyncService,
		Favorites:  favoritesService,
		Invoices:   invoicesService,
		RateLimits: rateLimitService,
		Journal:    journalService,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	// the vendor mirror this process serves is fed by its own polling
	// pass; the redis lock keeps replicas and the standalone worker from
	// polling the same vendors concurrently
	if len(cfg.Sync.VendorIDs) > 0 {
		lock, err := schedule.NewRedisLock(redisClient, syncLockKey(cfg.App.Env), 0)
		if err != nil {
			logg.Error(ctx, "failed to create sync lock", err)
			os.Exit(1)
		}
		runner, err := schedule.NewRunner(schedule.RunnerParams{
			Logger:   logg,
			Registry: schedule.NewRegistry(ordersync.Tasks(orderSyncService, cfg.Sync)...),
			Lock:     lock,
			Metrics:  metrics.NewSyncJobMetrics(prometheus.DefaultRegisterer),
		})
		if err != nil {
			logg.Error(ctx, "failed to create scheduler", err)
			os.Exit(1)
		}
		go func() {
			if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "vendor sync stopped unexpectedly", err)
			}
		}()
	}

	logg.Info(ctx, "starting gateway server")

	server := &http.Server{Addr: addr, Handler: router}
	go func() {
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			logg.Error(ctx, "error during shutdown", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "gateway server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "gateway shutting down gracefully")
}

// journalRecorder converts a possibly-nil journal into the payment
// recorder dependency without handing over a typed nil.
func journalRecorder(svc *journal.Service) payment.AttemptRecorder {
	if svc == nil {
		return nil
	}
	return svc
}

func snapshotRecorder(svc *journal.Service) ordersync.SnapshotRecorder {
	if svc == nil {
		return nil
	}
	return svc
}

// syncLockKey matches the vendor-sync worker's lock namespace so only
// one process polls a given task per environment at a time.
func syncLockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return "vendor-sync:" + env
}
