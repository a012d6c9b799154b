package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/taskdeck/pkg/api"
	"github.com/platinummonkey/taskdeck/pkg/audit"
	"github.com/platinummonkey/taskdeck/pkg/auth"
	"github.com/platinummonkey/taskdeck/pkg/config"
	"github.com/platinummonkey/taskdeck/pkg/middleware"
	"github.com/platinummonkey/taskdeck/pkg/observability"
	"github.com/platinummonkey/taskdeck/pkg/storage/postgres"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("server exited")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lifecycle := observability.NewLifecycle()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	provider, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return err
	}
	if provider != nil {
		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				logger.WithError(err).Warn("failed to shut down tracer provider")
			}
		}()
	}

	db, err := postgres.Open(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	// The instance reports unready until migrations and seeding are done.
	if err := lifecycle.Advance(observability.StateMigrating); err != nil {
		return err
	}
	logger.Info("running database migrations")
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	if err := lifecycle.Advance(observability.StateSeeding); err != nil {
		return err
	}
	seedOpts := postgres.DefaultSeedOptions()
	seedOpts.DemoData = cfg.Database.SeedDemoData
	logger.Info("seeding baseline data")
	if err := postgres.Seed(ctx, db, seedOpts); err != nil {
		return err
	}

	if err := lifecycle.Advance(observability.StateReady); err != nil {
		return err
	}
	logger.Info("startup sequence complete")

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// Redis only backs rate limiting; a missing instance is a
			// degradation, not a startup failure.
			logger.WithError(err).Warn("redis unreachable, rate limiting disabled")
			redisClient = nil
		}
		if redisClient != nil {
			defer redisClient.Close()
		}
	}

	issuer, err := auth.NewIssuer([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return err
	}

	auditStore := audit.NewPostgresStore(db)
	recorder := audit.NewRecorder(auditStore, logger, metrics, audit.RecorderOptions{
		QueueSize:    cfg.Audit.QueueSize,
		DrainTimeout: cfg.Audit.DrainTimeout,
	})
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.WithError(err).Warn("audit recorder did not drain cleanly")
		}
	}()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Audit.PruneSchedule, func() {
		cutoff := time.Now().Add(-cfg.Audit.Retention)
		pruned, err := auditStore.Prune(context.Background(), cutoff)
		if err != nil {
			logger.WithError(err).Warn("audit prune failed")
			return
		}
		logger.WithField("pruned", pruned).Info("audit log pruned")
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	health := observability.NewHealthChecker(db, redisClient, lifecycle)

	var rateLimit *middleware.RateLimitConfig
	if redisClient != nil {
		rateLimit = &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.Redis.RateLimitRequests,
			WindowDuration:    cfg.Redis.RateLimitWindow,
		}
	}

	server := api.NewServer(api.Options{
		DB:             db,
		Issuer:         issuer,
		Logger:         logger,
		Metrics:        metrics,
		Health:         health,
		Recorder:       recorder,
		Redis:          redisClient,
		RateLimit:      rateLimit,
		MetricsHandler: observability.MetricsHandler(registry),
	})

	var handler http.Handler = server
	if provider != nil {
		handler = otelhttp.NewHandler(handler, "taskdeck")
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", httpServer.Addr).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
