package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukapoint/stockledger-backend/internal/cron"
	"github.com/dukapoint/stockledger-backend/internal/items"
	"github.com/dukapoint/stockledger-backend/internal/movements"
	"github.com/dukapoint/stockledger-backend/internal/sessions"
	"github.com/dukapoint/stockledger-backend/internal/tenants"
	"github.com/dukapoint/stockledger-backend/pkg/config"
	"github.com/dukapoint/stockledger-backend/pkg/db"
	"github.com/dukapoint/stockledger-backend/pkg/instance"
	"github.com/dukapoint/stockledger-backend/pkg/logger"
	"github.com/dukapoint/stockledger-backend/pkg/metrics"
	"github.com/dukapoint/stockledger-backend/pkg/migrate"
	"github.com/dukapoint/stockledger-backend/pkg/redis"
)

const lockKeyFormat = "sl:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	conn := dbClient.DB()
	tenantsRepo := tenants.NewRepository(conn)
	itemsRepo := items.NewRepository(conn)
	sessionsRepo := sessions.NewRepository(conn)
	movementsRepo := movements.NewRepository(conn)

	staleSessionsJob, err := cron.NewStaleSessionsJob(sessionsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stale sessions job", err)
		os.Exit(1)
	}
	reorderAlertJob, err := cron.NewReorderAlertJob(tenantsRepo, itemsRepo, movementsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reorder alert job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(staleSessionsJob, reorderAlertJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
