package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukapoint/stockledger-backend/api/routes"
	"github.com/dukapoint/stockledger-backend/internal/counters"
	"github.com/dukapoint/stockledger-backend/internal/exports"
	"github.com/dukapoint/stockledger-backend/internal/imports"
	"github.com/dukapoint/stockledger-backend/internal/items"
	"github.com/dukapoint/stockledger-backend/internal/movements"
	"github.com/dukapoint/stockledger-backend/internal/sessions"
	"github.com/dukapoint/stockledger-backend/internal/tenants"
	"github.com/dukapoint/stockledger-backend/internal/variance"
	"github.com/dukapoint/stockledger-backend/pkg/config"
	"github.com/dukapoint/stockledger-backend/pkg/db"
	"github.com/dukapoint/stockledger-backend/pkg/instance"
	"github.com/dukapoint/stockledger-backend/pkg/logger"
	"github.com/dukapoint/stockledger-backend/pkg/metrics"
	"github.com/dukapoint/stockledger-backend/pkg/migrate"
	"github.com/dukapoint/stockledger-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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
	countersRepo := counters.NewRepository(conn)
	sessionsRepo := sessions.NewRepository(conn)
	movementsRepo := movements.NewRepository(conn)

	itemsService, err := items.NewService(itemsRepo)
	exitOnError(logg, "items service", err)
	countersService, err := counters.NewService(countersRepo)
	exitOnError(logg, "counters service", err)
	sessionsService, err := sessions.NewService(sessionsRepo, movementsRepo, logg)
	exitOnError(logg, "sessions service", err)
	movementsService, err := movements.NewService(movementsRepo, itemsRepo, countersRepo, sessionsRepo)
	exitOnError(logg, "movements service", err)
	varianceService, err := variance.NewService(movementsRepo, itemsRepo)
	exitOnError(logg, "variance service", err)

	importMetrics := metrics.NewImportMetrics(prometheus.DefaultRegisterer)
	importsService, err := imports.NewService(
		dbClient,
		movementsRepo,
		itemsRepo,
		countersRepo,
		sessionsRepo,
		importMetrics,
		logg,
		cfg.Import.MaxRows,
	)
	exitOnError(logg, "imports service", err)

	exportsService, err := exports.NewService(itemsRepo, countersRepo, movementsRepo)
	exitOnError(logg, "exports service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Registry:  prometheus.DefaultGatherer,
			Tenants:   tenantsRepo,
			Items:     itemsService,
			Counters:  countersService,
			Sessions:  sessionsService,
			Movements: movementsService,
			Variance:  varianceService,
			Imports:   importsService,
			Exports:   exportsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func exitOnError(logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}
