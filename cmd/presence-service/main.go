package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"presence-notify/internal/app"
	"presence-notify/internal/auth"
	"presence-notify/internal/config"
	"presence-notify/internal/database"
	"presence-notify/internal/events"
	"presence-notify/internal/handler"
	"presence-notify/internal/job"
	"presence-notify/internal/metrics"
	"presence-notify/internal/middleware"
	"presence-notify/internal/repository"
	"presence-notify/internal/router"
	"presence-notify/internal/service"
	"presence-notify/internal/telemetry"
)

const serviceName = "presence-service"

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/presence-service.yaml"
	}

	cfg, err := config.Load(configPath, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := app.InitLogger(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Presence Service",
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Env),
		zap.String("backend", cfg.Presence.Backend),
		zap.String("transport", cfg.Events.Transport),
	)

	ctx := context.Background()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	m := metrics.NewWithLogger(logger)

	var (
		store   repository.PresenceStore
		rdb     *redis.Client
		dbStats func() sql.DBStats
		closeDB func() error
	)
	switch cfg.Presence.Backend {
	case config.BackendPostgres:
		db, err := database.NewPostgres(cfg.Database, cfg.Server.Env, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("Failed to get database instance", zap.Error(err))
		}
		dbStats = sqlDB.Stats
		closeDB = sqlDB.Close
		store = repository.NewGormPresenceStore(db)
	default:
		rdb, err = database.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		store = repository.NewRedisPresenceStore(rdb)
	}

	queue := cfg.Events.QueueGroup
	if queue == "" {
		queue = serviceName
	}
	bus, busCheck, err := app.OpenBus(ctx, cfg, queue, rdb, m, logger)
	if err != nil {
		logger.Fatal("Failed to open event bus", zap.Error(err))
	}

	presenceService := service.NewPresenceService(store, events.NewPublisher(bus, m), m, logger)

	if err := handler.NewPresenceEventHandler(presenceService, logger).Register(bus); err != nil {
		logger.Fatal("Failed to subscribe to user events", zap.Error(err))
	}
	if responder, ok := bus.(events.Responder); ok {
		if err := handler.NewPresenceQueryHandler(presenceService, logger).Register(responder); err != nil {
			logger.Fatal("Failed to register presence queries", zap.Error(err))
		}
	} else {
		logger.Warn("Event transport has no request/reply, presence queries served over HTTP only",
			zap.String("transport", cfg.Events.Transport),
		)
	}

	snapshot := job.NewOnlineSnapshotJob(presenceService, store, dbStats, m, logger)
	scheduler, err := job.Schedule(cfg.Jobs.OnlineSnapshotSpec, snapshot, logger)
	if err != nil {
		logger.Fatal("Failed to schedule snapshot job", zap.Error(err))
	}
	scheduler.Start()

	var validator middleware.TokenValidator
	if cfg.Auth.SecretKey != "" {
		validator = auth.NewJWTValidator(cfg.Auth.SecretKey)
	}

	r := router.SetupPresence(router.PresenceDeps{
		Common: router.Common{
			Config:   cfg,
			Metrics:  m,
			Gatherer: prometheus.DefaultGatherer,
			Checks: []handler.Check{
				{Name: "presence-store", Ping: store.Ping},
				busCheck,
			},
			Logger: logger,
		},
		Service:   presenceService,
		Validator: validator,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		logger.Info("Presence Service started", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	<-scheduler.Stop().Done()
	if err := bus.Close(); err != nil {
		logger.Error("Failed to close event bus", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if closeDB != nil {
		_ = closeDB()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}
