package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"presence-notify/internal/app"
	"presence-notify/internal/auth"
	"presence-notify/internal/config"
	"presence-notify/internal/dispatcher"
	"presence-notify/internal/handler"
	"presence-notify/internal/metrics"
	"presence-notify/internal/registry"
	"presence-notify/internal/router"
	"presence-notify/internal/telemetry"
	"presence-notify/internal/websocket"
)

const serviceName = "notification-service"

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/notification-service.yaml"
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

	logger.Info("Starting Notification Service",
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Env),
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
	connections := registry.NewConnectionRegistry()
	notifier := dispatcher.NewNotificationDispatcher(connections, m, logger)

	// Every replica holds its own connections, so events fan out unless a queue is configured.
	bus, busCheck, err := app.OpenBus(ctx, cfg, cfg.Events.QueueGroup, nil, m, logger)
	if err != nil {
		logger.Fatal("Failed to open event bus", zap.Error(err))
	}

	if err := handler.NewNotificationEventHandler(notifier, logger).Register(bus); err != nil {
		logger.Fatal("Failed to subscribe to notification events", zap.Error(err))
	}

	var resolver websocket.IdentityResolver = websocket.NewQueryResolver()
	if cfg.Auth.SecretKey != "" {
		resolver = websocket.NewTokenResolver(auth.NewJWTValidator(cfg.Auth.SecretKey))
	}

	r := router.SetupNotification(router.NotificationDeps{
		Common: router.Common{
			Config:   cfg,
			Metrics:  m,
			Gatherer: prometheus.DefaultGatherer,
			Checks:   []handler.Check{busCheck},
			Logger:   logger,
		},
		Registry:  connections,
		Resolver:  resolver,
		WebSocket: app.WebSocketConfig(cfg.WebSocket),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		logger.Info("Notification Service started", zap.String("address", srv.Addr))
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

	if err := bus.Close(); err != nil {
		logger.Error("Failed to close event bus", zap.Error(err))
	}
	closed := connections.CloseAll()
	logger.Info("Closed WebSocket connections", zap.Int("count", closed))

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}
