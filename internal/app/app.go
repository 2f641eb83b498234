// Package app holds the start-up wiring shared by the service binaries.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"presence-notify/internal/config"
	"presence-notify/internal/database"
	"presence-notify/internal/events"
	"presence-notify/internal/handler"
	"presence-notify/internal/metrics"
	"presence-notify/internal/websocket"
)

func InitLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build()
}

// OpenBus connects the configured event transport. rdb is reused for the
// redis transport and dialed when nil.
func OpenBus(
	ctx context.Context,
	cfg *config.Config,
	queue string,
	rdb *redis.Client,
	m *metrics.Metrics,
	logger *zap.Logger,
) (events.Bus, handler.Check, error) {
	switch cfg.Events.Transport {
	case config.TransportRedis:
		owned := rdb == nil
		if owned {
			var err error
			rdb, err = database.NewRedis(ctx, cfg.Redis, logger)
			if err != nil {
				return nil, handler.Check{}, err
			}
		}
		check := handler.Check{
			Name: "redis-bus",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}
		logger.Info("Event transport ready", zap.String("transport", config.TransportRedis))
		var bus events.Bus = events.NewRedisBus(rdb, m, logger)
		if owned {
			bus = &clientOwningBus{Bus: bus, rdb: rdb}
		}
		return bus, check, nil

	default:
		nc, err := events.Connect(events.NATSConfig{
			URL:            cfg.Events.NATSURL,
			User:           cfg.Events.NATSUser,
			Password:       cfg.Events.NATSPass,
			Name:           cfg.Telemetry.ServiceName,
			ConnectRetries: cfg.Events.ConnectRetries,
			RetryWait:      2 * time.Second,
		}, logger)
		if err != nil {
			return nil, handler.Check{}, err
		}
		check := handler.Check{
			Name: "nats",
			Ping: func(context.Context) error {
				if !nc.IsConnected() {
					return errors.New("nats disconnected")
				}
				return nil
			},
		}
		logger.Info("Event transport ready",
			zap.String("transport", config.TransportNATS),
			zap.String("url", nc.ConnectedUrl()),
			zap.String("queue", queue),
		)
		return events.NewNATSBus(nc, queue, cfg.Events.RequestTimeout, m, logger), check, nil
	}
}

// clientOwningBus closes the Redis client OpenBus dialed for it.
type clientOwningBus struct {
	events.Bus
	rdb *redis.Client
}

func (b *clientOwningBus) Close() error {
	return errors.Join(b.Bus.Close(), b.rdb.Close())
}

// WebSocketConfig converts the websocket config section, keeping defaults for unset fields.
func WebSocketConfig(c config.WebSocketConfig) websocket.Config {
	ws := websocket.DefaultConfig()
	if c.SendBuffer > 0 {
		ws.SendBuffer = c.SendBuffer
	}
	if c.WriteWait > 0 {
		ws.WriteWait = c.WriteWait
	}
	if c.PongWait > 0 {
		ws.PongWait = c.PongWait
	}
	if c.MaxMessageSize > 0 {
		ws.MaxMessageSize = c.MaxMessageSize
	}
	return ws
}
