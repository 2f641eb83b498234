package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"presence-notify/internal/domain"
	"presence-notify/internal/metrics"
	"presence-notify/internal/telemetry"
)

// NATSConfig describes how to reach the NATS cluster.
type NATSConfig struct {
	URL            string
	User           string
	Password       string
	Name           string
	ConnectRetries int
	RetryWait      time.Duration
	RequestTimeout time.Duration
}

// Connect dials NATS, retrying while the cluster is still starting.
func Connect(cfg NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	retries := max(cfg.ConnectRetries, 1)
	var (
		nc  *nats.Conn
		err error
	)
	for attempt := 1; attempt <= retries; attempt++ {
		nc, err = nats.Connect(cfg.URL, opts...)
		if err == nil {
			return nc, nil
		}
		logger.Warn("NATS connect failed, retrying",
			zap.Int("attempt", attempt),
			zap.String("url", cfg.URL),
			zap.Error(err),
		)
		if attempt < retries {
			time.Sleep(cfg.RetryWait)
		}
	}
	return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
}

// NATSBus carries events over core NATS with W3C trace context in headers.
// With a queue group set, each event is handled by one member of the group.
type NATSBus struct {
	nc             *nats.Conn
	queue          string
	requestTimeout time.Duration
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

func NewNATSBus(nc *nats.Conn, queue string, requestTimeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *NATSBus {
	if requestTimeout <= 0 {
		requestTimeout = nats.DefaultTimeout
	}
	return &NATSBus{
		nc:             nc,
		queue:          queue,
		requestTimeout: requestTimeout,
		metrics:        m,
		logger:         logger,
	}
}

func (b *NATSBus) Publish(ctx context.Context, subject string, v any) error {
	data, err := encode(subject, v)
	if err != nil {
		return err
	}

	ctx, span := telemetry.StartProducerSpan(ctx, subject, len(data))
	defer span.End()

	err = b.nc.PublishMsg(&nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  telemetry.InjectContext(ctx),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (b *NATSBus) Subscribe(subject string, h Handler) error {
	return b.subscribe(subject, func(msg *nats.Msg) {
		ctx, span := telemetry.StartConsumerSpan(context.Background(), msg)
		defer span.End()

		err := b.invoke(msg.Subject, func() error { return h(ctx, msg.Subject, msg.Data) })
		b.metrics.RecordEventReceived(msg.Subject, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			b.logger.Warn("Event handler failed",
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
		}
	})
}

func (b *NATSBus) Respond(subject string, h RequestHandler) error {
	return b.subscribe(subject, func(msg *nats.Msg) {
		ctx, span := telemetry.StartServerSpan(context.Background(), msg)
		defer span.End()

		var reply any
		err := b.invoke(msg.Subject, func() error {
			reply = h(ctx, msg.Data)
			return nil
		})
		if err != nil {
			reply = domain.Describe(err)
		}
		b.metrics.RecordEventReceived(msg.Subject, err)

		data, err := encode(msg.Subject, reply)
		if err != nil {
			b.logger.Error("Failed to encode reply", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		if err := msg.Respond(data); err != nil {
			b.logger.Warn("Failed to send reply", zap.String("subject", msg.Subject), zap.Error(err))
		}
	})
}

// Request sends v to subject and decodes the reply into out.
func (b *NATSBus) Request(ctx context.Context, subject string, v, out any) error {
	data, err := encode(subject, v)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, b.requestTimeout)
	defer cancel()

	reply, err := b.nc.RequestMsgWithContext(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  telemetry.InjectContext(ctx),
	})
	if err != nil {
		return fmt.Errorf("request %s: %w", subject, err)
	}
	return json.Unmarshal(reply.Data, out)
}

func (b *NATSBus) subscribe(subject string, cb nats.MsgHandler) error {
	var err error
	if b.queue != "" {
		_, err = b.nc.QueueSubscribe(subject, b.queue, cb)
	} else {
		_, err = b.nc.Subscribe(subject, cb)
	}
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}

	b.logger.Info("Subscribed", zap.String("subject", subject), zap.String("queue", b.queue))
	return nil
}

// invoke runs fn, converting a panic into an error so one bad message cannot kill the subscription.
func (b *NATSBus) invoke(subject string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in event handler",
				zap.String("subject", subject),
				zap.Any("panic", r),
			)
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn()
}

// Close drains subscriptions so in-flight handlers finish, then closes the connection.
func (b *NATSBus) Close() error {
	if b.nc.IsClosed() {
		return nil
	}
	return b.nc.Drain()
}
