package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"presence-notify/internal/metrics"
)

// RedisBus carries events over Redis pub/sub. Pub/sub has no consumer groups,
// so every subscribed replica receives every event.
type RedisBus struct {
	rdb     *redis.Client
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	pubsubs []*redis.PubSub
	wg      sync.WaitGroup
}

func NewRedisBus(rdb *redis.Client, m *metrics.Metrics, logger *zap.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, metrics: m, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, subject string, v any) error {
	data, err := encode(subject, v)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, subject, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe returns once the subscription is confirmed by the server.
func (b *RedisBus) Subscribe(subject string, h Handler) error {
	ctx := context.Background()
	pubsub := b.rdb.Subscribe(ctx, subject)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}

	b.mu.Lock()
	b.pubsubs = append(b.pubsubs, pubsub)
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range pubsub.Channel() {
			b.handle(ctx, msg, h)
		}
	}()

	b.logger.Info("Subscribed", zap.String("subject", subject))
	return nil
}

func (b *RedisBus) handle(ctx context.Context, msg *redis.Message, h Handler) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in event handler",
				zap.String("subject", msg.Channel),
				zap.Any("panic", r),
			)
			err = fmt.Errorf("handler panic: %v", r)
		}
		b.metrics.RecordEventReceived(msg.Channel, err)
	}()

	if err = h(ctx, msg.Channel, []byte(msg.Payload)); err != nil {
		b.logger.Warn("Event handler failed",
			zap.String("subject", msg.Channel),
			zap.Error(err),
		)
	}
}

func (b *RedisBus) Close() error {
	b.mu.Lock()
	pubsubs := b.pubsubs
	b.pubsubs = nil
	b.mu.Unlock()

	var firstErr error
	for _, ps := range pubsubs {
		if err := ps.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.wg.Wait()
	return firstErr
}
