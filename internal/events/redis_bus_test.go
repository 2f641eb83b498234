package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"presence-notify/internal/domain"
)

func TestRedisBus_PublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	bus := NewRedisBus(rdb, nil, zap.NewNop())
	got := make(chan domain.PresenceChanged, 1)
	require.NoError(t, bus.Subscribe(domain.EventUserPresenceChanged, func(_ context.Context, _ string, data []byte) error {
		var evt domain.PresenceChanged
		if err := json.Unmarshal(data, &evt); err != nil {
			return err
		}
		got <- evt
		return nil
	}))

	want := domain.PresenceChanged{UserID: "u1", Username: "alice", Status: domain.PresenceStatusOnline}
	require.NoError(t, bus.Publish(context.Background(), domain.EventUserPresenceChanged, want))

	select {
	case evt := <-got:
		assert.Equal(t, want, evt)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	assert.NoError(t, bus.Close())
}

func TestRedisBus_PublishFailsWhenUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	bus := NewRedisBus(rdb, nil, zap.NewNop())
	assert.Error(t, bus.Publish(context.Background(), domain.EventUserPresenceChanged, domain.PresenceChanged{UserID: "u1"}))
}
