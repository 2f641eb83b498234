package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"presence-notify/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisPresenceStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisPresenceStore(rdb), mr
}

func TestRedisPresenceStore_RegisterUser(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()
	at := time.UnixMilli(1700000000000)

	created, err := store.RegisterUser(ctx, "u1", at)
	require.NoError(t, err)
	assert.True(t, created)

	ok, err := mr.SIsMember("users", "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	status, _ := mr.Get("user:status:u1")
	assert.Equal(t, "offline", status)
	lastSeen, _ := mr.Get("user:last_seen:u1")
	assert.Equal(t, "1700000000000", lastSeen)
}

func TestRedisPresenceStore_RegisterUserIsIdempotent(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.RegisterUser(ctx, "u1", time.UnixMilli(1000))
	require.NoError(t, err)
	require.NoError(t, store.SetStatus(ctx, "u1", domain.PresenceStatusOnline, time.UnixMilli(1500)))

	created, err := store.RegisterUser(ctx, "u1", time.UnixMilli(2000))
	require.NoError(t, err)
	assert.False(t, created)

	presence, err := store.GetStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.PresenceStatusOnline, presence.Status)
	assert.Equal(t, int64(1000), presence.LastSeenMillis())
}

func TestRedisPresenceStore_GetStatusUnknownUser(t *testing.T) {
	store, _ := setupRedisStore(t)

	presence, err := store.GetStatus(context.Background(), "ghost")
	assert.Nil(t, presence)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRedisPresenceStore_SetStatusRegistersUser(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetStatus(ctx, "u2", domain.PresenceStatusOnline, time.UnixMilli(4200)))

	users, err := store.ListKnownUsers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u2"}, users)

	// lastSeen is seeded even if no touch follows.
	presence, err := store.GetStatus(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, presence.IsOnline())
	assert.Equal(t, int64(4200), presence.LastSeenMillis())
}

func TestRedisPresenceStore_SetStatusKeepsExistingLastSeen(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetStatus(ctx, "u2", domain.PresenceStatusOnline, time.UnixMilli(4200)))
	require.NoError(t, store.SetStatus(ctx, "u2", domain.PresenceStatusOffline, time.UnixMilli(100)))

	presence, err := store.GetStatus(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, domain.PresenceStatusOffline, presence.Status)
	assert.Equal(t, int64(4200), presence.LastSeenMillis())
}

func TestRedisPresenceStore_TouchLastSeenIsMonotonic(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.RegisterUser(ctx, "u1", time.UnixMilli(5000))
	require.NoError(t, err)

	require.NoError(t, store.TouchLastSeen(ctx, "u1", time.UnixMilli(3000)))
	presence, err := store.GetStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), presence.LastSeenMillis())

	require.NoError(t, store.TouchLastSeen(ctx, "u1", time.UnixMilli(9000)))
	presence, err = store.GetStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(9000), presence.LastSeenMillis())
}

func TestRedisPresenceStore_Unavailable(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()
	mr.Close()

	_, err := store.RegisterUser(ctx, "u1", time.Now())
	assert.Equal(t, domain.KindStoreUnavailable, domain.KindOf(err))

	_, err = store.GetStatus(ctx, "u1")
	assert.Equal(t, domain.KindStoreUnavailable, domain.KindOf(err))
	assert.False(t, errors.Is(err, domain.ErrNotFound))

	_, err = store.ListKnownUsers(ctx)
	assert.Equal(t, domain.KindStoreUnavailable, domain.KindOf(err))

	assert.Error(t, store.Ping(ctx))
}

func TestProperty_RedisLastSeenNeverDecreases(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("lastSeen equals the max of all touches", prop.ForAll(
		func(touches []int64) bool {
			store, _ := setupRedisStore(t)
			ctx := context.Background()
			if _, err := store.RegisterUser(ctx, "u1", time.UnixMilli(1)); err != nil {
				return false
			}

			want := int64(1)
			for _, ms := range touches {
				if err := store.TouchLastSeen(ctx, "u1", time.UnixMilli(ms)); err != nil {
					return false
				}
				if ms > want {
					want = ms
				}
			}

			presence, err := store.GetStatus(ctx, "u1")
			return err == nil && presence.LastSeenMillis() == want
		},
		gen.SliceOf(gen.Int64Range(1, 1<<40)),
	))

	properties.TestingRun(t)
}
