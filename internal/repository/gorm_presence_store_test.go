package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"presence-notify/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupGormStore(t *testing.T) (*GormPresenceStore, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.UserPresence{}))
	return NewGormPresenceStore(db), db
}

func TestGormPresenceStore_Lifecycle(t *testing.T) {
	store, _ := setupGormStore(t)
	ctx := context.Background()
	created := time.UnixMilli(1700000000000)

	ok, err := store.RegisterUser(ctx, "u1", created)
	require.NoError(t, err)
	assert.True(t, ok)

	presence, err := store.GetStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.PresenceStatusOffline, presence.Status)
	assert.Equal(t, created.UnixMilli(), presence.LastSeenMillis())

	require.NoError(t, store.SetStatus(ctx, "u1", domain.PresenceStatusOnline, created.Add(time.Second)))
	presence, err = store.GetStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, created.UnixMilli(), presence.LastSeenMillis())

	require.NoError(t, store.TouchLastSeen(ctx, "u1", created.Add(time.Minute)))

	presence, err = store.GetStatus(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, presence.IsOnline())
	assert.Equal(t, created.Add(time.Minute).UnixMilli(), presence.LastSeenMillis())
}

func TestGormPresenceStore_RegisterUserIsIdempotent(t *testing.T) {
	store, _ := setupGormStore(t)
	ctx := context.Background()

	_, err := store.RegisterUser(ctx, "u1", time.UnixMilli(1000))
	require.NoError(t, err)
	require.NoError(t, store.SetStatus(ctx, "u1", domain.PresenceStatusOnline, time.UnixMilli(1500)))

	ok, err := store.RegisterUser(ctx, "u1", time.UnixMilli(2000))
	require.NoError(t, err)
	assert.False(t, ok)

	presence, err := store.GetStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.PresenceStatusOnline, presence.Status)
}

func TestGormPresenceStore_TouchLastSeenIsMonotonic(t *testing.T) {
	store, _ := setupGormStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1700000000000)

	_, err := store.RegisterUser(ctx, "u1", base)
	require.NoError(t, err)
	require.NoError(t, store.TouchLastSeen(ctx, "u1", base.Add(-time.Hour)))

	presence, err := store.GetStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, base.UnixMilli(), presence.LastSeenMillis())
}

func TestGormPresenceStore_SetStatusSeedsLastSeenForNewUser(t *testing.T) {
	store, _ := setupGormStore(t)
	ctx := context.Background()
	at := time.UnixMilli(1700000000123)

	require.NoError(t, store.SetStatus(ctx, "u3", domain.PresenceStatusOnline, at))

	presence, err := store.GetStatus(ctx, "u3")
	require.NoError(t, err)
	assert.True(t, presence.IsOnline())
	assert.Equal(t, at.UnixMilli(), presence.LastSeenMillis())
}

func TestGormPresenceStore_GetStatusUnknownUser(t *testing.T) {
	store, _ := setupGormStore(t)

	_, err := store.GetStatus(context.Background(), "ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGormPresenceStore_ListKnownUsers(t *testing.T) {
	store, _ := setupGormStore(t)
	ctx := context.Background()

	_, err := store.RegisterUser(ctx, "u1", time.Now())
	require.NoError(t, err)
	require.NoError(t, store.SetStatus(ctx, "u2", domain.PresenceStatusOnline, time.Now()))

	users, err := store.ListKnownUsers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, users)
}

func TestGormPresenceStore_Unavailable(t *testing.T) {
	store, db := setupGormStore(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = store.GetStatus(context.Background(), "u1")
	assert.Equal(t, domain.KindStoreUnavailable, domain.KindOf(err))
	assert.Error(t, store.Ping(context.Background()))
}
