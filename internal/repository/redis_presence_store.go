package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"presence-notify/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	usersKey          = "users"
	statusKeyPrefix   = "user:status:"
	lastSeenKeyPrefix = "user:last_seen:"
)

// KEYS: users, status, last_seen. ARGV: userId, status, lastSeen millis.
var registerScript = redis.NewScript(`
local added = redis.call('SADD', KEYS[1], ARGV[1])
if added == 1 then
  redis.call('SET', KEYS[2], ARGV[2])
  redis.call('SET', KEYS[3], ARGV[3])
end
return added
`)

// KEYS: last_seen. ARGV: lastSeen millis.
var touchScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local at = tonumber(ARGV[1])
if at > current then
  redis.call('SET', KEYS[1], ARGV[1])
  return 1
end
return 0
`)

type RedisPresenceStore struct {
	rdb *redis.Client
}

func NewRedisPresenceStore(rdb *redis.Client) *RedisPresenceStore {
	return &RedisPresenceStore{rdb: rdb}
}

func statusKey(userID string) string   { return statusKeyPrefix + userID }
func lastSeenKey(userID string) string { return lastSeenKeyPrefix + userID }

func (s *RedisPresenceStore) RegisterUser(ctx context.Context, userID string, at time.Time) (bool, error) {
	added, err := registerScript.Run(ctx, s.rdb,
		[]string{usersKey, statusKey(userID), lastSeenKey(userID)},
		userID, string(domain.PresenceStatusOffline), at.UnixMilli(),
	).Int()
	if err != nil {
		return false, domain.NewStoreUnavailable("register", err)
	}
	return added == 1, nil
}

// SetStatus also records the user as known, so a login for a user whose
// creation event was lost still yields a queryable record.
func (s *RedisPresenceStore) SetStatus(ctx context.Context, userID string, status domain.PresenceStatus, at time.Time) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, usersKey, userID)
		pipe.Set(ctx, statusKey(userID), string(status), 0)
		pipe.SetNX(ctx, lastSeenKey(userID), at.UnixMilli(), 0)
		return nil
	})
	if err != nil {
		return domain.NewStoreUnavailable("set status", err)
	}
	return nil
}

func (s *RedisPresenceStore) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	if err := touchScript.Run(ctx, s.rdb, []string{lastSeenKey(userID)}, at.UnixMilli()).Err(); err != nil {
		return domain.NewStoreUnavailable("touch last seen", err)
	}
	return nil
}

func (s *RedisPresenceStore) GetStatus(ctx context.Context, userID string) (*domain.UserPresence, error) {
	pipe := s.rdb.Pipeline()
	member := pipe.SIsMember(ctx, usersKey, userID)
	status := pipe.Get(ctx, statusKey(userID))
	lastSeen := pipe.Get(ctx, lastSeenKey(userID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, domain.NewStoreUnavailable("get status", err)
	}

	if !member.Val() {
		return nil, userNotFound(userID)
	}

	presence := &domain.UserPresence{UserID: userID, Status: domain.PresenceStatusOffline}
	if raw, err := status.Result(); err == nil {
		if parsed, perr := domain.ParseStatus(raw); perr == nil {
			presence.Status = parsed
		}
	}
	if raw, err := lastSeen.Result(); err == nil {
		if millis, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			presence.LastSeen = time.UnixMilli(millis)
		}
	}
	return presence, nil
}

func (s *RedisPresenceStore) ListKnownUsers(ctx context.Context) ([]string, error) {
	users, err := s.rdb.SMembers(ctx, usersKey).Result()
	if err != nil {
		return nil, domain.NewStoreUnavailable("list users", err)
	}
	return users, nil
}

func (s *RedisPresenceStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return domain.NewStoreUnavailable("ping", err)
	}
	return nil
}
