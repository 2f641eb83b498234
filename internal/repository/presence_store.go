package repository

import (
	"context"
	"time"

	"presence-notify/internal/domain"
)

// PresenceStore is the durable user -> {status, lastSeen} state plus the set of known users.
// Every operation is atomic for a single user. Driver failures surface as
// domain.ErrStoreUnavailable, unknown users as domain.ErrNotFound.
type PresenceStore interface {
	// RegisterUser seeds an offline record with lastSeen = at. It reports false
	// without touching the record when the user is already known.
	RegisterUser(ctx context.Context, userID string, at time.Time) (bool, error)
	// SetStatus records status for userID. A user without a record is created
	// with lastSeen = at; an existing lastSeen is left alone.
	SetStatus(ctx context.Context, userID string, status domain.PresenceStatus, at time.Time) error
	// TouchLastSeen never moves lastSeen backwards.
	TouchLastSeen(ctx context.Context, userID string, at time.Time) error
	GetStatus(ctx context.Context, userID string) (*domain.UserPresence, error)
	ListKnownUsers(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

func userNotFound(userID string) error {
	return domain.NewNotFound("USER_NOT_FOUND", "User not found: "+userID)
}
