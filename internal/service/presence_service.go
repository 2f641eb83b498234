package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"presence-notify/internal/domain"
	"presence-notify/internal/metrics"
	"presence-notify/internal/repository"
)

// EventPublisher emits presence changes to other services.
type EventPublisher interface {
	PublishPresenceChanged(ctx context.Context, evt domain.PresenceChanged) error
}

// PresenceService defines the interface for presence business logic
type PresenceService interface {
	HandleUserCreated(ctx context.Context, evt domain.UserCreated) error
	HandleUserLoggedIn(ctx context.Context, evt domain.UserLoggedIn) error
	HandleUserLoggedOut(ctx context.Context, evt domain.UserLoggedOut) error
	GetUserStatus(ctx context.Context, userID string) (*domain.UserPresence, error)
	GetOnlineUsers(ctx context.Context) ([]string, error)
}

type presenceServiceImpl struct {
	store     repository.PresenceStore
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes a PresenceService.
type Option func(*presenceServiceImpl)

// WithClock replaces time.Now as the source of lastSeen timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *presenceServiceImpl) {
		s.now = now
	}
}

// NewPresenceService creates a new instance of PresenceService
func NewPresenceService(
	store repository.PresenceStore,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts ...Option,
) PresenceService {
	s := &presenceServiceImpl{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireUserID(userID string) error {
	if userID == "" {
		return domain.NewInvalidArgument("MISSING_USER_ID", "userId is required")
	}
	return nil
}

// HandleUserCreated registers the user as offline. A duplicate creation event
// leaves the existing record untouched.
func (s *presenceServiceImpl) HandleUserCreated(ctx context.Context, evt domain.UserCreated) error {
	if err := requireUserID(evt.UserID); err != nil {
		return err
	}

	start := time.Now()
	created, err := s.store.RegisterUser(ctx, evt.UserID, s.now())
	s.metrics.RecordStoreOperation("register_user", time.Since(start), err)
	if err != nil {
		s.logger.Error("Failed to register user presence",
			zap.String("userId", evt.UserID),
			zap.Error(err),
		)
		return err
	}

	if !created {
		s.logger.Debug("User already registered", zap.String("userId", evt.UserID))
		return nil
	}

	s.logger.Info("User presence registered",
		zap.String("userId", evt.UserID),
		zap.String("username", evt.Username),
	)
	return nil
}

func (s *presenceServiceImpl) HandleUserLoggedIn(ctx context.Context, evt domain.UserLoggedIn) error {
	if err := requireUserID(evt.UserID); err != nil {
		return err
	}
	if err := s.transition(ctx, evt.UserID, domain.PresenceStatusOnline); err != nil {
		return err
	}

	s.emit(ctx, domain.PresenceChanged{
		UserID:   evt.UserID,
		Username: evt.Username,
		Status:   domain.PresenceStatusOnline,
	})
	return nil
}

func (s *presenceServiceImpl) HandleUserLoggedOut(ctx context.Context, evt domain.UserLoggedOut) error {
	if err := requireUserID(evt.UserID); err != nil {
		return err
	}
	if err := s.transition(ctx, evt.UserID, domain.PresenceStatusOffline); err != nil {
		return err
	}

	s.emit(ctx, domain.PresenceChanged{
		UserID: evt.UserID,
		Status: domain.PresenceStatusOffline,
	})
	return nil
}

// transition commits status and lastSeen. Nothing is emitted unless both writes succeed.
func (s *presenceServiceImpl) transition(ctx context.Context, userID string, status domain.PresenceStatus) error {
	at := s.now()

	start := time.Now()
	err := s.store.SetStatus(ctx, userID, status, at)
	s.metrics.RecordStoreOperation("set_status", time.Since(start), err)
	if err != nil {
		s.logger.Error("Failed to set presence status",
			zap.String("userId", userID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return err
	}

	start = time.Now()
	err = s.store.TouchLastSeen(ctx, userID, at)
	s.metrics.RecordStoreOperation("touch_last_seen", time.Since(start), err)
	if err != nil {
		s.logger.Error("Failed to update last seen",
			zap.String("userId", userID),
			zap.Error(err),
		)
		return err
	}

	s.metrics.RecordPresenceTransition(status)
	s.logger.Info("Presence updated",
		zap.String("userId", userID),
		zap.String("status", string(status)),
	)
	return nil
}

func (s *presenceServiceImpl) emit(ctx context.Context, evt domain.PresenceChanged) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPresenceChanged(ctx, evt); err != nil {
		s.logger.Warn("Failed to publish presence change",
			zap.String("userId", evt.UserID),
			zap.String("status", string(evt.Status)),
			zap.Error(err),
		)
	}
}

func (s *presenceServiceImpl) GetUserStatus(ctx context.Context, userID string) (*domain.UserPresence, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}

	start := time.Now()
	presence, err := s.store.GetStatus(ctx, userID)
	s.metrics.RecordStoreOperation("get_status", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return presence, nil
}

// GetOnlineUsers scans every known user. The cost is one store round-trip per
// known user; users that vanish between list and lookup are skipped.
func (s *presenceServiceImpl) GetOnlineUsers(ctx context.Context) ([]string, error) {
	start := time.Now()
	users, err := s.store.ListKnownUsers(ctx)
	s.metrics.RecordStoreOperation("list_known_users", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	online := make([]string, 0)
	for _, userID := range users {
		presence, err := s.store.GetStatus(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			s.metrics.RecordStoreOperation("get_status", 0, err)
			return nil, err
		}
		if presence.IsOnline() {
			online = append(online, userID)
		}
	}
	return online, nil
}
