package repository

import (
	"context"
	"errors"
	"time"

	"presence-notify/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormPresenceStore struct {
	db *gorm.DB
}

func NewGormPresenceStore(db *gorm.DB) *GormPresenceStore {
	return &GormPresenceStore{db: db}
}

// Timestamps are kept in UTC at millisecond precision to match the wire form.
func normalize(at time.Time) time.Time {
	return at.UTC().Truncate(time.Millisecond)
}

func (s *GormPresenceStore) RegisterUser(ctx context.Context, userID string, at time.Time) (bool, error) {
	presence := &domain.UserPresence{
		UserID:   userID,
		Status:   domain.PresenceStatusOffline,
		LastSeen: normalize(at),
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(presence)
	if result.Error != nil {
		return false, domain.NewStoreUnavailable("register", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// SetStatus upserts on user_id and only updates status, so at only lands on insert.
func (s *GormPresenceStore) SetStatus(ctx context.Context, userID string, status domain.PresenceStatus, at time.Time) error {
	presence := &domain.UserPresence{
		UserID:   userID,
		Status:   status,
		LastSeen: normalize(at),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status"}),
	}).Create(presence).Error
	if err != nil {
		return domain.NewStoreUnavailable("set status", err)
	}
	return nil
}

func (s *GormPresenceStore) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&domain.UserPresence{}).
		Where("user_id = ? AND last_seen < ?", userID, normalize(at)).
		Update("last_seen", normalize(at)).Error
	if err != nil {
		return domain.NewStoreUnavailable("touch last seen", err)
	}
	return nil
}

func (s *GormPresenceStore) GetStatus(ctx context.Context, userID string) (*domain.UserPresence, error) {
	var presence domain.UserPresence
	err := s.db.WithContext(ctx).First(&presence, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userNotFound(userID)
		}
		return nil, domain.NewStoreUnavailable("get status", err)
	}
	return &presence, nil
}

func (s *GormPresenceStore) ListKnownUsers(ctx context.Context) ([]string, error) {
	var users []string
	if err := s.db.WithContext(ctx).Model(&domain.UserPresence{}).Pluck("user_id", &users).Error; err != nil {
		return nil, domain.NewStoreUnavailable("list users", err)
	}
	return users, nil
}

func (s *GormPresenceStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return domain.NewStoreUnavailable("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return domain.NewStoreUnavailable("ping", err)
	}
	return nil
}
