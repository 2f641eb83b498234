package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"presence-notify/internal/domain"
)

// MockPresenceStore is a mock implementation of repository.PresenceStore
type MockPresenceStore struct {
	mock.Mock
}

func (m *MockPresenceStore) RegisterUser(ctx context.Context, userID string, at time.Time) (bool, error) {
	args := m.Called(ctx, userID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockPresenceStore) SetStatus(ctx context.Context, userID string, status domain.PresenceStatus, at time.Time) error {
	args := m.Called(ctx, userID, status, at)
	return args.Error(0)
}

func (m *MockPresenceStore) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *MockPresenceStore) GetStatus(ctx context.Context, userID string) (*domain.UserPresence, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserPresence), args.Error(1)
}

func (m *MockPresenceStore) ListKnownUsers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPresenceStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishPresenceChanged(ctx context.Context, evt domain.PresenceChanged) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}
