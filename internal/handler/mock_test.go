package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"presence-notify/internal/dispatcher"
	"presence-notify/internal/domain"
	"presence-notify/internal/events"
)

// MockPresenceService is a mock implementation of service.PresenceService
type MockPresenceService struct {
	mock.Mock
}

func (m *MockPresenceService) HandleUserCreated(ctx context.Context, evt domain.UserCreated) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockPresenceService) HandleUserLoggedIn(ctx context.Context, evt domain.UserLoggedIn) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockPresenceService) HandleUserLoggedOut(ctx context.Context, evt domain.UserLoggedOut) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockPresenceService) GetUserStatus(ctx context.Context, userID string) (*domain.UserPresence, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserPresence), args.Error(1)
}

func (m *MockPresenceService) GetOnlineUsers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockDispatcher is a mock implementation of Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) OnMessageCreated(ctx context.Context, evt domain.MessageCreated) dispatcher.Report {
	args := m.Called(ctx, evt)
	return args.Get(0).(dispatcher.Report)
}

func (m *MockDispatcher) OnPresenceChanged(ctx context.Context, evt domain.PresenceChanged) dispatcher.Report {
	args := m.Called(ctx, evt)
	return args.Get(0).(dispatcher.Report)
}

// captureBus records subscriptions so tests can invoke handlers directly.
type captureBus struct {
	handlers   map[string]events.Handler
	responders map[string]events.RequestHandler
}

func newCaptureBus() *captureBus {
	return &captureBus{
		handlers:   map[string]events.Handler{},
		responders: map[string]events.RequestHandler{},
	}
}

func (b *captureBus) Publish(context.Context, string, any) error { return nil }

func (b *captureBus) Subscribe(subject string, h events.Handler) error {
	b.handlers[subject] = h
	return nil
}

func (b *captureBus) Respond(subject string, h events.RequestHandler) error {
	b.responders[subject] = h
	return nil
}

func (b *captureBus) Close() error { return nil }
