package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"presence-notify/internal/dispatcher"
	"presence-notify/internal/domain"
)

func TestNotificationEventHandler_MessageCreated(t *testing.T) {
	d := new(MockDispatcher)
	evt := domain.MessageCreated{MessageID: "m1", SenderID: "u2", ReceiverID: "u1", Content: "hello"}
	d.On("OnMessageCreated", mock.Anything, evt).Return(dispatcher.Report{Attempted: 1, Delivered: 1})

	bus := newCaptureBus()
	require.NoError(t, NewNotificationEventHandler(d, zap.NewNop()).Register(bus))

	err := bus.handlers[domain.EventMessageCreated](context.Background(), domain.EventMessageCreated,
		[]byte(`{"messageId":"m1","senderId":"u2","receiverId":"u1","content":"hello"}`))

	require.NoError(t, err)
	d.AssertExpectations(t)
}

func TestNotificationEventHandler_MessageWithoutReceiver(t *testing.T) {
	d := new(MockDispatcher)
	bus := newCaptureBus()
	require.NoError(t, NewNotificationEventHandler(d, zap.NewNop()).Register(bus))

	err := bus.handlers[domain.EventMessageCreated](context.Background(), domain.EventMessageCreated, []byte(`{"messageId":"m1"}`))

	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
	d.AssertNotCalled(t, "OnMessageCreated", mock.Anything, mock.Anything)
}

func TestNotificationEventHandler_PresenceChanged(t *testing.T) {
	d := new(MockDispatcher)
	evt := domain.PresenceChanged{UserID: "u1", Status: domain.PresenceStatusOffline}
	d.On("OnPresenceChanged", mock.Anything, evt).Return(dispatcher.Report{})

	bus := newCaptureBus()
	require.NoError(t, NewNotificationEventHandler(d, zap.NewNop()).Register(bus))

	require.NoError(t, bus.handlers[domain.EventUserPresenceChanged](context.Background(), domain.EventUserPresenceChanged,
		[]byte(`{"userId":"u1","status":"offline"}`)))
	err := bus.handlers[domain.EventUserPresenceChanged](context.Background(), domain.EventUserPresenceChanged,
		[]byte(`{"userId":"u1","status":"away"}`))

	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
	d.AssertNumberOfCalls(t, "OnPresenceChanged", 1)
}
