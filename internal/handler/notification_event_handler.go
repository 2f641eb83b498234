package handler

import (
	"context"

	"go.uber.org/zap"

	"presence-notify/internal/dispatcher"
	"presence-notify/internal/domain"
	"presence-notify/internal/events"
)

// Dispatcher routes notifications to live connections.
type Dispatcher interface {
	OnMessageCreated(ctx context.Context, evt domain.MessageCreated) dispatcher.Report
	OnPresenceChanged(ctx context.Context, evt domain.PresenceChanged) dispatcher.Report
}

// NotificationEventHandler feeds message and presence events to the dispatcher.
type NotificationEventHandler struct {
	dispatcher Dispatcher
	logger     *zap.Logger
}

func NewNotificationEventHandler(d Dispatcher, logger *zap.Logger) *NotificationEventHandler {
	return &NotificationEventHandler{
		dispatcher: d,
		logger:     logger,
	}
}

func (h *NotificationEventHandler) Register(bus events.Bus) error {
	if err := bus.Subscribe(domain.EventMessageCreated, h.handleMessageCreated); err != nil {
		return err
	}
	return bus.Subscribe(domain.EventUserPresenceChanged, h.handlePresenceChanged)
}

func (h *NotificationEventHandler) handleMessageCreated(ctx context.Context, subject string, data []byte) error {
	var evt domain.MessageCreated
	if err := decode(subject, data, &evt); err != nil {
		return err
	}
	if evt.ReceiverID == "" {
		return domain.NewInvalidArgument("MISSING_RECEIVER_ID", "message.created without receiverId")
	}

	h.dispatcher.OnMessageCreated(ctx, evt)
	return nil
}

func (h *NotificationEventHandler) handlePresenceChanged(ctx context.Context, subject string, data []byte) error {
	var evt domain.PresenceChanged
	if err := decode(subject, data, &evt); err != nil {
		return err
	}
	if evt.UserID == "" || !evt.Status.Valid() {
		return domain.NewInvalidArgument("INVALID_PAYLOAD", "presence change needs userId and a known status")
	}

	h.dispatcher.OnPresenceChanged(ctx, evt)
	return nil
}
