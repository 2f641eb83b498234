package handler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"presence-notify/internal/domain"
	"presence-notify/internal/events"
	"presence-notify/internal/service"
)

// PresenceEventHandler applies user lifecycle events to the presence service.
type PresenceEventHandler struct {
	presenceService service.PresenceService
	logger          *zap.Logger
}

func NewPresenceEventHandler(presenceService service.PresenceService, logger *zap.Logger) *PresenceEventHandler {
	return &PresenceEventHandler{
		presenceService: presenceService,
		logger:          logger,
	}
}

func (h *PresenceEventHandler) Register(bus events.Bus) error {
	subs := map[string]events.Handler{
		domain.EventUserCreated:   h.handleUserCreated,
		domain.EventUserLoggedIn:  h.handleUserLoggedIn,
		domain.EventUserLoggedOut: h.handleUserLoggedOut,
	}
	for subject, fn := range subs {
		if err := bus.Subscribe(subject, fn); err != nil {
			return err
		}
	}
	return nil
}

func decode(subject string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return domain.NewInvalidArgument("INVALID_PAYLOAD", "malformed "+subject+" event: "+err.Error())
	}
	return nil
}

func (h *PresenceEventHandler) handleUserCreated(ctx context.Context, subject string, data []byte) error {
	var evt domain.UserCreated
	if err := decode(subject, data, &evt); err != nil {
		return err
	}
	return h.presenceService.HandleUserCreated(ctx, evt)
}

func (h *PresenceEventHandler) handleUserLoggedIn(ctx context.Context, subject string, data []byte) error {
	var evt domain.UserLoggedIn
	if err := decode(subject, data, &evt); err != nil {
		return err
	}
	return h.presenceService.HandleUserLoggedIn(ctx, evt)
}

func (h *PresenceEventHandler) handleUserLoggedOut(ctx context.Context, subject string, data []byte) error {
	var evt domain.UserLoggedOut
	if err := decode(subject, data, &evt); err != nil {
		return err
	}
	return h.presenceService.HandleUserLoggedOut(ctx, evt)
}
