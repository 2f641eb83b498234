package handler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"presence-notify/internal/domain"
	"presence-notify/internal/events"
	"presence-notify/internal/service"
)

// PresenceQueryHandler answers presence queries arriving over request/reply.
type PresenceQueryHandler struct {
	presenceService service.PresenceService
	logger          *zap.Logger
}

func NewPresenceQueryHandler(presenceService service.PresenceService, logger *zap.Logger) *PresenceQueryHandler {
	return &PresenceQueryHandler{
		presenceService: presenceService,
		logger:          logger,
	}
}

func (h *PresenceQueryHandler) Register(r events.Responder) error {
	if err := r.Respond(domain.QueryGetUserStatus, h.GetUserStatus); err != nil {
		return err
	}
	return r.Respond(domain.QueryGetOnlineUsers, h.GetOnlineUsers)
}

func (h *PresenceQueryHandler) GetUserStatus(ctx context.Context, data []byte) any {
	var req domain.GetUserStatusRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return statusFailure(domain.NewInvalidArgument("INVALID_PAYLOAD", "malformed get_user_status request"))
	}

	presence, err := h.presenceService.GetUserStatus(ctx, req.UserID)
	if err != nil {
		if domain.KindOf(err) != domain.KindNotFound {
			h.logger.Error("get_user_status failed", zap.String("userId", req.UserID), zap.Error(err))
		}
		return statusFailure(err)
	}

	return domain.UserStatusReply{
		Success:  true,
		Status:   presence.Status,
		LastSeen: presence.LastSeenMillis(),
	}
}

func (h *PresenceQueryHandler) GetOnlineUsers(ctx context.Context, _ []byte) any {
	users, err := h.presenceService.GetOnlineUsers(ctx)
	if err != nil {
		h.logger.Error("get_online_users failed", zap.Error(err))
		f := domain.Describe(err)
		return domain.OnlineUsersReply{Success: false, Users: []string{}, Message: f.Message, Code: f.Code}
	}
	return domain.OnlineUsersReply{Success: true, Users: users}
}

func statusFailure(err error) domain.UserStatusReply {
	f := domain.Describe(err)
	return domain.UserStatusReply{Success: false, Message: f.Message, Code: f.Code}
}
