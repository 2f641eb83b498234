package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"presence-notify/internal/domain"
	"presence-notify/internal/service"
)

type PresenceHandler struct {
	presenceService service.PresenceService
	logger          *zap.Logger
}

func NewPresenceHandler(presenceService service.PresenceService, logger *zap.Logger) *PresenceHandler {
	return &PresenceHandler{
		presenceService: presenceService,
		logger:          logger,
	}
}

// GetUserStatus returns a user's status and last-seen time.
// Unknown users are 404, never reported as offline.
func (h *PresenceHandler) GetUserStatus(c *gin.Context) {
	userID := c.Param("userId")

	presence, err := h.presenceService.GetUserStatus(c.Request.Context(), userID)
	if err != nil {
		if domain.KindOf(err) != domain.KindNotFound {
			h.logger.Error("failed to get user status", zap.String("userId", userID), zap.Error(err))
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, domain.UserStatusReply{
		Success:  true,
		Status:   presence.Status,
		LastSeen: presence.LastSeenMillis(),
	})
}

// GetOnlineUsers returns online users
func (h *PresenceHandler) GetOnlineUsers(c *gin.Context) {
	users, err := h.presenceService.GetOnlineUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to get online users", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, domain.OnlineUsersReply{Success: true, Users: users})
}
