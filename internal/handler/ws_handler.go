package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"presence-notify/internal/domain"
	"presence-notify/internal/metrics"
	"presence-notify/internal/registry"
	"presence-notify/internal/websocket"
)

var upgrader = gorillaws.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WSHandler admits WebSocket connections into the connection registry.
type WSHandler struct {
	registry *registry.ConnectionRegistry
	resolver websocket.IdentityResolver
	cfg      websocket.Config
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewWSHandler(
	reg *registry.ConnectionRegistry,
	resolver websocket.IdentityResolver,
	cfg websocket.Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *WSHandler {
	return &WSHandler{
		registry: reg,
		resolver: resolver,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
	}
}

// HandleWebSocket rejects handshakes without a resolvable user before upgrading,
// so an unidentified connection never reaches the registry.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	userID, err := h.resolver.Resolve(c.Request)
	if err != nil {
		h.metrics.ConnectionRejected()
		h.logger.Warn("WebSocket connection rejected", zap.String("remote", c.ClientIP()), zap.Error(err))
		respondUnauthorized(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := websocket.NewClient(conn, userID, h.cfg, h.logger)
	connectionID, err := h.registry.Register(userID, client)
	if err != nil {
		h.logger.Error("Failed to register connection", zap.String("userId", userID), zap.Error(err))
		_ = client.Close()
		return
	}
	h.metrics.ConnectionOpened()

	h.logger.Info("Client connected",
		zap.String("connectionId", connectionID),
		zap.String("userId", userID),
	)

	if err := client.Send(domain.ConnectionStatusEvent, domain.ConnectionStatus{Connected: true, UserID: userID}); err != nil {
		h.logger.Warn("Failed to acknowledge connection", zap.String("connectionId", connectionID), zap.Error(err))
	}

	client.Run(func() {
		if h.registry.Unregister(connectionID) {
			h.metrics.ConnectionClosed()
		}
		h.logger.Info("Client disconnected",
			zap.String("connectionId", connectionID),
			zap.String("userId", userID),
		)
	})
}

// Stats reports registered users and connections.
func (h *WSHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.Stats())
}

func respondUnauthorized(c *gin.Context, err error) {
	f := domain.Describe(err)
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   gin.H{"code": "UNAUTHORIZED", "message": f.Message},
	})
}
