package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"presence-notify/internal/config"
	"presence-notify/internal/handler"
	"presence-notify/internal/metrics"
	"presence-notify/internal/middleware"
	"presence-notify/internal/registry"
	"presence-notify/internal/service"
	"presence-notify/internal/websocket"
)

// Common carries what both services mount the same way.
type Common struct {
	Config   *config.Config
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Checks   []handler.Check
	Logger   *zap.Logger
}

type PresenceDeps struct {
	Common
	Service service.PresenceService
	// Validator guards the HTTP query routes when set.
	Validator middleware.TokenValidator
}

type NotificationDeps struct {
	Common
	Registry  *registry.ConnectionRegistry
	Resolver  websocket.IdentityResolver
	WebSocket websocket.Config
}

func newEngine(c Common, service string) (*gin.Engine, *gin.RouterGroup) {
	if c.Config.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(c.Logger))
	r.Use(middleware.Logger(c.Logger))
	r.Use(middleware.Metrics(c.Metrics))

	healthHandler := handler.NewHealthHandler(service, c.Checks...)

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(metricsHandler(c.Gatherer)))

	api := r.Group(c.Config.Server.BasePath)
	api.GET("/health", healthHandler.Health)
	api.GET("/ready", healthHandler.Ready)

	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Route not found",
			},
		})
	})

	return r, api
}

func metricsHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// SetupPresence mounts the presence query API.
func SetupPresence(d PresenceDeps) *gin.Engine {
	r, api := newEngine(d.Common, "presence-service")

	presenceHandler := handler.NewPresenceHandler(d.Service, d.Logger)

	presence := api.Group("/presence")
	if d.Validator != nil {
		presence.Use(middleware.AuthMiddleware(d.Validator))
	}
	presence.GET("/users/online", presenceHandler.GetOnlineUsers)
	presence.GET("/users/:userId/status", presenceHandler.GetUserStatus)

	return r
}

// SetupNotification mounts the WebSocket gateway.
func SetupNotification(d NotificationDeps) *gin.Engine {
	r, api := newEngine(d.Common, "notification-service")

	wsHandler := handler.NewWSHandler(d.Registry, d.Resolver, d.WebSocket, d.Metrics, d.Logger)

	api.GET("/ws", wsHandler.HandleWebSocket)
	api.GET("/connections/stats", wsHandler.Stats)

	return r
}
