package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-stats/internal/adapter/dto/common"
	"github.com/johnquangdev/meeting-stats/pkg/config"
	pkgmw "github.com/johnquangdev/meeting-stats/pkg/middleware"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	authMiddleware echo.MiddlewareFunc
	statsHandler   *Stats
	relay          *Relay
	webhookHandler *WebhookHandler
	metrics        http.Handler
}

// NewRouter creates a new router with all handlers. webhookHandler and
// metrics may be nil, in which case their routes are not registered.
func NewRouter(
	cfg *config.Config,
	authMiddleware echo.MiddlewareFunc,
	statsHandler *Stats,
	relay *Relay,
	webhookHandler *WebhookHandler,
	metrics http.Handler,
) *Router {
	return &Router{
		cfg:            cfg,
		authMiddleware: authMiddleware,
		statsHandler:   statsHandler,
		relay:          relay,
		webhookHandler: webhookHandler,
		metrics:        metrics,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)
	if rt.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(rt.metrics))
	}

	api := e.Group("/api", rt.authMiddleware, pkgmw.RequireUser)
	rt.setupStatsRoutes(api)

	// The relay authenticates on its own: browsers cannot send headers on upgrade
	e.GET("/ws/stats", rt.relay.Serve)

	if rt.webhookHandler != nil {
		e.POST("/webhooks/livekit", rt.webhookHandler.HandleLiveKitWebhook)
	}
}

// setupStatsRoutes configures meeting statistics routes
func (rt *Router) setupStatsRoutes(g *echo.Group) {
	g.GET("/meeting-stats", rt.statsHandler.GetStats)
	g.POST("/meeting-stats/update", rt.statsHandler.UpdateStats)
	g.GET("/recent-meetings", rt.statsHandler.GetRecentMeetings)
	g.POST("/realtime/ticket", rt.statsHandler.IssueTicket)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, common.HealthResponse{
		Status:      "ok",
		Environment: rt.cfg.Server.Environment,
	})
}
