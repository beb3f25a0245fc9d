package handler

import (
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/internal/pkg/serverutils"
	internalWS "legal-intake-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// StatusHandler upgrades status watchers to a websocket bound to one session.
type StatusHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewStatusHandler(hub *internalWS.Hub, log logger.ILogger) *StatusHandler {
	return &StatusHandler{hub: hub, logger: log}
}

// ServeWs requires teamId when the request carries a token, so a session of
// another team cannot be watched.
func (h *StatusHandler) ServeWs(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "sessionId is required")
	}
	if teamID := c.Query("teamId"); !serverutils.TeamMatches(c, teamID) {
		return fiber.NewError(fiber.StatusForbidden, "Session does not belong to this team")
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("StatusHandler", "Starting status socket", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID)
		h.logger.Info("StatusHandler", "Status socket ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}

func (h *StatusHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/status/ws/:sessionId", h.ServeWs)
}
