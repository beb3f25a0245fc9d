package controller

import (
	"bufio"
	"bytes"
	"context"

	"legal-intake-be/internal/dto"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/internal/pkg/serverutils"
	"legal-intake-be/internal/service"
	"legal-intake-be/pkg/intake/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAgentController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
}

type agentController struct {
	turns  service.ITurnService
	logger logger.ILogger
}

func NewAgentController(turns service.ITurnService, log logger.ILogger) IAgentController {
	return &agentController{turns: turns, logger: log}
}

func (c *agentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/agent")
	h.Post("/stream", c.Stream)
}

// Stream answers one turn as server-sent events. Request errors are reported
// as a 400 carrying a single error frame so SSE clients can parse them.
func (c *agentController) Stream(ctx *fiber.Ctx) error {
	var req dto.AgentStreamRequest
	if err := ctx.BodyParser(&req); err != nil {
		return c.reject(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return c.reject(ctx, fiber.StatusBadRequest, err.Error())
	}
	if !serverutils.TeamMatches(ctx, req.TeamID) {
		return c.reject(ctx, fiber.StatusForbidden, "Session does not belong to this team")
	}

	// fasthttp reuses the request context once the handler returns, so the
	// turn runs on its own context and is cancelled when the writer stops.
	turnCtx, cancel := context.WithCancel(context.WithoutCancel(ctx.UserContext()))
	events := c.turns.Stream(turnCtx, service.TurnRequest{
		SessionID:   req.SessionID,
		TeamID:      req.TeamID,
		Messages:    req.EntityMessages(),
		Attachments: req.EntityAttachments(),
	})

	setStreamHeaders(ctx)
	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for ev := range events {
			if err := stream.WriteEvent(w, ev); err != nil {
				c.logger.Warn("AGENT", "Failed to encode stream event", map[string]interface{}{"type": string(ev.Type), "error": err.Error()})
				continue
			}
			if err := w.Flush(); err != nil {
				c.logger.Debug("AGENT", "Client disconnected", map[string]interface{}{"session_id": req.SessionID})
				return
			}
		}
	})
	return nil
}

func (c *agentController) reject(ctx *fiber.Ctx, status int, message string) error {
	var buf bytes.Buffer
	if err := stream.WriteEvent(&buf, stream.Error(message, uuid.NewString())); err != nil {
		return fiber.NewError(status, message)
	}
	setStreamHeaders(ctx)
	return ctx.Status(status).Send(buf.Bytes())
}

func setStreamHeaders(ctx *fiber.Ctx) {
	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")
}
