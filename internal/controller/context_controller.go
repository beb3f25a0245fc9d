package controller

import (
	"legal-intake-be/internal/pkg/serverutils"
	"legal-intake-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IContextController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
}

type contextController struct {
	contexts service.IContextService
}

func NewContextController(contexts service.IContextService) IContextController {
	return &contextController{contexts: contexts}
}

func (c *contextController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/context")
	h.Get("/:sessionId", c.Show)
}

// Show is read-only; turns are the only writers.
func (c *contextController) Show(ctx *fiber.Ctx) error {
	teamID := ctx.Query("teamId")
	if teamID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "teamId is required")
	}
	if !serverutils.TeamMatches(ctx, teamID) {
		return fiber.NewError(fiber.StatusForbidden, "Session does not belong to this team")
	}

	conv, err := c.contexts.Get(ctx.UserContext(), ctx.Params("sessionId"), teamID)
	if err != nil {
		return err
	}
	if conv == nil {
		return fiber.NewError(fiber.StatusNotFound, "Context not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get context", conv))
}
