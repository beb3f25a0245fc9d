package controller

import (
	"errors"

	"legal-intake-be/internal/pkg/serverutils"
	"legal-intake-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IStatusController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
}

type statusController struct {
	status service.IStatusService
}

func NewStatusController(status service.IStatusService) IStatusController {
	return &statusController{status: status}
}

func (c *statusController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/status")
	h.Get("/:id", c.Show)
}

func (c *statusController) Show(ctx *fiber.Ctx) error {
	rec, err := c.status.Get(ctx.UserContext(), ctx.Params("id"))
	if errors.Is(err, service.ErrStatusNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Status not found")
	}
	if err != nil {
		return err
	}
	if !serverutils.TeamMatches(ctx, rec.OrganizationID) {
		return fiber.NewError(fiber.StatusNotFound, "Status not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get status", rec))
}
