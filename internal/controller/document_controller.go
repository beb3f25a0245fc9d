package controller

import (
	"legal-intake-be/internal/dto"
	"legal-intake-be/internal/pkg/serverutils"
	"legal-intake-be/internal/service"
	"legal-intake-be/pkg/intake/agent"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Analyze(ctx *fiber.Ctx) error
}

type documentController struct {
	publisher service.IAnalysisPublisherService
}

func NewDocumentController(publisher service.IAnalysisPublisherService) IDocumentController {
	return &documentController{publisher: publisher}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/documents")
	h.Post("/analyze", c.Analyze)
}

func (c *documentController) Analyze(ctx *fiber.Ctx) error {
	var req dto.AnalyzeDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if !serverutils.TeamMatches(ctx, req.TeamID) {
		return fiber.NewError(fiber.StatusForbidden, "Session does not belong to this team")
	}

	statusID, err := c.publisher.EnqueueAnalysis(ctx.UserContext(), req.SessionID, req.TeamID, agent.DocumentFile{
		Key:  req.Key,
		Name: req.Name,
		Mime: req.Mime,
		Size: req.Size,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Could not queue the document for analysis")
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document queued for analysis", dto.AnalyzeDocumentResponse{StatusID: statusID}))
}
