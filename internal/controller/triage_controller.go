package controller

import (
	"itsm-triage-be/internal/dto"
	"itsm-triage-be/internal/pkg/serverutils"
	"itsm-triage-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITriageController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	TriageTicket(ctx *fiber.Ctx) error
	ClassifyTicket(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
}

type triageController struct {
	triageService service.ITriageService
}

func NewTriageController(triageService service.ITriageService) ITriageController {
	return &triageController{
		triageService: triageService,
	}
}

func (c *triageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/triage/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("message", c.SendMessage)
	h.Post("ticket", c.TriageTicket)
	h.Post("classify", c.ClassifyTicket)
	h.Get(":conversationId/history", c.GetHistory)
}

func (c *triageController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendTriageMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.triageService.SendMessage(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process triage message", res))
}

func (c *triageController) TriageTicket(ctx *fiber.Ctx) error {
	var req dto.TriageTicketRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.triageService.TriageTicket(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success triage ticket", res))
}

func (c *triageController) ClassifyTicket(ctx *fiber.Ctx) error {
	var req dto.ClassifyTicketRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.triageService.ClassifyTicket(&req)
	return ctx.JSON(serverutils.SuccessResponse("Success classify ticket", res))
}

func (c *triageController) GetHistory(ctx *fiber.Ctx) error {
	conversationId := ctx.Params("conversationId")
	if conversationId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing conversation id")
	}

	res, err := c.triageService.History(ctx.Context(), conversationId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get conversation history", res))
}
