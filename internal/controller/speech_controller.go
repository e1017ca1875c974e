package controller

import (
	"speech-rehearsal-be/internal/dto"
	"speech-rehearsal-be/internal/pkg/serverutils"
	"speech-rehearsal-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISpeechController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	ListByUser(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Summary(ctx *fiber.Ctx) error
	Rename(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type speechController struct {
	speechService service.ISpeechService
}

func NewSpeechController(speechService service.ISpeechService) ISpeechController {
	return &speechController{
		speechService: speechService,
	}
}

func (c *speechController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/speech")
	h.Post("/", c.Create)
	h.Get("/user/:userId", c.ListByUser)
	h.Patch("/name/:id", c.Rename)
	h.Get("/:id/summary", c.Summary)
	h.Get("/:id", c.Show)
	h.Delete("/:id", c.Delete)
}

// Create accepts the legacy two-part body; only userId and name are used, the
// rest is generated.
func (c *speechController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateSpeechRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.speechService.Create(ctx.UserContext(), req.Speech.UserId, req.Speech.Name)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(res)
}

func (c *speechController) ListByUser(ctx *fiber.Ctx) error {
	res, err := c.speechService.ListByUser(ctx.UserContext(), ctx.Params("userId"))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *speechController) Show(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.speechService.Get(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *speechController) Summary(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.speechService.Summary(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *speechController) Rename(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.RenameSpeechRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.speechService.Rename(ctx.UserContext(), id, req.Name)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *speechController) Delete(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.speechService.Delete(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
