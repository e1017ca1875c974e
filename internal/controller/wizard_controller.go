package controller

import (
	"context"

	"speech-rehearsal-be/internal/dto"
	"speech-rehearsal-be/internal/pkg/logger"
	"speech-rehearsal-be/internal/pkg/serverutils"
	"speech-rehearsal-be/internal/service"
	"speech-rehearsal-be/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IWizardController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Rehearse(ctx *fiber.Ctx) error
	Next(ctx *fiber.Ctx) error
	Back(ctx *fiber.Ctx) error
	Exit(ctx *fiber.Ctx) error
	OpenSaved(ctx *fiber.Ctx) error
	DeleteSpeech(ctx *fiber.Ctx) error
	Guard(ctx *fiber.Ctx) error
	Session(ctx *fiber.Ctx) error
}

type wizardController struct {
	wizardService service.IWizardService
	sessionStore  session.Store
	secret        string
	logger        logger.ILogger
}

func NewWizardController(
	wizardService service.IWizardService,
	sessionStore session.Store,
	secret string,
	logger logger.ILogger,
) IWizardController {
	return &wizardController{
		wizardService: wizardService,
		sessionStore:  sessionStore,
		secret:        secret,
		logger:        logger,
	}
}

func (c *wizardController) RegisterRoutes(r fiber.Router) {
	sessions := serverutils.SessionMiddleware(c.sessionStore, c.secret, c.logger)

	h := r.Group("/wizard", sessions)
	h.Post("/start", c.Start)
	h.Post("/speech/:id/rehearse", c.Rehearse)
	h.Post("/rehearsal/:id/next", c.Next)
	h.Post("/rehearsal/:id/back", c.Back)
	h.Post("/rehearsal/:id/saved", c.OpenSaved)
	h.Post("/exit", c.Exit)
	h.Delete("/speech/:id", c.DeleteSpeech)
	h.Get("/guard", c.Guard)

	r.Get("/session", sessions, c.Session)
}

func (c *wizardController) Start(ctx *fiber.Ctx) error {
	var req dto.WizardStartRequest
	if len(ctx.Body()) > 0 {
		if err := parseBody(ctx, &req); err != nil {
			return err
		}
	}

	res, err := c.wizardService.Start(ctx.UserContext(), serverutils.CurrentSession(ctx), req.Name)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Rehearsal started", res))
}

func (c *wizardController) Rehearse(ctx *fiber.Ctx) error {
	speechId, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.wizardService.Rehearse(ctx.UserContext(), serverutils.CurrentSession(ctx), speechId)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Rehearsal started", res))
}

func (c *wizardController) Next(ctx *fiber.Ctx) error {
	return c.move(ctx, c.wizardService.Next)
}

func (c *wizardController) Back(ctx *fiber.Ctx) error {
	return c.move(ctx, c.wizardService.Back)
}

func (c *wizardController) move(ctx *fiber.Ctx, step func(context.Context, *session.Session, uuid.UUID, string) (*dto.WizardStateResponse, error)) error {
	rehearsalId, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.WizardStepRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := step(ctx.UserContext(), serverutils.CurrentSession(ctx), rehearsalId, req.Step)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *wizardController) Exit(ctx *fiber.Ctx) error {
	var req dto.WizardExitRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.wizardService.Exit(ctx.UserContext(), serverutils.CurrentSession(ctx), req.Confirm)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Rehearsal exited", res))
}

func (c *wizardController) OpenSaved(ctx *fiber.Ctx) error {
	rehearsalId, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.wizardService.OpenSaved(ctx.UserContext(), serverutils.CurrentSession(ctx), rehearsalId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *wizardController) DeleteSpeech(ctx *fiber.Ctx) error {
	speechId, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.wizardService.DeleteSpeech(ctx.UserContext(), serverutils.CurrentSession(ctx), speechId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Speech deleted", res))
}

func (c *wizardController) Guard(ctx *fiber.Ctx) error {
	res := c.wizardService.Guard(serverutils.CurrentSession(ctx), ctx.Query("path", "/"))
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *wizardController) Session(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success", dto.NewSessionResponse(serverutils.CurrentSession(ctx))))
}
