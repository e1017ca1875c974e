package controller

import (
	"speech-rehearsal-be/internal/dto"
	"speech-rehearsal-be/internal/pkg/apperror"
	"speech-rehearsal-be/internal/pkg/serverutils"
	"speech-rehearsal-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IRehearsalController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	UpdateType(ctx *fiber.Ctx) error
	UpdateContent(ctx *fiber.Ctx) error
	UpdateVideoUrl(ctx *fiber.Ctx) error
	UpdateDeliveryAnalysis(ctx *fiber.Ctx) error
	UpdateContentAnalysis(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	DeleteCascading(ctx *fiber.Ctx) error
	Analyze(ctx *fiber.Ctx) error
	UploadVideo(ctx *fiber.Ctx) error
	Playback(ctx *fiber.Ctx) error
}

type rehearsalController struct {
	rehearsalService service.IRehearsalService
	analysisService  service.IAnalysisService
}

func NewRehearsalController(rehearsalService service.IRehearsalService, analysisService service.IAnalysisService) IRehearsalController {
	return &rehearsalController{
		rehearsalService: rehearsalService,
		analysisService:  analysisService,
	}
}

func (c *rehearsalController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/rehearsal")
	h.Post("/", c.Create)
	h.Patch("/type/:id", c.UpdateType)
	h.Patch("/content/:id", c.UpdateContent)
	h.Patch("/video_url/:id", c.UpdateVideoUrl)
	h.Patch("/delivery_analysis/:id", c.UpdateDeliveryAnalysis)
	h.Patch("/content_analysis/:id", c.UpdateContentAnalysis)
	h.Post("/analyze/:id", c.Analyze)
	h.Post("/video/:id", c.UploadVideo)
	h.Get("/playback/:id", c.Playback)
	h.Delete("/cascade/:id", c.DeleteCascading)
	h.Get("/:id", c.Show)
	h.Delete("/:id", c.Delete)
}

func (c *rehearsalController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateRehearsalRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	speechId, err := uuid.Parse(req.Speech)
	if err != nil {
		return apperror.Validation("invalid speech id %q", req.Speech)
	}

	res, err := c.rehearsalService.Create(ctx.UserContext(), speechId)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(res)
}

func (c *rehearsalController) Show(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.rehearsalService.Get(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *rehearsalController) UpdateType(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateRehearsalTypeRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.rehearsalService.UpdateType(ctx.UserContext(), id, req.Analysis)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *rehearsalController) UpdateContent(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateRehearsalContentRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.rehearsalService.UpdateContent(ctx.UserContext(), id, req.Content)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *rehearsalController) UpdateVideoUrl(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateRehearsalVideoRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.rehearsalService.UpdateVideo(ctx.UserContext(), id, req.VideoUrl, req.Duration)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *rehearsalController) UpdateDeliveryAnalysis(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateDeliveryAnalysisRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.rehearsalService.UpdateDeliveryAnalysis(ctx.UserContext(), id, req.DeliveryAnalysis)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *rehearsalController) UpdateContentAnalysis(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateContentAnalysisRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.rehearsalService.UpdateContentAnalysis(ctx.UserContext(), id, req.ContentAnalysis)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *rehearsalController) Delete(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.rehearsalService.Delete(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *rehearsalController) DeleteCascading(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.rehearsalService.DeleteCascading(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *rehearsalController) Analyze(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.analysisService.Analyze(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

// UploadVideo expects a multipart form with the recording under "file".
func (c *rehearsalController) UploadVideo(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return apperror.Validation("file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	res, err := c.rehearsalService.UploadVideo(ctx.UserContext(), id, fileHeader.Filename, file)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *rehearsalController) Playback(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.rehearsalService.Playback(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
