package handler

import (
	"speech-rehearsal-be/internal/pkg/apperror"
	"speech-rehearsal-be/internal/pkg/logger"
	"speech-rehearsal-be/internal/service"
	internalWS "speech-rehearsal-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// AnalysisStatusHandler streams analysis progress of one rehearsal over a
// websocket.
type AnalysisStatusHandler struct {
	rehearsalService service.IRehearsalService
	hub              *internalWS.Hub
	logger           logger.ILogger
}

func NewAnalysisStatusHandler(rehearsalService service.IRehearsalService, hub *internalWS.Hub, log logger.ILogger) *AnalysisStatusHandler {
	return &AnalysisStatusHandler{
		rehearsalService: rehearsalService,
		hub:              hub,
		logger:           log,
	}
}

func (h *AnalysisStatusHandler) ServeWs(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperror.Validation("invalid rehearsal id %q", c.Params("id"))
	}
	// Refuse the upgrade for rehearsals that do not exist.
	if _, err := h.rehearsalService.Get(c.UserContext(), id); err != nil {
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	rehearsalId := id.String()
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Debug("AnalysisStatusHandler", "Status stream opened", map[string]interface{}{"rehearsal_id": rehearsalId})
		internalWS.ServeWs(h.hub, conn, rehearsalId)
		h.logger.Debug("AnalysisStatusHandler", "Status stream closed", map[string]interface{}{"rehearsal_id": rehearsalId})
	})(c)
}

func (h *AnalysisStatusHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/rehearsal/:id", h.ServeWs)
}
