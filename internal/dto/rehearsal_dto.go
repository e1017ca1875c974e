package dto

import (
	"time"

	"speech-rehearsal-be/internal/entity"

	"github.com/google/uuid"
)

type RehearsalResponse struct {
	Id               uuid.UUID                `json:"id"`
	Speech           uuid.UUID                `json:"speech"`
	Analysis         []entity.AnalysisKind    `json:"analysis"`
	Content          *entity.Content          `json:"content,omitempty"`
	VideoUrl         string                   `json:"videoUrl"`
	Duration         float64                  `json:"duration"`
	DeliveryAnalysis *entity.DeliveryAnalysis `json:"deliveryAnalysis,omitempty"`
	ContentAnalysis  *entity.ContentAnalysis  `json:"contentAnalysis,omitempty"`
	CurrentStep      int                      `json:"currentStep"`
	CreatedAt        time.Time                `json:"createdAt"`
	UpdatedAt        *time.Time               `json:"updatedAt"`
}

func NewRehearsalResponse(r *entity.Rehearsal) *RehearsalResponse {
	analysis := r.Analysis
	if analysis == nil {
		analysis = []entity.AnalysisKind{}
	}
	return &RehearsalResponse{
		Id:               r.Id,
		Speech:           r.SpeechId,
		Analysis:         analysis,
		Content:          r.Content,
		VideoUrl:         r.VideoUrl,
		Duration:         r.Duration,
		DeliveryAnalysis: r.DeliveryAnalysis,
		ContentAnalysis:  r.ContentAnalysis,
		CurrentStep:      r.CurrentStep,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type CreateRehearsalRequest struct {
	Speech string `json:"speech" validate:"required,uuid"`
}

type CreateRehearsalResponse struct {
	Rehearsal *RehearsalResponse `json:"rehearsal"`
}

// UpdateRehearsalTypeRequest uses a pointer so a missing field can be told
// apart from an empty selection.
type UpdateRehearsalTypeRequest struct {
	Analysis *[]string `json:"analysis"`
}

type ContentRequest struct {
	Type string `json:"type" validate:"required,oneof=script outline"`
	Text string `json:"text"`
}

type UpdateRehearsalContentRequest struct {
	Content *ContentRequest `json:"content" validate:"required"`
}

type UpdateRehearsalVideoRequest struct {
	VideoUrl string  `json:"videoUrl" validate:"required"`
	Duration float64 `json:"duration" validate:"gte=0"`
}

type UpdateDeliveryAnalysisRequest struct {
	DeliveryAnalysis *entity.DeliveryAnalysis `json:"deliveryAnalysis" validate:"required"`
}

type UpdateContentAnalysisRequest struct {
	ContentAnalysis *entity.ContentAnalysis `json:"contentAnalysis" validate:"required"`
}

type DeleteRehearsalResponse struct {
	Id uuid.UUID `json:"id"`
}

type CascadeDeleteResponse struct {
	Id            uuid.UUID `json:"id"`
	SpeechId      uuid.UUID `json:"speechId"`
	SpeechDeleted bool      `json:"speechDeleted"`
}

type PlaybackResponse struct {
	PublicId     string `json:"publicId"`
	SecureUrl    string `json:"secureUrl"`
	ThumbnailUrl string `json:"thumbnailUrl"`
}

type AnalysisResponse struct {
	RehearsalId      uuid.UUID                `json:"rehearsalId"`
	DeliveryAnalysis *entity.DeliveryAnalysis `json:"deliveryAnalysis,omitempty"`
	ContentAnalysis  *entity.ContentAnalysis  `json:"contentAnalysis,omitempty"`
	// Cached is true when nothing had to be sent to the engine.
	Cached bool `json:"cached"`
}

type UploadVideoResponse struct {
	Rehearsal *RehearsalResponse `json:"rehearsal"`
	PublicId  string             `json:"publicId"`
}
