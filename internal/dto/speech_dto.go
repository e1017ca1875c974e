package dto

import (
	"time"

	"speech-rehearsal-be/internal/entity"

	"github.com/google/uuid"
)

// SpeechResponse is the speech record as clients see it.
type SpeechResponse struct {
	Id           uuid.UUID   `json:"id"`
	UserId       string      `json:"userId"`
	Name         string      `json:"name"`
	PracticeTime float64     `json:"practiceTime"`
	Rehearsals   []uuid.UUID `json:"rehearsals"`
	ThumbnailUrl string      `json:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    *time.Time  `json:"updatedAt"`
}

func NewSpeechResponse(s *entity.Speech) *SpeechResponse {
	rehearsals := s.Rehearsals
	if rehearsals == nil {
		rehearsals = []uuid.UUID{}
	}
	return &SpeechResponse{
		Id:           s.Id,
		UserId:       s.UserId,
		Name:         s.Name,
		PracticeTime: s.PracticeTime,
		Rehearsals:   rehearsals,
		ThumbnailUrl: s.ThumbnailUrl,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// CreateSpeechRequest mirrors the body the web client sends. Only speech.userId
// and speech.name are read; the rest is accepted for compatibility.
type CreateSpeechRequest struct {
	Speech struct {
		UserId       string   `json:"userId"`
		Name         string   `json:"name"`
		PracticeTime float64  `json:"practiceTime"`
		Rehearsals   []string `json:"rehearsals"`
	} `json:"speech"`
	Rehearsal struct {
		Analysis []string `json:"analysis"`
		Speech   string   `json:"speech"`
		VideoUrl string   `json:"videoUrl"`
	} `json:"rehearsal"`
}

type CreateSpeechResponse struct {
	Speech    *SpeechResponse    `json:"speech"`
	Rehearsal *RehearsalResponse `json:"rehearsal"`
}

type ListSpeechesResponse struct {
	Speeches []*SpeechResponse `json:"speeches"`
}

type RenameSpeechRequest struct {
	Name string `json:"name"`
}

type DeleteSpeechResponse struct {
	Id                uuid.UUID `json:"id"`
	DeletedRehearsals int       `json:"deletedRehearsals"`
}

type SpeechSummaryResponse struct {
	Speech          *SpeechResponse      `json:"speech"`
	Rehearsals      []*RehearsalResponse `json:"rehearsals"`
	RehearsalCount  int                  `json:"rehearsalCount"`
	PracticeMinutes float64              `json:"practiceMinutes"`
}

// RecomputeSpeechMessage is queued whenever a rehearsal's video or membership changes.
type RecomputeSpeechMessage struct {
	SpeechId uuid.UUID `json:"speech_id"`
}
