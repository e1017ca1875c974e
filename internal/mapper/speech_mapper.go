package mapper

import (
	"time"

	"speech-rehearsal-be/internal/entity"
	"speech-rehearsal-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SpeechMapper struct{}

func NewSpeechMapper() *SpeechMapper {
	return &SpeechMapper{}
}

func (m *SpeechMapper) ToEntity(s *model.Speech) *entity.Speech {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	// Ids that fail to parse can only come from manual edits; they are dropped
	// rather than poisoning every read of the speech.
	rehearsals := make([]uuid.UUID, 0, len(s.RehearsalIds))
	for _, raw := range s.RehearsalIds {
		if id, err := uuid.Parse(raw); err == nil {
			rehearsals = append(rehearsals, id)
		}
	}

	return &entity.Speech{
		Id:           s.Id,
		UserId:       s.UserId,
		Name:         s.Name,
		PracticeTime: s.PracticeTime,
		Rehearsals:   rehearsals,
		ThumbnailUrl: s.ThumbnailUrl,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *SpeechMapper) ToModel(s *entity.Speech) *model.Speech {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	ids := make(datatypes.JSONSlice[string], 0, len(s.Rehearsals))
	for _, id := range s.Rehearsals {
		ids = append(ids, id.String())
	}

	return &model.Speech{
		Id:           s.Id,
		UserId:       s.UserId,
		Name:         s.Name,
		PracticeTime: s.PracticeTime,
		RehearsalIds: ids,
		ThumbnailUrl: s.ThumbnailUrl,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *SpeechMapper) ToEntities(speeches []*model.Speech) []*entity.Speech {
	entities := make([]*entity.Speech, len(speeches))
	for i, s := range speeches {
		entities[i] = m.ToEntity(s)
	}
	return entities
}
