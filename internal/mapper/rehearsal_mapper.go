package mapper

import (
	"encoding/json"
	"time"

	"speech-rehearsal-be/internal/entity"
	"speech-rehearsal-be/internal/model"

	"gorm.io/datatypes"
)

type RehearsalMapper struct{}

func NewRehearsalMapper() *RehearsalMapper {
	return &RehearsalMapper{}
}

func (m *RehearsalMapper) ToEntity(r *model.Rehearsal) *entity.Rehearsal {
	if r == nil {
		return nil
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}

	kinds := make([]entity.AnalysisKind, 0, len(r.Analysis))
	for _, k := range r.Analysis {
		kinds = append(kinds, entity.AnalysisKind(k))
	}

	return &entity.Rehearsal{
		Id:               r.Id,
		SpeechId:         r.SpeechId,
		Analysis:         kinds,
		Content:          decodeJSON[entity.Content](r.Content),
		VideoUrl:         r.VideoUrl,
		Duration:         r.Duration,
		DeliveryAnalysis: decodeJSON[entity.DeliveryAnalysis](r.DeliveryAnalysis),
		ContentAnalysis:  decodeJSON[entity.ContentAnalysis](r.ContentAnalysis),
		CurrentStep:      r.CurrentStep,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *RehearsalMapper) ToModel(r *entity.Rehearsal) *model.Rehearsal {
	if r == nil {
		return nil
	}

	var updatedAt time.Time
	if r.UpdatedAt != nil {
		updatedAt = *r.UpdatedAt
	}

	kinds := make(datatypes.JSONSlice[string], 0, len(r.Analysis))
	for _, k := range r.Analysis {
		kinds = append(kinds, string(k))
	}

	return &model.Rehearsal{
		Id:               r.Id,
		SpeechId:         r.SpeechId,
		Analysis:         kinds,
		Content:          encodeJSON(r.Content),
		VideoUrl:         r.VideoUrl,
		Duration:         r.Duration,
		DeliveryAnalysis: encodeJSON(r.DeliveryAnalysis),
		ContentAnalysis:  encodeJSON(r.ContentAnalysis),
		CurrentStep:      r.CurrentStep,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *RehearsalMapper) ToEntities(rehearsals []*model.Rehearsal) []*entity.Rehearsal {
	entities := make([]*entity.Rehearsal, len(rehearsals))
	for i, r := range rehearsals {
		entities[i] = m.ToEntity(r)
	}
	return entities
}

// encodeJSON returns nil for a nil pointer so the column is stored as SQL NULL.
func encodeJSON[T any](v *T) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func decodeJSON[T any](raw datatypes.JSON) *T {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}
