package entity

import (
	"time"

	"github.com/google/uuid"
)

const DefaultSpeechName = "Untitled Speech"

type Speech struct {
	Id           uuid.UUID
	UserId       string
	Name         string
	PracticeTime float64 // seconds, sum of rehearsal durations
	Rehearsals   []uuid.UUID
	ThumbnailUrl string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

func (s *Speech) HasRehearsal(id uuid.UUID) bool {
	for _, r := range s.Rehearsals {
		if r == id {
			return true
		}
	}
	return false
}

// RemoveRehearsal drops id from the list and reports whether it was present.
func (s *Speech) RemoveRehearsal(id uuid.UUID) bool {
	for i, r := range s.Rehearsals {
		if r == id {
			s.Rehearsals = append(s.Rehearsals[:i:i], s.Rehearsals[i+1:]...)
			return true
		}
	}
	return false
}
