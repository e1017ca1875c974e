package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OwnedByUser struct {
	UserID string
}

func (s OwnedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type BySpeechID struct {
	SpeechID uuid.UUID
}

func (s BySpeechID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("speech_id = ?", s.SpeechID)
}
