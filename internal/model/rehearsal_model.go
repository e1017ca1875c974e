package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Rehearsal struct {
	Id               uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SpeechId         uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Analysis         datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"`
	Content          datatypes.JSON              `gorm:"type:jsonb"`
	VideoUrl         string                      `gorm:"type:text;not null;default:''"`
	Duration         float64                     `gorm:"not null;default:0"`
	DeliveryAnalysis datatypes.JSON              `gorm:"type:jsonb"`
	ContentAnalysis  datatypes.JSON              `gorm:"type:jsonb"`
	CurrentStep      int                         `gorm:"not null;default:0"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime"`
}

func (Rehearsal) TableName() string {
	return "rehearsals"
}
