package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Speech struct {
	Id           uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       string                      `gorm:"type:varchar(64);not null;index"`
	Name         string                      `gorm:"type:varchar(255);not null;default:'Untitled Speech'"`
	PracticeTime float64                     `gorm:"not null;default:0"`
	RehearsalIds datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"`
	ThumbnailUrl string                      `gorm:"type:text"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime"`
}

func (Speech) TableName() string {
	return "speeches"
}
