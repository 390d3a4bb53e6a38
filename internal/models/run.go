package models

import (
	"time"

	"github.com/google/uuid"
)

// Run is the persisted outcome of one upload, kept only when history is enabled.
type Run struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FileName     string           `gorm:"type:text" json:"fileName"`
	FileSize     int64            `gorm:"not null;default:0" json:"fileSize"`
	Strategy     string           `gorm:"type:text" json:"strategy"`
	Status       ProcessingStatus `gorm:"not null;default:'UPLOADING'" json:"status"`
	Result       *AnalysisResult  `gorm:"type:jsonb;serializer:json" json:"result,omitempty"`
	ErrorMessage *string          `gorm:"type:text" json:"errorMessage,omitempty"`
	CreatedAt    time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt    time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (Run) TableName() string {
	return "runs"
}
