package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StageHistory is one status change of an application. Rows are only ever inserted.
type StageHistory struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID          `gorm:"type:uuid;not null;index" json:"application_id"`
	FromStatus    *ApplicationStatus `gorm:"size:30" json:"from_status"`
	ToStatus      ApplicationStatus  `gorm:"size:30;not null" json:"to_status"`
	ChangedBy     *uuid.UUID         `gorm:"type:uuid" json:"changed_by"`
	Comment       *string            `gorm:"type:text" json:"comment"`
	ChangedAt     time.Time          `gorm:"not null;index" json:"changed_at"`
}

func (StageHistory) TableName() string {
	return "application_stage_history"
}

func (h *StageHistory) BeforeCreate(*gorm.DB) error {
	ensureID(&h.ID)
	if h.ChangedAt.IsZero() {
		h.ChangedAt = time.Now()
	}
	return nil
}
