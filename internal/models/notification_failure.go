package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationFailure records an email that could not be delivered. Failed sends are
// never retried; this table is only for HR to follow up by hand.
type NotificationFailure struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Template   string    `gorm:"size:50;index" json:"template"`
	Recipients string    `gorm:"size:500" json:"recipients"` // comma separated
	Subject    string    `gorm:"size:255" json:"subject"`
	Error      string    `gorm:"type:text" json:"error"`
	FailedAt   time.Time `gorm:"index" json:"failed_at"`
}

func (f *NotificationFailure) BeforeCreate(*gorm.DB) error {
	ensureID(&f.ID)
	if f.FailedAt.IsZero() {
		f.FailedAt = time.Now()
	}
	return nil
}
