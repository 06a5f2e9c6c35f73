package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Applicant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName string    `gorm:"size:100;not null" json:"first_name"`
	LastName  string    `gorm:"size:100;not null" json:"last_name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone     string    `gorm:"size:50" json:"phone"`
	Address   string    `gorm:"size:255" json:"address"`
	City      string    `gorm:"size:100" json:"city"`
	State     string    `gorm:"size:50" json:"state"`
	Zip       string    `gorm:"size:20" json:"zip"`
	LinkedIn  string    `gorm:"size:255" json:"linked_in"`
	Website   string    `gorm:"size:255" json:"website"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Applicant) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

func (a *Applicant) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// NormalizeEmail is the key applicants and users are matched on.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
