package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OfferStatus string

const (
	OfferDraft    OfferStatus = "Draft"
	OfferSent     OfferStatus = "Sent"
	OfferAccepted OfferStatus = "Accepted"
	OfferDeclined OfferStatus = "Declined"
)

func (s OfferStatus) Valid() bool {
	switch s {
	case OfferDraft, OfferSent, OfferAccepted, OfferDeclined:
		return true
	}
	return false
}

type Offer struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID  uuid.UUID   `gorm:"type:uuid;not null;index" json:"application_id"`
	Status         OfferStatus `gorm:"size:20;not null;default:Draft" json:"status"`
	Salary         *float64    `json:"salary"`
	StartDate      *time.Time  `gorm:"type:date" json:"start_date"`
	OfferLetterURL *string     `gorm:"size:500" json:"offer_letter_url"`
	SentAt         *time.Time  `json:"sent_at"`
	RespondedAt    *time.Time  `json:"responded_at"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (o *Offer) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

type OnboardingStatus string

const (
	OnboardingNotStarted OnboardingStatus = "Not Started"
	OnboardingInProgress OnboardingStatus = "In Progress"
	OnboardingCompleted  OnboardingStatus = "Completed"
)

func (s OnboardingStatus) Valid() bool {
	switch s {
	case OnboardingNotStarted, OnboardingInProgress, OnboardingCompleted:
		return true
	}
	return false
}

type Hire struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"application_id"`
	EmployeeInternalID *string          `gorm:"size:100" json:"employee_internal_id"`
	SchoolSite         SchoolSite       `gorm:"size:20;not null" json:"school_site"`
	PositionTitle      string           `gorm:"size:200;not null" json:"position_title"`
	StartDate          *time.Time       `gorm:"type:date" json:"start_date"`
	OnboardingStatus   OnboardingStatus `gorm:"size:20;not null;default:'Not Started'" json:"onboarding_status"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

func (h *Hire) BeforeCreate(*gorm.DB) error {
	ensureID(&h.ID)
	return nil
}
