package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	StatusDraft          ApplicationStatus = "Draft"
	StatusSubmitted      ApplicationStatus = "Submitted"
	StatusUnderReview    ApplicationStatus = "Under Review"
	StatusPhoneScreen    ApplicationStatus = "Phone Screen"
	StatusInterview      ApplicationStatus = "Interview"
	StatusReferenceCheck ApplicationStatus = "Reference Check"
	StatusOffer          ApplicationStatus = "Offer"
	StatusOffered        ApplicationStatus = "Offered"
	StatusHired          ApplicationStatus = "Hired"
	StatusRejected       ApplicationStatus = "Rejected"
	StatusWithdrawn      ApplicationStatus = "Withdrawn"
)

var applicationStatuses = []ApplicationStatus{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusPhoneScreen,
	StatusInterview,
	StatusReferenceCheck,
	StatusOffer,
	StatusOffered,
	StatusHired,
	StatusRejected,
	StatusWithdrawn,
}

// ApplicationStatuses returns every accepted status in pipeline order.
func ApplicationStatuses() []ApplicationStatus {
	out := make([]ApplicationStatus, len(applicationStatuses))
	copy(out, applicationStatuses)
	return out
}

// UnknownStatusError is returned for a status outside the closed set.
type UnknownStatusError struct {
	Value string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown application status %q", e.Value)
}

// ParseApplicationStatus matches s exactly (after trimming) against the known statuses.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	v := ApplicationStatus(strings.TrimSpace(s))
	for _, st := range applicationStatuses {
		if st == v {
			return st, nil
		}
	}
	return "", &UnknownStatusError{Value: s}
}

func (s ApplicationStatus) IsOffer() bool {
	return s == StatusOffer || s == StatusOffered
}

// IsClosed reports whether the application has left the active pipeline.
func (s ApplicationStatus) IsClosed() bool {
	return s == StatusHired || s == StatusRejected || s == StatusWithdrawn
}

type Application struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	JobPostingID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"job_posting_id"`
	ApplicantID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"applicant_id"`
	Source          string            `gorm:"size:100" json:"source"`
	Status          ApplicationStatus `gorm:"size:30;not null;index" json:"status"`
	ResumeURL       string            `gorm:"size:500" json:"resume_url"`
	CoverLetterURL  *string           `gorm:"size:500" json:"cover_letter_url"`
	AdditionalDocs  datatypes.JSON    `json:"additional_docs"`
	YearsExperience *int              `json:"years_experience"`
	Certifications  string            `gorm:"type:text" json:"certifications"`
	NotesInternal   string            `gorm:"type:text" json:"notes_internal"`
	SubmittedAt     *time.Time        `json:"submitted_at"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (a *Application) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

type ApplicationAnswer struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index" json:"application_id"`
	Question      string    `gorm:"type:text;not null" json:"question"`
	Answer        string    `gorm:"type:text" json:"answer"`
	CreatedAt     time.Time `json:"created_at"`
}

func (a *ApplicationAnswer) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
