package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostingStatus string

const (
	PostingDraft     PostingStatus = "Draft"
	PostingPublished PostingStatus = "Published"
	PostingClosed    PostingStatus = "Closed"
)

func (s PostingStatus) Valid() bool {
	switch s {
	case PostingDraft, PostingPublished, PostingClosed:
		return true
	}
	return false
}

type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "Full-time"
	EmploymentPartTime EmploymentType = "Part-time"
	EmploymentContract EmploymentType = "Contract"
)

func (t EmploymentType) Valid() bool {
	switch t {
	case EmploymentFullTime, EmploymentPartTime, EmploymentContract:
		return true
	}
	return false
}

type JobPosting struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string          `gorm:"size:200;not null" json:"title"`
	SchoolSite      SchoolSite      `gorm:"size:20;not null;index" json:"school_site"`
	Department      string          `gorm:"size:100" json:"department"`
	EmploymentType  *EmploymentType `gorm:"size:20" json:"employment_type"`
	Location        string          `gorm:"size:255" json:"location"`
	Description     string          `gorm:"type:text" json:"description"`
	Requirements    string          `gorm:"type:text" json:"requirements"`
	SalaryRangeMin  *float64        `json:"salary_range_min"`
	SalaryRangeMax  *float64        `json:"salary_range_max"`
	PostingStatus   PostingStatus   `gorm:"size:20;not null;default:Draft;index" json:"posting_status"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	HiringManagerID *uuid.UUID      `gorm:"type:uuid;index" json:"hiring_manager_id"`
	PublishedAt     *time.Time      `json:"published_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (j *JobPosting) BeforeCreate(*gorm.DB) error {
	ensureID(&j.ID)
	return nil
}

// IsHiringManager reports whether userID is the posting's designated hiring manager.
func (j *JobPosting) IsHiringManager(userID uuid.UUID) bool {
	return j.HiringManagerID != nil && *j.HiringManagerID == userID
}
