package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type InterviewStage string

const (
	StagePhoneScreen    InterviewStage = "Phone Screen"
	StagePanelInterview InterviewStage = "Panel Interview"
	StageDemoLesson     InterviewStage = "Demo Lesson"
	StageFinalInterview InterviewStage = "Final Interview"
)

func ParseInterviewStage(s string) (InterviewStage, error) {
	switch v := InterviewStage(strings.TrimSpace(s)); v {
	case StagePhoneScreen, StagePanelInterview, StageDemoLesson, StageFinalInterview:
		return v, nil
	}
	return "", fmt.Errorf("unknown interview stage %q", s)
}

type InterviewStatus string

const (
	InterviewScheduled InterviewStatus = "Scheduled"
	InterviewCompleted InterviewStatus = "Completed"
	InterviewCancelled InterviewStatus = "Cancelled"
	InterviewNoShow    InterviewStatus = "No-Show"
)

func (s InterviewStatus) Valid() bool {
	switch s {
	case InterviewScheduled, InterviewCompleted, InterviewCancelled, InterviewNoShow:
		return true
	}
	return false
}

type Interview struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"application_id"`
	Stage         InterviewStage  `gorm:"size:30;not null" json:"stage"`
	ScheduledAt   time.Time       `gorm:"not null" json:"scheduled_at"`
	Location      *string         `gorm:"size:255" json:"location"`
	JoinLink      *string         `gorm:"size:500" json:"join_link"`
	CreatedBy     *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	Status        InterviewStatus `gorm:"size:20;not null;default:Scheduled" json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (i *Interview) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

type InterviewParticipant struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InterviewID uuid.UUID `gorm:"type:uuid;not null;index" json:"interview_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p *InterviewParticipant) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

type Recommendation string

const (
	RecommendStrongHire Recommendation = "Strong Hire"
	RecommendHire       Recommendation = "Hire"
	RecommendMaybe      Recommendation = "Maybe"
	RecommendNoHire     Recommendation = "No Hire"
)

func (r Recommendation) Valid() bool {
	switch r {
	case RecommendStrongHire, RecommendHire, RecommendMaybe, RecommendNoHire:
		return true
	}
	return false
}

// FeedbackRatings are the fixed sub-ratings captured next to the overall score.
type FeedbackRatings struct {
	Communication       int `json:"communication"`
	ClassroomManagement int `json:"classroom_management"`
	CultureFit          int `json:"culture_fit"`
	SubjectKnowledge    int `json:"subject_knowledge"`
}

type InterviewFeedback struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	InterviewID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_feedback_interview_reviewer" json:"interview_id"`
	ReviewerID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_feedback_interview_reviewer" json:"reviewer_id"`
	RatingOverall  int            `gorm:"not null" json:"rating_overall"`
	Ratings        datatypes.JSON `json:"ratings_json"`
	Comments       string         `gorm:"type:text" json:"comments"`
	Recommendation Recommendation `gorm:"size:20" json:"recommendation"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (InterviewFeedback) TableName() string {
	return "interview_feedback"
}

func (f *InterviewFeedback) BeforeCreate(*gorm.DB) error {
	ensureID(&f.ID)
	return nil
}
