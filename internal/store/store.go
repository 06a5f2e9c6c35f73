// Package store defines the persistence gateway the services read and write through.
// Every method is a single round trip; nothing here spans a transaction.
package store

import (
	"context"
	"errors"

	"hbajobs-backend/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("store: record not found")
	ErrConflict = errors.New("store: unique constraint violated")
)

type Store interface {
	UserStore
	JobStore
	ApplicantStore
	ApplicationStore
	HistoryStore
	InterviewStore
	OfferStore
	FailureStore
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error)
}

type JobFilter struct {
	Status     *models.PostingStatus
	SchoolSite *models.SchoolSite
	Department string
}

type JobStore interface {
	CreateJobPosting(ctx context.Context, j *models.JobPosting) error
	GetJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)
	UpdateJobPosting(ctx context.Context, j *models.JobPosting) error
	ListJobPostings(ctx context.Context, f JobFilter) ([]models.JobPosting, error)
}

type ApplicantStore interface {
	CreateApplicant(ctx context.Context, a *models.Applicant) error
	GetApplicant(ctx context.Context, id uuid.UUID) (*models.Applicant, error)
	GetApplicantByEmail(ctx context.Context, email string) (*models.Applicant, error)
	UpdateApplicant(ctx context.Context, a *models.Applicant) error
}

type ApplicationFilter struct {
	JobPostingID *uuid.UUID
	ApplicantID  *uuid.UUID
	Status       *models.ApplicationStatus
}

type ApplicationStore interface {
	CreateApplication(ctx context.Context, a *models.Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error
	UpdateApplicationNotes(ctx context.Context, id uuid.UUID, notes string) error
	ListApplications(ctx context.Context, f ApplicationFilter) ([]models.Application, error)
	CreateAnswers(ctx context.Context, answers []models.ApplicationAnswer) error
	ListAnswers(ctx context.Context, applicationID uuid.UUID) ([]models.ApplicationAnswer, error)
}

// HistoryStore is append-only: there is deliberately no update or delete.
type HistoryStore interface {
	AppendHistory(ctx context.Context, h *models.StageHistory) error
	// ListHistory returns entries newest first.
	ListHistory(ctx context.Context, applicationID uuid.UUID) ([]models.StageHistory, error)
}

type InterviewStore interface {
	CreateInterview(ctx context.Context, i *models.Interview) error
	GetInterview(ctx context.Context, id uuid.UUID) (*models.Interview, error)
	UpdateInterviewStatus(ctx context.Context, id uuid.UUID, status models.InterviewStatus) error
	ListInterviews(ctx context.Context, applicationID uuid.UUID) ([]models.Interview, error)
	AddParticipants(ctx context.Context, ps []models.InterviewParticipant) error
	ListParticipants(ctx context.Context, interviewID uuid.UUID) ([]models.InterviewParticipant, error)
	// UpsertFeedback inserts or replaces the feedback keyed by (interview, reviewer).
	UpsertFeedback(ctx context.Context, f *models.InterviewFeedback) error
	ListFeedback(ctx context.Context, interviewID uuid.UUID) ([]models.InterviewFeedback, error)
}

type OfferStore interface {
	CreateOffer(ctx context.Context, o *models.Offer) error
	GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	UpdateOffer(ctx context.Context, o *models.Offer) error
	ListOffers(ctx context.Context, applicationID uuid.UUID) ([]models.Offer, error)
	CreateHire(ctx context.Context, h *models.Hire) error
	GetHire(ctx context.Context, id uuid.UUID) (*models.Hire, error)
	UpdateHire(ctx context.Context, h *models.Hire) error
	ListHires(ctx context.Context, applicationID uuid.UUID) ([]models.Hire, error)
}

type FailureStore interface {
	RecordNotificationFailure(ctx context.Context, f *models.NotificationFailure) error
	ListNotificationFailures(ctx context.Context, limit int) ([]models.NotificationFailure, error)
}
