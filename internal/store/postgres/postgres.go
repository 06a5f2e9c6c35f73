// Package postgres implements store.Store on top of GORM.
package postgres

import (
	"context"
	"errors"
	"strings"

	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "SQLSTATE 23505") {
		return store.ErrConflict
	}
	return err
}

// updated returns ErrNotFound when an UPDATE touched no rows.
func updated(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---- users ----

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("name ASC").Find(&users).Error
	return users, translate(err)
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	return updated(s.db.WithContext(ctx).Model(u).Select("name", "role", "school_site", "password_hash").Updates(u))
}

func (s *Store) CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&n).Error
	return n, translate(err)
}

// ---- job postings ----

func (s *Store) CreateJobPosting(ctx context.Context, j *models.JobPosting) error {
	return translate(s.db.WithContext(ctx).Create(j).Error)
}

func (s *Store) GetJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	var j models.JobPosting
	if err := s.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &j, nil
}

func (s *Store) UpdateJobPosting(ctx context.Context, j *models.JobPosting) error {
	return updated(s.db.WithContext(ctx).Model(j).Select("*").Omit("id", "created_at", "created_by").Updates(j))
}

func (s *Store) ListJobPostings(ctx context.Context, f store.JobFilter) ([]models.JobPosting, error) {
	q := s.db.WithContext(ctx).Model(&models.JobPosting{})
	if f.Status != nil {
		q = q.Where("posting_status = ?", *f.Status)
	}
	if f.SchoolSite != nil {
		q = q.Where("school_site = ?", *f.SchoolSite)
	}
	if f.Department != "" {
		q = q.Where("department = ?", f.Department)
	}
	var jobs []models.JobPosting
	err := q.Order("created_at DESC").Find(&jobs).Error
	return jobs, translate(err)
}

// ---- applicants ----

func (s *Store) CreateApplicant(ctx context.Context, a *models.Applicant) error {
	return translate(s.db.WithContext(ctx).Create(a).Error)
}

func (s *Store) GetApplicant(ctx context.Context, id uuid.UUID) (*models.Applicant, error) {
	var a models.Applicant
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *Store) GetApplicantByEmail(ctx context.Context, email string) (*models.Applicant, error) {
	var a models.Applicant
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *Store) UpdateApplicant(ctx context.Context, a *models.Applicant) error {
	return updated(s.db.WithContext(ctx).Model(a).Select("*").Omit("id", "email", "created_at").Updates(a))
}

// ---- applications ----

func (s *Store) CreateApplication(ctx context.Context, a *models.Application) error {
	return translate(s.db.WithContext(ctx).Create(a).Error)
}

func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var a models.Application
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error {
	return updated(s.db.WithContext(ctx).Model(&models.Application{}).Where("id = ?", id).Update("status", status))
}

func (s *Store) UpdateApplicationNotes(ctx context.Context, id uuid.UUID, notes string) error {
	return updated(s.db.WithContext(ctx).Model(&models.Application{}).Where("id = ?", id).Update("notes_internal", notes))
}

func (s *Store) ListApplications(ctx context.Context, f store.ApplicationFilter) ([]models.Application, error) {
	q := s.db.WithContext(ctx).Model(&models.Application{})
	if f.JobPostingID != nil {
		q = q.Where("job_posting_id = ?", *f.JobPostingID)
	}
	if f.ApplicantID != nil {
		q = q.Where("applicant_id = ?", *f.ApplicantID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	var apps []models.Application
	err := q.Order("created_at DESC").Find(&apps).Error
	return apps, translate(err)
}

func (s *Store) CreateAnswers(ctx context.Context, answers []models.ApplicationAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return translate(s.db.WithContext(ctx).Create(&answers).Error)
}

func (s *Store) ListAnswers(ctx context.Context, applicationID uuid.UUID) ([]models.ApplicationAnswer, error) {
	var answers []models.ApplicationAnswer
	err := s.db.WithContext(ctx).Where("application_id = ?", applicationID).Order("created_at ASC").Find(&answers).Error
	return answers, translate(err)
}

// ---- stage history ----

func (s *Store) AppendHistory(ctx context.Context, h *models.StageHistory) error {
	return translate(s.db.WithContext(ctx).Create(h).Error)
}

func (s *Store) ListHistory(ctx context.Context, applicationID uuid.UUID) ([]models.StageHistory, error) {
	var rows []models.StageHistory
	err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("changed_at DESC").
		Find(&rows).Error
	return rows, translate(err)
}

// ---- interviews ----

func (s *Store) CreateInterview(ctx context.Context, i *models.Interview) error {
	return translate(s.db.WithContext(ctx).Create(i).Error)
}

func (s *Store) GetInterview(ctx context.Context, id uuid.UUID) (*models.Interview, error) {
	var i models.Interview
	if err := s.db.WithContext(ctx).First(&i, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &i, nil
}

func (s *Store) UpdateInterviewStatus(ctx context.Context, id uuid.UUID, status models.InterviewStatus) error {
	return updated(s.db.WithContext(ctx).Model(&models.Interview{}).Where("id = ?", id).Update("status", status))
}

func (s *Store) ListInterviews(ctx context.Context, applicationID uuid.UUID) ([]models.Interview, error) {
	var rows []models.Interview
	err := s.db.WithContext(ctx).Where("application_id = ?", applicationID).Order("scheduled_at ASC").Find(&rows).Error
	return rows, translate(err)
}

func (s *Store) AddParticipants(ctx context.Context, ps []models.InterviewParticipant) error {
	if len(ps) == 0 {
		return nil
	}
	return translate(s.db.WithContext(ctx).Create(&ps).Error)
}

func (s *Store) ListParticipants(ctx context.Context, interviewID uuid.UUID) ([]models.InterviewParticipant, error) {
	var rows []models.InterviewParticipant
	err := s.db.WithContext(ctx).Where("interview_id = ?", interviewID).Find(&rows).Error
	return rows, translate(err)
}

// UpsertFeedback leaves f holding the stored row. On conflict the insert keeps
// the existing id and created_at, so the row is read back rather than trusting
// the id BeforeCreate generated.
func (s *Store) UpsertFeedback(ctx context.Context, f *models.InterviewFeedback) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "interview_id"}, {Name: "reviewer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating_overall", "ratings", "comments", "recommendation", "updated_at"}),
		}).Create(f).Error
		if err != nil {
			return err
		}
		var stored models.InterviewFeedback
		if err := tx.Where("interview_id = ? AND reviewer_id = ?", f.InterviewID, f.ReviewerID).First(&stored).Error; err != nil {
			return err
		}
		*f = stored
		return nil
	})
	return translate(err)
}

func (s *Store) ListFeedback(ctx context.Context, interviewID uuid.UUID) ([]models.InterviewFeedback, error) {
	var rows []models.InterviewFeedback
	err := s.db.WithContext(ctx).Where("interview_id = ?", interviewID).Order("created_at ASC").Find(&rows).Error
	return rows, translate(err)
}

// ---- offers / hires ----

func (s *Store) CreateOffer(ctx context.Context, o *models.Offer) error {
	return translate(s.db.WithContext(ctx).Create(o).Error)
}

func (s *Store) GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var o models.Offer
	if err := s.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *Store) UpdateOffer(ctx context.Context, o *models.Offer) error {
	return updated(s.db.WithContext(ctx).Model(o).Select("*").Omit("id", "application_id", "created_at").Updates(o))
}

func (s *Store) ListOffers(ctx context.Context, applicationID uuid.UUID) ([]models.Offer, error) {
	var rows []models.Offer
	err := s.db.WithContext(ctx).Where("application_id = ?", applicationID).Order("created_at DESC").Find(&rows).Error
	return rows, translate(err)
}

func (s *Store) CreateHire(ctx context.Context, h *models.Hire) error {
	return translate(s.db.WithContext(ctx).Create(h).Error)
}

func (s *Store) GetHire(ctx context.Context, id uuid.UUID) (*models.Hire, error) {
	var h models.Hire
	if err := s.db.WithContext(ctx).First(&h, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

func (s *Store) UpdateHire(ctx context.Context, h *models.Hire) error {
	return updated(s.db.WithContext(ctx).Model(h).Select("*").Omit("id", "application_id", "created_at").Updates(h))
}

func (s *Store) ListHires(ctx context.Context, applicationID uuid.UUID) ([]models.Hire, error) {
	var rows []models.Hire
	err := s.db.WithContext(ctx).Where("application_id = ?", applicationID).Order("created_at DESC").Find(&rows).Error
	return rows, translate(err)
}

// ---- notification failures ----

func (s *Store) RecordNotificationFailure(ctx context.Context, f *models.NotificationFailure) error {
	return translate(s.db.WithContext(ctx).Create(f).Error)
}

func (s *Store) ListNotificationFailures(ctx context.Context, limit int) ([]models.NotificationFailure, error) {
	var rows []models.NotificationFailure
	q := s.db.WithContext(ctx).Order("failed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, translate(err)
}
