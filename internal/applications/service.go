// Package applications serves the read side of applications to applicants and
// staff, plus internal notes and the spreadsheet export.
package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/auth"
	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/store"

	"github.com/google/uuid"
)

// Summary is one row of a listing: the application joined with who applied
// and for what.
type Summary struct {
	models.Application
	ApplicantName  string `json:"applicant_name"`
	ApplicantEmail string `json:"applicant_email"`
	JobTitle       string `json:"job_title"`
	SchoolSite     string `json:"school_site"`
}

// ApplicantView is what an applicant sees of their own application. Internal
// notes never leave the admin side.
type ApplicantView struct {
	ID          uuid.UUID                  `json:"id"`
	Status      models.ApplicationStatus   `json:"status"`
	SubmittedAt *time.Time                 `json:"submitted_at"`
	Job         *models.JobPosting         `json:"job"`
	History     []models.StageHistory      `json:"history"`
	Answers     []models.ApplicationAnswer `json:"answers"`
}

// Detail is the full staff view of an application.
type Detail struct {
	Application models.Application         `json:"application"`
	Applicant   *models.Applicant          `json:"applicant"`
	Job         *models.JobPosting         `json:"job"`
	Answers     []models.ApplicationAnswer `json:"answers"`
	History     []models.StageHistory      `json:"history"`
	Interviews  []models.Interview         `json:"interviews"`
}

type Service struct {
	cfg *config.Config
	st  store.Store
}

func NewService(cfg *config.Config, st store.Store) *Service {
	return &Service{cfg: cfg, st: st}
}

func notFound(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(what + " not found")
	}
	return err
}

// ownApplicant resolves the applicant record tied to the caller's verified
// email. A user who never applied, or has not confirmed the address, has none,
// which is not an error.
func (s *Service) ownApplicant(ctx context.Context, actor auth.Actor) (*models.Applicant, error) {
	email, ok := auth.VerifiedEmail(ctx, s.st, actor)
	if !ok {
		return nil, nil
	}
	a, err := s.st.GetApplicantByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) ListMine(ctx context.Context, actor auth.Actor) ([]Summary, error) {
	applicant, err := s.ownApplicant(ctx, actor)
	if err != nil || applicant == nil {
		return []Summary{}, err
	}
	apps, err := s.st.ListApplications(ctx, store.ApplicationFilter{ApplicantID: &applicant.ID})
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(apps))
	jobs := map[uuid.UUID]*models.JobPosting{}
	for _, a := range apps {
		a.NotesInternal = ""
		row := Summary{Application: a, ApplicantName: applicant.FullName(), ApplicantEmail: applicant.Email}
		if job := s.cachedJob(ctx, jobs, a.JobPostingID); job != nil {
			row.JobTitle = job.Title
			row.SchoolSite = string(job.SchoolSite)
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Service) GetMine(ctx context.Context, actor auth.Actor, id uuid.UUID) (*ApplicantView, error) {
	applicant, err := s.ownApplicant(ctx, actor)
	if err != nil {
		return nil, err
	}
	app, err := s.st.GetApplication(ctx, id)
	if err != nil {
		return nil, notFound(err, "application")
	}
	// Someone else's application looks exactly like a missing one.
	if applicant == nil || app.ApplicantID != applicant.ID {
		return nil, apperr.NotFound("application not found")
	}
	job, err := s.st.GetJobPosting(ctx, app.JobPostingID)
	if err != nil {
		return nil, notFound(err, "job posting")
	}
	hist, err := s.st.ListHistory(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	answers, err := s.st.ListAnswers(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	return &ApplicantView{ID: app.ID, Status: app.Status, SubmittedAt: app.SubmittedAt, Job: job, History: hist, Answers: answers}, nil
}

// ListForJob lists a posting's applications for HR/Admin or the posting's hiring manager.
func (s *Service) ListForJob(ctx context.Context, actor auth.Actor, jobID uuid.UUID, status string) ([]Summary, error) {
	if !models.HasRole(s.cfg.StatusChangeRoles, actor.Role) {
		return nil, apperr.Forbidden("not allowed to view applications")
	}
	job, err := s.st.GetJobPosting(ctx, jobID)
	if err != nil {
		return nil, notFound(err, "job posting")
	}
	if err := auth.RequireJobScope(ctx, s.cfg, s.st, actor, job.ID); err != nil {
		return nil, err
	}
	f := store.ApplicationFilter{JobPostingID: &job.ID}
	if status = strings.TrimSpace(status); status != "" {
		st, err := models.ParseApplicationStatus(status)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeValidation, err.Error(), err)
		}
		f.Status = &st
	}
	apps, err := s.st.ListApplications(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(apps))
	for _, a := range apps {
		row := Summary{Application: a, JobTitle: job.Title, SchoolSite: string(job.SchoolSite)}
		if applicant, err := s.st.GetApplicant(ctx, a.ApplicantID); err == nil {
			row.ApplicantName = applicant.FullName()
			row.ApplicantEmail = applicant.Email
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Service) loadScoped(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Application, error) {
	if !models.HasRole(s.cfg.StatusChangeRoles, actor.Role) {
		return nil, apperr.Forbidden("not allowed to view applications")
	}
	app, err := s.st.GetApplication(ctx, id)
	if err != nil {
		return nil, notFound(err, "application")
	}
	if err := auth.RequireJobScope(ctx, s.cfg, s.st, actor, app.JobPostingID); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Detail, error) {
	app, err := s.loadScoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	d := &Detail{Application: *app}
	if d.Applicant, err = s.st.GetApplicant(ctx, app.ApplicantID); err != nil {
		return nil, notFound(err, "applicant")
	}
	if d.Job, err = s.st.GetJobPosting(ctx, app.JobPostingID); err != nil {
		return nil, notFound(err, "job posting")
	}
	if d.Answers, err = s.st.ListAnswers(ctx, app.ID); err != nil {
		return nil, err
	}
	if d.History, err = s.st.ListHistory(ctx, app.ID); err != nil {
		return nil, err
	}
	if d.Interviews, err = s.st.ListInterviews(ctx, app.ID); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateNotes replaces the internal notes. Notes are not part of the status
// history.
func (s *Service) UpdateNotes(ctx context.Context, actor auth.Actor, id uuid.UUID, notes string) error {
	app, err := s.loadScoped(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.st.UpdateApplicationNotes(ctx, app.ID, notes); err != nil {
		return fmt.Errorf("could not save notes: %w", err)
	}
	return nil
}

func (s *Service) cachedJob(ctx context.Context, cache map[uuid.UUID]*models.JobPosting, id uuid.UUID) *models.JobPosting {
	if job, ok := cache[id]; ok {
		return job
	}
	job, err := s.st.GetJobPosting(ctx, id)
	if err != nil {
		job = nil
	}
	cache[id] = job
	return job
}
