// Package pipeline moves an application between statuses. Every change is
// authorised, written, appended to the stage history and announced by email.
package pipeline

import (
	"context"
	"errors"
	"log"

	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/auth"
	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/history"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/notify"
	"hbajobs-backend/internal/store"

	"github.com/google/uuid"
)

// Placeholders for the HR copy when a lookup fails.
const (
	unknownApplicant = "(unknown applicant)"
	unknownPosition  = "(unknown position)"
)

type Service struct {
	cfg      *config.Config
	st       store.Store
	notifier notify.Notifier
}

func NewService(cfg *config.Config, st store.Store, notifier notify.Notifier) *Service {
	return &Service{cfg: cfg, st: st, notifier: notifier}
}

// ApplicantTemplate picks the email the applicant receives for a new status.
func ApplicantTemplate(status models.ApplicationStatus) notify.Key {
	switch {
	case status.IsOffer():
		return notify.KeyJobOffer
	case status == models.StatusHired:
		return notify.KeyWelcomeHired
	default:
		return notify.KeyStatusUpdate
	}
}

// ChangeStatus sets the application's status and records the transition.
// Writes are independent steps: a failure aborts the rest without undoing
// what already succeeded. Repeating the same transition is not suppressed.
func (s *Service) ChangeStatus(ctx context.Context, actor auth.Actor, applicationID uuid.UUID, newStatus, comment string) (*models.StageHistory, error) {
	if !models.HasRole(s.cfg.StatusChangeRoles, actor.Role) {
		return nil, apperr.Forbidden("not allowed to change application status")
	}

	to, err := models.ParseApplicationStatus(newStatus)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, err.Error(), err)
	}

	app, err := s.st.GetApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("application not found")
		}
		return nil, err
	}

	if err := auth.RequireJobScope(ctx, s.cfg, s.st, actor, app.JobPostingID); err != nil {
		return nil, err
	}

	from := app.Status
	if err := s.st.UpdateApplicationStatus(ctx, app.ID, to); err != nil {
		return nil, err
	}

	changedBy := actor.UserID
	row, err := history.Append(ctx, s.st, history.Entry{
		ApplicationID: app.ID,
		From:          &from,
		To:            to,
		ChangedBy:     &changedBy,
		Comment:       comment,
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, app, to, comment)
	return row, nil
}

// announce queues the applicant email and the HR copy. A failed lookup skips
// the applicant email; HR is still told, with whatever could be resolved.
func (s *Service) announce(ctx context.Context, app *models.Application, to models.ApplicationStatus, comment string) {
	hr := &notify.HRStatusUpdateParams{
		ApplicantName: unknownApplicant,
		JobTitle:      unknownPosition,
		NewStatus:     string(to),
		Comment:       comment,
		ApplicationID: app.ID.String(),
	}
	defer func() {
		s.notifier.Enqueue(notify.Message{Template: notify.KeyHRStatusUpdate, To: []string{s.cfg.HRMailbox}, Data: hr})
	}()

	applicant, applicantErr := s.st.GetApplicant(ctx, app.ApplicantID)
	if applicantErr != nil {
		log.Printf("[WARN] applicant status email skipped for application %s: applicant lookup: %v", app.ID, applicantErr)
	} else {
		hr.ApplicantName = applicant.FullName()
		hr.ApplicantEmail = applicant.Email
	}
	job, jobErr := s.st.GetJobPosting(ctx, app.JobPostingID)
	if jobErr != nil {
		log.Printf("[WARN] applicant status email skipped for application %s: job lookup: %v", app.ID, jobErr)
	} else {
		hr.JobTitle = job.Title
		hr.SchoolSite = string(job.SchoolSite)
	}
	if applicantErr != nil || jobErr != nil {
		return
	}

	name := applicant.FullName()
	site := string(job.SchoolSite)

	key := ApplicantTemplate(to)
	var data any
	switch key {
	case notify.KeyJobOffer:
		data = &notify.JobOfferParams{Name: name, JobTitle: job.Title, SchoolSite: site, StartDate: comment}
	case notify.KeyWelcomeHired:
		data = &notify.WelcomeHiredParams{Name: name, JobTitle: job.Title, SchoolSite: site, StartDate: comment}
	default:
		data = &notify.StatusUpdateParams{Name: name, JobTitle: job.Title, NewStatus: string(to), Comment: comment}
	}
	s.notifier.Enqueue(notify.Message{Template: key, To: []string{applicant.Email}, Data: data})
}
