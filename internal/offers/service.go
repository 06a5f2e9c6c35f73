// Package offers records offers and hires against an application. These records
// are kept by HR by hand and never touch the application's status.
package offers

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

const dateLayout = "2006-01-02"

type OfferInput struct {
	Status         *string
	Salary         *float64
	StartDate      *string
	OfferLetterURL *string
}

type HireInput struct {
	EmployeeInternalID *string
	SchoolSite         *string
	PositionTitle      *string
	StartDate          *string
	OnboardingStatus   *string
}

type Service struct {
	cfg *config.Config
	st  store.Store
	now func() time.Time
}

func NewService(cfg *config.Config, st store.Store) *Service {
	return &Service{cfg: cfg, st: st, now: time.Now}
}

func (s *Service) authorize(actor auth.Actor) error {
	if !s.cfg.IsFullAccess(actor.Role) {
		return apperr.Forbidden("only HR can manage offers and hires")
	}
	return nil
}

func (s *Service) application(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.st.GetApplication(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("application not found")
		}
		return nil, err
	}
	return app, nil
}

func parseDate(field string, v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*v))
	if err != nil {
		return nil, apperr.Validation(field + " must be YYYY-MM-DD")
	}
	return &t, nil
}

func (s *Service) CreateOffer(ctx context.Context, actor auth.Actor, applicationID uuid.UUID, in OfferInput) (*models.Offer, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	app, err := s.application(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	o := &models.Offer{ApplicationID: app.ID, Status: models.OfferDraft}
	if err := s.applyOffer(o, in); err != nil {
		return nil, err
	}
	if err := s.st.CreateOffer(ctx, o); err != nil {
		return nil, fmt.Errorf("could not create offer: %w", err)
	}
	return o, nil
}

func (s *Service) UpdateOffer(ctx context.Context, actor auth.Actor, id uuid.UUID, in OfferInput) (*models.Offer, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	o, err := s.st.GetOffer(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("offer not found")
		}
		return nil, err
	}
	if err := s.applyOffer(o, in); err != nil {
		return nil, err
	}
	if err := s.st.UpdateOffer(ctx, o); err != nil {
		return nil, fmt.Errorf("could not update offer: %w", err)
	}
	return o, nil
}

// applyOffer copies the set fields. Moving to Sent stamps sent_at; moving to
// Accepted or Declined stamps responded_at.
func (s *Service) applyOffer(o *models.Offer, in OfferInput) error {
	if in.Status != nil {
		st := models.OfferStatus(strings.TrimSpace(*in.Status))
		if !st.Valid() {
			return apperr.Validation(fmt.Sprintf("unknown offer status %q", *in.Status))
		}
		if st != o.Status {
			now := s.now()
			switch st {
			case models.OfferSent:
				o.SentAt = &now
			case models.OfferAccepted, models.OfferDeclined:
				o.RespondedAt = &now
			}
		}
		o.Status = st
	}
	if in.Salary != nil {
		if *in.Salary < 0 {
			return apperr.Validation("salary cannot be negative")
		}
		o.Salary = in.Salary
	}
	if in.StartDate != nil {
		d, err := parseDate("start_date", in.StartDate)
		if err != nil {
			return err
		}
		o.StartDate = d
	}
	if in.OfferLetterURL != nil {
		if u := strings.TrimSpace(*in.OfferLetterURL); u != "" {
			o.OfferLetterURL = &u
		} else {
			o.OfferLetterURL = nil
		}
	}
	return nil
}

func (s *Service) ListOffers(ctx context.Context, actor auth.Actor, applicationID uuid.UUID) ([]models.Offer, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if _, err := s.application(ctx, applicationID); err != nil {
		return nil, err
	}
	return s.st.ListOffers(ctx, applicationID)
}

// CreateHire records a hire. Site and position default to the job posting's.
func (s *Service) CreateHire(ctx context.Context, actor auth.Actor, applicationID uuid.UUID, in HireInput) (*models.Hire, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	app, err := s.application(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	h := &models.Hire{ApplicationID: app.ID, OnboardingStatus: models.OnboardingNotStarted}
	if job, err := s.st.GetJobPosting(ctx, app.JobPostingID); err == nil {
		h.SchoolSite = job.SchoolSite
		h.PositionTitle = job.Title
	}
	if err := applyHire(h, in); err != nil {
		return nil, err
	}
	if !h.SchoolSite.Valid() || h.PositionTitle == "" {
		return nil, apperr.Validation("school_site and position_title are required")
	}
	if err := s.st.CreateHire(ctx, h); err != nil {
		return nil, fmt.Errorf("could not create hire: %w", err)
	}
	return h, nil
}

func (s *Service) UpdateHire(ctx context.Context, actor auth.Actor, id uuid.UUID, in HireInput) (*models.Hire, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	h, err := s.st.GetHire(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("hire not found")
		}
		return nil, err
	}
	if err := applyHire(h, in); err != nil {
		return nil, err
	}
	if err := s.st.UpdateHire(ctx, h); err != nil {
		return nil, fmt.Errorf("could not update hire: %w", err)
	}
	return h, nil
}

func applyHire(h *models.Hire, in HireInput) error {
	if in.EmployeeInternalID != nil {
		if v := strings.TrimSpace(*in.EmployeeInternalID); v != "" {
			h.EmployeeInternalID = &v
		} else {
			h.EmployeeInternalID = nil
		}
	}
	if in.SchoolSite != nil {
		ss := models.SchoolSite(strings.TrimSpace(*in.SchoolSite))
		if !ss.Valid() {
			return apperr.Validation(fmt.Sprintf("unknown school site %q", *in.SchoolSite))
		}
		h.SchoolSite = ss
	}
	if in.PositionTitle != nil {
		if v := strings.TrimSpace(*in.PositionTitle); v != "" {
			h.PositionTitle = v
		}
	}
	if in.StartDate != nil {
		d, err := parseDate("start_date", in.StartDate)
		if err != nil {
			return err
		}
		h.StartDate = d
	}
	if in.OnboardingStatus != nil {
		st := models.OnboardingStatus(strings.TrimSpace(*in.OnboardingStatus))
		if !st.Valid() {
			return apperr.Validation(fmt.Sprintf("unknown onboarding status %q", *in.OnboardingStatus))
		}
		h.OnboardingStatus = st
	}
	return nil
}

func (s *Service) ListHires(ctx context.Context, actor auth.Actor, applicationID uuid.UUID) ([]models.Hire, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if _, err := s.application(ctx, applicationID); err != nil {
		return nil, err
	}
	return s.st.ListHires(ctx, applicationID)
}
