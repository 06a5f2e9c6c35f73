// Package jobs manages job postings: the public board and the admin CRUD.
package jobs

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

// PostingInput carries the editable fields of a posting. Nil fields are left
// untouched on update.
type PostingInput struct {
	Title           *string
	SchoolSite      *string
	Department      *string
	EmploymentType  *string
	Location        *string
	Description     *string
	Requirements    *string
	SalaryRangeMin  *float64
	SalaryRangeMax  *float64
	HiringManagerID *uuid.UUID
}

type Service struct {
	cfg *config.Config
	st  store.Store
	now func() time.Time
}

func NewService(cfg *config.Config, st store.Store) *Service {
	return &Service{cfg: cfg, st: st, now: time.Now}
}

// ListPublic returns the published postings, optionally narrowed by site and department.
func (s *Service) ListPublic(ctx context.Context, site, department string) ([]models.JobPosting, error) {
	published := models.PostingPublished
	f := store.JobFilter{Status: &published, Department: strings.TrimSpace(department)}
	if site = strings.TrimSpace(site); site != "" {
		ss := models.SchoolSite(site)
		if !ss.Valid() {
			return nil, apperr.Validation(fmt.Sprintf("unknown school site %q", site))
		}
		f.SchoolSite = &ss
	}
	return s.st.ListJobPostings(ctx, f)
}

// GetPublic hides anything not published behind a 404.
func (s *Service) GetPublic(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.PostingStatus != models.PostingPublished {
		return nil, apperr.NotFound("job posting not found")
	}
	return job, nil
}

// ListForStaff returns every posting to full-access roles. Other staff see the
// postings of their school site plus the ones they are hiring manager for.
func (s *Service) ListForStaff(ctx context.Context, actor auth.Actor, status string) ([]models.JobPosting, error) {
	var f store.JobFilter
	if status = strings.TrimSpace(status); status != "" {
		ps := models.PostingStatus(status)
		if !ps.Valid() {
			return nil, apperr.Validation(fmt.Sprintf("unknown posting status %q", status))
		}
		f.Status = &ps
	}
	all, err := s.st.ListJobPostings(ctx, f)
	if err != nil {
		return nil, err
	}
	if s.cfg.IsFullAccess(actor.Role) {
		return all, nil
	}
	out := make([]models.JobPosting, 0, len(all))
	for _, j := range all {
		if (actor.SchoolSite != nil && j.SchoolSite == *actor.SchoolSite) || j.IsHiringManager(actor.UserID) {
			out = append(out, j)
		}
	}
	return out, nil
}

func (s *Service) GetForStaff(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.JobPosting, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cfg.IsFullAccess(actor.Role) || job.IsHiringManager(actor.UserID) {
		return job, nil
	}
	if actor.SchoolSite != nil && job.SchoolSite == *actor.SchoolSite {
		return job, nil
	}
	return nil, apperr.Forbidden("not allowed to view this job posting")
}

// Create stores a new posting in Draft.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in PostingInput) (*models.JobPosting, error) {
	if !s.cfg.IsFullAccess(actor.Role) {
		return nil, apperr.Forbidden("not allowed to create job postings")
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, apperr.Validation("title is required")
	}
	if in.SchoolSite == nil {
		return nil, apperr.Validation("school_site is required")
	}
	createdBy := actor.UserID
	job := &models.JobPosting{PostingStatus: models.PostingDraft, CreatedBy: &createdBy}
	if err := s.apply(ctx, job, in); err != nil {
		return nil, err
	}
	if err := s.st.CreateJobPosting(ctx, job); err != nil {
		return nil, fmt.Errorf("could not create job posting: %w", err)
	}
	return job, nil
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, in PostingInput) (*models.JobPosting, error) {
	if !s.cfg.IsFullAccess(actor.Role) {
		return nil, apperr.Forbidden("not allowed to edit job postings")
	}
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, job, in); err != nil {
		return nil, err
	}
	if err := s.st.UpdateJobPosting(ctx, job); err != nil {
		return nil, fmt.Errorf("could not update job posting: %w", err)
	}
	return job, nil
}

// SetStatus moves a posting between Draft, Published and Closed. Publishing
// stamps published_at; any other state clears it.
func (s *Service) SetStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, status string) (*models.JobPosting, error) {
	if !s.cfg.IsFullAccess(actor.Role) {
		return nil, apperr.Forbidden("not allowed to publish job postings")
	}
	ps := models.PostingStatus(strings.TrimSpace(status))
	if !ps.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown posting status %q", status))
	}
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	job.PostingStatus = ps
	if ps == models.PostingPublished {
		now := s.now()
		job.PublishedAt = &now
	} else {
		job.PublishedAt = nil
	}
	if err := s.st.UpdateJobPosting(ctx, job); err != nil {
		return nil, fmt.Errorf("could not update job posting: %w", err)
	}
	return job, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	job, err := s.st.GetJobPosting(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("job posting not found")
		}
		return nil, err
	}
	return job, nil
}

func (s *Service) apply(ctx context.Context, job *models.JobPosting, in PostingInput) error {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return apperr.Validation("title cannot be empty")
		}
		job.Title = t
	}
	if in.SchoolSite != nil {
		ss := models.SchoolSite(strings.TrimSpace(*in.SchoolSite))
		if !ss.Valid() {
			return apperr.Validation(fmt.Sprintf("unknown school site %q", *in.SchoolSite))
		}
		job.SchoolSite = ss
	}
	if in.Department != nil {
		job.Department = strings.TrimSpace(*in.Department)
	}
	if in.EmploymentType != nil {
		if v := strings.TrimSpace(*in.EmploymentType); v == "" {
			job.EmploymentType = nil
		} else {
			et := models.EmploymentType(v)
			if !et.Valid() {
				return apperr.Validation(fmt.Sprintf("unknown employment type %q", v))
			}
			job.EmploymentType = &et
		}
	}
	if in.Location != nil {
		job.Location = strings.TrimSpace(*in.Location)
	}
	if in.Description != nil {
		job.Description = *in.Description
	}
	if in.Requirements != nil {
		job.Requirements = *in.Requirements
	}
	if in.SalaryRangeMin != nil {
		job.SalaryRangeMin = in.SalaryRangeMin
	}
	if in.SalaryRangeMax != nil {
		job.SalaryRangeMax = in.SalaryRangeMax
	}
	if job.SalaryRangeMin != nil && job.SalaryRangeMax != nil && *job.SalaryRangeMin > *job.SalaryRangeMax {
		return apperr.Validation("salary_range_min cannot exceed salary_range_max")
	}
	if in.HiringManagerID != nil {
		if *in.HiringManagerID == uuid.Nil {
			job.HiringManagerID = nil
		} else {
			u, err := s.st.GetUser(ctx, *in.HiringManagerID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return apperr.Validation("hiring manager does not exist")
				}
				return err
			}
			if !models.HasRole(models.StaffRoles(), u.Role) {
				return apperr.Validation("hiring manager must be a staff user")
			}
			id := u.ID
			job.HiringManagerID = &id
		}
	}
	return nil
}
