// Package dashboard aggregates the hiring pipeline for the admin home screen.
package dashboard

import (
	"context"

	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/auth"
	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type StatusCount struct {
	Status models.ApplicationStatus `json:"status"`
	Count  int                      `json:"count"`
}

type Stats struct {
	SchoolSite        *models.SchoolSite `json:"school_site"`
	OpenPositions     int                `json:"open_positions"`
	ClosedPositions   int                `json:"closed_positions"`
	TotalPositions    int                `json:"total_positions"`
	TotalApplications int                `json:"total_applications"`
	ActiveApplicants  int                `json:"active_applicants"`
	Hired             int                `json:"hired"`
	Rejected          int                `json:"rejected"`
	ByStatus          []StatusCount      `json:"by_status"` // pipeline order, zero counts included
}

type Service struct {
	cfg *config.Config
	st  store.Store
}

func NewService(cfg *config.Config, st store.Store) *Service {
	return &Service{cfg: cfg, st: st}
}

// visibleJobs returns the postings the actor may aggregate over. Full-access
// roles see every site unless they ask for one; other staff are pinned to
// their own site and the postings they manage.
func (s *Service) visibleJobs(ctx context.Context, actor auth.Actor, site *models.SchoolSite) ([]models.JobPosting, *models.SchoolSite, error) {
	if !models.HasRole(models.StaffRoles(), actor.Role) {
		return nil, nil, apperr.Forbidden("not allowed to view the dashboard")
	}
	if s.cfg.IsFullAccess(actor.Role) {
		jobs, err := s.st.ListJobPostings(ctx, store.JobFilter{SchoolSite: site})
		return jobs, site, err
	}
	all, err := s.st.ListJobPostings(ctx, store.JobFilter{})
	if err != nil {
		return nil, nil, err
	}
	jobs := make([]models.JobPosting, 0, len(all))
	for _, j := range all {
		if (actor.SchoolSite != nil && j.SchoolSite == *actor.SchoolSite) || j.IsHiringManager(actor.UserID) {
			jobs = append(jobs, j)
		}
	}
	return jobs, actor.SchoolSite, nil
}

func (s *Service) applications(ctx context.Context, jobs []models.JobPosting) ([]models.Application, error) {
	var out []models.Application
	for _, j := range jobs {
		id := j.ID
		apps, err := s.st.ListApplications(ctx, store.ApplicationFilter{JobPostingID: &id})
		if err != nil {
			return nil, err
		}
		out = append(out, apps...)
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context, actor auth.Actor, site *models.SchoolSite) (*Stats, error) {
	jobs, scope, err := s.visibleJobs(ctx, actor, site)
	if err != nil {
		return nil, err
	}
	res := &Stats{SchoolSite: scope, TotalPositions: len(jobs)}
	for _, j := range jobs {
		switch j.PostingStatus {
		case models.PostingPublished:
			res.OpenPositions++
		case models.PostingClosed:
			res.ClosedPositions++
		}
	}

	apps, err := s.applications(ctx, jobs)
	if err != nil {
		return nil, err
	}
	counts := map[models.ApplicationStatus]int{}
	for _, a := range apps {
		counts[a.Status]++
		if !a.Status.IsClosed() {
			res.ActiveApplicants++
		}
	}
	res.TotalApplications = len(apps)
	res.Hired = counts[models.StatusHired]
	res.Rejected = counts[models.StatusRejected]
	for _, st := range models.ApplicationStatuses() {
		res.ByStatus = append(res.ByStatus, StatusCount{Status: st, Count: counts[st]})
	}
	return res, nil
}

func siteQuery(c *fiber.Ctx) (*models.SchoolSite, error) {
	raw := c.Query("school_site")
	if raw == "" {
		return nil, nil
	}
	site := models.SchoolSite(raw)
	if !site.Valid() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "unknown school_site")
	}
	return &site, nil
}

// GET /api/admin/dashboard?school_site=
func StatsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		site, err := siteQuery(c)
		if err != nil {
			return err
		}
		res, err := svc.Stats(c.UserContext(), actor, site)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(res)
	}
}
