package dashboard

import (
	"context"
	"sort"
	"strconv"
	"time"

	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/auth"
	"hbajobs-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ChartPoint struct {
	Label     string `json:"label"` // day, week start or month start
	Submitted int    `json:"submitted"`
	Hired     int    `json:"hired"`
	Rejected  int    `json:"rejected"`
}

type ChartResponse struct {
	SchoolSite *models.SchoolSite `json:"school_site"`
	Period     string             `json:"period"` // daily | weekly | monthly
	From       string             `json:"from"`
	To         string             `json:"to"`
	Points     []ChartPoint       `json:"points"`
	Total      int                `json:"total"`
}

// bucketStart truncates t to the start of its day, ISO week or month.
func bucketStart(t time.Time, period string) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	switch period {
	case "weekly":
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case "monthly":
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
	}
	return d
}

func step(t time.Time, period string, n int) time.Time {
	switch period {
	case "weekly":
		return t.AddDate(0, 0, 7*n)
	case "monthly":
		return t.AddDate(0, n, 0)
	}
	return t.AddDate(0, 0, n)
}

// Chart buckets submissions over the last count periods ending at now. Hires
// and rejections are bucketed by when the application was last updated.
func (s *Service) Chart(ctx context.Context, actor auth.Actor, site *models.SchoolSite, period string, count int, now time.Time) (*ChartResponse, error) {
	jobs, scope, err := s.visibleJobs(ctx, actor, site)
	if err != nil {
		return nil, err
	}
	apps, err := s.applications(ctx, jobs)
	if err != nil {
		return nil, err
	}

	last := bucketStart(now, period)
	first := step(last, period, -(count - 1))
	end := step(last, period, 1)

	buckets := make(map[time.Time]*ChartPoint, count)
	for b := first; b.Before(end); b = step(b, period, 1) {
		buckets[b] = &ChartPoint{Label: b.Format("2006-01-02")}
	}
	in := func(t time.Time) *ChartPoint {
		t = t.In(now.Location())
		if t.Before(first) || !t.Before(end) {
			return nil
		}
		return buckets[bucketStart(t, period)]
	}

	total := 0
	for _, a := range apps {
		if a.SubmittedAt != nil {
			if p := in(*a.SubmittedAt); p != nil {
				p.Submitted++
				total++
			}
		}
		switch a.Status {
		case models.StatusHired:
			if p := in(a.UpdatedAt); p != nil {
				p.Hired++
			}
		case models.StatusRejected:
			if p := in(a.UpdatedAt); p != nil {
				p.Rejected++
			}
		}
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	points := make([]ChartPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, *buckets[k])
	}

	return &ChartResponse{
		SchoolSite: scope,
		Period:     period,
		From:       first.Format("2006-01-02"),
		To:         end.AddDate(0, 0, -1).Format("2006-01-02"),
		Points:     points,
		Total:      total,
	}, nil
}

// GET /api/admin/dashboard/chart?period=daily&count=7&school_site=
func ChartHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		site, err := siteQuery(c)
		if err != nil {
			return err
		}

		period := c.Query("period", "daily")
		var count int
		switch period {
		case "weekly":
			count = 8
		case "monthly":
			count = 12
		default:
			period = "daily"
			count = 7
		}
		if raw := c.Query("count"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 366 {
				return fiber.NewError(fiber.StatusBadRequest, "invalid count")
			}
			count = n
		}

		res, err := svc.Chart(c.UserContext(), actor, site, period, count, time.Now())
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(res)
	}
}
