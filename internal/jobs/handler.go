package jobs

import (
	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PostingRequest struct {
	Title           *string    `json:"title"`
	SchoolSite      *string    `json:"school_site"`
	Department      *string    `json:"department"`
	EmploymentType  *string    `json:"employment_type"`
	Location        *string    `json:"location"`
	Description     *string    `json:"description"`
	Requirements    *string    `json:"requirements"`
	SalaryRangeMin  *float64   `json:"salary_range_min"`
	SalaryRangeMax  *float64   `json:"salary_range_max"`
	HiringManagerID *uuid.UUID `json:"hiring_manager_id"` // nil UUID clears the assignment
}

type StatusRequest struct {
	Status string `json:"status"`
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid job posting id")
	}
	return id, nil
}

// GET /api/jobs?school_site=&department=
func ListPublicHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		jobs, err := svc.ListPublic(c.UserContext(), c.Query("school_site"), c.Query("department"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(jobs)
	}
}

// GET /api/jobs/:id
func GetPublicHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		job, err := svc.GetPublic(c.UserContext(), id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(job)
	}
}

// GET /api/admin/jobs?status=
func ListAdminHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		jobs, err := svc.ListForStaff(c.UserContext(), actor, c.Query("status"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(jobs)
	}
}

// GET /api/admin/jobs/:id
func GetAdminHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}
		job, err := svc.GetForStaff(c.UserContext(), actor, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(job)
	}
}

// POST /api/admin/jobs
func CreateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		var body PostingRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		job, err := svc.Create(c.UserContext(), actor, PostingInput(body))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(job)
	}
}

// PUT /api/admin/jobs/:id
func UpdateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}
		var body PostingRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		job, err := svc.Update(c.UserContext(), actor, id, PostingInput(body))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(job)
	}
}

// POST /api/admin/jobs/:id/status
func SetStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}
		var body StatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		job, err := svc.SetStatus(c.UserContext(), actor, id, body.Status)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(job)
	}
}
