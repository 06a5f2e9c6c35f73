package applications

import (
	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type NotesRequest struct {
	Notes string `json:"notes"`
}

func parseID(c *fiber.Ctx, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+what+" id")
	}
	return id, nil
}

// GET /api/me/applications
func ListMineHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		rows, err := svc.ListMine(c.UserContext(), actor)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(rows)
	}
}

// GET /api/me/applications/:id
func GetMineHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "application")
		if err != nil {
			return err
		}
		view, err := svc.GetMine(c.UserContext(), actor, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(view)
	}
}

// GET /api/admin/jobs/:id/applications?status=
func ListForJobHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "job posting")
		if err != nil {
			return err
		}
		rows, err := svc.ListForJob(c.UserContext(), actor, id, c.Query("status"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(rows)
	}
}

// GET /api/admin/applications/:id
func GetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "application")
		if err != nil {
			return err
		}
		d, err := svc.Get(c.UserContext(), actor, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(d)
	}
}

// PUT /api/admin/applications/:id/notes
func UpdateNotesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "application")
		if err != nil {
			return err
		}
		var body NotesRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := svc.UpdateNotes(c.UserContext(), actor, id, body.Notes); err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// GET /api/admin/applications/export?job_id=&status=
func ExportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		var f ExportFilter
		if raw := c.Query("job_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid job_id")
			}
			f.JobPostingID = &id
		}
		f.Status = c.Query("status")

		buf, err := svc.Export(c.UserContext(), actor, f)
		if err != nil {
			return apperr.ToFiber(err)
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="applications.xlsx"`)
		return c.Send(buf.Bytes())
	}
}
