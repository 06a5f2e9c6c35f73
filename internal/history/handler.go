package history

import (
	"errors"

	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/auth"
	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GET /api/applications/:id/history
func ListHandler(cfg *config.Config, st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid application id")
		}

		app, err := st.GetApplication(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "application not found")
			}
			return apperr.ToFiber(err)
		}
		if err := auth.RequireJobScope(c.UserContext(), cfg, st, actor, app.JobPostingID); err != nil {
			return apperr.ToFiber(err)
		}

		rows, err := st.ListHistory(c.UserContext(), id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(rows)
	}
}
