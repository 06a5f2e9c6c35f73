package pipeline

import (
	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ChangeStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// POST /api/applications/:id/status
func ChangeStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid application id")
		}

		var body ChangeStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if _, err := svc.ChangeStatus(c.UserContext(), actor, id, body.Status, body.Comment); err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}
