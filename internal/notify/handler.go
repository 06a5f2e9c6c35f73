package notify

import (
	"hbajobs-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

// ListFailuresHandler returns the most recent undelivered emails, newest first.
func ListFailuresHandler(st store.FailureStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		rows, err := st.ListNotificationFailures(c.UserContext(), limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load notification failures")
		}
		return c.JSON(rows)
	}
}
