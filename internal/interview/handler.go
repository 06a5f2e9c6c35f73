package interview

import (
	"strings"
	"time"

	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/auth"
	"hbajobs-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ScheduleBody struct {
	ApplicationID string   `json:"application_id"`
	Stage         string   `json:"stage"`
	ScheduledAt   string   `json:"scheduled_at"`
	Location      string   `json:"location"`
	JoinLink      string   `json:"join_link"`
	Participants  []string `json:"participants"`
}

type FeedbackBody struct {
	RatingOverall  int                     `json:"rating_overall"`
	Ratings        *models.FeedbackRatings `json:"ratings_json"`
	Comments       string                  `json:"comments"`
	Recommendation string                  `json:"recommendation"`
}

type StatusBody struct {
	Status string `json:"status"`
}

// parseScheduledAt accepts RFC 3339 and the browser's datetime-local format.
func parseScheduledAt(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04", v, time.Local)
}

func parseID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// POST /api/interviews
func ScheduleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		var body ScheduleBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		appID, err := uuid.Parse(body.ApplicationID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid application_id")
		}
		at, err := parseScheduledAt(body.ScheduledAt)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "scheduled_at must be a date and time")
		}
		participants := make([]uuid.UUID, 0, len(body.Participants))
		for _, p := range body.Participants {
			id, err := uuid.Parse(p)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid participant id "+p)
			}
			participants = append(participants, id)
		}

		iv, err := svc.Schedule(c.UserContext(), actor, ScheduleRequest{
			ApplicationID: appID,
			Stage:         body.Stage,
			ScheduledAt:   at,
			Location:      body.Location,
			JoinLink:      body.JoinLink,
			Participants:  participants,
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(iv)
	}
}

// GET /api/interviews/:id
func GetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "id")
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

// PUT /api/interviews/:id/status
func UpdateStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		var body StatusBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		iv, err := svc.UpdateStatus(c.UserContext(), actor, id, body.Status)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(iv)
	}
}

// POST /api/interviews/:id/feedback
func FeedbackHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		var body FeedbackBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		fb, err := svc.SubmitFeedback(c.UserContext(), actor, id, FeedbackInput(body))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fb)
	}
}

// GET /api/applications/:id/interviews
func ListForApplicationHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		list, err := svc.ListForApplication(c.UserContext(), actor, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(list)
	}
}
