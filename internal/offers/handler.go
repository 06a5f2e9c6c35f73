package offers

import (
	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OfferRequest struct {
	Status         *string  `json:"status"`
	Salary         *float64 `json:"salary"`
	StartDate      *string  `json:"start_date"` // YYYY-MM-DD
	OfferLetterURL *string  `json:"offer_letter_url"`
}

type HireRequest struct {
	EmployeeInternalID *string `json:"employee_internal_id"`
	SchoolSite         *string `json:"school_site"`
	PositionTitle      *string `json:"position_title"`
	StartDate          *string `json:"start_date"`
	OnboardingStatus   *string `json:"onboarding_status"`
}

func actorAndID(c *fiber.Ctx) (auth.Actor, uuid.UUID, error) {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return auth.Actor{}, uuid.Nil, err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return auth.Actor{}, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return actor, id, nil
}

// POST /api/admin/applications/:id/offers
func CreateOfferHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, id, err := actorAndID(c)
		if err != nil {
			return err
		}
		var body OfferRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		o, err := svc.CreateOffer(c.UserContext(), actor, id, OfferInput(body))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(o)
	}
}

// GET /api/admin/applications/:id/offers
func ListOffersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, id, err := actorAndID(c)
		if err != nil {
			return err
		}
		rows, err := svc.ListOffers(c.UserContext(), actor, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(rows)
	}
}

// PUT /api/admin/offers/:id
func UpdateOfferHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, id, err := actorAndID(c)
		if err != nil {
			return err
		}
		var body OfferRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		o, err := svc.UpdateOffer(c.UserContext(), actor, id, OfferInput(body))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(o)
	}
}

// POST /api/admin/applications/:id/hires
func CreateHireHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, id, err := actorAndID(c)
		if err != nil {
			return err
		}
		var body HireRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		h, err := svc.CreateHire(c.UserContext(), actor, id, HireInput(body))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(h)
	}
}

// GET /api/admin/applications/:id/hires
func ListHiresHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, id, err := actorAndID(c)
		if err != nil {
			return err
		}
		rows, err := svc.ListHires(c.UserContext(), actor, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(rows)
	}
}

// PUT /api/admin/hires/:id
func UpdateHireHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, id, err := actorAndID(c)
		if err != nil {
			return err
		}
		var body HireRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		h, err := svc.UpdateHire(c.UserContext(), actor, id, HireInput(body))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(h)
	}
}
