// Package emails exposes endpoints that queue a transactional email on demand,
// for clients that want to re-send or send outside the built-in flows.
package emails

import (
	"errors"
	"net/mail"
	"strings"

	"hbajobs-backend/internal/auth"
	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/notify"
	"hbajobs-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ApplicationSubmittedRequest struct {
	ApplicationID string `json:"applicationId"`
}

type InterviewScheduledRequest struct {
	ApplicantEmail   string                  `json:"applicantEmail"`
	ApplicantName    string                  `json:"applicantName"`
	JobTitle         string                  `json:"jobTitle"`
	InterviewDetails notify.InterviewDetails `json:"interviewDetails"`
}

// POST /api/emails/application-submitted
//
// Queues the applicant confirmation and the HR notice for an existing
// application. Staff may trigger it for any application; anyone else only
// for their own.
func ApplicationSubmittedHandler(cfg *config.Config, st store.Store, notifier notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		var body ApplicationSubmittedRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if strings.TrimSpace(body.ApplicationID) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "applicationId is required")
		}
		id, err := uuid.Parse(strings.TrimSpace(body.ApplicationID))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid applicationId")
		}

		ctx := c.UserContext()
		app, err := st.GetApplication(ctx, id)
		if err != nil {
			return lookupError(err)
		}
		applicant, err := st.GetApplicant(ctx, app.ApplicantID)
		if err != nil {
			return lookupError(err)
		}
		if !models.HasRole(models.StaffRoles(), actor.Role) {
			email, ok := auth.VerifiedEmail(ctx, st, actor)
			if !ok || email != applicant.Email {
				return fiber.NewError(fiber.StatusNotFound, "application not found")
			}
		}
		job, err := st.GetJobPosting(ctx, app.JobPostingID)
		if err != nil {
			return lookupError(err)
		}

		name := applicant.FullName()
		site := string(job.SchoolSite)
		notifier.Enqueue(notify.Message{
			Template: notify.KeyApplicationSubmitted,
			To:       []string{applicant.Email},
			Data:     &notify.ApplicationSubmittedParams{Name: name, JobTitle: job.Title, SchoolSite: site},
		})
		notifier.Enqueue(notify.Message{
			Template: notify.KeyHRNewApplication,
			To:       []string{cfg.HRMailbox},
			Data: &notify.HRNewApplicationParams{
				ApplicantName:  name,
				ApplicantEmail: applicant.Email,
				JobTitle:       job.Title,
				SchoolSite:     site,
				ApplicationID:  app.ID.String(),
			},
		})
		return c.JSON(fiber.Map{"success": true})
	}
}

// POST /api/emails/interview-scheduled
func InterviewScheduledHandler(notifier notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body InterviewScheduledRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		addr, err := mail.ParseAddress(strings.TrimSpace(body.ApplicantEmail))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "applicantEmail is not a valid address")
		}
		if strings.TrimSpace(body.JobTitle) == "" || strings.TrimSpace(body.InterviewDetails.Stage) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "jobTitle and interviewDetails.stage are required")
		}

		notifier.Enqueue(notify.Message{
			Template: notify.KeyInterviewScheduled,
			To:       []string{models.NormalizeEmail(addr.Address)},
			Data: &notify.InterviewScheduledParams{
				Name:     strings.TrimSpace(body.ApplicantName),
				JobTitle: strings.TrimSpace(body.JobTitle),
				Details:  body.InterviewDetails,
			},
		})
		return c.JSON(fiber.Map{"success": true, "message": "Interview scheduled email queued"})
	}
}

func lookupError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "application not found")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "could not load application")
}
