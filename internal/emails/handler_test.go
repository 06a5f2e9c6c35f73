package emails

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"hbajobs-backend/internal/auth"
	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/notify"
	"hbajobs-backend/internal/store/memory"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type recorder struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recorder) Enqueue(m notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func post(t *testing.T, app *fiber.App, path, body string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp.StatusCode
}

func TestApplicationSubmittedEmails(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	job := &models.JobPosting{Title: "Librarian", SchoolSite: models.SchoolSankofa}
	st.CreateJobPosting(ctx, job)
	applicant := &models.Applicant{FirstName: "Toni", LastName: "Morrison", Email: "toni@x.com"}
	st.CreateApplicant(ctx, applicant)
	appRow := &models.Application{JobPostingID: job.ID, ApplicantID: applicant.ID, Status: models.StatusSubmitted}
	st.CreateApplication(ctx, appRow)

	verifiedAt := time.Now()
	owner := &models.User{Name: "Toni", Email: "toni@x.com", PasswordHash: "x", Role: models.RoleApplicant, EmailVerifiedAt: &verifiedAt}
	st.CreateUser(ctx, owner)
	impostor := &models.User{Name: "Not Toni", Email: "toni2@x.com", PasswordHash: "x", Role: models.RoleApplicant}
	st.CreateUser(ctx, impostor)

	rec := &recorder{}
	actor := auth.Actor{UserID: owner.ID, Role: models.RoleApplicant, Email: "toni@x.com"}
	app := fiber.New()
	app.Post("/api/emails/application-submitted", func(c *fiber.Ctx) error {
		auth.WithActor(c, actor)
		return c.Next()
	}, ApplicationSubmittedHandler(config.Defaults(), st, rec))

	if code := post(t, app, "/api/emails/application-submitted", `{"applicationId":"`+appRow.ID.String()+`"}`); code != fiber.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if len(rec.msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(rec.msgs))
	}
	if rec.msgs[0].Template != notify.KeyApplicationSubmitted || rec.msgs[0].To[0] != "toni@x.com" {
		t.Fatalf("first message = %+v", rec.msgs[0])
	}
	if rec.msgs[1].Template != notify.KeyHRNewApplication || rec.msgs[1].To[0] != "hr@hbajobs.org" {
		t.Fatalf("second message = %+v", rec.msgs[1])
	}

	if code := post(t, app, "/api/emails/application-submitted", `{}`); code != fiber.StatusBadRequest {
		t.Fatalf("missing id: status code = %d", code)
	}
	if code := post(t, app, "/api/emails/application-submitted", `{"applicationId":"`+uuid.NewString()+`"}`); code != fiber.StatusNotFound {
		t.Fatalf("unknown id: status code = %d", code)
	}

	actor = auth.Actor{UserID: uuid.New(), Role: models.RoleApplicant, Email: "other@x.com"}
	if code := post(t, app, "/api/emails/application-submitted", `{"applicationId":"`+appRow.ID.String()+`"}`); code != fiber.StatusNotFound {
		t.Fatalf("not owner: status code = %d", code)
	}
	// The email claim alone is not proof of ownership.
	actor = auth.Actor{UserID: impostor.ID, Role: models.RoleApplicant, Email: "toni@x.com"}
	if code := post(t, app, "/api/emails/application-submitted", `{"applicationId":"`+appRow.ID.String()+`"}`); code != fiber.StatusNotFound {
		t.Fatalf("unverified claim: status code = %d", code)
	}
	if len(rec.msgs) != 2 {
		t.Fatalf("rejected requests queued email")
	}
}

func TestInterviewScheduledEmail(t *testing.T) {
	rec := &recorder{}
	app := fiber.New()
	app.Post("/api/emails/interview-scheduled", InterviewScheduledHandler(rec))

	body := `{"applicantEmail":"Kim@X.com","applicantName":"Kim","jobTitle":"Coach","interviewDetails":{"stage":"Panel Interview","scheduled_at":"2030-01-02T15:00:00Z","location":"Gym"}}`
	if code := post(t, app, "/api/emails/interview-scheduled", body); code != fiber.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if len(rec.msgs) != 1 {
		t.Fatalf("messages = %d", len(rec.msgs))
	}
	m := rec.msgs[0]
	p, ok := m.Data.(*notify.InterviewScheduledParams)
	if !ok || m.To[0] != "kim@x.com" || p.Details.Stage != "Panel Interview" || p.Details.Location != "Gym" {
		t.Fatalf("message = %+v", m)
	}

	if code := post(t, app, "/api/emails/interview-scheduled", `{"applicantEmail":"nope","jobTitle":"x","interviewDetails":{"stage":"Demo Lesson"}}`); code != fiber.StatusBadRequest {
		t.Fatalf("bad email: status code = %d", code)
	}
}
