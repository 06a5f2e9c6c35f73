package applications

import (
	"context"
	"testing"
	"time"

	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/auth"
	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/history"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/store/memory"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type fixture struct {
	st        *memory.Store
	svc       *Service
	job       *models.JobPosting
	applicant *models.Applicant
	app       *models.Application
	manager   auth.Actor
	hr        auth.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	managerID := uuid.New()
	job := &models.JobPosting{Title: "Science Teacher", SchoolSite: models.SchoolSankofa, Department: "Science", PostingStatus: models.PostingPublished, HiringManagerID: &managerID}
	if err := st.CreateJobPosting(ctx, job); err != nil {
		t.Fatal(err)
	}
	applicant := &models.Applicant{FirstName: "Ada", LastName: "Lovelace", Email: "ada@x.com", Phone: "555-0100"}
	if err := st.CreateApplicant(ctx, applicant); err != nil {
		t.Fatal(err)
	}
	submitted := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	years := 4
	app := &models.Application{JobPostingID: job.ID, ApplicantID: applicant.ID, Status: models.StatusSubmitted, Source: "Website", ResumeURL: "http://files/r.pdf", NotesInternal: "strong maths", SubmittedAt: &submitted, YearsExperience: &years}
	if err := st.CreateApplication(ctx, app); err != nil {
		t.Fatal(err)
	}
	if _, err := history.Append(ctx, st, history.Created(app.ID, models.StatusSubmitted, "Application submitted")); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateAnswers(ctx, []models.ApplicationAnswer{{ApplicationID: app.ID, Question: "Why us?", Answer: "Mission"}}); err != nil {
		t.Fatal(err)
	}
	return &fixture{
		st:        st,
		svc:       NewService(config.Defaults(), st),
		job:       job,
		applicant: applicant,
		app:       app,
		manager:   auth.Actor{UserID: managerID, Role: models.RoleHiringManager},
		hr:        auth.Actor{UserID: uuid.New(), Role: models.RoleHR},
	}
}

// applicantUser creates an Applicant account and returns it as an actor.
func applicantUser(t *testing.T, st *memory.Store, email string, verified bool) auth.Actor {
	t.Helper()
	u := &models.User{Name: "Applicant", Email: models.NormalizeEmail(email), PasswordHash: "x", Role: models.RoleApplicant}
	if verified {
		now := time.Now()
		u.EmailVerifiedAt = &now
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return auth.Actor{UserID: u.ID, Role: u.Role, Email: email}
}

func TestApplicantSeesOnlyOwnApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := applicantUser(t, f.st, " ADA@x.com", true)

	rows, err := f.svc.ListMine(ctx, me)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(rows) != 1 || rows[0].JobTitle != "Science Teacher" {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].NotesInternal != "" {
		t.Fatalf("internal notes leaked to applicant")
	}

	view, err := f.svc.GetMine(ctx, me, f.app.ID)
	if err != nil {
		t.Fatalf("GetMine: %v", err)
	}
	if len(view.History) != 1 || view.History[0].FromStatus != nil {
		t.Fatalf("history = %+v", view.History)
	}

	stranger := applicantUser(t, f.st, "someone@x.com", true)
	if rows, err := f.svc.ListMine(ctx, stranger); err != nil || len(rows) != 0 {
		t.Fatalf("stranger rows = %v, %v", rows, err)
	}
	if _, err := f.svc.GetMine(ctx, stranger, f.app.ID); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("stranger GetMine: err = %v", err)
	}
}

func TestUnverifiedAccountCannotClaimApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// An account that never confirmed ada@x.com, and a token whose email claim
	// says ada@x.com for a user that does not exist.
	unverified := applicantUser(t, f.st, "ada@x.com", false)
	forged := auth.Actor{UserID: uuid.New(), Role: models.RoleApplicant, Email: "ada@x.com"}

	for name, actor := range map[string]auth.Actor{"unverified": unverified, "unknown user": forged} {
		rows, err := f.svc.ListMine(ctx, actor)
		if err != nil || len(rows) != 0 {
			t.Fatalf("%s: rows = %+v, %v", name, rows, err)
		}
		if _, err := f.svc.GetMine(ctx, actor, f.app.ID); !apperr.Is(err, apperr.CodeNotFound) {
			t.Fatalf("%s: GetMine err = %v", name, err)
		}
	}
}

func TestListForJobScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rows, err := f.svc.ListForJob(ctx, f.manager, f.job.ID, "")
	if err != nil {
		t.Fatalf("manager ListForJob: %v", err)
	}
	if len(rows) != 1 || rows[0].ApplicantEmail != "ada@x.com" {
		t.Fatalf("rows = %+v", rows)
	}
	if rows, _ := f.svc.ListForJob(ctx, f.hr, f.job.ID, "Hired"); len(rows) != 0 {
		t.Fatalf("status filter ignored")
	}
	if _, err := f.svc.ListForJob(ctx, f.hr, f.job.ID, "Pending"); !apperr.Is(err, apperr.CodeValidation) {
		t.Fatalf("bad status: err = %v", err)
	}

	other := auth.Actor{UserID: uuid.New(), Role: models.RoleHiringManager}
	if _, err := f.svc.ListForJob(ctx, other, f.job.ID, ""); !apperr.Is(err, apperr.CodeForbidden) {
		t.Fatalf("other manager: err = %v", err)
	}
	applicant := auth.Actor{UserID: uuid.New(), Role: models.RoleApplicant}
	if _, err := f.svc.ListForJob(ctx, applicant, f.job.ID, ""); !apperr.Is(err, apperr.CodeForbidden) {
		t.Fatalf("applicant: err = %v", err)
	}
	if _, err := f.svc.ListForJob(ctx, f.hr, uuid.New(), ""); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("missing job: err = %v", err)
	}
}

func TestDetailAndNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.UpdateNotes(ctx, f.manager, f.app.ID, "call references"); err != nil {
		t.Fatalf("UpdateNotes: %v", err)
	}
	d, err := f.svc.Get(ctx, f.hr, f.app.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Application.NotesInternal != "call references" {
		t.Fatalf("notes = %q", d.Application.NotesInternal)
	}
	if d.Applicant.Email != "ada@x.com" || d.Job.ID != f.job.ID || len(d.Answers) != 1 || len(d.History) != 1 {
		t.Fatalf("detail = %+v", d)
	}
	if rows, _ := f.st.ListHistory(ctx, f.app.ID); len(rows) != 1 {
		t.Fatalf("notes update wrote history")
	}

	other := auth.Actor{UserID: uuid.New(), Role: models.RolePrincipal}
	if err := f.svc.UpdateNotes(ctx, other, f.app.ID, "x"); !apperr.Is(err, apperr.CodeForbidden) {
		t.Fatalf("other principal: err = %v", err)
	}
	if _, err := f.svc.Get(ctx, f.hr, uuid.New()); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("missing application: err = %v", err)
	}
}

func TestExportWorkbook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Export(ctx, f.manager, ExportFilter{}); !apperr.Is(err, apperr.CodeForbidden) {
		t.Fatalf("manager export: err = %v", err)
	}

	buf, err := f.svc.Export(ctx, f.hr, ExportFilter{JobPostingID: &f.job.ID})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	book, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer book.Close()
	rows, err := book.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[0][0] != "Application ID" {
		t.Fatalf("header = %v", rows[0])
	}
	got := rows[1]
	if got[0] != f.app.ID.String() || got[1] != "Ada Lovelace" || got[4] != "Science Teacher" || got[7] != "Submitted" || got[10] != "2026-02-01 10:00" {
		t.Fatalf("row = %v", got)
	}
}
