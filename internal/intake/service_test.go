package intake

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/notify"
	"hbajobs-backend/internal/store"
	"hbajobs-backend/internal/store/memory"

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

type fakeStorage struct {
	objects map[string]string
}

func (s *fakeStorage) Put(_ context.Context, key string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.objects[key] = string(b)
	return s.PublicURL(key), nil
}

func (s *fakeStorage) PublicURL(key string) string {
	return "https://files.test/" + key
}

type fixture struct {
	st    *memory.Store
	files *fakeStorage
	rec   *recorder
	svc   *Service
	job   *models.JobPosting
	now   time.Time
}

func newFixture(t *testing.T, status models.PostingStatus) *fixture {
	t.Helper()
	st := memory.New()
	job := &models.JobPosting{Title: "Science Teacher", SchoolSite: models.SchoolSankofa, PostingStatus: status}
	if err := st.CreateJobPosting(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	f := &fixture{
		st:    st,
		files: &fakeStorage{objects: map[string]string{}},
		rec:   &recorder{},
		job:   job,
		now:   time.UnixMilli(1700000000000),
	}
	f.svc = NewService(config.Defaults(), st, f.files, f.rec)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) request(email string) SubmitRequest {
	return SubmitRequest{
		JobPostingID: f.job.ID,
		FirstName:    "Grace",
		LastName:     "Hopper",
		Email:        email,
		Phone:        "555-0100",
		City:         "Oakland",
		Resume:       &Document{Filename: "cv.PDF", Content: strings.NewReader("resume-bytes")},
	}
}

func TestSubmitNewApplicant(t *testing.T) {
	f := newFixture(t, models.PostingPublished)
	ctx := context.Background()

	app, err := f.svc.Submit(ctx, f.request("a@x.com"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	applicant, err := f.st.GetApplicantByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("applicant not created: %v", err)
	}
	if app.ApplicantID != applicant.ID {
		t.Fatalf("application linked to %s, want %s", app.ApplicantID, applicant.ID)
	}
	if app.Status != models.StatusSubmitted || app.SubmittedAt == nil {
		t.Fatalf("unexpected application %+v", app)
	}
	if app.Source != "Website" {
		t.Fatalf("source = %q, want Website", app.Source)
	}

	wantKey := applicant.ID.String() + "/resume_1700000000000.pdf"
	if f.files.objects[wantKey] != "resume-bytes" {
		t.Fatalf("resume not stored at %s: %v", wantKey, f.files.objects)
	}
	if app.ResumeURL != "https://files.test/"+wantKey {
		t.Fatalf("resume url = %q", app.ResumeURL)
	}
	if app.CoverLetterURL != nil {
		t.Fatalf("cover letter url should be nil")
	}

	rows, _ := f.st.ListHistory(ctx, app.ID)
	if len(rows) != 1 {
		t.Fatalf("history rows = %d, want 1", len(rows))
	}
	h := rows[0]
	if h.FromStatus != nil || h.ToStatus != models.StatusSubmitted || h.ChangedBy != nil {
		t.Fatalf("unexpected creation entry %+v", h)
	}
	if h.Comment == nil || *h.Comment != "Application submitted" {
		t.Fatalf("unexpected comment %v", h.Comment)
	}

	if len(f.rec.msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(f.rec.msgs))
	}
	if f.rec.msgs[0].Template != notify.KeyApplicationSubmitted || f.rec.msgs[0].To[0] != "a@x.com" {
		t.Fatalf("unexpected applicant message %+v", f.rec.msgs[0])
	}
	hr, ok := f.rec.msgs[1].Data.(*notify.HRNewApplicationParams)
	if f.rec.msgs[1].Template != notify.KeyHRNewApplication || !ok || hr.ApplicationID != app.ID.String() {
		t.Fatalf("unexpected HR message %+v", f.rec.msgs[1])
	}
	if f.rec.msgs[1].To[0] != "hr@hbajobs.org" {
		t.Fatalf("HR message sent to %v", f.rec.msgs[1].To)
	}
}

func TestSubmitReusesApplicantByEmail(t *testing.T) {
	f := newFixture(t, models.PostingPublished)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, f.request("a@x.com"))
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	second := f.request("  A@X.com ")
	second.Phone = "555-0199"
	second.City = "Berkeley"
	app, err := f.svc.Submit(ctx, second)
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if app.ApplicantID != first.ApplicantID {
		t.Fatalf("second submission created a new applicant")
	}
	applicant, err := f.st.GetApplicant(ctx, app.ApplicantID)
	if err != nil {
		t.Fatalf("get applicant: %v", err)
	}
	if applicant.Phone != "555-0199" || applicant.City != "Berkeley" || applicant.Email != "a@x.com" {
		t.Fatalf("contact fields not overwritten: %+v", applicant)
	}

	apps, _ := f.st.ListApplications(ctx, store.ApplicationFilter{ApplicantID: &app.ApplicantID})
	if len(apps) != 2 {
		t.Fatalf("applications for applicant = %d, want 2", len(apps))
	}
}

func TestSubmitSavesAnswersAndCoverLetter(t *testing.T) {
	f := newFixture(t, models.PostingPublished)
	req := f.request("a@x.com")
	req.CoverLetter = &Document{Filename: "letter.docx", Content: strings.NewReader("cover")}
	req.Answers = []Answer{{Question: "Why us?", Answer: "Mission"}, {Question: " ", Answer: "skipped"}}
	years := 4
	req.YearsExperience = &years

	app, err := f.svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if app.CoverLetterURL == nil || !strings.HasSuffix(*app.CoverLetterURL, "/cover_1700000000000.docx") {
		t.Fatalf("cover letter url = %v", app.CoverLetterURL)
	}
	answers, _ := f.st.ListAnswers(context.Background(), app.ID)
	if len(answers) != 1 || answers[0].Question != "Why us?" {
		t.Fatalf("unexpected answers %+v", answers)
	}
	if app.YearsExperience == nil || *app.YearsExperience != 4 {
		t.Fatalf("years experience not stored")
	}
}

func TestSubmitStoresAdditionalDocuments(t *testing.T) {
	f := newFixture(t, models.PostingPublished)
	req := f.request("docs@x.com")
	req.AdditionalDocs = []*Document{
		{Filename: "license.pdf", Content: strings.NewReader("license")},
		nil,
		{Filename: "transcript.PNG", Content: strings.NewReader("transcript")},
	}

	app, err := f.svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	var urls []string
	if err := json.Unmarshal(app.AdditionalDocs, &urls); err != nil {
		t.Fatalf("additional docs not a JSON list: %v (%s)", err, app.AdditionalDocs)
	}
	prefix := "https://files.test/" + app.ApplicantID.String()
	want := []string{prefix + "/doc1_1700000000000.pdf", prefix + "/doc2_1700000000000.png"}
	if len(urls) != len(want) || urls[0] != want[0] || urls[1] != want[1] {
		t.Fatalf("urls = %v, want %v", urls, want)
	}
	if got := f.files.objects[app.ApplicantID.String()+"/doc2_1700000000000.png"]; got != "transcript" {
		t.Fatalf("stored transcript = %q", got)
	}

	stored, err := f.st.GetApplication(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	if string(stored.AdditionalDocs) != string(app.AdditionalDocs) {
		t.Fatalf("stored docs = %s", stored.AdditionalDocs)
	}
}

func TestSubmitWithoutAdditionalDocumentsLeavesColumnEmpty(t *testing.T) {
	f := newFixture(t, models.PostingPublished)
	app, err := f.svc.Submit(context.Background(), f.request("plain@x.com"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if app.AdditionalDocs != nil {
		t.Fatalf("additional docs = %s, want nil", app.AdditionalDocs)
	}
}

func TestSubmitRejections(t *testing.T) {
	cases := []struct {
		name   string
		status models.PostingStatus
		mutate func(f *fixture, r *SubmitRequest)
		code   apperr.Code
	}{
		{"draft job", models.PostingDraft, func(*fixture, *SubmitRequest) {}, apperr.CodeValidation},
		{"closed job", models.PostingClosed, func(*fixture, *SubmitRequest) {}, apperr.CodeValidation},
		{"missing job", models.PostingPublished, func(_ *fixture, r *SubmitRequest) { r.JobPostingID = uuid.New() }, apperr.CodeNotFound},
		{"no resume", models.PostingPublished, func(_ *fixture, r *SubmitRequest) { r.Resume = nil }, apperr.CodeValidation},
		{"no name", models.PostingPublished, func(_ *fixture, r *SubmitRequest) { r.FirstName = " " }, apperr.CodeValidation},
		{"bad email", models.PostingPublished, func(_ *fixture, r *SubmitRequest) { r.Email = "not-an-email" }, apperr.CodeValidation},
		{"line break in name", models.PostingPublished, func(_ *fixture, r *SubmitRequest) {
			r.LastName = "Eve\r\nBcc: attacker@evil.example"
		}, apperr.CodeValidation},
		{"control character in city", models.PostingPublished, func(_ *fixture, r *SubmitRequest) { r.City = "Oak\x00land" }, apperr.CodeValidation},
		{"too many documents", models.PostingPublished, func(_ *fixture, r *SubmitRequest) {
			for i := 0; i <= MaxAdditionalDocs; i++ {
				r.AdditionalDocs = append(r.AdditionalDocs, &Document{Filename: "x.pdf", Content: strings.NewReader("x")})
			}
		}, apperr.CodeValidation},
	}
	for _, tc := range cases {
		f := newFixture(t, tc.status)
		req := f.request("a@x.com")
		tc.mutate(f, &req)
		_, err := f.svc.Submit(context.Background(), req)
		if !apperr.Is(err, tc.code) {
			t.Fatalf("%s: err = %v, want %s", tc.name, err, tc.code)
		}
		if _, err := f.st.GetApplicantByEmail(context.Background(), "a@x.com"); err == nil {
			t.Fatalf("%s: applicant written on rejected submission", tc.name)
		}
		if len(f.rec.msgs) != 0 {
			t.Fatalf("%s: notifications sent", tc.name)
		}
	}
}
