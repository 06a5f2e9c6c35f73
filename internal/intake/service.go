// Package intake accepts job applications from the public careers site.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/history"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/notify"
	"hbajobs-backend/internal/storage"
	"hbajobs-backend/internal/store"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	defaultSource    = "Website"
	submittedComment = "Application submitted"

	// MaxAdditionalDocs caps the supporting files stored with one application.
	MaxAdditionalDocs = 5
)

type Document struct {
	Filename string
	Content  io.Reader
}

type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type SubmitRequest struct {
	JobPostingID uuid.UUID

	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	City      string
	State     string
	Zip       string
	LinkedIn  string
	Website   string

	Source          string
	YearsExperience *int
	Certifications  string

	Resume         *Document
	CoverLetter    *Document
	AdditionalDocs []*Document
	Answers        []Answer
}

type Service struct {
	cfg      *config.Config
	st       store.Store
	files    storage.Storage
	notifier notify.Notifier
	now      func() time.Time
}

func NewService(cfg *config.Config, st store.Store, files storage.Storage, notifier notify.Notifier) *Service {
	return &Service{cfg: cfg, st: st, files: files, notifier: notifier, now: time.Now}
}

func (r *SubmitRequest) validate() error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = models.NormalizeEmail(r.Email)
	if r.FirstName == "" || r.LastName == "" {
		return apperr.Validation("first and last name are required")
	}
	for _, field := range []struct{ name, value string }{
		{"first name", r.FirstName}, {"last name", r.LastName}, {"phone", r.Phone},
		{"address", r.Address}, {"city", r.City}, {"state", r.State}, {"zip", r.Zip},
		{"linkedin", r.LinkedIn}, {"website", r.Website}, {"source", r.Source},
	} {
		if hasControl(field.value) {
			return apperr.Validation(field.name + " contains invalid characters")
		}
	}
	if r.Email == "" {
		return apperr.Validation("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return apperr.Validation("email is not valid")
	}
	if r.Resume == nil || r.Resume.Content == nil {
		return apperr.Validation("resume is required")
	}
	if len(r.AdditionalDocs) > MaxAdditionalDocs {
		return apperr.Validation(fmt.Sprintf("at most %d additional documents are allowed", MaxAdditionalDocs))
	}
	if r.YearsExperience != nil && *r.YearsExperience < 0 {
		return apperr.Validation("years of experience cannot be negative")
	}
	if strings.TrimSpace(r.Source) == "" {
		r.Source = defaultSource
	}
	return nil
}

// hasControl reports line breaks and other control characters, which are never
// valid in single-line contact fields.
func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// Submit records a new application. Steps run one after another without a
// transaction; a failing step aborts the rest and leaves earlier writes in place.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.Application, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	job, err := s.st.GetJobPosting(ctx, req.JobPostingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("job posting not found")
		}
		return nil, err
	}
	if job.PostingStatus != models.PostingPublished {
		return nil, apperr.Validation("job posting is not accepting applications")
	}

	applicant, err := s.upsertApplicant(ctx, req)
	if err != nil {
		return nil, err
	}

	resumeURL, err := s.storeDocument(ctx, applicant.ID, "resume", req.Resume)
	if err != nil {
		return nil, err
	}
	var coverURL *string
	if req.CoverLetter != nil && req.CoverLetter.Content != nil {
		u, err := s.storeDocument(ctx, applicant.ID, "cover", req.CoverLetter)
		if err != nil {
			return nil, err
		}
		coverURL = &u
	}
	extraDocs, err := s.storeAdditional(ctx, applicant.ID, req.AdditionalDocs)
	if err != nil {
		return nil, err
	}

	submittedAt := s.now()
	app := &models.Application{
		JobPostingID:    job.ID,
		ApplicantID:     applicant.ID,
		Source:          req.Source,
		Status:          models.StatusSubmitted,
		ResumeURL:       resumeURL,
		CoverLetterURL:  coverURL,
		AdditionalDocs:  extraDocs,
		YearsExperience: req.YearsExperience,
		Certifications:  strings.TrimSpace(req.Certifications),
		SubmittedAt:     &submittedAt,
	}
	if err := s.st.CreateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("could not create application: %w", err)
	}

	if answers := answerRows(app.ID, req.Answers); len(answers) > 0 {
		if err := s.st.CreateAnswers(ctx, answers); err != nil {
			return nil, fmt.Errorf("could not save answers: %w", err)
		}
	}

	if _, err := history.Append(ctx, s.st, history.Created(app.ID, models.StatusSubmitted, submittedComment)); err != nil {
		return nil, err
	}

	s.announce(applicant, job, app)
	return app, nil
}

// upsertApplicant matches on the normalised email. An existing record gets its
// contact fields overwritten; concurrent submissions resolve as last write wins.
func (s *Service) upsertApplicant(ctx context.Context, req SubmitRequest) (*models.Applicant, error) {
	existing, err := s.st.GetApplicantByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return s.overwriteContact(ctx, existing, req)
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	a := &models.Applicant{Email: req.Email}
	applyContact(a, req)
	err = s.st.CreateApplicant(ctx, a)
	if errors.Is(err, store.ErrConflict) {
		// Someone else created the row between our read and insert.
		existing, err = s.st.GetApplicantByEmail(ctx, req.Email)
		if err != nil {
			return nil, err
		}
		return s.overwriteContact(ctx, existing, req)
	}
	if err != nil {
		return nil, fmt.Errorf("could not create applicant: %w", err)
	}
	return a, nil
}

func (s *Service) overwriteContact(ctx context.Context, a *models.Applicant, req SubmitRequest) (*models.Applicant, error) {
	applyContact(a, req)
	if err := s.st.UpdateApplicant(ctx, a); err != nil {
		return nil, fmt.Errorf("could not update applicant: %w", err)
	}
	return a, nil
}

func applyContact(a *models.Applicant, req SubmitRequest) {
	a.FirstName = req.FirstName
	a.LastName = req.LastName
	a.Phone = strings.TrimSpace(req.Phone)
	a.Address = strings.TrimSpace(req.Address)
	a.City = strings.TrimSpace(req.City)
	a.State = strings.TrimSpace(req.State)
	a.Zip = strings.TrimSpace(req.Zip)
	if v := strings.TrimSpace(req.LinkedIn); v != "" {
		a.LinkedIn = v
	}
	if v := strings.TrimSpace(req.Website); v != "" {
		a.Website = v
	}
}

func (s *Service) storeDocument(ctx context.Context, applicantID uuid.UUID, kind string, doc *Document) (string, error) {
	key := storage.DocumentKey(applicantID.String(), kind, s.now().UnixMilli(), doc.Filename)
	url, err := s.files.Put(ctx, key, doc.Content)
	if err != nil {
		return "", fmt.Errorf("could not store %s: %w", kind, err)
	}
	return url, nil
}

// storeAdditional uploads the supporting files as doc1, doc2, ... and returns
// their URLs as a JSON array. No files yields a nil column.
func (s *Service) storeAdditional(ctx context.Context, applicantID uuid.UUID, docs []*Document) (datatypes.JSON, error) {
	var urls []string
	for _, doc := range docs {
		if doc == nil || doc.Content == nil {
			continue
		}
		u, err := s.storeDocument(ctx, applicantID, fmt.Sprintf("doc%d", len(urls)+1), doc)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	if len(urls) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(urls)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func answerRows(applicationID uuid.UUID, answers []Answer) []models.ApplicationAnswer {
	var rows []models.ApplicationAnswer
	for _, a := range answers {
		q := strings.TrimSpace(a.Question)
		if q == "" {
			continue
		}
		rows = append(rows, models.ApplicationAnswer{
			ApplicationID: applicationID,
			Question:      q,
			Answer:        a.Answer,
		})
	}
	return rows
}

func (s *Service) announce(applicant *models.Applicant, job *models.JobPosting, app *models.Application) {
	name := applicant.FullName()
	site := string(job.SchoolSite)

	s.notifier.Enqueue(notify.Message{
		Template: notify.KeyApplicationSubmitted,
		To:       []string{applicant.Email},
		Data:     &notify.ApplicationSubmittedParams{Name: name, JobTitle: job.Title, SchoolSite: site},
	})
	s.notifier.Enqueue(notify.Message{
		Template: notify.KeyHRNewApplication,
		To:       []string{s.cfg.HRMailbox},
		Data: &notify.HRNewApplicationParams{
			ApplicantName:  name,
			ApplicantEmail: applicant.Email,
			JobTitle:       job.Title,
			SchoolSite:     site,
			ApplicationID:  app.ID.String(),
		},
	})
}
