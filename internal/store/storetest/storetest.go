// Package storetest holds behaviour every store.Store implementation must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/store"

	"github.com/google/uuid"
)

// FeedbackUpsert submits feedback twice for the same reviewer and checks that
// the second call reports the stored row, not a fresh id.
func FeedbackUpsert(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	reviewer := &models.User{Name: "Reviewer", Email: "reviewer-" + suffix + "@hba.test", PasswordHash: "x", Role: models.RoleInterviewer}
	if err := st.CreateUser(ctx, reviewer); err != nil {
		t.Fatalf("create user: %v", err)
	}
	job := &models.JobPosting{Title: "Chemistry Teacher", SchoolSite: models.SchoolSankofa, PostingStatus: models.PostingPublished}
	if err := st.CreateJobPosting(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	applicant := &models.Applicant{FirstName: "Rosalind", LastName: "Franklin", Email: "rosalind-" + suffix + "@hba.test"}
	if err := st.CreateApplicant(ctx, applicant); err != nil {
		t.Fatalf("create applicant: %v", err)
	}
	app := &models.Application{JobPostingID: job.ID, ApplicantID: applicant.ID, Status: models.StatusInterview}
	if err := st.CreateApplication(ctx, app); err != nil {
		t.Fatalf("create application: %v", err)
	}
	iv := &models.Interview{ApplicationID: app.ID, Stage: models.StagePanelInterview, ScheduledAt: time.Now().Add(time.Hour), Status: models.InterviewScheduled}
	if err := st.CreateInterview(ctx, iv); err != nil {
		t.Fatalf("create interview: %v", err)
	}

	first := &models.InterviewFeedback{InterviewID: iv.ID, ReviewerID: reviewer.ID, RatingOverall: 3, Recommendation: models.RecommendMaybe, Comments: "first"}
	if err := st.UpsertFeedback(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second := &models.InterviewFeedback{InterviewID: iv.ID, ReviewerID: reviewer.ID, RatingOverall: 5, Recommendation: models.RecommendStrongHire, Comments: "second"}
	if err := st.UpsertFeedback(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("second upsert returned id %s, stored id is %s", second.ID, first.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	rows, err := st.ListFeedback(ctx, iv.ID)
	if err != nil {
		t.Fatalf("list feedback: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != first.ID || rows[0].RatingOverall != 5 || rows[0].Comments != "second" {
		t.Fatalf("stored feedback = %+v", rows)
	}
}
