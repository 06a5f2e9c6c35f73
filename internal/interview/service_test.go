package interview

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/auth"
	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/history"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/store/memory"

	"github.com/google/uuid"
)

type fixture struct {
	st      *memory.Store
	svc     *Service
	app     *models.Application
	hr      auth.Actor
	manager auth.Actor
}

func newFixture(t *testing.T, status models.ApplicationStatus) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	managerID := uuid.New()
	job := &models.JobPosting{Title: "Art Teacher", SchoolSite: models.SchoolWakanda, PostingStatus: models.PostingPublished, HiringManagerID: &managerID}
	if err := st.CreateJobPosting(ctx, job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	applicant := &models.Applicant{FirstName: "Frida", LastName: "Kahlo", Email: "f@x.com"}
	if err := st.CreateApplicant(ctx, applicant); err != nil {
		t.Fatalf("seed applicant: %v", err)
	}
	app := &models.Application{JobPostingID: job.ID, ApplicantID: applicant.ID, Status: status}
	if err := st.CreateApplication(ctx, app); err != nil {
		t.Fatalf("seed application: %v", err)
	}
	return &fixture{
		st:      st,
		svc:     NewService(config.Defaults(), st),
		app:     app,
		hr:      auth.Actor{UserID: uuid.New(), Role: models.RoleHR},
		manager: auth.Actor{UserID: managerID, Role: models.RoleHiringManager},
	}
}

func (f *fixture) schedule(t *testing.T, actor auth.Actor, stage string, participants ...uuid.UUID) *models.Interview {
	t.Helper()
	iv, err := f.svc.Schedule(context.Background(), actor, ScheduleRequest{
		ApplicationID: f.app.ID,
		Stage:         stage,
		ScheduledAt:   time.Now().Add(48 * time.Hour),
		Location:      "Room 4",
		Participants:  participants,
	})
	if err != nil {
		t.Fatalf("Schedule(%s): %v", stage, err)
	}
	return iv
}

func TestStageStatusCoversEveryStage(t *testing.T) {
	for _, stage := range []models.InterviewStage{models.StagePhoneScreen, models.StagePanelInterview, models.StageDemoLesson, models.StageFinalInterview} {
		if _, ok := StageStatus[stage]; !ok {
			t.Fatalf("no status for stage %q", stage)
		}
	}
}

func TestScheduleSetsApplicationStatusByStage(t *testing.T) {
	cases := map[string]models.ApplicationStatus{
		"Panel Interview": models.StatusInterview,
		"Demo Lesson":     models.StatusInterview,
		"Final Interview": models.StatusInterview,
		"Phone Screen":    models.StatusPhoneScreen,
	}
	for stage, want := range cases {
		f := newFixture(t, models.StatusUnderReview)
		iv := f.schedule(t, f.hr, stage)
		if iv.Status != models.InterviewScheduled {
			t.Fatalf("%s: interview status = %q", stage, iv.Status)
		}

		app, _ := f.st.GetApplication(context.Background(), f.app.ID)
		if app.Status != want {
			t.Fatalf("%s: application status = %q, want %q", stage, app.Status, want)
		}
		rows, _ := f.st.ListHistory(context.Background(), f.app.ID)
		if len(rows) != 1 {
			t.Fatalf("%s: history rows = %d", stage, len(rows))
		}
		h := rows[0]
		if h.FromStatus == nil || *h.FromStatus != models.StatusUnderReview || h.ToStatus != want {
			t.Fatalf("%s: unexpected history %+v", stage, h)
		}
		if h.Comment == nil || *h.Comment != "Interview scheduled: "+stage {
			t.Fatalf("%s: comment = %v", stage, h.Comment)
		}
	}
}

func TestScheduleKeepsDuplicateParticipants(t *testing.T) {
	f := newFixture(t, models.StatusSubmitted)
	p := uuid.New()
	iv := f.schedule(t, f.hr, "Demo Lesson", p, p)
	ps, _ := f.st.ListParticipants(context.Background(), iv.ID)
	if len(ps) != 2 {
		t.Fatalf("participants = %d, want 2", len(ps))
	}
}

func TestScheduleRejections(t *testing.T) {
	f := newFixture(t, models.StatusSubmitted)
	ctx := context.Background()
	at := time.Now().Add(time.Hour)

	_, err := f.svc.Schedule(ctx, f.hr, ScheduleRequest{ApplicationID: f.app.ID, Stage: "Coffee Chat", ScheduledAt: at})
	if !apperr.Is(err, apperr.CodeValidation) {
		t.Fatalf("unknown stage: err = %v", err)
	}
	_, err = f.svc.Schedule(ctx, f.hr, ScheduleRequest{ApplicationID: uuid.New(), Stage: "Phone Screen", ScheduledAt: at})
	if !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("missing application: err = %v", err)
	}
	other := auth.Actor{UserID: uuid.New(), Role: models.RoleHiringManager}
	_, err = f.svc.Schedule(ctx, other, ScheduleRequest{ApplicationID: f.app.ID, Stage: "Phone Screen", ScheduledAt: at})
	if !apperr.Is(err, apperr.CodeForbidden) {
		t.Fatalf("other manager: err = %v", err)
	}
	interviewer := auth.Actor{UserID: uuid.New(), Role: models.RoleInterviewer}
	_, err = f.svc.Schedule(ctx, interviewer, ScheduleRequest{ApplicationID: f.app.ID, Stage: "Phone Screen", ScheduledAt: at})
	if !apperr.Is(err, apperr.CodeForbidden) {
		t.Fatalf("interviewer: err = %v", err)
	}

	app, _ := f.st.GetApplication(ctx, f.app.ID)
	if app.Status != models.StatusSubmitted {
		t.Fatalf("status changed by rejected scheduling: %q", app.Status)
	}
	if ivs, _ := f.st.ListInterviews(ctx, f.app.ID); len(ivs) != 0 {
		t.Fatalf("interviews created by rejected scheduling")
	}
}

func TestHiringManagerMaySchedule(t *testing.T) {
	f := newFixture(t, models.StatusSubmitted)
	f.schedule(t, f.manager, "Phone Screen")
}

func TestFeedbackUpsertPerReviewer(t *testing.T) {
	f := newFixture(t, models.StatusSubmitted)
	reviewer := auth.Actor{UserID: uuid.New(), Role: models.RoleInterviewer}
	iv := f.schedule(t, f.hr, "Panel Interview", reviewer.UserID)
	ctx := context.Background()

	first, err := f.svc.SubmitFeedback(ctx, reviewer, iv.ID, FeedbackInput{
		RatingOverall: 3,
		Ratings:       &models.FeedbackRatings{Communication: 3, ClassroomManagement: 4, CultureFit: 5, SubjectKnowledge: 2},
	})
	if err != nil {
		t.Fatalf("first feedback: %v", err)
	}
	if first.Recommendation != models.RecommendMaybe {
		t.Fatalf("default recommendation = %q", first.Recommendation)
	}

	second, err := f.svc.SubmitFeedback(ctx, reviewer, iv.ID, FeedbackInput{RatingOverall: 5, Recommendation: "Strong Hire", Comments: "Great lesson"})
	if err != nil {
		t.Fatalf("second feedback: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert created a new row")
	}

	if _, err := f.svc.SubmitFeedback(ctx, f.hr, iv.ID, FeedbackInput{RatingOverall: 4, Recommendation: "Hire"}); err != nil {
		t.Fatalf("hr feedback: %v", err)
	}

	d, err := f.svc.Get(ctx, f.hr, iv.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(d.Feedback) != 2 {
		t.Fatalf("feedback rows = %d, want 2", len(d.Feedback))
	}
	for _, fb := range d.Feedback {
		if fb.ReviewerID == reviewer.UserID && (fb.RatingOverall != 5 || fb.Comments != "Great lesson") {
			t.Fatalf("reviewer feedback not replaced: %+v", fb)
		}
	}
}

func TestFeedbackRatingsStoredAsJSON(t *testing.T) {
	f := newFixture(t, models.StatusSubmitted)
	iv := f.schedule(t, f.hr, "Demo Lesson")
	fb, err := f.svc.SubmitFeedback(context.Background(), f.hr, iv.ID, FeedbackInput{
		RatingOverall: 4,
		Ratings:       &models.FeedbackRatings{Communication: 1, ClassroomManagement: 2, CultureFit: 3, SubjectKnowledge: 4},
	})
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(fb.Ratings, &got); err != nil {
		t.Fatalf("ratings json: %v", err)
	}
	if got["classroom_management"] != 2 || got["subject_knowledge"] != 4 {
		t.Fatalf("unexpected ratings %v", got)
	}
}

func TestFeedbackValidation(t *testing.T) {
	f := newFixture(t, models.StatusSubmitted)
	iv := f.schedule(t, f.hr, "Demo Lesson")
	ctx := context.Background()

	bad := []FeedbackInput{
		{RatingOverall: 0},
		{RatingOverall: 6},
		{RatingOverall: 3, Recommendation: "Definitely"},
		{RatingOverall: 3, Ratings: &models.FeedbackRatings{Communication: 9, ClassroomManagement: 1, CultureFit: 1, SubjectKnowledge: 1}},
	}
	for i, in := range bad {
		if _, err := f.svc.SubmitFeedback(ctx, f.hr, iv.ID, in); !apperr.Is(err, apperr.CodeValidation) {
			t.Fatalf("case %d: err = %v, want validation", i, err)
		}
	}

	outsider := auth.Actor{UserID: uuid.New(), Role: models.RoleInterviewer}
	if _, err := f.svc.SubmitFeedback(ctx, outsider, iv.ID, FeedbackInput{RatingOverall: 3}); !apperr.Is(err, apperr.CodeForbidden) {
		t.Fatalf("non-participant interviewer: err = %v", err)
	}
	applicant := auth.Actor{UserID: uuid.New(), Role: models.RoleApplicant}
	if _, err := f.svc.SubmitFeedback(ctx, applicant, iv.ID, FeedbackInput{RatingOverall: 3}); !apperr.Is(err, apperr.CodeForbidden) {
		t.Fatalf("applicant: err = %v", err)
	}
}

func TestUpdateInterviewStatus(t *testing.T) {
	f := newFixture(t, models.StatusSubmitted)
	iv := f.schedule(t, f.hr, "Final Interview")
	ctx := context.Background()

	got, err := f.svc.UpdateStatus(ctx, f.manager, iv.ID, "Completed")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != models.InterviewCompleted {
		t.Fatalf("status = %q", got.Status)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.hr, iv.ID, "Postponed"); !apperr.Is(err, apperr.CodeValidation) {
		t.Fatalf("unknown status: err = %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.hr, uuid.New(), "Cancelled"); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("missing interview: err = %v", err)
	}
}

func TestListForApplication(t *testing.T) {
	f := newFixture(t, models.StatusSubmitted)
	f.schedule(t, f.hr, "Phone Screen")
	f.schedule(t, f.hr, "Demo Lesson")

	list, err := f.svc.ListForApplication(context.Background(), f.manager, f.app.ID)
	if err != nil {
		t.Fatalf("ListForApplication: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("interviews = %d, want 2", len(list))
	}
}

func TestSchedulingKeepsSingleCreationEntry(t *testing.T) {
	f := newFixture(t, models.StatusSubmitted)
	ctx := context.Background()
	if _, err := history.Append(ctx, f.st, history.Created(f.app.ID, models.StatusSubmitted, "Application submitted")); err != nil {
		t.Fatal(err)
	}
	f.schedule(t, f.hr, "Phone Screen")
	f.schedule(t, f.manager, "Final Interview")

	rows, _ := f.st.ListHistory(ctx, f.app.ID)
	if len(rows) != 3 {
		t.Fatalf("history rows = %d, want 3", len(rows))
	}
	creation := 0
	for _, h := range rows {
		if h.FromStatus == nil {
			creation++
		}
	}
	if creation != 1 {
		t.Fatalf("creation entries = %d, want 1", creation)
	}
	if rows[0].ToStatus != models.StatusInterview || *rows[0].FromStatus != models.StatusPhoneScreen {
		t.Fatalf("newest entry = %+v", rows[0])
	}
}
