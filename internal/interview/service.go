// Package interview schedules interviews, tracks their outcome and collects
// reviewer feedback.
package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hbajobs-backend/internal/apperr"
	"hbajobs-backend/internal/auth"
	"hbajobs-backend/internal/config"
	"hbajobs-backend/internal/history"
	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/store"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StageStatus is the application status an application moves to when an
// interview of the given stage is scheduled.
var StageStatus = map[models.InterviewStage]models.ApplicationStatus{
	models.StagePhoneScreen:    models.StatusPhoneScreen,
	models.StagePanelInterview: models.StatusInterview,
	models.StageDemoLesson:     models.StatusInterview,
	models.StageFinalInterview: models.StatusInterview,
}

type ScheduleRequest struct {
	ApplicationID uuid.UUID
	Stage         string
	ScheduledAt   time.Time
	Location      string
	JoinLink      string
	Participants  []uuid.UUID
}

type FeedbackInput struct {
	RatingOverall  int
	Ratings        *models.FeedbackRatings
	Comments       string
	Recommendation string
}

// Detail is an interview with its participants and submitted feedback.
type Detail struct {
	models.Interview
	Participants []models.InterviewParticipant `json:"participants"`
	Feedback     []models.InterviewFeedback    `json:"feedback"`
}

type Service struct {
	cfg *config.Config
	st  store.Store
}

func NewService(cfg *config.Config, st store.Store) *Service {
	return &Service{cfg: cfg, st: st}
}

func (s *Service) loadApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.st.GetApplication(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("application not found")
		}
		return nil, err
	}
	return app, nil
}

func (s *Service) loadInterview(ctx context.Context, id uuid.UUID) (*models.Interview, error) {
	iv, err := s.st.GetInterview(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("interview not found")
		}
		return nil, err
	}
	return iv, nil
}

// Schedule creates the interview, its participants, moves the application to
// the stage's status and records the move. No email is sent.
func (s *Service) Schedule(ctx context.Context, actor auth.Actor, req ScheduleRequest) (*models.Interview, error) {
	if !models.HasRole(s.cfg.SchedulingRoles, actor.Role) {
		return nil, apperr.Forbidden("not allowed to schedule interviews")
	}
	stage, err := models.ParseInterviewStage(req.Stage)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, err.Error(), err)
	}
	if req.ScheduledAt.IsZero() {
		return nil, apperr.Validation("scheduled_at is required")
	}

	app, err := s.loadApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireJobScope(ctx, s.cfg, s.st, actor, app.JobPostingID); err != nil {
		return nil, err
	}

	createdBy := actor.UserID
	iv := &models.Interview{
		ApplicationID: app.ID,
		Stage:         stage,
		ScheduledAt:   req.ScheduledAt,
		Location:      optional(req.Location),
		JoinLink:      optional(req.JoinLink),
		CreatedBy:     &createdBy,
		Status:        models.InterviewScheduled,
	}
	if err := s.st.CreateInterview(ctx, iv); err != nil {
		return nil, fmt.Errorf("could not create interview: %w", err)
	}

	if len(req.Participants) > 0 {
		rows := make([]models.InterviewParticipant, 0, len(req.Participants))
		for _, userID := range req.Participants {
			rows = append(rows, models.InterviewParticipant{InterviewID: iv.ID, UserID: userID})
		}
		if err := s.st.AddParticipants(ctx, rows); err != nil {
			return nil, fmt.Errorf("could not add participants: %w", err)
		}
	}

	to := StageStatus[stage]
	if err := s.st.UpdateApplicationStatus(ctx, app.ID, to); err != nil {
		return nil, err
	}
	from := app.Status
	if _, err := history.Append(ctx, s.st, history.Entry{
		ApplicationID: app.ID,
		From:          &from,
		To:            to,
		ChangedBy:     &createdBy,
		Comment:       "Interview scheduled: " + string(stage),
	}); err != nil {
		return nil, err
	}
	return iv, nil
}

func validRating(n int) bool { return n >= 1 && n <= 5 }

// SubmitFeedback stores the reviewer's feedback, replacing any earlier
// submission by the same reviewer for the same interview.
func (s *Service) SubmitFeedback(ctx context.Context, actor auth.Actor, interviewID uuid.UUID, in FeedbackInput) (*models.InterviewFeedback, error) {
	if !models.HasRole(s.cfg.FeedbackRoles, actor.Role) {
		return nil, apperr.Forbidden("not allowed to submit feedback")
	}
	if !validRating(in.RatingOverall) {
		return nil, apperr.Validation("rating_overall must be between 1 and 5")
	}
	rec := models.Recommendation(strings.TrimSpace(in.Recommendation))
	if rec == "" {
		rec = models.RecommendMaybe
	}
	if !rec.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown recommendation %q", in.Recommendation))
	}

	var ratings datatypes.JSON
	if in.Ratings != nil {
		r := in.Ratings
		for _, v := range []int{r.Communication, r.ClassroomManagement, r.CultureFit, r.SubjectKnowledge} {
			if !validRating(v) {
				return nil, apperr.Validation("detailed ratings must be between 1 and 5")
			}
		}
		b, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		ratings = datatypes.JSON(b)
	}

	iv, err := s.loadInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if err := s.requireInterviewAccess(ctx, actor, iv); err != nil {
		return nil, err
	}

	fb := &models.InterviewFeedback{
		InterviewID:    iv.ID,
		ReviewerID:     actor.UserID,
		RatingOverall:  in.RatingOverall,
		Ratings:        ratings,
		Comments:       strings.TrimSpace(in.Comments),
		Recommendation: rec,
	}
	if err := s.st.UpsertFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("could not save feedback: %w", err)
	}
	return fb, nil
}

func (s *Service) UpdateStatus(ctx context.Context, actor auth.Actor, interviewID uuid.UUID, status string) (*models.Interview, error) {
	if !models.HasRole(s.cfg.SchedulingRoles, actor.Role) {
		return nil, apperr.Forbidden("not allowed to update interviews")
	}
	st := models.InterviewStatus(strings.TrimSpace(status))
	if !st.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown interview status %q", status))
	}
	iv, err := s.loadInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	app, err := s.loadApplication(ctx, iv.ApplicationID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireJobScope(ctx, s.cfg, s.st, actor, app.JobPostingID); err != nil {
		return nil, err
	}
	if err := s.st.UpdateInterviewStatus(ctx, iv.ID, st); err != nil {
		return nil, err
	}
	iv.Status = st
	return iv, nil
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, interviewID uuid.UUID) (*Detail, error) {
	iv, err := s.loadInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if err := s.requireInterviewAccess(ctx, actor, iv); err != nil {
		return nil, err
	}
	return s.detail(ctx, *iv)
}

func (s *Service) ListForApplication(ctx context.Context, actor auth.Actor, applicationID uuid.UUID) ([]Detail, error) {
	if !models.HasRole(s.cfg.StatusChangeRoles, actor.Role) {
		return nil, apperr.Forbidden("not allowed to view interviews")
	}
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireJobScope(ctx, s.cfg, s.st, actor, app.JobPostingID); err != nil {
		return nil, err
	}
	ivs, err := s.st.ListInterviews(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	out := make([]Detail, 0, len(ivs))
	for _, iv := range ivs {
		d, err := s.detail(ctx, iv)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *Service) detail(ctx context.Context, iv models.Interview) (*Detail, error) {
	ps, err := s.st.ListParticipants(ctx, iv.ID)
	if err != nil {
		return nil, err
	}
	fb, err := s.st.ListFeedback(ctx, iv.ID)
	if err != nil {
		return nil, err
	}
	return &Detail{Interview: iv, Participants: ps, Feedback: fb}, nil
}

// requireInterviewAccess lets in participants, full-access roles and the
// hiring manager of the job the interview belongs to.
func (s *Service) requireInterviewAccess(ctx context.Context, actor auth.Actor, iv *models.Interview) error {
	if s.cfg.IsFullAccess(actor.Role) {
		return nil
	}
	ps, err := s.st.ListParticipants(ctx, iv.ID)
	if err != nil {
		return err
	}
	for _, p := range ps {
		if p.UserID == actor.UserID {
			return nil
		}
	}
	if !models.HasRole(models.StaffRoles(), actor.Role) {
		return apperr.Forbidden("not a participant of this interview")
	}
	app, err := s.loadApplication(ctx, iv.ApplicationID)
	if err != nil {
		return err
	}
	return auth.RequireJobScope(ctx, s.cfg, s.st, actor, app.JobPostingID)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
