// Package memory is an in-process store.Store used by tests and by
// STORE_DRIVER=memory. Records are copied on the way in and out.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/store"

	"github.com/google/uuid"
)

type Store struct {
	mu  sync.RWMutex
	seq int64

	users        map[uuid.UUID]models.User
	jobs         map[uuid.UUID]models.JobPosting
	applicants   map[uuid.UUID]models.Applicant
	applications map[uuid.UUID]models.Application
	answers      []models.ApplicationAnswer
	history      []seqHistory
	interviews   map[uuid.UUID]models.Interview
	participants []models.InterviewParticipant
	feedback     []models.InterviewFeedback
	offers       map[uuid.UUID]models.Offer
	hires        map[uuid.UUID]models.Hire
	failures     []models.NotificationFailure

	// order tracks insertion so listings with equal timestamps stay stable.
	order map[uuid.UUID]int64
}

type seqHistory struct {
	seq int64
	row models.StageHistory
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:        map[uuid.UUID]models.User{},
		jobs:         map[uuid.UUID]models.JobPosting{},
		applicants:   map[uuid.UUID]models.Applicant{},
		applications: map[uuid.UUID]models.Application{},
		interviews:   map[uuid.UUID]models.Interview{},
		offers:       map[uuid.UUID]models.Offer{},
		hires:        map[uuid.UUID]models.Hire{},
		order:        map[uuid.UUID]int64{},
	}
}

func (s *Store) stamp(id *uuid.UUID, createdAt, updatedAt *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	now := time.Now()
	if createdAt != nil && createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt != nil {
		*updatedAt = now
	}
	s.seq++
	s.order[*id] = s.seq
}

// ---- users ----

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return store.ErrConflict
		}
	}
	s.stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Name = u.Name
	existing.Role = u.Role
	existing.SchoolSite = u.SchoolSite
	existing.PasswordHash = u.PasswordHash
	existing.UpdatedAt = time.Now()
	s.users[u.ID] = existing
	*u = existing
	return nil
}

func (s *Store) CountUsersByRole(_ context.Context, role models.UserRole) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, u := range s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ---- job postings ----

func (s *Store) CreateJobPosting(_ context.Context, j *models.JobPosting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.PostingStatus == "" {
		j.PostingStatus = models.PostingDraft
	}
	s.stamp(&j.ID, &j.CreatedAt, &j.UpdatedAt)
	s.jobs[j.ID] = *j
	return nil
}

func (s *Store) GetJobPosting(_ context.Context, id uuid.UUID) (*models.JobPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &j, nil
}

func (s *Store) UpdateJobPosting(_ context.Context, j *models.JobPosting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.jobs[j.ID]
	if !ok {
		return store.ErrNotFound
	}
	j.CreatedAt = existing.CreatedAt
	j.CreatedBy = existing.CreatedBy
	j.UpdatedAt = time.Now()
	s.jobs[j.ID] = *j
	return nil
}

func (s *Store) ListJobPostings(_ context.Context, f store.JobFilter) ([]models.JobPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.JobPosting
	for _, j := range s.jobs {
		if f.Status != nil && j.PostingStatus != *f.Status {
			continue
		}
		if f.SchoolSite != nil && j.SchoolSite != *f.SchoolSite {
			continue
		}
		if f.Department != "" && j.Department != f.Department {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool {
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.After(out[k].CreatedAt)
		}
		return s.order[out[i].ID] > s.order[out[k].ID]
	})
	return out, nil
}

// ---- applicants ----

func (s *Store) CreateApplicant(_ context.Context, a *models.Applicant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.applicants {
		if existing.Email == a.Email {
			return store.ErrConflict
		}
	}
	s.stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	s.applicants[a.ID] = *a
	return nil
}

func (s *Store) GetApplicant(_ context.Context, id uuid.UUID) (*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.applicants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (s *Store) GetApplicantByEmail(_ context.Context, email string) (*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.applicants {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateApplicant(_ context.Context, a *models.Applicant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.applicants[a.ID]
	if !ok {
		return store.ErrNotFound
	}
	a.Email = existing.Email
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now()
	s.applicants[a.ID] = *a
	return nil
}

// ---- applications ----

func (s *Store) CreateApplication(_ context.Context, a *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	s.applications[a.ID] = *a
	return nil
}

func (s *Store) GetApplication(_ context.Context, id uuid.UUID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.applications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (s *Store) UpdateApplicationStatus(_ context.Context, id uuid.UUID, status models.ApplicationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	s.applications[id] = a
	return nil
}

func (s *Store) UpdateApplicationNotes(_ context.Context, id uuid.UUID, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok {
		return store.ErrNotFound
	}
	a.NotesInternal = notes
	a.UpdatedAt = time.Now()
	s.applications[id] = a
	return nil
}

func (s *Store) ListApplications(_ context.Context, f store.ApplicationFilter) ([]models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Application
	for _, a := range s.applications {
		if f.JobPostingID != nil && a.JobPostingID != *f.JobPostingID {
			continue
		}
		if f.ApplicantID != nil && a.ApplicantID != *f.ApplicantID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].ID] > s.order[out[j].ID] })
	return out, nil
}

func (s *Store) CreateAnswers(_ context.Context, answers []models.ApplicationAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range answers {
		s.stamp(&answers[i].ID, &answers[i].CreatedAt, nil)
		s.answers = append(s.answers, answers[i])
	}
	return nil
}

func (s *Store) ListAnswers(_ context.Context, applicationID uuid.UUID) ([]models.ApplicationAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ApplicationAnswer
	for _, a := range s.answers {
		if a.ApplicationID == applicationID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ---- stage history ----

func (s *Store) AppendHistory(_ context.Context, h *models.StageHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.ChangedAt.IsZero() {
		h.ChangedAt = time.Now()
	}
	s.seq++
	s.history = append(s.history, seqHistory{seq: s.seq, row: *h})
	return nil
}

func (s *Store) ListHistory(_ context.Context, applicationID uuid.UUID) ([]models.StageHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []seqHistory
	for _, h := range s.history {
		if h.row.ApplicationID == applicationID {
			rows = append(rows, h)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].row.ChangedAt.Equal(rows[j].row.ChangedAt) {
			return rows[i].row.ChangedAt.After(rows[j].row.ChangedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]models.StageHistory, len(rows))
	for i, r := range rows {
		out[i] = r.row
	}
	return out, nil
}

// ---- interviews ----

func (s *Store) CreateInterview(_ context.Context, i *models.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i.Status == "" {
		i.Status = models.InterviewScheduled
	}
	s.stamp(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	s.interviews[i.ID] = *i
	return nil
}

func (s *Store) GetInterview(_ context.Context, id uuid.UUID) (*models.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.interviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &i, nil
}

func (s *Store) UpdateInterviewStatus(_ context.Context, id uuid.UUID, status models.InterviewStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.interviews[id]
	if !ok {
		return store.ErrNotFound
	}
	i.Status = status
	i.UpdatedAt = time.Now()
	s.interviews[id] = i
	return nil
}

func (s *Store) ListInterviews(_ context.Context, applicationID uuid.UUID) ([]models.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Interview
	for _, i := range s.interviews {
		if i.ApplicationID == applicationID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ScheduledAt.Before(out[b].ScheduledAt) })
	return out, nil
}

func (s *Store) AddParticipants(_ context.Context, ps []models.InterviewParticipant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range ps {
		s.stamp(&ps[i].ID, &ps[i].CreatedAt, nil)
		s.participants = append(s.participants, ps[i])
	}
	return nil
}

func (s *Store) ListParticipants(_ context.Context, interviewID uuid.UUID) ([]models.InterviewParticipant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.InterviewParticipant
	for _, p := range s.participants {
		if p.InterviewID == interviewID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) UpsertFeedback(_ context.Context, f *models.InterviewFeedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.feedback {
		if existing.InterviewID == f.InterviewID && existing.ReviewerID == f.ReviewerID {
			f.ID = existing.ID
			f.CreatedAt = existing.CreatedAt
			f.UpdatedAt = time.Now()
			s.feedback[i] = *f
			return nil
		}
	}
	s.stamp(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	s.feedback = append(s.feedback, *f)
	return nil
}

func (s *Store) ListFeedback(_ context.Context, interviewID uuid.UUID) ([]models.InterviewFeedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.InterviewFeedback
	for _, f := range s.feedback {
		if f.InterviewID == interviewID {
			out = append(out, f)
		}
	}
	return out, nil
}

// ---- offers / hires ----

func (s *Store) CreateOffer(_ context.Context, o *models.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	s.offers[o.ID] = *o
	return nil
}

func (s *Store) GetOffer(_ context.Context, id uuid.UUID) (*models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.offers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &o, nil
}

func (s *Store) UpdateOffer(_ context.Context, o *models.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.offers[o.ID]
	if !ok {
		return store.ErrNotFound
	}
	o.ApplicationID = existing.ApplicationID
	o.CreatedAt = existing.CreatedAt
	o.UpdatedAt = time.Now()
	s.offers[o.ID] = *o
	return nil
}

func (s *Store) ListOffers(_ context.Context, applicationID uuid.UUID) ([]models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Offer
	for _, o := range s.offers {
		if o.ApplicationID == applicationID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].ID] > s.order[out[j].ID] })
	return out, nil
}

func (s *Store) CreateHire(_ context.Context, h *models.Hire) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&h.ID, &h.CreatedAt, &h.UpdatedAt)
	s.hires[h.ID] = *h
	return nil
}

func (s *Store) GetHire(_ context.Context, id uuid.UUID) (*models.Hire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hires[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &h, nil
}

func (s *Store) UpdateHire(_ context.Context, h *models.Hire) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.hires[h.ID]
	if !ok {
		return store.ErrNotFound
	}
	h.ApplicationID = existing.ApplicationID
	h.CreatedAt = existing.CreatedAt
	h.UpdatedAt = time.Now()
	s.hires[h.ID] = *h
	return nil
}

func (s *Store) ListHires(_ context.Context, applicationID uuid.UUID) ([]models.Hire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Hire
	for _, h := range s.hires {
		if h.ApplicationID == applicationID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].ID] > s.order[out[j].ID] })
	return out, nil
}

// ---- notification failures ----

func (s *Store) RecordNotificationFailure(_ context.Context, f *models.NotificationFailure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.FailedAt.IsZero() {
		f.FailedAt = time.Now()
	}
	s.failures = append(s.failures, *f)
	return nil
}

func (s *Store) ListNotificationFailures(_ context.Context, limit int) ([]models.NotificationFailure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.NotificationFailure, 0, len(s.failures))
	for i := len(s.failures) - 1; i >= 0; i-- {
		out = append(out, s.failures[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
