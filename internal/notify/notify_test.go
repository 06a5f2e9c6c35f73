package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hbajobs-backend/internal/store/memory"
)

type fakeProvider struct {
	mu   sync.Mutex
	sent []Email
	err  error
}

func (p *fakeProvider) Send(_ context.Context, e Email) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.sent = append(p.sent, e)
	return "msg-1", nil
}

type recordingSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *recordingSink) RecordFailure(_ Message, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs)
}

type countingProvider struct {
	calls atomic.Int32
	err   error
}

func (p *countingProvider) Send(context.Context, Email) (string, error) {
	p.calls.Add(1)
	return "", p.err
}

// blockingProvider holds every send until its context ends.
type blockingProvider struct {
	started chan struct{}
}

func (p *blockingProvider) Send(ctx context.Context, _ Email) (string, error) {
	select {
	case p.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return "", ctx.Err()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRenderEveryTemplate(t *testing.T) {
	cases := []struct {
		msg     Message
		subject string
		body    string
	}{
		{Message{Template: KeyApplicationSubmitted, Data: &ApplicationSubmittedParams{Name: "Ada", JobTitle: "Math Teacher", SchoolSite: "Harvest"}},
			"Application Received - Math Teacher", "https://jobs.test/my-applications"},
		{Message{Template: KeyHRNewApplication, Data: &HRNewApplicationParams{ApplicantName: "Ada", ApplicantEmail: "a@x.com", JobTitle: "Math Teacher", SchoolSite: "Harvest", ApplicationID: "app-1"}},
			"New Application - Math Teacher at Harvest", "https://jobs.test/admin/applicants/app-1"},
		{Message{Template: KeyStatusUpdate, Data: &StatusUpdateParams{Name: "Ada", JobTitle: "Math Teacher", NewStatus: "Under Review", Comment: "Looks good"}},
			"Application Update - Math Teacher", "Looks good"},
		{Message{Template: KeyJobOffer, Data: &JobOfferParams{Name: "Ada", JobTitle: "Math Teacher", SchoolSite: "Harvest", StartDate: "Start Date: 2025-01-15"}},
			"Job Offer - Math Teacher", "Start Date: 2025-01-15"},
		{Message{Template: KeyWelcomeHired, Data: &WelcomeHiredParams{Name: "Ada", JobTitle: "Math Teacher", SchoolSite: "Harvest", StartDate: "Aug 1"}},
			"Welcome to Harvest!", "Aug 1"},
		{Message{Template: KeyInterviewScheduled, Data: &InterviewScheduledParams{Name: "Ada", JobTitle: "Math Teacher", Details: InterviewDetails{Stage: "Demo Lesson", ScheduledAt: time.Date(2025, 3, 4, 14, 30, 0, 0, time.UTC), JoinLink: "https://meet.test/x"}}},
			"Interview Scheduled - Math Teacher", "Tuesday, March 4, 2025"},
		{Message{Template: KeyHRStatusUpdate, Data: &HRStatusUpdateParams{ApplicantName: "Ada", ApplicantEmail: "a@x.com", JobTitle: "Math Teacher", SchoolSite: "Harvest", NewStatus: "Hired", ApplicationID: "app-1"}},
			"Status Update: Ada - Math Teacher (Hired)", "Hired"},
		{Message{Template: KeyVerifyEmail, Data: &VerifyEmailParams{Name: "Ada", Token: "abc.def"}},
			"Confirm your HBA Jobs email address", "https://jobs.test/verify-email?token=abc.def"},
	}
	for _, tc := range cases {
		subject, html, err := Render("https://jobs.test", tc.msg)
		if err != nil {
			t.Fatalf("%s: %v", tc.msg.Template, err)
		}
		if subject != tc.subject {
			t.Fatalf("%s: subject = %q, want %q", tc.msg.Template, subject, tc.subject)
		}
		if !strings.Contains(html, tc.body) {
			t.Fatalf("%s: body missing %q", tc.msg.Template, tc.body)
		}
	}
}

func TestRenderEscapesParams(t *testing.T) {
	_, html, err := Render("https://jobs.test", Message{
		Template: KeyStatusUpdate,
		Data:     &StatusUpdateParams{Name: "<script>x</script>", JobTitle: "T", NewStatus: "Rejected"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>x</script>") {
		t.Fatalf("name was not escaped")
	}
}

func TestRenderRejectsMismatchedParams(t *testing.T) {
	_, _, err := Render("", Message{Template: KeyJobOffer, Data: &StatusUpdateParams{}})
	if err == nil {
		t.Fatalf("expected error for mismatched params")
	}
	if _, _, err := Render("", Message{Template: "nope"}); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

func TestDispatcherSend(t *testing.T) {
	p := &fakeProvider{}
	d := NewDispatcher(p, "from@hbajobs.org", "https://jobs.test/")
	id, err := d.Send(context.Background(), Message{
		Template: KeyApplicationSubmitted,
		To:       []string{"a@x.com"},
		Data:     &ApplicationSubmittedParams{Name: "Ada", JobTitle: "T", SchoolSite: "Wakanda"},
	})
	if err != nil || id != "msg-1" {
		t.Fatalf("send: id=%q err=%v", id, err)
	}
	if len(p.sent) != 1 || p.sent[0].From != "from@hbajobs.org" || p.sent[0].To[0] != "a@x.com" {
		t.Fatalf("unexpected email %+v", p.sent)
	}

	if _, err := d.Send(context.Background(), Message{Template: KeyApplicationSubmitted, Data: &ApplicationSubmittedParams{}}); err == nil {
		t.Fatalf("expected error without recipients")
	}
}

func statusMessage() Message {
	return Message{
		Template: KeyStatusUpdate,
		To:       []string{"a@x.com"},
		Data:     &StatusUpdateParams{Name: "Ada", JobTitle: "T", NewStatus: "Interview"},
	}
}

func newTestWorker(t *testing.T, sender Sender, sink FailureSink, opts ...WorkerOption) *Worker {
	t.Helper()
	w, err := NewWorker(sender, sink, quietLogger(), opts...)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	return w
}

func startWorker(t *testing.T, w *Worker) {
	t.Helper()
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestWorkerDeliversAndDrainsOnStop(t *testing.T) {
	p := &fakeProvider{}
	sink := &recordingSink{}
	w := newTestWorker(t, NewDispatcher(p, "f@x", ""), sink, WithConcurrency(2), WithQueueSize(8))
	startWorker(t, w)
	for i := 0; i < 5; i++ {
		w.Enqueue(statusMessage())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(p.sent) != 5 {
		t.Fatalf("sent %d, want 5", len(p.sent))
	}
	if sink.count() != 0 {
		t.Fatalf("unexpected failures: %v", sink.errs)
	}
}

func TestWorkerRecordsProviderFailureWithoutRetry(t *testing.T) {
	p := &countingProvider{err: errors.New("provider down")}
	st := memory.New()
	w := newTestWorker(t, NewDispatcher(p, "f@x", ""), NewStoreSink(st, quietLogger()))
	startWorker(t, w)
	w.Enqueue(statusMessage())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if n := p.calls.Load(); n != 1 {
		t.Fatalf("provider called %d times, want 1", n)
	}
	rows, err := st.ListNotificationFailures(context.Background(), 10)
	if err != nil {
		t.Fatalf("list failures: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("failures = %d, want 1", len(rows))
	}
	if rows[0].Template != string(KeyStatusUpdate) || rows[0].Subject != "Application Update - T" || rows[0].Recipients != "a@x.com" {
		t.Fatalf("unexpected failure row %+v", rows[0])
	}
	if !strings.Contains(rows[0].Error, "provider down") {
		t.Fatalf("error = %q", rows[0].Error)
	}
}

func TestEnqueueNeverBlocksWhenFull(t *testing.T) {
	sink := &recordingSink{}
	w := newTestWorker(t, NewDispatcher(&fakeProvider{}, "f@x", ""), sink, WithQueueSize(1))

	done := make(chan struct{})
	go func() {
		w.Enqueue(statusMessage())
		w.Enqueue(statusMessage())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Enqueue blocked on a full queue")
	}
	if sink.count() != 1 || !errors.Is(sink.errs[0], ErrQueueFull) {
		t.Fatalf("expected one ErrQueueFull, got %v", sink.errs)
	}
}

func TestEnqueueAfterStopIsRecorded(t *testing.T) {
	sink := &recordingSink{}
	w := newTestWorker(t, NewDispatcher(&fakeProvider{}, "f@x", ""), sink)
	startWorker(t, w)
	_ = w.Stop(context.Background())
	w.Enqueue(statusMessage())
	if sink.count() != 1 || !errors.Is(sink.errs[0], ErrWorkerStopped) {
		t.Fatalf("expected ErrWorkerStopped, got %v", sink.errs)
	}
}

func TestStopRecordsUndeliveredMessages(t *testing.T) {
	p := &fakeProvider{}
	sink := &recordingSink{}
	w := newTestWorker(t, NewDispatcher(p, "f@x", ""), sink, WithQueueSize(4))
	// Never started: nothing drains the queue.
	w.Enqueue(statusMessage())
	w.Enqueue(statusMessage())

	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(p.sent) != 0 {
		t.Fatalf("sent %d, want 0", len(p.sent))
	}
	if sink.count() != 2 {
		t.Fatalf("failures = %d, want 2", sink.count())
	}
	for _, err := range sink.errs {
		if !errors.Is(err, ErrWorkerStopped) {
			t.Fatalf("err = %v, want ErrWorkerStopped", err)
		}
	}
	if w.waiting() != 0 {
		t.Fatalf("%d messages still pending", w.waiting())
	}
}

func TestStopTimeoutRecordsInFlightSend(t *testing.T) {
	p := &blockingProvider{started: make(chan struct{}, 1)}
	sink := &recordingSink{}
	w := newTestWorker(t, NewDispatcher(p, "f@x", ""), sink)
	startWorker(t, w)
	w.Enqueue(statusMessage())

	select {
	case <-p.started:
	case <-time.After(10 * time.Second):
		t.Fatal("send never started")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := w.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("stop err = %v, want deadline exceeded", err)
	}
	if sink.count() != 1 {
		t.Fatalf("failures = %d, want 1", sink.count())
	}
	if w.waiting() != 0 {
		t.Fatalf("%d messages still pending", w.waiting())
	}
}
