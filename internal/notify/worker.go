package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"hbajobs-backend/internal/models"
	"hbajobs-backend/internal/store"

	"github.com/google/uuid"
	"github.com/xraph/dispatch"
	"github.com/xraph/dispatch/engine"
	"github.com/xraph/dispatch/job"
	jobmemory "github.com/xraph/dispatch/store/memory"
	"golang.org/x/time/rate"
)

var (
	ErrQueueFull     = errors.New("notify: queue full, message dropped")
	ErrWorkerStopped = errors.New("notify: worker stopped, message dropped")
)

const (
	sendEmailJob = "send-email"
	mailQueue    = "notifications"
)

// Sender delivers one message. *Dispatcher is the production Sender.
type Sender interface {
	Send(ctx context.Context, m Message) (string, error)
}

// FailureSink keeps a record of messages that were not delivered.
type FailureSink interface {
	RecordFailure(m Message, err error)
}

// delivery is the job payload. Message params are typed structs that do not
// survive a JSON round trip, so the job only carries a reference into pending.
type delivery struct {
	Ref string `json:"ref"`
}

// Worker runs sends as dispatch jobs on an in-process job store. Every job is
// enqueued with zero retries; a failed send lands in the dead letter queue and
// from there in the FailureSink.
type Worker struct {
	sender      Sender
	sink        FailureSink
	logger      *slog.Logger
	concurrency int
	queueSize   int
	limiter     *rate.Limiter
	sendTimeout time.Duration

	jobs *jobmemory.Store
	eng  *engine.Engine

	mu      sync.Mutex
	pending map[string]Message
	state   int
}

const (
	stateIdle = iota
	stateRunning
	stateStopped
)

type WorkerOption func(*Worker)

func WithConcurrency(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithQueueSize bounds how many messages may wait for delivery at once.
func WithQueueSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

// WithRate limits sends per second across all goroutines. Zero disables pacing.
func WithRate(perSecond float64) WorkerOption {
	return func(w *Worker) {
		if perSecond > 0 {
			w.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func WithSendTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.sendTimeout = d
		}
	}
}

func NewWorker(sender Sender, sink FailureSink, logger *slog.Logger, opts ...WorkerOption) (*Worker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		sender:      sender,
		sink:        sink,
		logger:      logger,
		concurrency: 2,
		queueSize:   256,
		sendTimeout: 15 * time.Second,
		pending:     make(map[string]Message),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.jobs = jobmemory.New()
	d, err := dispatch.New(
		dispatch.WithStore(w.jobs),
		dispatch.WithConcurrency(w.concurrency),
		dispatch.WithQueues([]string{mailQueue}),
		dispatch.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: dispatcher: %w", err)
	}
	eng, err := engine.Build(d, engine.WithExtension(&outcomeHook{w: w}))
	if err != nil {
		return nil, fmt.Errorf("notify: engine: %w", err)
	}
	engine.Register(eng, job.NewDefinition(sendEmailJob, w.deliver))
	w.eng = eng
	return w, nil
}

// Enqueue hands m to the background workers. It never blocks: when too many
// messages are waiting or the worker has stopped the message is recorded as failed.
func (w *Worker) Enqueue(m Message) {
	if err := w.enqueue(m); err != nil {
		w.fail(m, err)
	}
}

func (w *Worker) enqueue(m Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateStopped {
		return ErrWorkerStopped
	}
	if len(w.pending) >= w.queueSize {
		return ErrQueueFull
	}

	ref := uuid.NewString()
	w.pending[ref] = m
	_, err := engine.Enqueue(context.Background(), w.eng, sendEmailJob, delivery{Ref: ref},
		job.WithQueue(mailQueue),
		job.WithMaxRetries(0),
		job.WithTimeout(w.sendTimeout),
	)
	if err != nil {
		delete(w.pending, ref)
		return fmt.Errorf("notify: enqueue: %w", err)
	}
	return nil
}

// Start launches the delivery goroutines. It returns immediately.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != stateIdle {
		return nil
	}
	if err := w.eng.Start(ctx); err != nil {
		return fmt.Errorf("notify: start: %w", err)
	}
	w.state = stateRunning
	w.logger.Info("notification worker started",
		slog.Int("concurrency", w.concurrency),
		slog.Int("queue_size", w.queueSize),
	)
	return nil
}

// Stop refuses new messages, waits for the waiting ones to be delivered and
// shuts the engine down. Whatever is still undelivered when ctx expires is
// recorded as failed.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	wasRunning := w.state == stateRunning
	w.state = stateStopped
	w.mu.Unlock()

	var err error
	if wasRunning {
		w.logger.Info("notification worker stopping", slog.Int("pending", w.waiting()))
		err = w.drain(ctx)
		if stopErr := w.eng.Stop(ctx); stopErr != nil && err == nil {
			err = stopErr
		}
	}

	for _, m := range w.takeAll() {
		w.fail(m, ErrWorkerStopped)
	}
	if err == nil {
		w.logger.Info("notification worker stopped")
	}
	return err
}

func (w *Worker) drain(ctx context.Context) error {
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for w.waiting() > 0 {
		select {
		case <-ctx.Done():
			w.logger.Warn("notification worker shutdown timed out", slog.Int("pending", w.waiting()))
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}

func (w *Worker) waiting() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *Worker) lookup(ref string) (Message, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	m, ok := w.pending[ref]
	return m, ok
}

func (w *Worker) take(j *job.Job) (Message, bool) {
	var d delivery
	if err := json.Unmarshal(j.Payload, &d); err != nil {
		return Message{}, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	m, ok := w.pending[d.Ref]
	delete(w.pending, d.Ref)
	return m, ok
}

func (w *Worker) takeAll() []Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Message, 0, len(w.pending))
	for ref, m := range w.pending {
		out = append(out, m)
		delete(w.pending, ref)
	}
	return out
}

// deliver is the job handler. ctx carries the job timeout.
func (w *Worker) deliver(ctx context.Context, d delivery) error {
	m, ok := w.lookup(d.Ref)
	if !ok {
		return nil
	}
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	id, err := w.sender.Send(ctx, m)
	if err != nil {
		return err
	}
	w.logger.Debug("email sent",
		slog.String("template", string(m.Template)),
		slog.String("id", id),
	)
	return nil
}

func (w *Worker) fail(m Message, err error) {
	w.logger.Error("email send failed",
		slog.String("template", string(m.Template)),
		slog.String("to", strings.Join(m.To, ",")),
		slog.String("error", err.Error()),
	)
	if w.sink != nil {
		w.sink.RecordFailure(m, err)
	}
}

// outcomeHook settles pending messages as the engine finishes their jobs.
type outcomeHook struct {
	w *Worker
}

func (h *outcomeHook) Name() string { return "notify-outcome" }

func (h *outcomeHook) OnJobCompleted(_ context.Context, j *job.Job, _ time.Duration) error {
	h.w.take(j)
	return h.w.jobs.DeleteJob(context.Background(), j.ID)
}

// OnJobDLQ records the failed send. The dead letter entry is purged right away:
// the FailureSink is the durable record.
func (h *outcomeHook) OnJobDLQ(_ context.Context, j *job.Job, err error) error {
	if m, ok := h.w.take(j); ok {
		h.w.fail(m, err)
	}
	ctx := context.Background()
	if _, purgeErr := h.w.jobs.PurgeDLQ(ctx, time.Now().UTC().Add(time.Second)); purgeErr != nil {
		return purgeErr
	}
	return h.w.jobs.DeleteJob(ctx, j.ID)
}

// StoreSink writes failures to the notification_failures table.
type StoreSink struct {
	store  store.FailureStore
	logger *slog.Logger
}

func NewStoreSink(st store.FailureStore, logger *slog.Logger) *StoreSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreSink{store: st, logger: logger}
}

func (s *StoreSink) RecordFailure(m Message, sendErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f := &models.NotificationFailure{
		Template:   string(m.Template),
		Recipients: strings.Join(m.To, ","),
		Subject:    Subject(m),
		Error:      sendErr.Error(),
	}
	if err := s.store.RecordNotificationFailure(ctx, f); err != nil {
		s.logger.Error("could not record notification failure",
			slog.String("template", string(m.Template)),
			slog.String("error", err.Error()),
		)
	}
}
