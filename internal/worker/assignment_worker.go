package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ricirt/grievance-queue/internal/assign"
	"github.com/ricirt/grievance-queue/internal/domain"
	"github.com/ricirt/grievance-queue/internal/queue"
	"github.com/ricirt/grievance-queue/internal/ratelimiter"
	"github.com/ricirt/grievance-queue/internal/repository"
)

// Hooks carries the metric callbacks injected by main.
// Any nil hook is a no-op.
type Hooks struct {
	OnSent         func(municipality string, latency time.Duration)
	OnFailed       func(municipality string, latency time.Duration)
	OnDiscarded    func(reason string)
	OnDeadLettered func(queue string)
}

// AssignmentConfig tunes the assignment loop.
type AssignmentConfig struct {
	// IdleInterval is slept when the processed queue is empty.
	IdleInterval time.Duration
	// FailureBackoff is slept after a failed assignment call; the same head
	// is retried afterwards.
	FailureBackoff time.Duration
	// ErrorBackoff is slept after a queue store error.
	ErrorBackoff time.Duration
	// MaxAttempts caps consecutive failures of one head before it is moved
	// to the failed list. Zero retries forever.
	MaxAttempts int
	// Regions is the municipality allow-list.
	Regions domain.Regions
	// UnservedQueue receives out-of-scope complaints. Empty discards them.
	UnservedQueue string
}

// AssignmentWorker drains the processed queue into the assignment service.
//
// It only peeks the head; the head is removed after the assignment service
// acknowledges it, so a complaint is never lost to a failed call (at-least-once).
// A head that keeps failing blocks everything behind it until it succeeds,
// hits MaxAttempts, or is removed by an operator.
type AssignmentWorker struct {
	q        *queue.ProcessedQueue
	assigner assign.Assigner
	limiter  *ratelimiter.RegionLimiters
	events   repository.AssignmentEventRepository
	cfg      AssignmentConfig
	logger   *zap.Logger
	hooks    Hooks

	running atomic.Bool
	// wake interrupts idle and backoff sleeps on Stop.
	wake chan struct{}

	// Consecutive failures of the current head. Only touched by the loop goroutine.
	headRaw      string
	headAttempts int
}

// NewAssignmentWorker constructs a stopped worker. limiter and events may be nil.
func NewAssignmentWorker(
	q *queue.ProcessedQueue,
	assigner assign.Assigner,
	limiter *ratelimiter.RegionLimiters,
	events repository.AssignmentEventRepository,
	cfg AssignmentConfig,
	logger *zap.Logger,
	hooks Hooks,
) *AssignmentWorker {
	if limiter == nil {
		limiter = ratelimiter.New(0)
	}
	if hooks.OnSent == nil {
		hooks.OnSent = func(string, time.Duration) {}
	}
	if hooks.OnFailed == nil {
		hooks.OnFailed = func(string, time.Duration) {}
	}
	if hooks.OnDiscarded == nil {
		hooks.OnDiscarded = func(string) {}
	}
	if hooks.OnDeadLettered == nil {
		hooks.OnDeadLettered = func(string) {}
	}
	return &AssignmentWorker{
		q: q, assigner: assigner, limiter: limiter, events: events,
		cfg: cfg, logger: logger, hooks: hooks,
		wake: make(chan struct{}, 1),
	}
}

// Start marks the worker running and launches the loop in a goroutine.
// The returned channel is closed when the loop exits.
func (w *AssignmentWorker) Start(ctx context.Context) <-chan struct{} {
	w.markRunning()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.loop(ctx)
	}()
	return done
}

// Run marks the worker running and blocks until Stop is called or ctx is cancelled.
func (w *AssignmentWorker) Run(ctx context.Context) {
	w.markRunning()
	w.loop(ctx)
}

// Stop asks the loop to exit. It never cancels anything: an in-flight
// assignment call completes (and its head is popped on success) before the
// flag is observed at the top of the next iteration. A pending idle or
// backoff sleep ends early.
func (w *AssignmentWorker) Stop() {
	w.running.Store(false)
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *AssignmentWorker) markRunning() {
	select {
	case <-w.wake:
	default:
	}
	w.running.Store(true)
}

// Running reports whether the loop is (still) supposed to run.
func (w *AssignmentWorker) Running() bool {
	return w.running.Load()
}

func (w *AssignmentWorker) loop(ctx context.Context) {
	w.logger.Info("assignment worker started",
		zap.Int("regions", w.cfg.Regions.Len()),
		zap.Int("max_attempts", w.cfg.MaxAttempts),
		zap.Duration("idle_interval", w.cfg.IdleInterval),
	)

	for w.running.Load() && ctx.Err() == nil {
		_, wait := w.safeRunOnce(ctx)
		if wait > 0 {
			w.sleep(ctx, wait)
		}
	}

	w.running.Store(false)
	w.logger.Info("assignment worker stopping")
}

// safeRunOnce keeps a panic in one iteration from killing the loop.
func (w *AssignmentWorker) safeRunOnce(ctx context.Context) (outcome domain.Outcome, wait time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("assignment iteration panicked", zap.Any("panic", r))
			outcome, wait = domain.OutcomeStoreError, w.cfg.ErrorBackoff
		}
	}()
	return w.RunOnce(ctx)
}

// RunOnce processes the current head of the processed queue and returns what
// happened plus how long the loop should wait before the next iteration.
func (w *AssignmentWorker) RunOnce(ctx context.Context) (domain.Outcome, time.Duration) {
	raw, ok, err := w.q.Peek(ctx)
	if err != nil {
		w.logger.Error("peek processed queue failed", zap.Error(err))
		return domain.OutcomeStoreError, w.cfg.ErrorBackoff
	}
	if !ok {
		return domain.OutcomeIdle, w.cfg.IdleInterval
	}

	c, err := domain.DecodeProcessedComplaint([]byte(raw))
	switch {
	case errors.Is(err, domain.ErrMalformedPayload):
		w.logger.Warn("processed head is not valid JSON, moving to malformed list",
			zap.String("malformed_queue", queue.AssignmentMalformedQueue), zap.Error(err))
		return w.relocate(ctx, c, domain.OutcomeMalformed, queue.AssignmentMalformedQueue, err)
	case errors.Is(err, domain.ErrMissingID):
		w.logger.Warn("processed head has no complaint id, moving to malformed list",
			zap.String("municipality", c.Municipality),
			zap.String("malformed_queue", queue.AssignmentMalformedQueue))
		return w.relocate(ctx, c, domain.OutcomeMissingID, queue.AssignmentMalformedQueue, err)
	case errors.Is(err, domain.ErrUnknownPayloadVersion):
		w.logger.Warn("processed head has an unknown payload version, discarding", zap.Error(err))
		return w.discard(ctx, c, domain.OutcomeUnknownVersion, err)
	case err != nil:
		w.logger.Warn("processed head has no municipality, discarding",
			zap.String("complaint_id", c.ID), zap.Error(err))
		return w.discard(ctx, c, domain.OutcomeMissingField, err)
	}

	log := w.logger.With(
		zap.String("complaint_id", c.ID),
		zap.String("municipality", c.Municipality),
	)

	if !w.cfg.Regions.Allowed(c.Municipality) {
		scopeErr := fmt.Errorf("%w: %s", domain.ErrOutOfScope, c.Municipality)
		if w.cfg.UnservedQueue != "" {
			log.Warn("municipality not served, redirecting",
				zap.String("unserved_queue", w.cfg.UnservedQueue))
			return w.relocate(ctx, c, domain.OutcomeRedirected, w.cfg.UnservedQueue, scopeErr)
		}
		log.Warn("municipality not served, discarding")
		return w.discard(ctx, c, domain.OutcomeOutOfScope, scopeErr)
	}

	if err := w.limiter.Wait(ctx, c.Municipality); err != nil {
		// ctx cancelled while waiting: the worker is shutting down.
		return domain.OutcomeIdle, 0
	}

	start := time.Now()
	err = w.assigner.Assign(ctx, c)
	elapsed := time.Since(start)
	attempt := w.attemptFor(raw)

	if err != nil {
		w.headAttempts = attempt
		w.hooks.OnFailed(c.Municipality, elapsed)
		log.Warn("assignment call failed",
			zap.Error(err), zap.Int("attempt", attempt), zap.Duration("latency", elapsed))

		if w.cfg.MaxAttempts > 0 && attempt >= w.cfg.MaxAttempts {
			log.Error("assignment attempts exhausted, moving to failed list",
				zap.String("failed_queue", queue.AssignmentFailedQueue))
			w.resetAttempts()
			return w.relocateAttempt(ctx, c, domain.OutcomeExhausted, queue.AssignmentFailedQueue, err, attempt)
		}

		w.record(ctx, c, domain.OutcomeFailed, attempt, err)
		return domain.OutcomeFailed, w.cfg.FailureBackoff
	}

	w.resetAttempts()
	w.hooks.OnSent(c.Municipality, elapsed)
	w.record(ctx, c, domain.OutcomeAssigned, attempt, nil)
	log.Info("complaint assigned", zap.Int("attempt", attempt), zap.Duration("latency", elapsed))

	popped, ok, err := w.q.Pop(ctx)
	if err != nil {
		// The complaint stays queued and will be assigned again.
		log.Error("failed to remove assigned complaint", zap.Error(err))
		return domain.OutcomeStoreError, w.cfg.ErrorBackoff
	}
	if !ok || popped != raw {
		log.Warn("processed queue head changed before removal")
	}
	return domain.OutcomeAssigned, 0
}

// attemptFor returns the attempt number of the current call for raw.
func (w *AssignmentWorker) attemptFor(raw string) int {
	if raw != w.headRaw {
		w.headRaw = raw
		w.headAttempts = 0
	}
	return w.headAttempts + 1
}

func (w *AssignmentWorker) resetAttempts() {
	w.headRaw = ""
	w.headAttempts = 0
}

func (w *AssignmentWorker) discard(ctx context.Context, c domain.ProcessedComplaint, outcome domain.Outcome, cause error) (domain.Outcome, time.Duration) {
	if _, _, err := w.q.Pop(ctx); err != nil {
		w.logger.Error("failed to discard processed head", zap.Error(err))
		return domain.OutcomeStoreError, w.cfg.ErrorBackoff
	}
	w.resetAttempts()
	w.hooks.OnDiscarded(string(outcome))
	w.record(ctx, c, outcome, 0, cause)
	return outcome, 0
}

func (w *AssignmentWorker) relocate(ctx context.Context, c domain.ProcessedComplaint, outcome domain.Outcome, dest string, cause error) (domain.Outcome, time.Duration) {
	return w.relocateAttempt(ctx, c, outcome, dest, cause, 0)
}

func (w *AssignmentWorker) relocateAttempt(ctx context.Context, c domain.ProcessedComplaint, outcome domain.Outcome, dest string, cause error, attempt int) (domain.Outcome, time.Duration) {
	if _, _, err := w.q.MoveHead(ctx, dest); err != nil {
		w.logger.Error("failed to move processed head",
			zap.String("destination", dest), zap.Error(err))
		return domain.OutcomeStoreError, w.cfg.ErrorBackoff
	}
	w.resetAttempts()
	w.hooks.OnDeadLettered(dest)
	w.record(ctx, c, outcome, attempt, cause)
	return outcome, 0
}

func (w *AssignmentWorker) record(ctx context.Context, c domain.ProcessedComplaint, outcome domain.Outcome, attempt int, cause error) {
	if w.events == nil {
		return
	}
	e := &domain.AssignmentEvent{
		ID:           uuid.New().String(),
		ComplaintID:  c.ID,
		Municipality: c.Municipality,
		Outcome:      outcome,
		Attempt:      attempt,
		CreatedAt:    time.Now().UTC(),
	}
	if cause != nil {
		e.Error = cause.Error()
	}
	if err := w.events.Record(ctx, e); err != nil {
		w.logger.Warn("failed to record assignment event",
			zap.String("complaint_id", c.ID), zap.String("outcome", string(outcome)), zap.Error(err))
	}
}

// sleep waits for d, until ctx is cancelled or until Stop is called.
func (w *AssignmentWorker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-w.wake:
	case <-t.C:
	}
}
