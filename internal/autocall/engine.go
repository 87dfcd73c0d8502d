package autocall

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Sandra-1136/client-calling/internal/callbridge"
	"github.com/Sandra-1136/client-calling/internal/domain"
	"github.com/Sandra-1136/client-calling/internal/queue"
	"github.com/Sandra-1136/client-calling/pkg/logger"
)

// ContactStore is the slice of the contact store the engine needs.
type ContactStore interface {
	ListContacts(ctx context.Context) ([]domain.Contact, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Contact, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.CallStatus) error
	RecordOutcome(ctx context.Context, id uuid.UUID, status domain.CallStatus, at time.Time) error
}

// OutcomePublisher pushes settled attempts onto the outcome stream.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, msg queue.OutcomeMessage) error
}

// RunLease guards against concurrent runs across service instances.
type RunLease interface {
	Acquire(ctx context.Context) (bool, error)
	Refresh(ctx context.Context) error
	Release(ctx context.Context) error
}

// Config carries the engine delays. Zero values fall back to defaults.
type Config struct {
	PreRollDelay    time.Duration
	InterCallDelay  time.Duration
	InterRoundDelay time.Duration
	AttemptTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.PreRollDelay <= 0 {
		c.PreRollDelay = 500 * time.Millisecond
	}
	if c.InterCallDelay <= 0 {
		c.InterCallDelay = 1500 * time.Millisecond
	}
	if c.InterRoundDelay <= 0 {
		c.InterRoundDelay = 2 * time.Second
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 10 * time.Second
	}
	return c
}

// Engine drives repeated rounds of bounded call attempts over the contact
// list until every contact has answered or the operator stops it.
//
// Concurrency model: one deferred step at a time. Every scheduled step
// carries the generation it was scheduled under; Stop bumps the generation,
// so a stale step returns without writing state or scheduling a successor.
// The generation is re-checked after the call-attempt await as well, since
// Stop may land while a call is in flight.
type Engine struct {
	store    ContactStore
	bridge   callbridge.Provider
	outcomes OutcomePublisher
	lease    RunLease
	log      *logger.Logger
	cfg      Config

	// base bounds store and bridge calls made from timer goroutines. Stop
	// does not cancel it: calls in flight run to their attempt deadline.
	base context.Context

	mu       sync.Mutex
	gen      uint64
	active   bool
	round    int
	position int
	calling  *uuid.UUID
	pending  *time.Timer
}

// New constructs an engine. outcomes and lease may be nil.
func New(ctx context.Context, store ContactStore, bridge callbridge.Provider, outcomes OutcomePublisher, lease RunLease, cfg Config, log *logger.Logger) *Engine {
	return &Engine{
		store:    store,
		bridge:   bridge,
		outcomes: outcomes,
		lease:    lease,
		log:      log,
		cfg:      cfg.withDefaults(),
		base:     ctx,
	}
}

// Start begins a run at round 1. It reports whether a run actually started;
// an active run, an empty contact list, a store failure or a held lease all
// make it a logged no-op.
func (e *Engine) Start(ctx context.Context) bool {
	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		e.log.Info("dialer: start ignored, run already active")
		return false
	}
	e.mu.Unlock()

	contacts, err := e.store.ListContacts(ctx)
	if err != nil {
		e.log.Error("dialer: start aborted, contact list unavailable", zap.Error(err))
		return false
	}
	if len(contacts) == 0 {
		e.log.Info("dialer: start ignored, no contacts")
		return false
	}

	if e.lease != nil {
		acquired, err := e.lease.Acquire(ctx)
		if err != nil {
			e.log.Error("dialer: start aborted, lease error", zap.Error(err))
			return false
		}
		if !acquired {
			e.log.Info("dialer: start ignored, another run holds the lease")
			return false
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		// lost the race with a concurrent Start
		return false
	}
	e.gen++
	e.active = true
	e.round = 1
	e.position = 0
	e.calling = nil
	e.schedule(e.gen, 0, e.cfg.PreRollDelay)

	e.log.Info("dialer: run started", zap.Int("contacts", len(contacts)))
	return true
}

// Stop ends the run. Idempotent; safe to call from any goroutine at any
// point in the step cycle.
func (e *Engine) Stop(ctx context.Context) {
	e.mu.Lock()
	wasActive := e.active
	e.gen++
	e.active = false
	e.calling = nil
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	e.mu.Unlock()

	if !wasActive {
		return
	}
	if e.lease != nil {
		if err := e.lease.Release(ctx); err != nil {
			e.log.Warn("dialer: release lease", zap.Error(err))
		}
	}
	e.log.Info("dialer: run stopped")
}

// Snapshot returns the externally visible run state.
func (e *Engine) Snapshot() domain.RunSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := domain.RunSnapshot{
		Active:   e.active,
		Round:    e.round,
		Position: e.position,
	}
	if e.calling != nil {
		id := *e.calling
		snap.CallingID = &id
	}
	return snap
}

// Dial places one manual out-of-band call and records its outcome. It does
// not touch run state.
func (e *Engine) Dial(ctx context.Context, id uuid.UUID) (bool, error) {
	contact, err := e.store.Get(ctx, id)
	if err != nil {
		return false, err
	}

	tracer := otel.Tracer("outreach.dialer")
	dctx, span := tracer.Start(ctx, "dialer.manual", trace.WithAttributes(
		attribute.String("contact.id", id.String()),
	))
	defer span.End()

	if err := e.store.SetStatus(dctx, id, domain.CallStatusCalling); err != nil {
		return false, err
	}

	out := e.attempt(dctx, *contact)
	e.writeback(dctx, *contact, out, 0, true)
	return out.answered, nil
}

// schedule arms the single pending-step slot. Callers must hold e.mu.
func (e *Engine) schedule(gen uint64, pos int, delay time.Duration) {
	if e.pending != nil {
		e.pending.Stop()
	}
	e.pending = time.AfterFunc(delay, func() {
		e.step(gen, pos)
	})
}

// step is one iteration of the run loop: pick the contact at pos in the
// current round's target list, attempt it, write the outcome back and arm
// the next step.
func (e *Engine) step(gen uint64, pos int) {
	e.mu.Lock()
	if !e.active || gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.pending = nil
	round := e.round
	e.mu.Unlock()

	ctx := e.base
	tracer := otel.Tracer("outreach.dialer")
	sctx, span := tracer.Start(ctx, "dialer.step", trace.WithAttributes(
		attribute.Int("round", round),
		attribute.Int("position", pos),
	))
	defer span.End()

	if e.lease != nil {
		if err := e.lease.Refresh(sctx); err != nil {
			e.log.Warn("dialer: refresh lease", zap.Error(err))
		}
	}

	contacts, err := e.store.ListContacts(sctx)
	if err != nil {
		span.RecordError(err)
		e.log.Error("dialer: contact list unavailable, ending run", zap.Error(err))
		e.finish(gen, "store unavailable")
		return
	}

	targets := targetList(contacts, round)
	if len(targets) == 0 {
		e.finish(gen, "all contacts reached")
		return
	}

	if pos >= len(targets) {
		// Round boundary: recompute from the fresh snapshot. Indices for the
		// old list are never carried across; the next round restarts at 0.
		remaining := unanswered(contacts)
		if len(remaining) == 0 {
			e.finish(gen, "all contacts reached")
			return
		}

		e.mu.Lock()
		if !e.active || gen != e.gen {
			e.mu.Unlock()
			return
		}
		e.round++
		e.position = 0
		e.log.Info("dialer: round complete", zap.Int("round", round), zap.Int("remaining", len(remaining)))
		e.schedule(gen, 0, e.cfg.InterRoundDelay)
		e.mu.Unlock()
		return
	}

	contact := targets[pos]

	e.mu.Lock()
	if !e.active || gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.position = pos
	id := contact.ID
	e.calling = &id
	e.mu.Unlock()

	if err := e.store.SetStatus(sctx, contact.ID, domain.CallStatusCalling); err != nil {
		// unknown contact (deleted mid-round): log, skip, keep going
		span.RecordError(err)
		e.log.Warn("dialer: mark calling failed, skipping contact",
			zap.String("contact_id", contact.ID.String()), zap.Error(err))
		e.next(gen, pos)
		return
	}

	e.log.Info("dialer: calling",
		zap.String("contact_id", contact.ID.String()),
		zap.String("name", contact.Name),
		zap.Int("round", round),
		zap.Int("position", pos))

	out := e.attempt(sctx, contact)

	// Stop may have landed while the call was in flight. A stale step must
	// not write status or schedule a successor.
	e.mu.Lock()
	if !e.active || gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.calling = nil
	e.mu.Unlock()

	e.writeback(sctx, contact, out, round, false)
	e.next(gen, pos)
}

// next arms the following step if the run is still live.
func (e *Engine) next(gen uint64, pos int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active || gen != e.gen {
		return
	}
	e.schedule(gen, pos+1, e.cfg.InterCallDelay)
}

// finish ends the run from inside a step.
func (e *Engine) finish(gen uint64, reason string) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.gen++
	e.active = false
	e.calling = nil
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	e.mu.Unlock()

	if e.lease != nil {
		if err := e.lease.Release(e.base); err != nil {
			e.log.Warn("dialer: release lease", zap.Error(err))
		}
	}
	e.log.Info("dialer: run finished", zap.String("reason", reason))
}

// writeback persists a settled attempt and publishes the outcome event.
// Failures are logged and never abort the run.
func (e *Engine) writeback(ctx context.Context, contact domain.Contact, out attemptOutcome, round int, manual bool) {
	status := domain.CallStatusMissed
	if out.answered {
		status = domain.CallStatusAnswered
	}

	now := time.Now().UTC()
	if err := e.store.RecordOutcome(ctx, contact.ID, status, now); err != nil {
		e.log.Warn("dialer: record outcome",
			zap.String("contact_id", contact.ID.String()), zap.Error(err))
	}

	if e.outcomes == nil {
		return
	}
	msg := queue.OutcomeMessage{
		ContactID:  contact.ID,
		Name:       contact.Name,
		Phone:      contact.Phone,
		Attempt:    contact.AttemptCount + 1,
		Answered:   out.answered,
		Error:      out.errMsg,
		DurationMs: out.duration.Milliseconds(),
		Round:      round,
		Manual:     manual,
		OccurredAt: now,
	}
	if err := e.outcomes.PublishOutcome(ctx, msg); err != nil {
		e.log.Warn("dialer: publish outcome",
			zap.String("contact_id", contact.ID.String()), zap.Error(err))
	}
}

// targetList computes the round's target set. Round 1 visits the full
// snapshot in stored order; later rounds visit {pending, missed} contacts,
// still in stored order.
func targetList(contacts []domain.Contact, round int) []domain.Contact {
	if round <= 1 {
		return contacts
	}
	return unanswered(contacts)
}

func unanswered(contacts []domain.Contact) []domain.Contact {
	var remaining []domain.Contact
	for _, c := range contacts {
		if c.Status.Unanswered() {
			remaining = append(remaining, c)
		}
	}
	return remaining
}
