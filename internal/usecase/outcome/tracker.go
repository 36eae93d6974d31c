// Package outcome tracks the presentation state of one widget panel.
//
// A Tracker holds the panel's OutcomeState and a generation counter. Every
// fetch begins a new generation and receives a Ticket; only the ticket of the
// newest generation may settle the panel, so a slow response that arrives
// after a newer request started is dropped instead of overwriting the panel.
package outcome

import (
	"log/slog"
	"sync"

	"market-glance/internal/domain/entity"
	"market-glance/internal/observability/metrics"
)

// Listener is notified after every state change, with the tracker lock held.
// Listeners must not call back into the tracker.
type Listener[T any] func(generation uint64, state entity.OutcomeState[T])

// Tracker is the single-writer state of one panel. It is safe for concurrent use.
type Tracker[T any] struct {
	name   string
	logger *slog.Logger

	mu         sync.Mutex
	generation uint64
	state      entity.OutcomeState[T]
	listeners  []Listener[T]
}

// NewTracker creates an Idle tracker. name labels logs and metrics ("stock", "news").
func NewTracker[T any](name string, logger *slog.Logger) *Tracker[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker[T]{
		name:   name,
		logger: logger,
		state:  entity.IdleState[T](),
	}
}

// Name returns the component label of the tracker.
func (t *Tracker[T]) Name() string { return t.name }

// Subscribe registers l for every subsequent state change.
func (t *Tracker[T]) Subscribe(l Listener[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// State returns a snapshot of the current state.
func (t *Tracker[T]) State() entity.OutcomeState[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Generation returns the current generation number.
func (t *Tracker[T]) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}

// Begin starts a new request cycle: the panel enters Loading, prior content is
// cleared and any outstanding ticket becomes stale.
func (t *Tracker[T]) Begin() *Ticket[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	t.setLocked(entity.LoadingState[T]())
	return &Ticket[T]{tracker: t, generation: t.generation}
}

// Reset returns the panel to Idle and invalidates outstanding tickets.
// It returns the new generation, which no ticket will ever carry.
func (t *Tracker[T]) Reset() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	t.setLocked(entity.IdleState[T]())
	return t.generation
}

// Reject shows a failure that was decided before any request was made.
// Loading is never entered. Outstanding tickets become stale.
func (t *Tracker[T]) Reject(f *entity.Failure) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	t.setLocked(entity.FailureState[T](f))
	metrics.RecordOutcome(t.name, string(f.Kind))
}

func (t *Tracker[T]) setLocked(s entity.OutcomeState[T]) {
	t.state = s
	for _, l := range t.listeners {
		l(t.generation, s)
	}
}

// settle applies s if generation is still current. A stale release is silent.
func (t *Tracker[T]) settle(generation uint64, s entity.OutcomeState[T], kind string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if generation != t.generation {
		if s.IsIdle() {
			return false
		}
		metrics.RecordStaleDiscard(t.name)
		t.logger.Info("discarding stale response",
			slog.String("component", t.name),
			slog.Uint64("generation", generation),
			slog.Uint64("current_generation", t.generation),
			slog.String("outcome", kind))
		return false
	}
	t.setLocked(s)
	if !s.IsIdle() {
		metrics.RecordOutcome(t.name, kind)
	}
	return true
}

// Ticket is the right to settle one request cycle.
// Exactly one of Succeed, Fail or Release takes effect; later calls are no-ops.
type Ticket[T any] struct {
	tracker    *Tracker[T]
	generation uint64

	once    sync.Once
	applied bool
}

// Generation returns the generation this ticket belongs to.
func (k *Ticket[T]) Generation() uint64 { return k.generation }

// Succeed ends Loading with payload. It reports whether the panel was updated.
func (k *Ticket[T]) Succeed(payload T) bool {
	k.once.Do(func() {
		k.applied = k.tracker.settle(k.generation, entity.SuccessState(payload), "success")
	})
	return k.applied
}

// Fail ends Loading with f. It reports whether the panel was updated.
func (k *Ticket[T]) Fail(f *entity.Failure) bool {
	k.once.Do(func() {
		k.applied = k.tracker.settle(k.generation, entity.FailureState[T](f), string(f.Kind))
	})
	return k.applied
}

// Release ends Loading if the ticket was never settled, returning the panel to
// Idle. It is meant to be deferred right after Begin.
func (k *Ticket[T]) Release() {
	k.once.Do(func() {
		k.applied = k.tracker.settle(k.generation, entity.IdleState[T](), "released")
	})
}
