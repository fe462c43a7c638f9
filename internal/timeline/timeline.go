// Package timeline sequences a simulation run through its phases on an
// injectable clock. Every run is identified by a RunID and owns a context;
// a transition is applied only while its run is still the active one, so a
// reset or restart can never be followed by a late transition from an older run.
package timeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrRunActive is returned by Start while a run is between approach and complete.
	ErrRunActive = errors.New("simulation already running")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("timeline closed")
)

const subscriberBuffer = 16

// Snapshot is a read-only copy of the timeline state.
type Snapshot struct {
	RunID     uint64    `json:"runId"`
	Phase     Phase     `json:"phase"`
	Progress  int       `json:"progress"`
	StartedAt time.Time `json:"startedAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// CompletionFunc is called once when a run reaches complete. ctx is the run's
// context and is cancelled when the run is reset or superseded.
type CompletionFunc func(ctx context.Context, runID uint64)

// Timeline is a restartable phase state machine. One Timeline drives at most
// one run at a time.
type Timeline struct {
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	state   Snapshot
	lastID  uint64
	cancel  context.CancelFunc
	subs    map[int]chan Snapshot
	nextSub int
	closed  bool

	wg sync.WaitGroup
}

// New creates an idle Timeline.
func New(clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Timeline {
	return &Timeline{
		clock:   clock,
		logger:  logger,
		metrics: metrics,
		state:   Snapshot{Phase: Idle},
		subs:    make(map[int]chan Snapshot),
	}
}

// Start begins a new run from idle or complete and returns its RunID. Any
// previous run is cancelled first. While a run is in progress Start returns
// ErrRunActive and changes nothing.
func (t *Timeline) Start(onComplete CompletionFunc) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}
	if t.state.Phase.Running() {
		t.metrics.StartsRejected.Inc()
		return 0, ErrRunActive
	}
	t.cancelLocked()

	t.lastID++
	id := t.lastID
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	now := t.clock.Now()
	first := Schedule[0]
	t.state = Snapshot{RunID: id, Phase: first.Phase, Progress: first.Progress, StartedAt: now, UpdatedAt: now}
	t.metrics.SimulationsStarted.Inc()
	t.metrics.SimulationRunning.Set(1)
	t.metrics.PhaseTransitions.WithLabelValues(string(first.Phase)).Inc()
	t.publishLocked()

	t.wg.Add(1)
	go t.run(ctx, id, now, onComplete)

	t.logger.Info("simulation run started", "run_id", id)
	return id, nil
}

// Reset cancels the active run, if any, and returns to idle. It is valid in any state.
func (t *Timeline) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	prev := t.state.RunID
	t.cancelLocked()
	t.state = Snapshot{Phase: Idle, UpdatedAt: t.clock.Now()}
	t.metrics.SimulationRunning.Set(0)
	t.publishLocked()

	t.logger.Info("simulation reset", "previous_run_id", prev)
}

// Snapshot returns the current state.
func (t *Timeline) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Subscribe returns a channel that receives the current state immediately and
// every state change after it, plus a func that ends the subscription. A
// subscriber that falls behind misses snapshots; the timeline never blocks on it.
func (t *Timeline) Subscribe() (<-chan Snapshot, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan Snapshot, subscriberBuffer)
	if t.closed {
		close(ch)
		return ch, func() {}
	}

	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	ch <- t.state

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if c, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(c)
		}
	}
}

// Close resets the timeline, closes every subscriber channel and waits for
// the run goroutine to exit. Start fails afterwards.
func (t *Timeline) Close() {
	t.mu.Lock()
	if !t.closed {
		t.cancelLocked()
		t.state = Snapshot{Phase: Idle, UpdatedAt: t.clock.Now()}
		t.metrics.SimulationRunning.Set(0)
		for id, ch := range t.subs {
			delete(t.subs, id)
			close(ch)
		}
		t.closed = true
	}
	t.mu.Unlock()

	t.wg.Wait()
}

// run walks the schedule for one run. Steps fire in order because a single
// goroutine waits for each deadline in turn.
func (t *Timeline) run(ctx context.Context, id uint64, start time.Time, onComplete CompletionFunc) {
	defer t.wg.Done()

	for _, step := range Schedule[1:] {
		wait := start.Add(step.Offset).Sub(t.clock.Now())
		if wait > 0 {
			timer := t.clock.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.Chan():
			}
		}
		if !t.apply(id, step) {
			return
		}
	}

	t.logger.Info("simulation run complete", "run_id", id)
	if onComplete != nil {
		onComplete(ctx, id)
	}
}

// apply moves the timeline to step if run id is still active.
func (t *Timeline) apply(id uint64, step Step) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.state.RunID != id {
		t.metrics.StaleTransitions.Inc()
		t.logger.Debug("dropping stale transition", "run_id", id, "phase", step.Phase)
		return false
	}

	t.state.Phase = step.Phase
	t.state.Progress = step.Progress
	t.state.UpdatedAt = t.clock.Now()
	t.metrics.PhaseTransitions.WithLabelValues(string(step.Phase)).Inc()
	if step.Phase == Complete {
		t.metrics.SimulationRunning.Set(0)
	}
	t.publishLocked()

	t.logger.Debug("phase transition", "run_id", id, "phase", step.Phase, "progress", step.Progress)
	return true
}

func (t *Timeline) cancelLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Timeline) publishLocked() {
	for _, ch := range t.subs {
		select {
		case ch <- t.state:
		default:
		}
	}
}
