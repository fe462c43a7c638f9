package timeline

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

type hookCall struct {
	ctx   context.Context
	runID uint64
}

func newTestTimeline(t *testing.T) (*Timeline, *clockwork.FakeClock, *observability.Metrics) {
	t.Helper()
	fc := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	metrics := observability.NewMetricsForTesting()
	tl := New(fc, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)
	t.Cleanup(tl.Close)
	return tl, fc, metrics
}

func recordingHook() (CompletionFunc, chan hookCall) {
	calls := make(chan hookCall, 4)
	return func(ctx context.Context, runID uint64) {
		calls <- hookCall{ctx: ctx, runID: runID}
	}, calls
}

func next(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return s
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

// advance waits until the run goroutine is parked on its timer, then moves the clock.
func advance(t *testing.T, fc *clockwork.FakeClock, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(d)
}

// runRemaining drives the clock through every step after approach and
// returns the snapshots observed.
func runRemaining(t *testing.T, fc *clockwork.FakeClock, ch <-chan Snapshot) []Snapshot {
	t.Helper()
	var got []Snapshot
	for range Schedule[1:] {
		advance(t, fc, 2*time.Second)
		got = append(got, next(t, ch))
	}
	return got
}

func TestTimeline_FullRun(t *testing.T) {
	tl, fc, metrics := newTestTimeline(t)
	ch, unsubscribe := tl.Subscribe()
	defer unsubscribe()
	assert.Equal(t, Idle, next(t, ch).Phase)

	hook, calls := recordingHook()
	id, err := tl.Start(hook)
	require.NoError(t, err)

	first := next(t, ch)
	assert.Equal(t, Snapshot{RunID: id, Phase: Approach, Progress: 0, StartedAt: fc.Now(), UpdatedAt: fc.Now()}, first)

	got := runRemaining(t, fc, ch)
	require.Len(t, got, 6)
	for i, s := range got {
		want := Schedule[i+1]
		assert.Equal(t, id, s.RunID)
		assert.Equal(t, want.Phase, s.Phase)
		assert.Equal(t, want.Progress, s.Progress)
		assert.Equal(t, first.StartedAt.Add(want.Offset), s.UpdatedAt)
	}

	select {
	case c := <-calls:
		assert.Equal(t, id, c.runID)
		assert.NoError(t, c.ctx.Err())
	case <-time.After(waitTimeout):
		t.Fatal("completion hook not called")
	}
	assert.Empty(t, calls)
	assert.Equal(t, Complete, tl.Snapshot().Phase)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SimulationsStarted), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PhaseTransitions.WithLabelValues(string(Complete))), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.SimulationRunning), 0)
}

func TestTimeline_ProgressIsMonotonic(t *testing.T) {
	tl, fc, _ := newTestTimeline(t)
	ch, unsubscribe := tl.Subscribe()
	defer unsubscribe()
	next(t, ch)

	_, err := tl.Start(nil)
	require.NoError(t, err)
	prev := next(t, ch).Progress
	for _, s := range runRemaining(t, fc, ch) {
		assert.Greater(t, s.Progress, prev)
		prev = s.Progress
	}
	assert.Equal(t, 100, prev)
}

func TestTimeline_ResetThenRestart_OnlyOneSequence(t *testing.T) {
	tl, fc, _ := newTestTimeline(t)
	ch, unsubscribe := tl.Subscribe()
	defer unsubscribe()
	next(t, ch)

	hook, calls := recordingHook()
	first, err := tl.Start(hook)
	require.NoError(t, err)
	assert.Equal(t, Approach, next(t, ch).Phase)

	advance(t, fc, time.Second)
	tl.Reset()
	assert.Equal(t, Snapshot{Phase: Idle, UpdatedAt: fc.Now()}, next(t, ch))
	tl.wg.Wait() // first run goroutine has exited

	second, err := tl.Start(hook)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, Approach, next(t, ch).Phase)

	got := runRemaining(t, fc, ch)
	for _, s := range got {
		assert.Equal(t, second, s.RunID, "transition from a superseded run fired: %+v", s)
	}

	c := <-calls
	assert.Equal(t, second, c.runID)
	assert.Empty(t, calls)
}

func TestTimeline_ResetDropsPendingWithoutFiring(t *testing.T) {
	tl, fc, _ := newTestTimeline(t)
	ch, unsubscribe := tl.Subscribe()
	defer unsubscribe()
	next(t, ch)

	hook, calls := recordingHook()
	_, err := tl.Start(hook)
	require.NoError(t, err)
	next(t, ch)

	advance(t, fc, time.Second)
	tl.Reset()
	next(t, ch)
	tl.wg.Wait()

	fc.Advance(time.Minute)
	assert.Equal(t, Idle, tl.Snapshot().Phase)
	assert.Empty(t, ch)
	assert.Empty(t, calls)
}

func TestTimeline_DoubleStart_SingleRun(t *testing.T) {
	tl, fc, metrics := newTestTimeline(t)
	ch, unsubscribe := tl.Subscribe()
	defer unsubscribe()
	next(t, ch)

	hook, calls := recordingHook()
	id, err := tl.Start(hook)
	require.NoError(t, err)
	_, err = tl.Start(hook)
	require.ErrorIs(t, err, ErrRunActive)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.StartsRejected), 0)

	assert.Equal(t, Approach, next(t, ch).Phase)
	got := runRemaining(t, fc, ch)
	for _, s := range got {
		assert.Equal(t, id, s.RunID)
	}
	<-calls
	assert.Empty(t, calls)
	assert.Empty(t, ch)
}

func TestTimeline_StartWhileRunningKeepsState(t *testing.T) {
	tl, fc, _ := newTestTimeline(t)
	_, err := tl.Start(nil)
	require.NoError(t, err)
	advance(t, fc, 2*time.Second)
	require.Eventually(t, func() bool { return tl.Snapshot().Phase == AtmosphericEntry }, waitTimeout, time.Millisecond)

	before := tl.Snapshot()
	_, err = tl.Start(nil)
	require.ErrorIs(t, err, ErrRunActive)
	assert.Equal(t, before, tl.Snapshot())
}

func TestTimeline_RestartFromCompleteCancelsPreviousRunContext(t *testing.T) {
	tl, fc, _ := newTestTimeline(t)
	ch, unsubscribe := tl.Subscribe()
	defer unsubscribe()
	next(t, ch)

	hook, calls := recordingHook()
	_, err := tl.Start(hook)
	require.NoError(t, err)
	next(t, ch)
	runRemaining(t, fc, ch)
	c := <-calls
	require.NoError(t, c.ctx.Err())

	second, err := tl.Start(hook)
	require.NoError(t, err)
	assert.Greater(t, second, c.runID)
	assert.Error(t, c.ctx.Err())
}

func TestTimeline_ResetCancelsCompletedRunContext(t *testing.T) {
	tl, fc, _ := newTestTimeline(t)
	ch, unsubscribe := tl.Subscribe()
	defer unsubscribe()
	next(t, ch)

	hook, calls := recordingHook()
	_, err := tl.Start(hook)
	require.NoError(t, err)
	next(t, ch)
	runRemaining(t, fc, ch)
	c := <-calls

	tl.Reset()
	assert.ErrorIs(t, c.ctx.Err(), context.Canceled)
	assert.Equal(t, Snapshot{Phase: Idle, UpdatedAt: fc.Now()}, tl.Snapshot())
}

func TestTimeline_ApplyStaleRun(t *testing.T) {
	tl, _, metrics := newTestTimeline(t)
	id, err := tl.Start(nil)
	require.NoError(t, err)

	assert.False(t, tl.apply(id+1, Schedule[1]))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.StaleTransitions), 0)
	assert.Equal(t, Approach, tl.Snapshot().Phase)
}

func TestTimeline_SlowSubscriberDoesNotBlock(t *testing.T) {
	tl, _, _ := newTestTimeline(t)
	_, unsubscribe := tl.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for range subscriberBuffer * 2 {
			tl.Reset()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("timeline blocked on a full subscriber")
	}
}

func TestTimeline_UnsubscribeClosesChannel(t *testing.T) {
	tl, _, _ := newTestTimeline(t)
	ch, unsubscribe := tl.Subscribe()
	next(t, ch)
	unsubscribe()
	unsubscribe()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestTimeline_Close(t *testing.T) {
	tl, _, _ := newTestTimeline(t)
	ch, _ := tl.Subscribe()
	next(t, ch)
	_, err := tl.Start(nil)
	require.NoError(t, err)
	next(t, ch)

	tl.Close()
	_, ok := <-ch
	assert.False(t, ok)

	_, err = tl.Start(nil)
	require.ErrorIs(t, err, ErrClosed)

	late, _ := tl.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestPhase_Progress(t *testing.T) {
	tests := []struct {
		phase    Phase
		progress int
		running  bool
	}{
		{Idle, 0, false},
		{Approach, 0, true},
		{AtmosphericEntry, 20, true},
		{Impact, 40, true},
		{Shockwave, 60, true},
		{SecondaryEffects, 75, true},
		{DustFormation, 90, true},
		{Complete, 100, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			assert.Equal(t, tt.progress, tt.phase.Progress())
			assert.Equal(t, tt.running, tt.phase.Running())
		})
	}
	assert.Equal(t, 12*time.Second, Duration())
}
