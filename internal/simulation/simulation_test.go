package simulation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/couchcryptid/meteor-impact-service/internal/report"
	"github.com/couchcryptid/meteor-impact-service/internal/timeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

// --- mocks ---

// gatedSynthesizer blocks each synthesis until release is closed.
type gatedSynthesizer struct {
	inner   Synthesizer
	started chan domain.PromptContext
	release chan struct{}
}

func newGatedSynthesizer(inner Synthesizer) *gatedSynthesizer {
	return &gatedSynthesizer{
		inner:   inner,
		started: make(chan domain.PromptContext, 4),
		release: make(chan struct{}),
	}
}

func (g *gatedSynthesizer) SynthesizeContext(ctx context.Context, pc domain.PromptContext) domain.Report {
	g.started <- pc
	<-g.release
	return g.inner.SynthesizeContext(ctx, pc)
}

type recordingPublisher struct {
	mu      sync.Mutex
	reports []domain.Report
	err     error
}

func (p *recordingPublisher) PublishReport(_ context.Context, r domain.Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, r)
	return p.err
}

func (p *recordingPublisher) published() []domain.Report {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Report(nil), p.reports...)
}

// --- helpers ---

type fixture struct {
	sim     *Simulator
	clock   *clockwork.FakeClock
	metrics *observability.Metrics
}

func newFixture(t *testing.T, synth Synthesizer, pub ReportPublisher) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	fc := clockwork.NewFakeClock()
	if synth == nil {
		synth = report.NewSynthesizer(nil, logger, metrics)
	}
	tl := timeline.New(fc, logger, metrics)
	sim := New(tl, synth, pub, logger, metrics)
	t.Cleanup(sim.Close)
	return fixture{sim: sim, clock: fc, metrics: metrics}
}

func testInputs(t *testing.T) (domain.ImpactorParameters, domain.ImpactLocation) {
	t.Helper()
	p, err := domain.NewImpactorParameters(20000, 100, 1e9, 45, "iron")
	require.NoError(t, err)
	loc, err := domain.NewImpactLocation(35.6762, 139.6503, "Tokyo")
	require.NoError(t, err)
	return p, loc
}

func (f fixture) runToComplete(t *testing.T) {
	t.Helper()
	for range timeline.Schedule[1:] {
		ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
		require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
		cancel()
		f.clock.Advance(2 * time.Second)
	}
	require.Eventually(t, func() bool {
		return f.sim.State().Timeline.Phase == timeline.Complete
	}, waitTimeout, time.Millisecond)
}

func (f fixture) waitForReport(t *testing.T) domain.Report {
	t.Helper()
	var r domain.Report
	require.Eventually(t, func() bool {
		var ok bool
		r, ok = f.sim.Report()
		return ok
	}, waitTimeout, time.Millisecond)
	return r
}

// --- tests ---

func TestSimulator_RunProducesReport(t *testing.T) {
	pub := &recordingPublisher{}
	f := newFixture(t, nil, pub)
	p, loc := testInputs(t)

	run, err := f.sim.Start(context.Background(), p, loc, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ComputeMetrics(p), run.Metrics)

	st := f.sim.State()
	assert.Equal(t, timeline.Approach, st.Timeline.Phase)
	require.NotNil(t, st.Run)
	assert.Nil(t, st.Report)
	assert.False(t, st.ReportPending)

	f.runToComplete(t)
	r := f.waitForReport(t)

	if diff := cmp.Diff(run.Metrics, r.Metrics); diff != "" {
		t.Fatalf("report metrics differ from run metrics (-run +report):\n%s", diff)
	}
	assert.Equal(t, domain.SourceFallback, r.Source)
	assert.Contains(t, r.Narrative, "Tokyo")

	require.Eventually(t, func() bool { return len(pub.published()) == 1 }, waitTimeout, time.Millisecond)
	assert.Equal(t, r.ID, pub.published()[0].ID)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.ReportsPublished.WithLabelValues("success")), 0)

	st = f.sim.State()
	assert.False(t, st.ReportPending)
	require.NotNil(t, st.Report)
	assert.Equal(t, r.ID, st.Report.ID)
}

func TestSimulator_StartWhileRunning(t *testing.T) {
	f := newFixture(t, nil, nil)
	p, loc := testInputs(t)

	first, err := f.sim.Start(context.Background(), p, loc, "")
	require.NoError(t, err)

	_, err = f.sim.Start(context.Background(), p, loc, "other")
	require.ErrorIs(t, err, timeline.ErrRunActive)
	assert.Equal(t, first.ID, f.sim.State().Run.ID)
	assert.Empty(t, f.sim.State().Run.AsteroidName)
}

func TestSimulator_ReportFromSupersededRunIsDiscarded(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := newGatedSynthesizer(report.NewSynthesizer(nil, logger, observability.NewMetricsForTesting()))
	pub := &recordingPublisher{}
	f := newFixture(t, gate, pub)
	p, loc := testInputs(t)

	first, err := f.sim.Start(context.Background(), p, loc, "")
	require.NoError(t, err)
	f.runToComplete(t)

	select {
	case pc := <-gate.started:
		assert.Equal(t, first.Metrics, pc.Metrics)
	case <-time.After(waitTimeout):
		t.Fatal("synthesis not started")
	}
	assert.True(t, f.sim.State().ReportPending)

	// A new run starts while the first run's report is still being written.
	second, err := f.sim.Start(context.Background(), p, loc, "")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	close(gate.release)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.ReportsDiscarded) == 1
	}, waitTimeout, time.Millisecond)

	_, ok := f.sim.Report()
	assert.False(t, ok)
	assert.Empty(t, pub.published())
	assert.Equal(t, second.ID, f.sim.State().Run.ID)
}

func TestSimulator_ResetDuringSynthesisDiscardsReport(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := newGatedSynthesizer(report.NewSynthesizer(nil, logger, observability.NewMetricsForTesting()))
	f := newFixture(t, gate, nil)
	p, loc := testInputs(t)

	_, err := f.sim.Start(context.Background(), p, loc, "")
	require.NoError(t, err)
	f.runToComplete(t)
	<-gate.started

	f.sim.Reset()
	close(gate.release)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.ReportsDiscarded) == 1
	}, waitTimeout, time.Millisecond)
	st := f.sim.State()
	assert.Equal(t, timeline.Idle, st.Timeline.Phase)
	assert.Nil(t, st.Run)
	assert.Nil(t, st.Report)
}

func TestSimulator_RestartClearsPreviousReport(t *testing.T) {
	f := newFixture(t, nil, nil)
	p, loc := testInputs(t)

	_, err := f.sim.Start(context.Background(), p, loc, "")
	require.NoError(t, err)
	f.runToComplete(t)
	f.waitForReport(t)

	_, err = f.sim.Start(context.Background(), p, loc, "")
	require.NoError(t, err)
	_, ok := f.sim.Report()
	assert.False(t, ok)
}

func TestSimulator_PublishFailureKeepsReport(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	f := newFixture(t, nil, pub)
	p, loc := testInputs(t)

	_, err := f.sim.Start(context.Background(), p, loc, "")
	require.NoError(t, err)
	f.runToComplete(t)
	f.waitForReport(t)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.ReportsPublished.WithLabelValues("error")) == 1
	}, waitTimeout, time.Millisecond)
	_, ok := f.sim.Report()
	assert.True(t, ok)
}

func TestSimulator_SubscribeReceivesSnapshotsAndReport(t *testing.T) {
	f := newFixture(t, nil, nil)
	p, loc := testInputs(t)

	updates, unsubscribe := f.sim.Subscribe()
	defer unsubscribe()

	initial := <-updates
	require.NotNil(t, initial.Snapshot)
	assert.Equal(t, timeline.Idle, initial.Snapshot.Phase)

	_, err := f.sim.Start(context.Background(), p, loc, "")
	require.NoError(t, err)
	f.runToComplete(t)

	var (
		phases []timeline.Phase
		got    *domain.Report
	)
	deadline := time.After(waitTimeout)
	for got == nil || len(phases) < len(timeline.Schedule) {
		select {
		case u := <-updates:
			switch {
			case u.Report != nil:
				got = u.Report
			case u.Snapshot.Phase != timeline.Idle:
				phases = append(phases, u.Snapshot.Phase)
			}
		case <-deadline:
			t.Fatalf("incomplete updates; phases seen: %v, report: %v", phases, got != nil)
		}
	}
	assert.Equal(t, []timeline.Phase{
		timeline.Approach, timeline.AtmosphericEntry, timeline.Impact, timeline.Shockwave,
		timeline.SecondaryEffects, timeline.DustFormation, timeline.Complete,
	}, phases)
	assert.Equal(t, domain.SourceFallback, got.Source)
}

func TestSimulator_CloseEndsReadiness(t *testing.T) {
	f := newFixture(t, nil, nil)
	require.NoError(t, f.sim.CheckReadiness(context.Background()))

	updates, _ := f.sim.Subscribe()
	<-updates

	f.sim.Close()
	require.Error(t, f.sim.CheckReadiness(context.Background()))
	_, ok := <-updates
	assert.False(t, ok)

	p, loc := testInputs(t)
	_, err := f.sim.Start(context.Background(), p, loc, "")
	require.ErrorIs(t, err, timeline.ErrClosed)
}
