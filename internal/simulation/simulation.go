// Package simulation ties one timeline to report synthesis. It holds the
// inputs and metrics of the active run, starts synthesis when the run
// completes, and keeps a report only if its run is still the active one.
package simulation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/couchcryptid/meteor-impact-service/internal/timeline"
	"go.opentelemetry.io/otel/attribute"
)

const (
	publishTimeout   = 10 * time.Second
	subscriberBuffer = 16
)

// Synthesizer produces the report for a completed run.
type Synthesizer interface {
	SynthesizeContext(ctx context.Context, pc domain.PromptContext) domain.Report
}

// ReportPublisher announces applied reports to other systems.
type ReportPublisher interface {
	PublishReport(ctx context.Context, r domain.Report) error
}

// Run is the input of one simulation run, with metrics computed once at start.
type Run struct {
	ID           uint64                    `json:"runId"`
	Impactor     domain.ImpactorParameters `json:"impactorParameters"`
	Location     domain.ImpactLocation     `json:"location"`
	Metrics      domain.ImpactMetrics      `json:"metrics"`
	AsteroidName string                    `json:"asteroidName,omitempty"`
}

func (r Run) promptContext() domain.PromptContext {
	return domain.PromptContext{
		Impactor:     r.Impactor,
		Location:     r.Location,
		Metrics:      r.Metrics,
		AsteroidName: r.AsteroidName,
	}
}

// State is a read-only view of the simulator.
type State struct {
	Timeline      timeline.Snapshot `json:"timeline"`
	Run           *Run              `json:"run,omitempty"`
	Report        *domain.Report    `json:"report,omitempty"`
	ReportPending bool              `json:"reportPending"`
}

// Update is pushed to subscribers: a timeline snapshot, or a report once it is applied.
type Update struct {
	Snapshot *timeline.Snapshot `json:"snapshot,omitempty"`
	Report   *domain.Report     `json:"report,omitempty"`
}

// Simulator is the single simulation owned by the process.
type Simulator struct {
	timeline  *timeline.Timeline
	synth     Synthesizer
	publisher ReportPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu     sync.Mutex
	run    *Run
	report *domain.Report
	subs   map[int]chan Update
	nextID int
	closed bool

	wg sync.WaitGroup
}

// New creates a Simulator around tl. publisher may be nil.
func New(tl *timeline.Timeline, synth Synthesizer, publisher ReportPublisher, logger *slog.Logger, metrics *observability.Metrics) *Simulator {
	s := &Simulator{
		timeline:  tl,
		synth:     synth,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		subs:      make(map[int]chan Update),
	}

	snapshots, _ := tl.Subscribe()
	s.wg.Add(1)
	go s.forward(snapshots)
	return s
}

// CheckReadiness returns nil while the simulator accepts runs.
func (s *Simulator) CheckReadiness(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("simulator is shut down")
	}
	return nil
}

// Start computes metrics for the impactor and begins a run. It returns
// timeline.ErrRunActive while another run is in progress.
func (s *Simulator) Start(ctx context.Context, params domain.ImpactorParameters, location domain.ImpactLocation, asteroidName string) (Run, error) {
	_, span := observability.Tracer().Start(ctx, "simulation.start")
	defer span.End()

	metrics := domain.ComputeMetrics(params)

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.timeline.Start(s.onComplete)
	if err != nil {
		span.RecordError(err)
		return Run{}, err
	}
	run := Run{
		ID:           id,
		Impactor:     params,
		Location:     location,
		Metrics:      metrics,
		AsteroidName: asteroidName,
	}
	s.run = &run
	s.report = nil

	span.SetAttributes(attribute.Int64("simulation.run_id", int64(id)))
	s.logger.Info("simulation started",
		"run_id", id,
		"energy_mt", metrics.EnergyMegatons,
		"location", location.DisplayName(),
	)
	return run, nil
}

// Reset cancels the active run and clears its report.
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timeline.Reset()
	s.run = nil
	s.report = nil
}

// State returns the timeline snapshot with the run inputs and report.
func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{Timeline: s.timeline.Snapshot()}
	if s.run != nil {
		run := *s.run
		st.Run = &run
	}
	if s.report != nil {
		r := *s.report
		st.Report = &r
	}
	st.ReportPending = st.Timeline.Phase == timeline.Complete && st.Report == nil
	return st
}

// Report returns the report of the active run, if it has been applied.
func (s *Simulator) Report() (domain.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return domain.Report{}, false
	}
	return *s.report, true
}

// Subscribe streams updates until the returned func is called or the
// simulator is closed. Slow subscribers miss updates.
func (s *Simulator) Subscribe() (<-chan Update, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Update, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	snap := s.timeline.Snapshot()
	ch <- Update{Snapshot: &snap}

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Close stops the timeline, waits for in-flight synthesis, and closes subscribers.
func (s *Simulator) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.timeline.Close()
	s.wg.Wait()

	s.mu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()
}

// onComplete runs on the timeline goroutine; synthesis is moved off it.
func (s *Simulator) onComplete(ctx context.Context, runID uint64) {
	s.wg.Add(1)
	go s.synthesize(ctx, runID)
}

func (s *Simulator) synthesize(ctx context.Context, runID uint64) {
	defer s.wg.Done()

	s.mu.Lock()
	run := s.run
	s.mu.Unlock()
	if run == nil || run.ID != runID {
		s.discard(runID, "run replaced before synthesis")
		return
	}

	report := s.synth.SynthesizeContext(ctx, run.promptContext())

	s.mu.Lock()
	if s.run == nil || s.run.ID != runID || s.timeline.Snapshot().RunID != runID {
		s.mu.Unlock()
		s.discard(runID, "run reset or superseded during synthesis")
		return
	}
	s.report = &report
	s.broadcastLocked(Update{Report: &report})
	s.mu.Unlock()

	s.logger.Info("report applied",
		"run_id", runID,
		"report_id", report.ID,
		"source", report.Source,
	)
	s.publish(ctx, report)
}

func (s *Simulator) discard(runID uint64, reason string) {
	s.metrics.ReportsDiscarded.Inc()
	s.logger.Info("discarding stale report", "run_id", runID, "reason", reason)
}

// publish outlives a later reset of the run; the report was already applied.
func (s *Simulator) publish(ctx context.Context, r domain.Report) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.PublishReport(ctx, r); err != nil {
		s.metrics.ReportsPublished.WithLabelValues("error").Inc()
		s.logger.Warn("report publish failed", "report_id", r.ID, "error", err)
		return
	}
	s.metrics.ReportsPublished.WithLabelValues("success").Inc()
}

func (s *Simulator) forward(snapshots <-chan timeline.Snapshot) {
	defer s.wg.Done()
	for snap := range snapshots {
		s.mu.Lock()
		s.broadcastLocked(Update{Snapshot: &snap})
		s.mu.Unlock()
	}
}

func (s *Simulator) broadcastLocked(u Update) {
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
		}
	}
}
