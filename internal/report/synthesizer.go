// Package report turns impact metrics into a finished Report, using an
// external narrative provider when one is configured and a deterministic
// fallback otherwise. Synthesis never fails and never alters the metrics it
// is given.
package report

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var errEmptyNarrative = errors.New("provider returned empty narrative")

// Synthesizer produces reports. A nil provider means every report uses the fallback.
type Synthesizer struct {
	provider domain.AnalysisProvider
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewSynthesizer creates a Synthesizer. Pass a nil provider to disable
// provider narratives.
func NewSynthesizer(provider domain.AnalysisProvider, logger *slog.Logger, metrics *observability.Metrics) *Synthesizer {
	return &Synthesizer{
		provider: provider,
		logger:   logger,
		metrics:  metrics,
	}
}

// Synthesize builds the report for one impact. metrics must already be
// computed from params; the report carries them unchanged.
func (s *Synthesizer) Synthesize(ctx context.Context, params domain.ImpactorParameters, location domain.ImpactLocation, metrics domain.ImpactMetrics) domain.Report {
	return s.SynthesizeContext(ctx, domain.PromptContext{
		Impactor: params,
		Location: location,
		Metrics:  metrics,
	})
}

// SynthesizeContext is Synthesize for a prepared PromptContext, which may
// carry an asteroid name. The provider is tried once; any failure, including
// an empty reply, falls back to the deterministic narrative.
func (s *Synthesizer) SynthesizeContext(ctx context.Context, pc domain.PromptContext) domain.Report {
	ctx, span := observability.Tracer().Start(ctx, "report.synthesize")
	defer span.End()

	narrative, err := s.generate(ctx, pc)
	if err == nil {
		span.SetAttributes(attribute.String("report.source", string(domain.SourceProvider)))
		s.metrics.ReportsGenerated.WithLabelValues(string(domain.SourceProvider)).Inc()
		return domain.NewReport(pc, narrative, domain.SourceProvider)
	}

	if s.provider != nil {
		span.RecordError(err)
		s.logger.Warn("analysis provider failed, using fallback narrative",
			"provider", s.provider.Name(),
			"error", err,
		)
	}
	span.SetAttributes(attribute.String("report.source", string(domain.SourceFallback)))
	s.metrics.ReportsGenerated.WithLabelValues(string(domain.SourceFallback)).Inc()
	return domain.NewReport(pc, Fallback(pc), domain.SourceFallback)
}

func (s *Synthesizer) generate(ctx context.Context, pc domain.PromptContext) (string, error) {
	if s.provider == nil {
		return "", errors.New("no analysis provider configured")
	}

	ctx, span := observability.Tracer().Start(ctx, "analysis.generate")
	defer span.End()
	span.SetAttributes(attribute.String("analysis.provider", s.provider.Name()))

	start := time.Now()
	text, err := s.provider.GenerateNarrative(ctx, pc)
	s.metrics.AnalysisDuration.WithLabelValues(s.provider.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		span.SetStatus(codes.Error, errEmptyNarrative.Error())
		return "", errEmptyNarrative
	}
	return text, nil
}
