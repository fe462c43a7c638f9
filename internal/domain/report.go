package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReportSource records which path produced a report's narrative.
type ReportSource string

const (
	SourceProvider ReportSource = "provider"
	SourceFallback ReportSource = "fallback"
)

// Report is the finished analysis of one simulation run. Reports are built once
// by NewReport and never modified; a new run always yields a new Report.
type Report struct {
	ID           string             `json:"id"`
	GeneratedAt  time.Time          `json:"generatedAt"`
	Impactor     ImpactorParameters `json:"impactorParameters"`
	Location     ImpactLocation     `json:"location"`
	Metrics      ImpactMetrics      `json:"metrics"`
	Narrative    string             `json:"analysis"`
	Source       ReportSource       `json:"source"`
	AsteroidName string             `json:"asteroidName,omitempty"`
}

// NewReport stamps a report with a fresh ID and the package clock's time.
func NewReport(ctx PromptContext, narrative string, source ReportSource) Report {
	return Report{
		ID:           uuid.NewString(),
		GeneratedAt:  clock.Now().UTC(),
		Impactor:     ctx.Impactor,
		Location:     ctx.Location,
		Metrics:      ctx.Metrics,
		Narrative:    narrative,
		Source:       source,
		AsteroidName: ctx.AsteroidName,
	}
}
