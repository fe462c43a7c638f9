package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
)

// Document is the structured-data rendering of a Report. It is also the
// payload of report events and the input to offline validation.
type Document struct {
	Metadata Metadata             `json:"metadata"`
	Metrics  domain.ImpactMetrics `json:"metrics"`
	Analysis string               `json:"analysis"`
}

// Metadata describes the scenario a report was generated for.
type Metadata struct {
	ReportID           string                    `json:"reportId"`
	GeneratedAt        time.Time                 `json:"generatedAt"`
	Source             domain.ReportSource       `json:"source"`
	Location           domain.ImpactLocation     `json:"location"`
	ImpactorParameters domain.ImpactorParameters `json:"impactorParameters"`
	AsteroidName       string                    `json:"asteroidName,omitempty"`
}

// NewDocument maps a report to its export shape.
func NewDocument(r domain.Report) Document {
	return Document{
		Metadata: Metadata{
			ReportID:           r.ID,
			GeneratedAt:        r.GeneratedAt,
			Source:             r.Source,
			Location:           r.Location,
			ImpactorParameters: r.Impactor,
			AsteroidName:       r.AsteroidName,
		},
		Metrics:  r.Metrics,
		Analysis: r.Narrative,
	}
}

// Report maps the document back to a Report.
func (d Document) Report() domain.Report {
	return domain.Report{
		ID:           d.Metadata.ReportID,
		GeneratedAt:  d.Metadata.GeneratedAt,
		Impactor:     d.Metadata.ImpactorParameters,
		Location:     d.Metadata.Location,
		Metrics:      d.Metrics,
		Narrative:    d.Analysis,
		Source:       d.Metadata.Source,
		AsteroidName: d.Metadata.AsteroidName,
	}
}

// JSON renders r as an indented Document.
func JSON(r domain.Report) ([]byte, error) {
	b, err := json.MarshalIndent(NewDocument(r), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report document: %w", err)
	}
	return b, nil
}

// DecodeDocument parses an exported JSON report.
func DecodeDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("decode report document: %w", err)
	}
	return d, nil
}
