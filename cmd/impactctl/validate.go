package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/export"
	"github.com/spf13/cobra"
)

// metricTolerance is the relative difference allowed between exported and
// re-derived metrics; both sides run the same float64 arithmetic.
const metricTolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <report.json>",
		Short: "Check an exported JSON report against re-derived metrics",
		Long: `Re-derives the metrics of an exported JSON report from its impactor
parameters and checks that the narrative quotes them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read report: %w", err)
			}
			doc, err := export.DecodeDocument(data)
			if err != nil {
				return err
			}
			phases := []*phase{
				validateStructure(doc),
				validateMetrics(doc),
				validateNarrative(doc),
			}
			if !printPhases(cmd.OutOrStdout(), phases) {
				return fmt.Errorf("validation failed: %s", args[0])
			}
			return nil
		},
	}
}

func validateStructure(doc export.Document) *phase {
	p := &phase{name: "Document structure"}
	md := doc.Metadata
	if md.ReportID == "" {
		p.errorf("metadata.reportId is empty")
	}
	if md.GeneratedAt.IsZero() {
		p.errorf("metadata.generatedAt is missing")
	}
	if md.Source != domain.SourceProvider && md.Source != domain.SourceFallback {
		p.errorf("metadata.source %q is not provider or fallback", md.Source)
	}
	if err := md.ImpactorParameters.Validate(); err != nil {
		p.errorf("metadata.impactorParameters: %v", err)
	}
	if err := md.Location.Validate(); err != nil {
		p.errorf("metadata.location: %v", err)
	}
	if strings.TrimSpace(doc.Analysis) == "" {
		p.errorf("analysis is empty")
	}
	return p
}

func validateMetrics(doc export.Document) *phase {
	p := &phase{name: "Metric derivation"}
	if doc.Metadata.ImpactorParameters.Validate() != nil {
		p.errorf("impactor parameters are invalid; metrics cannot be re-derived")
		return p
	}
	want := domain.ComputeMetrics(doc.Metadata.ImpactorParameters)
	got := doc.Metrics

	check := func(field string, got, want float64) {
		if !closeEnough(got, want) {
			p.errorf("%s = %v, re-derived %v", field, got, want)
		}
	}
	check("energyJoules", got.EnergyJoules, want.EnergyJoules)
	check("impactEnergy", got.EnergyMegatons, want.EnergyMegatons)
	check("craterDiameter", got.CraterDiameterMeters, want.CraterDiameterMeters)
	check("blastRadius", got.BlastRadiusKm, want.BlastRadiusKm)
	check("evacuationZone", got.EvacuationZoneKm, want.EvacuationZoneKm)
	check("seismicMagnitude", got.SeismicMagnitude, want.SeismicMagnitude)
	return p
}

// validateNarrative checks that the narrative quotes the exported metrics at
// the precision the prompt and fallback use. Fallback narratives must quote
// every figure; provider narratives must quote the energy and are only
// warned about the rest.
func validateNarrative(doc export.Document) *phase {
	p := &phase{name: "Narrative figures"}
	m := doc.Metrics
	figures := []struct {
		label    string
		text     string
		required bool
	}{
		{"impact energy", fmt.Sprintf("%.2f", m.EnergyMegatons), true},
		{"crater diameter", fmt.Sprintf("%.0f meters", m.CraterDiameterMeters), false},
		{"blast radius", fmt.Sprintf("%.1f km", m.BlastRadiusKm), false},
		{"evacuation zone", fmt.Sprintf("%.1f km", m.EvacuationZoneKm), false},
		{"seismic magnitude", fmt.Sprintf("Magnitude %.1f", m.SeismicMagnitude), false},
	}
	for _, f := range figures {
		if strings.Contains(doc.Analysis, f.text) {
			continue
		}
		if f.required || doc.Metadata.Source == domain.SourceFallback {
			p.errorf("%s %q not quoted in analysis", f.label, f.text)
		} else {
			p.warnf("%s %q not quoted in analysis", f.label, f.text)
		}
	}
	return p
}

func closeEnough(got, want float64) bool {
	if got == want {
		return true
	}
	return math.Abs(got-want) <= metricTolerance*math.Max(math.Abs(got), math.Abs(want))
}

func printPhases(w io.Writer, phases []*phase) bool {
	fmt.Fprintln(w, "=== Impact Report Validation ===")
	fmt.Fprintln(w)

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-24s %s\n", p.name, status)
	}

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.warnings) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
		for _, warn := range p.warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
	} else {
		fmt.Fprintln(w, "\nValidation FAILED.")
	}
	return allPassed
}
