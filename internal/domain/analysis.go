package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// PromptContext is everything a narrative is written from. Metrics are computed
// before the context is built and are never recomputed from it.
type PromptContext struct {
	Impactor     ImpactorParameters
	Location     ImpactLocation
	Metrics      ImpactMetrics
	AsteroidName string
}

// AnalysisProvider writes free-form narrative text for an impact.
type AnalysisProvider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	GenerateNarrative(ctx context.Context, pc PromptContext) (string, error)
}

// Prompt renders the request sent to a text provider.
func (pc PromptContext) Prompt() string {
	p, l, m := pc.Impactor, pc.Location, pc.Metrics

	var b strings.Builder
	b.WriteString("You are an expert planetary scientist analyzing a meteor impact scenario. ")
	b.WriteString("Provide a detailed, human-readable impact analysis report.\n\n")

	b.WriteString("Meteor Parameters:\n")
	fmt.Fprintf(&b, "- Speed: %s m/s\n", humanize.Commaf(p.SpeedMps))
	fmt.Fprintf(&b, "- Diameter: %g meters\n", p.DiameterM)
	fmt.Fprintf(&b, "- Mass: %.2f million kg\n", p.MassKg/1e6)
	fmt.Fprintf(&b, "- Impact Angle: %g°\n", p.AngleDeg)
	fmt.Fprintf(&b, "- Composition: %s\n", p.Composition)
	if pc.AsteroidName != "" {
		fmt.Fprintf(&b, "- NASA Object: %s\n", pc.AsteroidName)
	}

	b.WriteString("\nImpact Location:\n")
	name := l.Name
	if name == "" {
		name = "Unknown"
	}
	fmt.Fprintf(&b, "- Location: %s\n", name)
	fmt.Fprintf(&b, "- Coordinates: %s\n\n", l.Coordinates())

	fmt.Fprintf(&b, "Calculated Impact Energy: %.2f megatons of TNT\n", m.EnergyMegatons)
	fmt.Fprintf(&b, "Estimated Crater Diameter: %.0f meters\n", m.CraterDiameterMeters)
	fmt.Fprintf(&b, "Blast Radius: %.1f km\n", m.BlastRadiusKm)
	fmt.Fprintf(&b, "Evacuation Zone: %.1f km\n", m.EvacuationZoneKm)
	fmt.Fprintf(&b, "Seismic Magnitude: %.1f\n\n", m.SeismicMagnitude)

	b.WriteString(promptInstructions)
	return b.String()
}

const promptInstructions = `Use the calculated figures above exactly as given; do not recompute them.

Please provide a comprehensive analysis including:

1. IMPACT SUMMARY: Brief overview of the impact scenario (2-3 sentences)

2. DAMAGE ASSESSMENT:
    - Immediate blast zone radius (in km)
    - Severe damage zone radius (in km)
    - Moderate damage zone radius (in km)
    - Evacuation zone recommendation (in km)

3. CASUALTY ESTIMATES:
    - Approximate deaths (consider population density at the location)
    - Approximate injuries

4. ENVIRONMENTAL EFFECTS:
    - Seismic activity (earthquake magnitude equivalent)
    - Atmospheric effects (dust, temperature changes)
    - Potential for tsunamis (if near water)
    - Long-term climate impact

5. INFRASTRUCTURE DAMAGE:
    - Buildings and structures
    - Transportation networks
    - Utilities and services
    - Economic impact estimate (in billions USD)

6. COMPARISON:
    - Compare this impact to a known historical event or nuclear weapon

7. RECOMMENDATIONS:
    - Immediate response actions
    - Evacuation priorities
    - Long-term recovery considerations

Format the response in clear sections with specific numbers and ranges. Be realistic and scientific in your estimates.`
