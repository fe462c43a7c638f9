package report

import (
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/dustin/go-humanize"
)

type fallbackData struct {
	Impactor     domain.ImpactorParameters
	Location     string
	Coordinates  string
	AsteroidName string
	Metrics      domain.ImpactMetrics
	Zones        domain.DamageZones
	Consequences domain.Consequences
}

var fallbackFuncs = template.FuncMap{
	"f0":    func(v float64) string { return fmt.Sprintf("%.0f", v) },
	"f1":    func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"f2":    func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"comma": func(v float64) string { return humanize.Commaf(math.Round(v)) },
	"size":  humanize.Commaf,
	"times": formatMultiple,
}

// formatMultiple keeps one decimal for small multiples so sub-Hiroshima
// impacts do not read as "0x".
func formatMultiple(v float64) string {
	if v < 10 {
		return fmt.Sprintf("%.1f", v)
	}
	return humanize.Commaf(math.Round(v))
}

var fallbackTemplate = template.Must(template.New("fallback").Funcs(fallbackFuncs).Parse(
	`IMPACT SUMMARY
This meteor impact scenario involves a {{size .Impactor.DiameterM}}-meter {{.Impactor.Composition}} {{if .AsteroidName}}asteroid ({{.AsteroidName}}){{else}}asteroid{{end}} striking {{.Location}} ({{.Coordinates}}) at {{comma .Impactor.SpeedMps}} m/s. The impact would release approximately {{f2 .Metrics.EnergyMegatons}} megatons of energy, equivalent to {{times .Consequences.HiroshimaMultiple}} times the Hiroshima bomb. This would be a catastrophic event with severe regional consequences.

DAMAGE ASSESSMENT
- Immediate Blast Zone: {{f1 .Zones.ImmediateKm}} km radius - Complete destruction, vaporization of all materials
- Severe Damage Zone: {{f1 .Zones.SevereKm}} km radius - Structural collapse, fires, 90%+ fatality rate
- Moderate Damage Zone: {{f1 .Zones.ModerateKm}} km radius - Significant structural damage, broken windows, injuries
- Evacuation Zone: {{f1 .Zones.EvacuationKm}} km radius - Recommended minimum safe distance

CASUALTY ESTIMATES
Based on the impact location at {{.Location}}:
- Estimated Deaths: {{comma .Consequences.Deaths.Low}} - {{comma .Consequences.Deaths.High}}
- Estimated Injuries: {{comma .Consequences.Injuries.Low}} - {{comma .Consequences.Injuries.High}}
- Population at Risk: {{comma .Consequences.PopulationAtRisk}}+

ENVIRONMENTAL EFFECTS
- Seismic Activity: Magnitude {{f1 .Metrics.SeismicMagnitude}} earthquake, felt up to {{f0 .Consequences.SeismicFeltKm}} km away
- Atmospheric Effects: Dust cloud reaching {{f0 .Consequences.DustAltitudeKm}} km altitude, potential for temporary cooling
- Crater Formation: {{f0 .Metrics.CraterDiameterMeters}} meters diameter, {{f0 .Consequences.CraterDepthMeters}} meters deep
- Ejecta Distribution: Debris scattered up to {{f0 .Consequences.EjectaRangeKm}} km from impact site

INFRASTRUCTURE DAMAGE
- Buildings: Complete destruction within {{f1 .Metrics.BlastRadiusKm}} km, severe damage to {{f1 .Metrics.EvacuationZoneKm}} km
- Transportation: Roads, bridges, and airports severely damaged or destroyed within damage zones
- Utilities: Power, water, and communication infrastructure disrupted across {{f0 .Consequences.UtilityOutageKm}} km radius
- Economic Impact: Estimated ${{f0 .Consequences.EconomicLossBnUSD.Low}} - ${{f0 .Consequences.EconomicLossBnUSD.High}} billion in direct damages

COMPARISON
This impact is comparable to:
- {{times .Consequences.HiroshimaMultiple}}x the Hiroshima atomic bomb
- Similar to the {{.Consequences.ComparableEvent}} but with {{if .Consequences.ExceedsComparable}}greater{{else}}different{{end}} characteristics
- Equivalent to a magnitude {{f1 .Metrics.SeismicMagnitude}} earthquake

RECOMMENDATIONS
Immediate Response:
1. Evacuate all personnel within {{f1 .Metrics.EvacuationZoneKm}} km radius immediately
2. Establish emergency command centers outside the damage zone
3. Deploy search and rescue teams with radiation and hazmat protection
4. Secure critical infrastructure and prevent secondary disasters

Evacuation Priorities:
1. Hospitals, schools, and high-density residential areas first
2. Establish evacuation routes away from the impact trajectory
3. Coordinate with regional and national emergency services
4. Prepare shelters for displaced populations

Long-term Recovery:
1. Environmental monitoring for dust, contamination, and climate effects
2. Structural assessment and rebuilding of critical infrastructure
3. Economic recovery programs and international aid coordination
4. Psychological support services for affected populations
5. Update disaster preparedness plans based on lessons learned

DISCLAIMER
This analysis uses scientific models and generated estimates. Actual impact effects depend on numerous variables including exact impact angle, local geology, weather conditions, and population distribution. This report is for educational and planning purposes only.`))

// Fallback renders the deterministic narrative for pc. Every figure comes from
// pc.Metrics or values derived from it; nothing is recomputed from the impactor.
func Fallback(pc domain.PromptContext) string {
	data := fallbackData{
		Impactor:     pc.Impactor,
		Location:     pc.Location.DisplayName(),
		Coordinates:  pc.Location.Coordinates(),
		AsteroidName: pc.AsteroidName,
		Metrics:      pc.Metrics,
		Zones:        pc.Metrics.Zones(),
		Consequences: domain.EstimateConsequences(pc.Metrics),
	}

	var b strings.Builder
	if err := fallbackTemplate.Execute(&b, data); err != nil {
		// Static template into a strings.Builder; not expected to fail.
		return fmt.Sprintf("IMPACT SUMMARY\nImpact at %s releasing %.2f megatons of energy. Evacuation Zone: %.1f km radius.",
			data.Location, pc.Metrics.EnergyMegatons, pc.Metrics.EvacuationZoneKm)
	}
	return b.String()
}
