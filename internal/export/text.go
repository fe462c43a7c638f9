package export

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/dustin/go-humanize"
)

const (
	timestampLayout = "2006-01-02 15:04:05 MST"
	rule            = "═══════════════════════════════════════════════════════════"
	footer          = "Report generated by Meteor Impact Simulator"
)

// TXT renders r as a plain-text report.
func TXT(r domain.Report) []byte {
	p, m := r.Impactor, r.Metrics

	var b strings.Builder
	b.WriteString("METEOR IMPACT ANALYSIS REPORT\n")
	fmt.Fprintf(&b, "Generated: %s\n\n%s\n\n", r.GeneratedAt.UTC().Format(timestampLayout), rule)

	b.WriteString("IMPACT LOCATION\n")
	fmt.Fprintf(&b, "Location: %s\n", locationName(r.Location))
	fmt.Fprintf(&b, "Coordinates: %s\n\n", r.Location.Coordinates())

	b.WriteString("METEOR PARAMETERS\n")
	fmt.Fprintf(&b, "Speed: %s m/s\n", humanize.Commaf(p.SpeedMps))
	fmt.Fprintf(&b, "Diameter: %g m\n", p.DiameterM)
	fmt.Fprintf(&b, "Mass: %.2f million kg\n", p.MassKg/1e6)
	fmt.Fprintf(&b, "Impact Angle: %g°\n", p.AngleDeg)
	fmt.Fprintf(&b, "Composition: %s\n", p.Composition)
	if r.AsteroidName != "" {
		fmt.Fprintf(&b, "NASA Object: %s\n", r.AsteroidName)
	}
	fmt.Fprintf(&b, "\n%s\n\n", rule)

	b.WriteString("KEY METRICS\n")
	fmt.Fprintf(&b, "Impact Energy: %.2f megatons TNT\n", m.EnergyMegatons)
	fmt.Fprintf(&b, "Crater Diameter: %.0f meters\n", m.CraterDiameterMeters)
	fmt.Fprintf(&b, "Blast Radius: %.1f km\n", m.BlastRadiusKm)
	fmt.Fprintf(&b, "Evacuation Zone: %.1f km\n", m.EvacuationZoneKm)
	fmt.Fprintf(&b, "Seismic Magnitude: %.1f\n", m.SeismicMagnitude)
	fmt.Fprintf(&b, "\n%s\n\n", rule)

	b.WriteString("DETAILED ANALYSIS\n")
	b.WriteString(r.Narrative)
	fmt.Fprintf(&b, "\n\n%s\n\n%s\n", rule, footer)

	return []byte(b.String())
}

func locationName(l domain.ImpactLocation) string {
	if l.Name == "" {
		return "Unknown"
	}
	return l.Name
}
