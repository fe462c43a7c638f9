package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/dustin/go-humanize"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"comma": humanize.Commaf,
	"mkg":   func(kg float64) string { return fmt.Sprintf("%.2f", kg/1e6) },
	"f0":    func(v float64) string { return fmt.Sprintf("%.0f", v) },
	"f1":    func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"f2":    func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Meteor Impact Analysis Report</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 900px; margin: 40px auto; padding: 20px; background: #f5f5f5; color: #333; }
        .container { background: white; padding: 40px; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.1); }
        h1 { color: #1a1a1a; border-bottom: 3px solid #e74c3c; padding-bottom: 10px; }
        h2 { color: #2c3e50; margin-top: 30px; }
        .metrics { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 15px; margin: 20px 0; }
        .metric-card { background: #f8f9fa; padding: 15px; border-radius: 6px; border-left: 4px solid #3498db; }
        .metric-label { font-size: 12px; color: #666; text-transform: uppercase; }
        .metric-value { font-size: 24px; font-weight: bold; color: #2c3e50; }
        .analysis { line-height: 1.8; white-space: pre-wrap; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Meteor Impact Analysis Report</h1>
        <p><strong>Generated:</strong> {{.Generated}}</p>
        <h2>Impact Location</h2>
        <p><strong>Location:</strong> {{.Location}}<br><strong>Coordinates:</strong> {{.Coordinates}}</p>
        <h2>Meteor Parameters</h2>
        <p><strong>Speed:</strong> {{comma .R.Impactor.SpeedMps}} m/s<br><strong>Diameter:</strong> {{.R.Impactor.DiameterM}} m<br><strong>Mass:</strong> {{mkg .R.Impactor.MassKg}} million kg<br><strong>Angle:</strong> {{.R.Impactor.AngleDeg}}°<br><strong>Composition:</strong> {{.R.Impactor.Composition}}{{with .R.AsteroidName}}<br><strong>NASA Object:</strong> {{.}}{{end}}</p>
        <h2>Key Metrics</h2>
        <div class="metrics">
            <div class="metric-card"><div class="metric-label">Impact Energy</div><div class="metric-value">{{f2 .R.Metrics.EnergyMegatons}} MT</div></div>
            <div class="metric-card"><div class="metric-label">Crater Diameter</div><div class="metric-value">{{f0 .R.Metrics.CraterDiameterMeters}} m</div></div>
            <div class="metric-card"><div class="metric-label">Blast Radius</div><div class="metric-value">{{f1 .R.Metrics.BlastRadiusKm}} km</div></div>
            <div class="metric-card"><div class="metric-label">Evacuation Zone</div><div class="metric-value">{{f1 .R.Metrics.EvacuationZoneKm}} km</div></div>
            <div class="metric-card"><div class="metric-label">Seismic Magnitude</div><div class="metric-value">M {{f1 .R.Metrics.SeismicMagnitude}}</div></div>
        </div>
        <h2>Detailed Analysis</h2>
        <div class="analysis">{{.R.Narrative}}</div>
    </div>
</body>
</html>
`))

// HTML renders r as a standalone HTML page. The narrative is escaped, so
// provider text cannot inject markup.
func HTML(r domain.Report) ([]byte, error) {
	data := struct {
		R           domain.Report
		Generated   string
		Location    string
		Coordinates string
	}{
		R:           r,
		Generated:   r.GeneratedAt.UTC().Format(timestampLayout),
		Location:    locationName(r.Location),
		Coordinates: r.Location.Coordinates(),
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}
	return buf.Bytes(), nil
}
