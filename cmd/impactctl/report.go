package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/meteor-impact-service/internal/adapter/analysis"
	"github.com/couchcryptid/meteor-impact-service/internal/adapter/neows"
	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/export"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/couchcryptid/meteor-impact-service/internal/report"
	"github.com/spf13/cobra"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		flags        = defaultScenario()
		scenarioPath string
		format       string
		output       string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write an impact report for a scenario",
		Long: `Computes metrics for the scenario, writes the narrative with the configured
provider (or the built-in fallback), and exports the report.

The scenario comes from --scenario (TOML) when given; impactor and location
flags that are set explicitly override the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			sc := flags
			if scenarioPath != "" {
				if sc, err = loadScenario(scenarioPath); err != nil {
					return err
				}
				overrideChanged(cmd, &sc, flags)
			}

			cfg, err := a.config()
			if err != nil {
				return err
			}
			logger := a.logger(cmd, cfg)
			metrics := observability.NewUnregisteredMetrics()

			pc, err := promptContext(cmd, sc, func(id string) (domain.AsteroidData, error) {
				client := neows.NewClient(cfg.NASAAPIKey, cfg.NASABaseURL, cfg.NASATimeout, metrics, logger)
				return client.FetchByID(cmd.Context(), id)
			})
			if err != nil {
				return err
			}

			if pc.Location.Name == "" {
				pc.Location = nameLocation(cmd, geocoder(cfg, metrics, logger), pc.Location, logger)
			}

			synth := report.NewSynthesizer(analysis.FromConfig(cfg), logger, metrics)
			r := synth.SynthesizeContext(cmd.Context(), pc)

			out, err := export.Render(f, r)
			if err != nil {
				return err
			}
			if output == "-" {
				_, err = cmd.OutOrStdout().Write(out.Body)
				return err
			}
			if output == "" {
				output = out.Filename
			}
			if err := os.WriteFile(output, out.Body, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			abs, _ := filepath.Abs(output)
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s narrative)\n", abs, r.Source)
			return nil
		},
	}

	addImpactorFlags(cmd, &flags.Impactor)
	fs := cmd.Flags()
	fs.StringVar(&flags.AsteroidID, "asteroid", "", "NeoWs object ID to use instead of the impactor flags")
	fs.Float64Var(&flags.Location.Latitude, "lat", 0, "impact latitude")
	fs.Float64Var(&flags.Location.Longitude, "lon", 0, "impact longitude")
	fs.StringVar(&flags.Location.Name, "name", "", "impact location name")
	fs.StringVar(&scenarioPath, "scenario", "", "TOML scenario file")
	fs.StringVarP(&format, "format", "f", "txt", "export format: txt, html, or json")
	fs.StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default: generated name)`)
	return cmd
}

// overrideChanged copies explicitly set flags from flags onto sc.
func overrideChanged(cmd *cobra.Command, sc *scenario, flags scenario) {
	changed := cmd.Flags().Changed
	set := map[string]func(){
		"speed":       func() { sc.Impactor.Speed = flags.Impactor.Speed },
		"size":        func() { sc.Impactor.Size = flags.Impactor.Size },
		"mass":        func() { sc.Impactor.Mass = flags.Impactor.Mass },
		"angle":       func() { sc.Impactor.Angle = flags.Impactor.Angle },
		"composition": func() { sc.Impactor.Composition = flags.Impactor.Composition },
		"asteroid":    func() { sc.AsteroidID = flags.AsteroidID },
		"lat":         func() { sc.Location.Latitude = flags.Location.Latitude },
		"lon":         func() { sc.Location.Longitude = flags.Location.Longitude },
		"name":        func() { sc.Location.Name = flags.Location.Name },
	}
	for name, apply := range set {
		if changed(name) {
			apply()
		}
	}
}

// nameLocation names bare coordinates when a geocoder is available. Failures
// leave the location unnamed.
func nameLocation(cmd *cobra.Command, geo domain.Geocoder, loc domain.ImpactLocation, logger *slog.Logger) domain.ImpactLocation {
	if geo == nil {
		return loc
	}
	res, err := geo.ReverseGeocode(cmd.Context(), loc.Latitude, loc.Longitude)
	if err != nil {
		logger.Warn("reverse geocode failed, location left unnamed", "error", err)
		return loc
	}
	if res.Found() {
		loc.Name = res.FormattedAddress
	}
	return loc
}

// promptContext validates the scenario and computes its metrics. fetch is
// called only when the scenario names an asteroid.
func promptContext(cmd *cobra.Command, sc scenario, fetch func(id string) (domain.AsteroidData, error)) (domain.PromptContext, error) {
	loc, err := sc.Location.location()
	if err != nil {
		return domain.PromptContext{}, err
	}

	var (
		p    domain.ImpactorParameters
		name string
	)
	if sc.AsteroidID != "" {
		neo, err := fetch(sc.AsteroidID)
		if err != nil {
			return domain.PromptContext{}, err
		}
		if p, err = neo.Impactor(); err != nil {
			return domain.PromptContext{}, fmt.Errorf("asteroid %s: %w", neo.ID, err)
		}
		name = neo.Name
		fmt.Fprintf(cmd.ErrOrStderr(), "using %s\n", name)
	} else if p, err = sc.Impactor.params(); err != nil {
		return domain.PromptContext{}, err
	}

	return domain.PromptContext{
		Impactor:     p,
		Location:     loc,
		Metrics:      domain.ComputeMetrics(p),
		AsteroidName: name,
	}, nil
}
