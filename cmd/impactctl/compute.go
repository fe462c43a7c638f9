package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newComputeCmd() *cobra.Command {
	in := defaultScenario().Impactor
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute impact metrics for an impactor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := in.params()
			if err != nil {
				return err
			}
			m := domain.ComputeMetrics(p)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"impactorParameters": p,
					"metrics":            m,
					"zones":              m.Zones(),
				})
			}
			return printMetrics(cmd.OutOrStdout(), p, m)
		},
	}
	addImpactorFlags(cmd, &in)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newMassCmd() *cobra.Command {
	var (
		size        float64
		composition string
	)
	cmd := &cobra.Command{
		Use:   "mass",
		Short: "Estimate an impactor's mass from its diameter and composition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kg, err := domain.EstimateMassFromInput(size, composition)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s kg (%.2f million kg)\n", humanize.Commaf(math.Round(kg)), kg/1e6)
			return err
		},
	}
	cmd.Flags().Float64Var(&size, "size", 100, "diameter in meters")
	cmd.Flags().StringVar(&composition, "composition", string(domain.Stony), "iron, stony, stony-iron, or carbonaceous")
	return cmd
}

func addImpactorFlags(cmd *cobra.Command, in *impactorInput) {
	f := cmd.Flags()
	f.Float64Var(&in.Speed, "speed", in.Speed, "entry speed in m/s")
	f.Float64Var(&in.Size, "size", in.Size, "diameter in meters")
	f.Float64Var(&in.Mass, "mass", in.Mass, "mass in kg (0 estimates it from size and composition)")
	f.Float64Var(&in.Angle, "angle", in.Angle, "entry angle in degrees from horizontal")
	f.StringVar(&in.Composition, "composition", in.Composition, "iron, stony, stony-iron, or carbonaceous")
}

func printMetrics(w io.Writer, p domain.ImpactorParameters, m domain.ImpactMetrics) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Speed\t%s m/s\n", humanize.Commaf(p.SpeedMps))
	fmt.Fprintf(tw, "Diameter\t%g m\n", p.DiameterM)
	fmt.Fprintf(tw, "Mass\t%.2f million kg\n", p.MassKg/1e6)
	fmt.Fprintf(tw, "Angle\t%g°\n", p.AngleDeg)
	fmt.Fprintf(tw, "Composition\t%s\n", p.Composition)
	fmt.Fprintf(tw, "Impact energy\t%.2f Mt TNT\n", m.EnergyMegatons)
	fmt.Fprintf(tw, "Crater diameter\t%.0f m\n", m.CraterDiameterMeters)
	fmt.Fprintf(tw, "Blast radius\t%.1f km\n", m.BlastRadiusKm)
	fmt.Fprintf(tw, "Evacuation zone\t%.1f km\n", m.EvacuationZoneKm)
	fmt.Fprintf(tw, "Seismic magnitude\t%.1f\n", m.SeismicMagnitude)
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
