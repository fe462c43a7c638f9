package main

import (
	"fmt"

	"github.com/couchcryptid/meteor-impact-service/internal/adapter/neows"
	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/spf13/cobra"
)

func newAsteroidCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "asteroid <neo-id>",
		Short: "Look up a near-Earth object on NASA NeoWs and compute its impact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			logger := a.logger(cmd, cfg)
			client := neows.NewClient(cfg.NASAAPIKey, cfg.NASABaseURL, cfg.NASATimeout, observability.NewUnregisteredMetrics(), logger)

			neo, err := client.FetchByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p, err := neo.Impactor()
			if err != nil {
				return fmt.Errorf("asteroid %s: %w", neo.ID, err)
			}
			m := domain.ComputeMetrics(p)

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"asteroid":           neo,
					"impactorParameters": p,
					"metrics":            m,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (id %s)\n", neo.Name, neo.ID)
			if neo.IsHazardous {
				fmt.Fprintln(out, "Potentially hazardous asteroid")
			}
			fmt.Fprintln(out)
			return printMetrics(out, p, m)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
