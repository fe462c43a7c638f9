package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/meteor-impact-service/internal/adapter/mapbox"
	"github.com/couchcryptid/meteor-impact-service/internal/config"
	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/spf13/cobra"
)

var errGeocodingDisabled = errors.New("geocoding is disabled: set MAPBOX_ENABLED=true and MAPBOX_TOKEN")

// geocoder returns the Mapbox client, or nil when geocoding is not configured.
func geocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) domain.Geocoder {
	if !cfg.MapboxEnabled {
		return nil
	}
	return mapbox.NewClient(cfg.MapboxToken, cfg.MapboxBaseURL, cfg.MapboxTimeout, metrics, logger)
}

func newLocateCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "locate <place>",
		Short: "Find the coordinates of a place for use as an impact site",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			geo := geocoder(cfg, observability.NewUnregisteredMetrics(), a.logger(cmd, cfg))
			if geo == nil {
				return errGeocodingDisabled
			}

			query := strings.Join(args, " ")
			res, err := geo.ForwardGeocode(cmd.Context(), query)
			if err != nil {
				return err
			}
			if !res.Found() {
				return fmt.Errorf("no place matches %q", query)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			loc, err := res.Location()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.FormattedAddress)
			fmt.Fprintln(out, loc.Coordinates())
			fmt.Fprintf(out, "--lat %.4f --lon %.4f --name %q\n", loc.Latitude, loc.Longitude, res.PlaceName)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}
