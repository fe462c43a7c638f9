// Command impactctl runs the impact calculators and report pipeline from the
// command line, without the HTTP service.
//
// Usage:
//
//	impactctl compute --speed 20000 --size 100 --composition iron
//	impactctl asteroid 2000433
//	impactctl locate Sydney, Australia
//	impactctl report --scenario tokyo.toml --format html -o tokyo.html
//	impactctl validate meteor-impact-report-1767323045000.json
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/meteor-impact-service/internal/config"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries state shared by every subcommand.
type app struct {
	v       *viper.Viper
	verbose bool
}

// flagKeys binds persistent flags to the service's configuration keys.
var flagKeys = map[string]string{
	"nasa-api-key":     "NASA_API_KEY",
	"nasa-base-url":    "NASA_BASE_URL",
	"provider":         "ANALYSIS_PROVIDER",
	"analysis-timeout": "ANALYSIS_TIMEOUT",
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "impactctl",
		Short:         "Meteor impact calculators and reports",
		Long:          "impactctl computes impact metrics, looks up near-Earth objects, and writes impact reports offline.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")
	pf.String("nasa-api-key", "", "NASA API key (env NASA_API_KEY)")
	pf.String("nasa-base-url", "", "NeoWs base URL (env NASA_BASE_URL)")
	pf.String("provider", "", "narrative provider: gemini, openai, or none (env ANALYSIS_PROVIDER)")
	pf.String("analysis-timeout", "", "narrative provider timeout (env ANALYSIS_TIMEOUT)")
	for name, key := range flagKeys {
		_ = a.v.BindPFlag(key, pf.Lookup(name))
	}

	root.AddCommand(
		newComputeCmd(),
		newMassCmd(),
		newAsteroidCmd(a),
		newLocateCmd(a),
		newReportCmd(a),
		newValidateCmd(),
	)
	return root
}

// config loads the service configuration with flag overrides applied.
func (a *app) config() (*config.Config, error) {
	cfg, err := config.LoadFrom(a.v)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// logger writes text logs to the command's stderr, warnings only unless --verbose.
func (a *app) logger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	lc := *cfg
	lc.LogFormat = "text"
	lc.LogLevel = "warn"
	if a.verbose {
		lc.LogLevel = "debug"
	}
	return observability.NewLoggerTo(cmd.ErrOrStderr(), &lc)
}
