// Package cli is the namaz command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/namaz/internal/config"
	"github.com/smokyabdulrahman/namaz/internal/display"
	"github.com/smokyabdulrahman/namaz/internal/logging"
)

// Global flags shared across all subcommands.
var (
	FlagCity       string
	FlagCountry    string
	FlagLatitude   float64
	FlagLongitude  float64
	FlagMethod     int
	FlagSchool     int
	FlagJSON       bool
	FlagCacheDir   string
	FlagTimeFormat string
	FlagLogLevel   string
)

// loadedConfig is read in PersistentPreRunE and merged with the flags by
// effectiveConfig.
var loadedConfig *config.Config

// NewRootCmd builds the namaz command. version is injected via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "namaz",
		Short:   "Prayer times, qibla and a prayer tracker",
		Long:    "namaz shows today's prayer times with a countdown, points to the qibla,\ntracks the five daily prayers and serves the same features over HTTP.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupWriter(cmd.ErrOrStderr(), FlagLogLevel, true)
			if FlagJSON {
				display.SetEnabled(false)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			loadedConfig = cfg
			return nil
		},
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&FlagCity, "city", "", "Override city (resolved through the prayer-time provider)")
	pf.StringVar(&FlagCountry, "country", "", "Override country")
	pf.Float64Var(&FlagLatitude, "latitude", 0, "Override latitude")
	pf.Float64Var(&FlagLongitude, "longitude", 0, "Override longitude")
	pf.IntVar(&FlagMethod, "method", config.DefaultMethod, "Calculation method (0-23, see 'namaz methods')")
	pf.IntVar(&FlagSchool, "school", -1, "Asr school (0=Shafi, 1=Hanafi)")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&FlagCacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/namaz/)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&FlagLogLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newNextCmd(),
		newListCmd(), newWeekCmd(), newMonthCmd(),
		newQueryCmd(),
		newQiblaCmd(),
		newCheckCmd(), newStatsCmd(), newQadaCmd(), newLeaderboardCmd(),
		newDhikrCmd(),
		newQuranCmd(),
		newConfigCmd(),
		newMethodsCmd(),
		newServeCmd(),
		newTokenCmd(),
	)
	return rootCmd
}

// effectiveConfig merges CLI flags > config file > defaults. A flag counts
// only when it was set explicitly.
func effectiveConfig(cmd *cobra.Command) *config.Config {
	cfg := loadedConfig
	if cfg == nil {
		cfg = &config.Config{}
	}
	defaults := config.Defaults()

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	if flagWasSet(flags, root, "city") {
		cfg.City = FlagCity
	}
	if flagWasSet(flags, root, "country") {
		cfg.Country = FlagCountry
	}
	if flagWasSet(flags, root, "latitude") {
		cfg.Latitude = FlagLatitude
	}
	if flagWasSet(flags, root, "longitude") {
		cfg.Longitude = FlagLongitude
	}
	if flagWasSet(flags, root, "method") {
		cfg.Method = &FlagMethod
	} else if cfg.Method == nil {
		cfg.Method = defaults.Method
	}
	if flagWasSet(flags, root, "school") {
		cfg.School = &FlagSchool
	} else if cfg.School == nil {
		cfg.School = defaults.School
	}
	if flagWasSet(flags, root, "cache-dir") {
		cfg.CacheDir = FlagCacheDir
	}
	if flagWasSet(flags, root, "time-format") {
		cfg.TimeFormat = FlagTimeFormat
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = defaults.TimeFormat
	}
	return cfg
}

func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

// clockLayout is the Go layout for the configured time format.
func clockLayout(cfg *config.Config) string {
	if cfg.Use12h() {
		return "3:04 PM"
	}
	return "15:04"
}
