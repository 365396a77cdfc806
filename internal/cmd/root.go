// Package cmd wires the veil CLI: the HTTP server, a one-shot scan mode,
// and version info.
package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/veil-io/veil/internal/otel"
)

var (
	// otelShutdown holds the OTel shutdown function, called from Execute()
	otelShutdown func(context.Context) error

	// Version info injected via ldflags at build time
	Version   = "1.0.0"
	Commit    = "none"
	BuildDate = "unknown"

	// Global flags
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
	otelFlag  bool
)

// resolvedVersion returns Version unless Go build info carries a real
// module version (e.g. from go install ...@v1.0.0).
func resolvedVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

var rootCmd = &cobra.Command{
	Use:   "veil",
	Short: "PII detection and sanitization service",
	Long: `Veil detects personally identifiable information in free-form text and
replaces it with type-specific placeholders.

It serves downstream applications (e.g. healthcare record pipelines) that
must strip or audit sensitive data before further processing or storage.`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()

		otelEnabled := otelFlag || verbose || os.Getenv("VEIL_OTEL_ENABLED") == "true"
		shutdown, err := otel.Setup("veil", resolvedVersion(), otelEnabled)
		if err != nil {
			return fmt.Errorf("initializing OpenTelemetry: %w", err)
		}
		otelShutdown = shutdown
		return nil
	},
}

func setupLogging() {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Structured logs go to stderr so stdout stays clean for piping
	// (e.g. veil scan | jq).
	if logFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().
			Timestamp().
			Logger()
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./veil.config.yaml or ~/.veil/veil.config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().BoolVar(&otelFlag, "otel", false, "enable OpenTelemetry (traces and metrics to stdout)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("otel", rootCmd.PersistentFlags().Lookup("otel"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.veil")
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("veil.config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VEIL")
	viper.AutomaticEnv()

	// Read config (ignore errors - file may not exist)
	_ = viper.ReadInConfig()
}

// Execute runs the root command and flushes OTel on exit.
func Execute() error {
	err := rootCmd.Execute()
	if otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(ctx)
	}
	return err
}
