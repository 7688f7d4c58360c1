// Package cli wires the cobra command tree to the application services.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/teca-labs/arcveil/internal/backup"
	"github.com/teca-labs/arcveil/internal/core/ports/driven"
	"github.com/teca-labs/arcveil/internal/core/ports/driving"
	"github.com/teca-labs/arcveil/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services injected by main before Execute.
var (
	pipeline driving.Pipeline
	guardian *backup.Guardian
	runStore driven.RunStore
)

var (
	flagVerbose bool
	flagLogFile string
	flagConfig  string
)

// bootstrap builds the application services from the configuration file.
// Injected by main; nil in tests, which inject services directly.
var bootstrap func(configPath string) error

var rootCmd = &cobra.Command{
	Use:   "arcveil",
	Short: "Classification and redaction for the archive graph store",
	Long: `arcveil classifies every Record and RecordSet in the archive graph
store as protected or anonymised, rewrites the personal data of anonymised
entities to a fixed placeholder, and verifies the result.

A checksum-verified journal backup is taken before any mutation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		if flagLogFile != "" {
			if err := logger.OpenLogFile(flagLogFile); err != nil {
				return err
			}
		}
		// The version command must work without a configuration file.
		if bootstrap != nil && cmd.Name() != "version" {
			return bootstrap(flagConfig)
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		logger.CloseLogFile()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"log progress to stderr")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "",
		"append the full run log to this file")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "",
		"path to the configuration file (default ./arcveil.toml)")
}

// SetBootstrap registers the service initialiser run before any command
// that needs the application services.
func SetBootstrap(fn func(configPath string) error) {
	bootstrap = fn
}

// Configure injects the application services. Must be called before Execute.
func Configure(p driving.Pipeline, g *backup.Guardian, r driven.RunStore) {
	pipeline = p
	guardian = g
	runStore = r
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
