// =============================================================================
// Merchant Feed Ingest - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (feedingest)
//   ├── processCmd (feedingest process)
//   ├── validateCmd (feedingest validate)
//   └── versionCmd (feedingest version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose, --env-file)
//   2. Loading the .env file before any command runs
//   3. Loading the main config and setting up logging (loadMainConfig)
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/config"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile holds the path to the optional .env file.
var envFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "feedingest",
	Short: "Merchant Feed Ingest - validate merchant product feeds for loading",
	Long: `Merchant Feed Ingest reads a merchant's product feed (CSV or XLSX), maps the
merchant's column names to the canonical product schema, validates and coerces
every field, and writes two artifacts:

  - a clean, database-ready CSV with every fully valid row
  - a plain-text error report for every row that failed

A row with any invalid or unmapped field is left out of the clean output
entirely and described in the error report.

Example Usage:
  feedingest process --file ./input/276_product_update.csv
  feedingest process --file feed.csv --merchant 276 --print-errors
  feedingest validate                  # Check configuration without processing`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnvFile(envFile)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Path to an optional .env file with FEEDINGEST_* settings",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadEnvFile loads variables from path without overriding variables that are
// already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// loadMainConfig loads the main configuration and sets up logging from it.
func loadMainConfig() (*config.MainConfig, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	level := mainConfig.LogLevel
	if verbose {
		level = "debug"
	}
	logging.Setup(level, mainConfig.LogFormat, os.Stderr)

	slog.Debug("configuration loaded",
		"config", cfgFile,
		"merchants_dir", mainConfig.MerchantsDir,
		"output_dir", mainConfig.OutputDir,
	)

	return mainConfig, nil
}
