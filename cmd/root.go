// =============================================================================
// AR Export - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands (like 'run', 'convert') are
// attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (arexport)
//   ├── runCmd     (arexport run)
//   ├── convertCmd (arexport convert)
//   └── versionCmd (arexport version)
//
// The root command owns the global flags (--config, --verbose) and the
// logger setup shared by all subcommands.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "arexport",
	Short: "AR Export - Drive ERP screen exports of receivables and dispute cases",

	Long: `AR Export automates the accounts-receivable item-listing screen and the
dispute case-search screen of the ERP client through its scripting engine,
exports the displayed data as delimited flat text, and converts it into
typed records and XLSX reports.

Key Features:
  - Per-entity processing rules (company code or worklist classification)
  - Bulk account and case selection through the host clipboard
  - Strict validation before any remote interaction
  - Case-ID extraction from free-text item fields
  - Offline conversion of previously exported flat text files

Example Usage:
  arexport run --entity ERG            # Full pipeline for one entity
  arexport run --entity ERG --from 01.01.2026 --to 30.06.2026
  arexport convert --items export.txt  # Offline conversion, no live host`,

	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print the help message.
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// LOGGING
// =============================================================================

// newLogger builds the console logger for one command invocation. The
// --verbose flag overrides the configured level.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}

	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags available to all subcommands.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
