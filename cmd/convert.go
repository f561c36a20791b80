// =============================================================================
// AR Export - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, which converts previously
// exported flat text files into an XLSX report without a live automation
// host. It exercises the same conversion stage the run command uses.
//
// COMMAND USAGE:
//   arexport convert [flags]
//
// FLAGS:
//   --items    : Path to a raw accounting line-item export
//   --disputes : Path to a raw dispute case export
//   --pattern  : Case-ID pattern applied to the item texts
//   --out      : Output report path
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgaborik/arexport/internal/records"
	"github.com/pgaborik/arexport/internal/report"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// itemsFile is the path to a raw accounting export.
var itemsFile string

// disputesFile is the path to a raw dispute export.
var disputesFile string

// casePattern is the case-ID pattern applied during conversion.
var casePattern string

// outFile is the output report path.
var outFile string

// =============================================================================
// CONVERT COMMAND DEFINITION
// =============================================================================

// convertCmd represents the 'convert' command.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert exported flat text files into an XLSX report",
	Long: `The convert command reads flat text files produced by earlier exports,
converts them into typed records, and renders an XLSX report. No connection
to the automation host is made; at least one input file is required.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if itemsFile == "" && disputesFile == "" {
			return fmt.Errorf("nothing to convert: pass --items and/or --disputes")
		}

		log := newLogger("info")

		var items []records.LineItem
		if itemsFile != "" {
			data, err := os.ReadFile(itemsFile)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", itemsFile, err)
			}
			if items, err = convertLineItems(string(data), casePattern); err != nil {
				return err
			}
		}

		var cases []records.DisputeCase
		if disputesFile != "" {
			data, err := os.ReadFile(disputesFile)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", disputesFile, err)
			}
			if cases, err = records.ParseDisputes(string(data)); err != nil {
				return err
			}
		}

		if err := report.Write(outFile, items, cases); err != nil {
			return err
		}

		log.Info().
			Int("items", len(items)).
			Int("cases", len(cases)).
			Str("report", outFile).
			Msg("conversion completed")
		return nil
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the convert command and its flags.
func init() {
	convertCmd.Flags().StringVar(&itemsFile, "items", "", "Path to a raw accounting line-item export")
	convertCmd.Flags().StringVar(&disputesFile, "disputes", "", "Path to a raw dispute case export")
	convertCmd.Flags().StringVar(&casePattern, "pattern", "", "Case-ID pattern applied to the item texts")
	convertCmd.Flags().StringVar(&outFile, "out", "report.xlsx", "Output report path")

	rootCmd.AddCommand(convertCmd)
}
