// =============================================================================
// AR Export - Run Command
// =============================================================================
//
// This file defines the 'run' command, which executes the full export
// pipeline for one legal entity against a live automation host.
//
// COMMAND USAGE:
//   arexport run --entity <code> [flags]
//
// FLAGS:
//   --entity : Entity code selecting the rule file to apply (required)
//   --from   : Lower posting date bound (DD.MM.YYYY)
//   --to     : Upper posting date bound (DD.MM.YYYY)
//
// PIPELINE:
//   1. Load configuration and the entity's processing rules
//   2. Connect to the automation host
//   3. Export accounting line items and convert them to typed records
//   4. Extract dispute case identifiers from the item texts
//   5. Bulk-search and export the matching dispute cases
//   6. Render both record tables into an XLSX report
//   7. Sweep leftover temp files
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pgaborik/arexport/internal/config"
	"github.com/pgaborik/arexport/internal/disputes"
	"github.com/pgaborik/arexport/internal/receivables"
	"github.com/pgaborik/arexport/internal/records"
	"github.com/pgaborik/arexport/internal/report"
	"github.com/pgaborik/arexport/internal/scripting"
	"github.com/pgaborik/arexport/pkg/fileutil"
)

// flagDateFormat is the date format accepted on the command line. It
// matches the format the remote screens use.
const flagDateFormat = "02.01.2006"

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// entityCode selects which entity rule file drives the run.
var entityCode string

// fromDay and toDay bound the posting date range.
var fromDay string
var toDay string

// =============================================================================
// RUN COMMAND DEFINITION
// =============================================================================

// runCmd represents the 'run' command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Export receivables and dispute cases for one entity",
	Long: `The run command connects to the automation host, exports the accounting
line items of the chosen entity, extracts dispute case identifiers from the
item texts, searches and exports the matching dispute cases, and renders
both tables into an XLSX report.

Each export writes to a uniquely named temp file that is deleted right
after it is read back; leftover temp files are swept when the run ends.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		log := newLogger(cfg.LogLevel)

		rules, err := config.LoadEntityRules(cfg.RulesDir)
		if err != nil {
			return err
		}
		r, ok := rules[entityCode]
		if !ok {
			return fmt.Errorf("no rules found for entity %q in %s", entityCode, cfg.RulesDir)
		}

		from, to, err := parseDateRange(fromDay, toDay)
		if err != nil {
			return err
		}

		defer func() {
			if n := fileutil.RemoveTempFiles(log, cfg.TempDir); n > 0 {
				log.Info().Int("files", n).Msg("removed leftover temp files")
			}
		}()

		return runPipeline(log, cfg, r, from, to)
	},
}

// runPipeline drives the host session through both engines and writes the
// final report.
func runPipeline(log zerolog.Logger, cfg *config.Config, r *config.EntityRules, from, to time.Time) error {
	sess, err := scripting.Connect(cfg.System)
	if err != nil {
		return err
	}

	items, err := exportReceivables(log, cfg, r, sess, from, to)
	if err != nil {
		return err
	}
	if items == nil {
		log.Info().Str("entity", r.EntityCode).Msg("no items found, nothing to report")
		return nil
	}

	cases, err := exportDisputes(log, cfg, r, sess, items)
	if err != nil {
		return err
	}

	reportPath := reportFileName(cfg.ReportDir, r.EntityCode)
	if err := report.Write(reportPath, items, cases); err != nil {
		return err
	}

	log.Info().
		Str("entity", r.EntityCode).
		Int("items", len(items)).
		Int("cases", len(cases)).
		Str("report", reportPath).
		Msg("run completed")
	return nil
}

// exportReceivables runs the line-item export and conversion. A nil slice
// with nil error means the valid empty outcome.
func exportReceivables(log zerolog.Logger, cfg *config.Config, r *config.EntityRules, sess scripting.Session, from, to time.Time) ([]records.LineItem, error) {
	engine := receivables.New(log)
	if err := engine.Start(sess); err != nil {
		return nil, err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Warn().Err(err).Msg("could not close the receivables engine cleanly")
		}
	}()

	sel, err := entitySelection(r)
	if err != nil {
		return nil, err
	}

	res, err := engine.ExportLineItems(receivables.ExportRequest{
		File:        fileutil.TempExportPath(cfg.TempDir, "receivables"),
		CompanyCode: r.CompanyCode,
		Selection:   sel,
		Status:      receivables.Status(r.ItemStatus),
		FromDay:     from,
		ToDay:       to,
		Layout:      r.ReceivablesLayout,
	})
	if err != nil {
		return nil, err
	}
	if res.Empty {
		return nil, nil
	}

	return convertLineItems(res.Text, r.CaseIDPattern)
}

// convertLineItems parses the raw export, wiring in the entity's case-ID
// matcher when one is configured.
func convertLineItems(text, pattern string) ([]records.LineItem, error) {
	if pattern == "" {
		return records.ParseLineItems(text, nil)
	}

	matcher, err := records.CompileCaseIDPattern(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid case-id pattern: %w", err)
	}
	return records.ParseLineItems(text, matcher)
}

// exportDisputes searches and exports the cases referenced by the line
// items. Items without a case marker are skipped; no references at all is
// a valid empty outcome.
func exportDisputes(log zerolog.Logger, cfg *config.Config, r *config.EntityRules, sess scripting.Session, items []records.LineItem) ([]records.DisputeCase, error) {
	ids := caseIdentifiers(items)
	if len(ids) == 0 {
		log.Info().Msg("no case identifiers found in the item texts")
		return nil, nil
	}

	engine := disputes.New(log)
	if err := engine.Start(sess); err != nil {
		return nil, err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Warn().Err(err).Msg("could not close the disputes engine cleanly")
		}
	}()

	res, err := engine.SearchDisputes(disputes.CaseList(ids))
	if err != nil {
		return nil, err
	}
	if res.Empty {
		return nil, nil
	}

	text, err := engine.ExportDisputesData(res, fileutil.TempExportPath(cfg.TempDir, "disputes"), r.DisputesLayout)
	if err != nil {
		return nil, err
	}

	return records.ParseDisputes(text)
}

// =============================================================================
// HELPERS
// =============================================================================

// entitySelection maps the entity's classification onto a screen selection
// variant.
func entitySelection(r *config.EntityRules) (receivables.Selection, error) {
	switch r.Classification {
	case config.ClassifyByWorklist:
		return receivables.Worklist(r.Worklist), nil

	case config.ClassifyByCompanyCode:
		if len(r.Accounts) == 1 {
			return receivables.SingleAccount(r.Accounts[0]), nil
		}
		return receivables.AccountList(r.Accounts), nil

	default:
		return receivables.Selection{}, fmt.Errorf("entity %q: unknown classification: %q", r.EntityCode, r.Classification)
	}
}

// caseIdentifiers collects the distinct case IDs referenced by the items,
// formatted as the seven-digit strings the search screen expects, in first
// occurrence order.
func caseIdentifiers(items []records.LineItem) []string {
	seen := make(map[uint64]bool)
	var ids []string

	for _, item := range items {
		if item.CaseID == 0 || seen[item.CaseID] {
			continue
		}
		seen[item.CaseID] = true
		ids = append(ids, fmt.Sprintf("%07d", item.CaseID))
	}

	return ids
}

// parseDateRange parses the optional --from/--to flags.
func parseDateRange(fromStr, toStr string) (from, to time.Time, err error) {
	if fromStr != "" {
		if from, err = time.Parse(flagDateFormat, fromStr); err != nil {
			return from, to, fmt.Errorf("invalid --from date %q (expected DD.MM.YYYY)", fromStr)
		}
	}
	if toStr != "" {
		if to, err = time.Parse(flagDateFormat, toStr); err != nil {
			return from, to, fmt.Errorf("invalid --to date %q (expected DD.MM.YYYY)", toStr)
		}
	}
	return from, to, nil
}

// reportFileName builds a timestamped report path for one entity.
func reportFileName(dir, entity string) string {
	name := fmt.Sprintf("%s_%s.xlsx", entity, time.Now().Format("20060102_150405"))
	return filepath.Join(dir, name)
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the run command and its flags.
func init() {
	runCmd.Flags().StringVar(&entityCode, "entity", "", "Entity code selecting the rule file to apply")
	runCmd.Flags().StringVar(&fromDay, "from", "", "Lower posting date bound (DD.MM.YYYY)")
	runCmd.Flags().StringVar(&toDay, "to", "", "Upper posting date bound (DD.MM.YYYY)")
	runCmd.MarkFlagRequired("entity")

	rootCmd.AddCommand(runCmd)
}
