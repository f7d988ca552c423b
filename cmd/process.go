// =============================================================================
// Merchant Feed Ingest - Process Command
// =============================================================================
//
// This file defines the 'process' command, which ingests one merchant feed.
//
// COMMAND USAGE:
//   feedingest process --file <feed> [flags]
//
// FLAGS:
//   --file          : Path to the feed to process (required)
//   --merchant      : Merchant ID; matched from the file name when omitted
//   --out           : Clean dataset path (default: generated in output_dir)
//   --errors        : Error report path (default: generated in output_dir)
//   --print-errors  : Also print the error report to stdout
//   --dry-run       : Process and report counts without writing anything
//
// PROCESSING PIPELINE:
//   1. Load configuration files
//   2. Resolve the merchant (by ID or by file name pattern)
//   3. Run the converter for the feed
//   4. Print the summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/config"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/converter"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/logging"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	feedPath    string
	merchantID  int64
	outPath     string
	errorsPath  string
	printErrors bool
	dryRun      bool
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Validate a merchant feed and write the clean dataset and error report",
	Long: `The process command reads one merchant feed, restructures every row into the
canonical product schema and writes the results to the output directory.

The merchant is taken from --merchant, or matched from the feed's file name
against each merchant's file_matching_patterns.

Outputs:
  - Clean dataset: written only if at least one row is fully valid
  - Error report:  written only if at least one row was rejected

Rejected rows do not fail the command. Only configuration problems and an
unreadable feed do.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		var reportOut io.Writer
		if printErrors {
			reportOut = cmd.OutOrStdout()
		}
		return runProcess(cmd.Context(), cmd.OutOrStdout(), reportOut)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&feedPath, "file", "f", "", "Path to the feed to process")
	processCmd.Flags().Int64VarP(&merchantID, "merchant", "m", 0, "Merchant ID (default: match by file name)")
	processCmd.Flags().StringVar(&outPath, "out", "", "Clean dataset path (default: generated in output_dir)")
	processCmd.Flags().StringVar(&errorsPath, "errors", "", "Error report path (default: generated in output_dir)")
	processCmd.Flags().BoolVar(&printErrors, "print-errors", false, "Also print the error report to stdout")
	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Process the feed without writing output files")

	processCmd.MarkFlagRequired("file")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess ingests the feed given on the command line.
func runProcess(ctx context.Context, out, reportOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	mainConfig, err := loadMainConfig()
	if err != nil {
		return err
	}

	merchants, err := config.LoadMerchantConfigs(mainConfig.MerchantsDir)
	if err != nil {
		return fmt.Errorf("failed to load merchant configs: %w", err)
	}

	// =========================================================================
	// STEP 2: RESOLVE MERCHANT
	// =========================================================================

	if _, err := os.Stat(feedPath); err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}

	merchant, err := resolveMerchant(merchants, feedPath, merchantID)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 3: RUN
	// =========================================================================

	ctx, _ = logging.NewRunContext(ctx)

	conv := converter.New(feedPath, merchant, mainConfig, converter.Options{
		CleanPath:  outPath,
		ErrorsPath: errorsPath,
		DryRun:     dryRun,
		ReportOut:  reportOut,
	})
	result := conv.Run(ctx)
	if result.Error != nil {
		return result.Error
	}

	// =========================================================================
	// STEP 4: SUMMARY
	// =========================================================================

	printSummary(out, result, dryRun)
	return nil
}

// resolveMerchant picks the merchant by explicit ID, else by file name.
func resolveMerchant(merchants map[int64]*config.MerchantConfig, feed string, id int64) (*config.MerchantConfig, error) {
	if id != 0 {
		return config.FindMerchant(merchants, id)
	}
	return config.MatchMerchant(merchants, feed)
}

// printSummary writes the run statistics.
func printSummary(w io.Writer, result converter.Result, dryRun bool) {
	title := "Processing Complete"
	if dryRun {
		title = "Dry Run Complete"
	}

	fmt.Fprintf(w, "\n=== %s ===\n", title)
	fmt.Fprintf(w, "Merchant:        %d\n", result.MerchantID)
	fmt.Fprintf(w, "Rows read:       %d\n", result.Stats.RowsRead)
	fmt.Fprintf(w, "Clean rows:      %d\n", result.Stats.CleanRows)
	fmt.Fprintf(w, "Rejected rows:   %d\n", result.Stats.RejectedRows)
	fmt.Fprintf(w, "Field errors:    %d\n", result.Stats.FieldErrors)
	if result.CleanFile != "" {
		fmt.Fprintf(w, "Clean dataset:   %s\n", result.CleanFile)
	}
	if result.ErrorReport != "" {
		fmt.Fprintf(w, "Error report:    %s\n", result.ErrorReport)
	}
	if result.ArchivedTo != "" {
		fmt.Fprintf(w, "Archived to:     %s\n", result.ArchivedTo)
	}
	fmt.Fprintf(w, "Time elapsed:    %s\n", result.Stats.ProcessingTime)
}
