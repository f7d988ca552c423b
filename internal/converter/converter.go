// =============================================================================
// Merchant Feed Ingest - Converter Module
// =============================================================================
//
// This module contains the core ingest logic. It orchestrates the pipeline for
// a single merchant feed, from reading the source to writing the artifacts.
//
// INGEST PIPELINE:
//   1. Resolve the merchant's column mapping and the canonical schema
//   2. Build the restructurer (startup check: every target has rules)
//   3. Open the feed (CSV or XLSX)
//   4. Restructure every row into a clean record or a row error
//   5. Write the clean dataset
//   6. Write the error report
//   7. Archive the processed feed
//
// The run is single-threaded. The source is closed on every path.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/config"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/csvparser"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/csvwriter"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/logging"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/report"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/xlsxparser"
	"github.com/ginjaninja78/merchant-feed-ingest/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single feed.
type Result struct {
	// FeedPath is the path to the feed that was processed.
	FeedPath string

	// MerchantID is the merchant the feed belongs to.
	MerchantID int64

	// CleanFile is the path to the clean dataset.
	// Empty if no row was clean, on dry runs and on failure.
	CleanFile string

	// ErrorReport is the path to the error report.
	// Empty if no row was rejected, on dry runs and on failure.
	ErrorReport string

	// ArchivedTo is the feed's archive path, if it was archived.
	ArchivedTo string

	// Success indicates whether the run completed. Rejected rows do not
	// make a run fail.
	Success bool

	// Error contains the error if the run failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsRead is the number of non-empty data rows read from the feed.
	RowsRead int

	// CleanRows is the number of rows written to the clean dataset.
	CleanRows int

	// RejectedRows is the number of rows written to the error report.
	RejectedRows int

	// FieldErrors is the number of field errors across rejected rows.
	FieldErrors int

	// ProcessingTime is the time taken to process the feed.
	ProcessingTime time.Duration
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options adjusts a single run.
type Options struct {
	// CleanPath overrides the generated clean dataset path.
	CleanPath string

	// ErrorsPath overrides the generated error report path.
	ErrorsPath string

	// DryRun processes the feed without writing or archiving anything.
	DryRun bool

	// ReportOut, when set, also receives the rendered error report.
	ReportOut io.Writer
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter ingests a single merchant feed.
type Converter struct {
	feedPath   string
	merchant   *config.MerchantConfig
	mainConfig *config.MainConfig
	options    Options
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - feedPath: The path to the merchant feed.
//   - merchant: The merchant's configuration.
//   - mainConfig: The main application configuration.
//   - options: Per-run overrides.
func New(feedPath string, merchant *config.MerchantConfig, mainConfig *config.MainConfig, options Options) *Converter {
	return &Converter{
		feedPath:   feedPath,
		merchant:   merchant,
		mainConfig: mainConfig,
		options:    options,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the ingest pipeline for the feed. Log entries carry the run ID
// from ctx (see logging.NewRunContext).
func (c *Converter) Run(ctx context.Context) Result {
	startTime := time.Now()
	result := Result{
		FeedPath:   c.feedPath,
		MerchantID: c.merchant.MerchantID,
	}

	logger := logging.WithFields(ctx,
		"merchant_id", c.merchant.MerchantID,
		"feed", filepath.Base(c.feedPath),
	)
	logger.Info("processing feed", "path", c.feedPath, "merchant_name", c.merchant.MerchantName)

	// =========================================================================
	// STEP 1-2: MAPPING, SCHEMA AND RESTRUCTURER
	// =========================================================================

	restructurer, err := c.buildRestructurer()
	if err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 3-4: READ AND RESTRUCTURE
	// =========================================================================

	batch, err := c.process(restructurer)
	result.Stats.RowsRead = batch.Rows()
	if err != nil {
		result.Error = err
		return result
	}

	result.Stats.CleanRows = len(batch.Clean)
	result.Stats.RejectedRows = len(batch.RowErrors)
	result.Stats.FieldErrors = batch.FieldErrors()

	for _, re := range batch.RowErrors {
		logger.Debug("row rejected", "line", re.Line, "errors", len(re.Errors))
	}

	if c.options.ReportOut != nil && len(batch.RowErrors) > 0 {
		if err := report.Write(c.options.ReportOut, batch.RowErrors); err != nil {
			logger.Warn("failed to print error report", "error", err)
		}
	}

	if c.options.DryRun {
		result.Success = true
		result.Stats.ProcessingTime = time.Since(startTime)
		logSummary(logger, result, "dry run complete")
		return result
	}

	// =========================================================================
	// STEP 5-6: WRITE ARTIFACTS
	// =========================================================================

	if err := c.writeArtifacts(batch, &result); err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 7: ARCHIVE
	// =========================================================================

	if c.mainConfig.ArchiveOnSuccess {
		fm := utils.NewFileManager(c.mainConfig.OutputDir, c.mainConfig.InputArchiveDir)
		archived, err := fm.ArchiveInputFile(c.feedPath)
		if err != nil {
			// The artifacts are already written; keep the run successful.
			logger.Warn("failed to archive feed", "error", err)
		} else {
			result.ArchivedTo = archived
		}
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)
	logSummary(logger, result, "feed processed")

	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// buildRestructurer resolves the mapping and schema for the merchant.
func (c *Converter) buildRestructurer() (*Restructurer, error) {
	mapping, err := c.merchant.ResolveMapping(c.mainConfig.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve column mapping: %w", err)
	}

	schema, err := c.mainConfig.Schema()
	if err != nil {
		return nil, fmt.Errorf("failed to build canonical schema: %w", err)
	}

	r, err := NewRestructurer(mapping, schema, c.merchant.Statics())
	if err != nil {
		return nil, fmt.Errorf("merchant %d: %w", c.merchant.MerchantID, err)
	}
	return r, nil
}

// process opens the feed and restructures every row.
func (c *Converter) process(r *Restructurer) (Batch, error) {
	src, err := OpenSource(c.feedPath, c.merchant.CSVSettings)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to open feed: %w", err)
	}
	defer src.Close()

	return Process(src, r)
}

// writeArtifacts writes the clean dataset and the error report.
func (c *Converter) writeArtifacts(batch Batch, result *Result) error {
	params := map[string]string{
		"merchant": strconv.FormatInt(c.merchant.MerchantID, 10),
		"original": utils.BaseName(c.feedPath),
	}
	fm := utils.NewFileManager(c.mainConfig.OutputDir, c.mainConfig.InputArchiveDir)

	cleanPath := c.options.CleanPath
	if cleanPath == "" {
		cleanPath = fm.OutputPath(c.mainConfig.CleanFileFormat, params)
	}
	errorsPath := c.options.ErrorsPath
	if errorsPath == "" {
		errorsPath = fm.OutputPath(c.mainConfig.ErrorReportFormat, params)
	}

	if err := utils.EnsureDirectories(filepath.Dir(cleanPath), filepath.Dir(errorsPath)); err != nil {
		return err
	}

	written, err := csvwriter.WriteFile(cleanPath, batch.Clean)
	if err != nil {
		return fmt.Errorf("failed to write clean dataset: %w", err)
	}
	if written {
		result.CleanFile = cleanPath
	}

	written, err = report.WriteFile(errorsPath, batch.RowErrors)
	if err != nil {
		return err
	}
	if written {
		result.ErrorReport = errorsPath
	}

	return nil
}

// logSummary logs the run outcome at info level.
func logSummary(logger *slog.Logger, result Result, msg string) {
	logger.Info(msg,
		"rows", result.Stats.RowsRead,
		"clean_rows", result.Stats.CleanRows,
		"rejected_rows", result.Stats.RejectedRows,
		"field_errors", result.Stats.FieldErrors,
		"clean_file", result.CleanFile,
		"error_report", result.ErrorReport,
		"duration", result.Stats.ProcessingTime,
	)
}

// =============================================================================
// SOURCES
// =============================================================================

// Source is a RecordSource that holds an open file.
type Source interface {
	RecordSource
	Close() error
}

// OpenSource opens a feed by extension: .xlsx and .xlsm workbooks are read
// from their first sheet, everything else as CSV with the merchant's settings.
func OpenSource(path string, settings config.CSVSettings) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		src, err := xlsxparser.NewSheetSource(path)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		src, err := csvparser.NewStreamingParser(path, settings)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}
