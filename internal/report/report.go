// =============================================================================
// Merchant Feed Ingest - Error Report
// =============================================================================
//
// This module renders rejected rows as a plain-text report for the merchant
// operations team.
//
// REPORT LAYOUT (one block per rejected row):
//
//   AFFECTED PRODUCT (line 4)
//   {"sku":"A1","price":"abc"}
//   --------------------------------------
//   ERRORS
//   --------------------------------------
//   1. Source Column: price
//   Canonical Field: max_price_inc_vat
//   Value: abc
//   Error: could not transform value "abc" to decimal: ...
//
// =============================================================================

package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
)

const rule = "--------------------------------------"

// Render formats the row errors in input order. It returns "" for no errors.
func Render(rowErrors []types.RowError) string {
	var b strings.Builder
	for _, re := range rowErrors {
		writeBlock(&b, re)
	}
	return b.String()
}

// Write renders the row errors to w.
func Write(w io.Writer, rowErrors []types.RowError) error {
	if _, err := io.WriteString(w, Render(rowErrors)); err != nil {
		return fmt.Errorf("failed to write error report: %w", err)
	}
	return nil
}

// WriteFile writes the report to path. Nothing is created when there are no
// row errors; the returned bool reports whether a file was written.
func WriteFile(path string, rowErrors []types.RowError) (bool, error) {
	if len(rowErrors) == 0 {
		return false, nil
	}

	if err := os.WriteFile(path, []byte(Render(rowErrors)), 0644); err != nil {
		return false, fmt.Errorf("failed to write error report: %w", err)
	}
	return true, nil
}

func writeBlock(b *strings.Builder, re types.RowError) {
	if re.Line > 0 {
		fmt.Fprintf(b, "AFFECTED PRODUCT (line %d)\n", re.Line)
	} else {
		b.WriteString("AFFECTED PRODUCT\n")
	}
	b.WriteString(re.Record)
	b.WriteString("\n")
	b.WriteString(rule + "\n")
	b.WriteString("ERRORS\n")
	b.WriteString(rule + "\n")

	for i, fe := range re.Errors {
		fmt.Fprintf(b, "%d. Source Column: %s\n", i+1, fe.SourceColumn)
		fmt.Fprintf(b, "Canonical Field: %s\n", fe.CanonicalField)
		fmt.Fprintf(b, "Value: %s\n", fe.Value)
		fmt.Fprintf(b, "Error: %s\n", fe.Description)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
