// =============================================================================
// Merchant Feed Ingest - XLSX Parser
// =============================================================================
//
// This module reads two kinds of XLSX workbooks:
//
//   1. Mapping templates: a sheet listing merchant column names and the
//      canonical field each one maps to.
//   2. Product feeds: merchants that export from a spreadsheet may deliver
//      the feed as XLSX instead of CSV.
//
// MAPPING TEMPLATE STRUCTURE (first sheet):
//
//   | Column A             | Column B             | Column C (optional) |
//   |----------------------|----------------------|---------------------|
//   | Source Column        | Canonical Field      | Notes               |
//   | sku                  | merchant_product_id  |                     |
//   | price                | max_price_inc_vat    | incl. VAT           |
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// TEMPLATE COLUMN CONFIGURATION
// =============================================================================

// TemplateColumns defines which columns in the mapping template hold which
// data. Column indices are 0-based (A=0, B=1, ...).
type TemplateColumns struct {
	// SourceColumn holds the merchant's column name.
	// Default: 0 (Column A)
	SourceColumn int

	// CanonicalColumn holds the canonical field name.
	// Default: 1 (Column B)
	CanonicalColumn int

	// DataStartRow is the first data row (0-based).
	// Default: 1 (Row 2)
	DataStartRow int
}

// DefaultTemplateColumns returns the default column configuration.
func DefaultTemplateColumns() TemplateColumns {
	return TemplateColumns{
		SourceColumn:    0, // Column A
		CanonicalColumn: 1, // Column B
		DataStartRow:    1, // Row 2
	}
}

// =============================================================================
// MAPPING TEMPLATE PARSER
// =============================================================================

// ParseMapping reads a mapping template with the default column layout.
func ParseMapping(templatePath string) (types.ColumnMapping, error) {
	return ParseMappingWithConfig(templatePath, DefaultTemplateColumns())
}

// ParseMappingWithConfig reads a mapping template using a custom layout.
//
// PARAMETERS:
//   - templatePath: The path to the XLSX template file.
//   - columns: The column configuration for parsing.
//
// RETURNS:
//   - The column mapping table.
//   - An error if the file cannot be read, a row names a source column
//     without a canonical field, or a source column is listed twice with
//     different targets.
func ParseMappingWithConfig(templatePath string, columns TemplateColumns) (types.ColumnMapping, error) {
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("template file has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	mapping := make(types.ColumnMapping)

	for i := columns.DataStartRow; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		source := cell(row, columns.SourceColumn)
		canonical := cell(row, columns.CanonicalColumn)

		if source == "" {
			continue
		}
		if canonical == "" {
			return nil, fmt.Errorf("row %d: source column %q has no canonical field", i+1, source)
		}
		if existing, ok := mapping[source]; ok && existing != canonical {
			return nil, fmt.Errorf("row %d: source column %q mapped to both %q and %q", i+1, source, existing, canonical)
		}

		mapping[source] = canonical
	}

	return mapping, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// cell safely returns a trimmed cell value.
func cell(row []string, index int) string {
	if index < len(row) {
		return strings.TrimSpace(row[index])
	}
	return ""
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
