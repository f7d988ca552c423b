// =============================================================================
// Merchant Feed Ingest - Clean Dataset Writer
// =============================================================================
//
// This module writes canonical records as the database-ready CSV.
//
// OUTPUT RULES:
//   - The header is the field order of the first record.
//   - Later records are written in header order; a missing field is an empty
//     cell, an extra field is an error (ErrUnexpectedField).
//   - Records are checked before anything is written, so a failed write
//     leaves no partial dataset behind.
//
// VALUE FORMATTING:
//   string          -> as is
//   decimal.Decimal -> plain decimal notation, scale kept ("19.90")
//   types.NullInt   -> integer, or empty when null
//
// =============================================================================

package csvwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
	"github.com/shopspring/decimal"
)

// ErrUnexpectedField is returned when a record carries a field that is not in
// the header taken from the first record.
var ErrUnexpectedField = errors.New("field not in output header")

// Write writes records as CSV to w. Nothing is written for zero records.
func Write(w io.Writer, records []*types.CanonicalRecord) error {
	if len(records) == 0 {
		return nil
	}

	header := records[0].Keys()
	if err := checkFields(header, records); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(header))
	for _, rec := range records {
		for i, field := range header {
			v, _ := rec.Get(field)
			row[i] = FormatValue(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// WriteFile writes records to a new file at path. No file is created for zero
// records; the returned bool reports whether one was written.
func WriteFile(path string, records []*types.CanonicalRecord) (bool, error) {
	if len(records) == 0 {
		return false, nil
	}

	header := records[0].Keys()
	if err := checkFields(header, records); err != nil {
		return false, err
	}

	file, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("failed to create output file: %w", err)
	}

	if err := Write(file, records); err != nil {
		file.Close()
		return false, err
	}
	if err := file.Close(); err != nil {
		return false, fmt.Errorf("failed to close output file: %w", err)
	}

	return true, nil
}

// checkFields verifies every record only uses header fields.
func checkFields(header []string, records []*types.CanonicalRecord) error {
	known := make(map[string]bool, len(header))
	for _, h := range header {
		known[h] = true
	}

	for i, rec := range records {
		for _, key := range rec.Keys() {
			if !known[key] {
				return fmt.Errorf("%w: record %d has %q", ErrUnexpectedField, i+1, key)
			}
		}
	}
	return nil
}

// FormatValue renders a canonical value as a CSV cell.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case decimal.Decimal:
		if exp := val.Exponent(); exp < 0 {
			return val.StringFixed(-exp)
		}
		return val.String()
	case types.NullInt:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
