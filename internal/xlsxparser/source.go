package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
	"github.com/xuri/excelize/v2"
)

// SheetSource streams raw records from the first sheet of an XLSX feed. The
// first row is the header; each later row that holds any cell becomes one
// record, even when every cell is blank. Rows without cells are skipped like
// empty lines in a CSV feed, and an empty sheet yields no records.
//
// USAGE:
//
//	src, err := NewSheetSource(path)
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	for src.Next() {
//	    rec := src.Record()
//	}
//	if err := src.Err(); err != nil {
//	    return err
//	}
type SheetSource struct {
	file    *excelize.File
	rows    *excelize.Rows
	headers []string
	current *types.RawRecord
	line    int
	done    bool
	err     error
}

// NewSheetSource opens an XLSX feed and reads its header row.
func NewSheetSource(path string) (*SheetSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		f.Close()
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.Rows(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	src := &SheetSource{file: f, rows: rows, line: 1}

	if !rows.Next() {
		if err := rows.Error(); err != nil {
			src.Close()
			return nil, fmt.Errorf("failed to read header row: %w", err)
		}
		src.done = true
		return src, nil
	}

	header, err := rows.Columns()
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	// Trailing blank header cells are formatting, not columns.
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}
	src.headers = header

	return src, nil
}

// Next advances to the next row that holds cells.
func (s *SheetSource) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for s.rows.Next() {
		s.line++

		row, err := s.rows.Columns()
		if err != nil {
			s.err = fmt.Errorf("error reading row %d: %w", s.line, err)
			return false
		}
		if len(row) == 0 {
			continue
		}

		rec := types.NewRawRecord(s.line)
		for i, header := range s.headers {
			rec.Set(header, rawCell(row, i))
		}
		// Blank cells past the header are formatting, like blank header cells.
		for i := len(s.headers); i < len(row); i++ {
			if row[i] != "" {
				rec.Set(types.ExtraColumn(i), row[i])
			}
		}
		s.current = rec
		return true
	}

	s.done = true
	if err := s.rows.Error(); err != nil {
		s.err = fmt.Errorf("error reading sheet: %w", err)
	}
	return false
}

// Record returns the current row.
func (s *SheetSource) Record() *types.RawRecord {
	return s.current
}

// Headers returns the header row.
func (s *SheetSource) Headers() []string {
	return s.headers
}

// Err returns the first read error.
func (s *SheetSource) Err() error {
	return s.err
}

// Close releases the row iterator and the workbook.
func (s *SheetSource) Close() error {
	rowsErr := s.rows.Close()
	if err := s.file.Close(); err != nil {
		return err
	}
	return rowsErr
}

// rawCell returns a cell value as stored, or "" past the end of the row.
func rawCell(row []string, index int) string {
	if index < len(row) {
		return row[index]
	}
	return ""
}
