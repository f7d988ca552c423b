// =============================================================================
// Merchant Feed Ingest - CSV Parser Module
// =============================================================================
//
// This module streams merchant CSV feeds as raw records. It handles:
//   - Different delimiters (comma, pipe, tab, semicolon)
//   - Different encodings (any WHATWG label: utf-8, windows-1252, latin1, ...)
//   - Byte order marks, which are stripped and override the configured encoding
//   - Short rows (missing cells read as "") and long rows (types.ExtraColumn)
//
// Cell values are passed through untouched. Trimming is a field type concern
// (trimmed_string), not a parsing one. Empty lines are skipped, but a row of
// blank cells (",,,") is a record like any other.
//
// A zero-byte feed has no header and no records; it is not an error.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/config"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// =============================================================================
// STREAMING PARSER
// =============================================================================

// StreamingParser reads a CSV feed one record at a time.
//
// USAGE:
//
//	parser, err := NewStreamingParser(filePath, settings)
//	if err != nil {
//	    return err
//	}
//	defer parser.Close()
//
//	for parser.Next() {
//	    rec := parser.Record()
//	}
//
//	if err := parser.Err(); err != nil {
//	    return err
//	}
type StreamingParser struct {
	closer  io.Closer
	reader  *csv.Reader
	headers []string
	current *types.RawRecord
	done    bool
	err     error
}

// NewStreamingParser opens a CSV feed and reads its header row.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The merchant's CSV settings.
//
// RETURNS:
//   - A pointer to the StreamingParser, positioned before the first data row.
//   - An error if the file cannot be opened, the encoding or delimiter is
//     unknown, or the header row is invalid. A zero-byte file is not an
//     error; it yields no records.
func NewStreamingParser(filePath string, settings config.CSVSettings) (*StreamingParser, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	parser, err := NewReaderParser(file, settings)
	if err != nil {
		file.Close()
		return nil, err
	}
	parser.closer = file

	return parser, nil
}

// NewReaderParser builds a parser over an already open stream. The caller
// keeps ownership of r; Close on the returned parser is a no-op.
func NewReaderParser(r io.Reader, settings config.CSVSettings) (*StreamingParser, error) {
	decoded, err := decodingReader(bufio.NewReader(r), settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	if err := configureReader(reader, settings); err != nil {
		return nil, err
	}

	parser := &StreamingParser{reader: reader}
	if err := parser.readHeaders(); err != nil {
		return nil, err
	}

	return parser, nil
}

// decodingReader wraps r so that it yields UTF-8. A byte order mark, when
// present, wins over the configured encoding and is removed.
func decodingReader(r io.Reader, label string) (io.Reader, error) {
	if strings.TrimSpace(label) == "" {
		label = "utf-8"
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}

	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) error {
	comma, err := settings.Comma()
	if err != nil {
		return err
	}
	reader.Comma = comma

	// Row width is checked against the header by Next.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = settings.LazyQuotes
	reader.ReuseRecord = true
	return nil
}

// readHeaders reads the header row. An empty feed leaves the parser done.
func (p *StreamingParser) readHeaders() error {
	row, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		p.done = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading header row: %w", err)
	}

	headers := make([]string, len(row))
	seen := make(map[string]bool, len(row))
	for i, h := range row {
		h = strings.TrimSpace(h)
		if seen[h] {
			return fmt.Errorf("duplicate column %q in header row", h)
		}
		seen[h] = true
		headers[i] = h
	}

	p.headers = headers
	return nil
}

// Next advances to the next row. Returns false at end of input or on a read
// error (see Err).
func (p *StreamingParser) Next() bool {
	if p.done || p.err != nil {
		return false
	}

	row, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		p.done = true
		return false
	}
	if err != nil {
		p.err = fmt.Errorf("error reading CSV: %w", err)
		return false
	}

	line, _ := p.reader.FieldPos(0)
	rec := types.NewRawRecord(line)
	for i, header := range p.headers {
		if i < len(row) {
			rec.Set(header, row[i])
		} else {
			rec.Set(header, "")
		}
	}
	for i := len(p.headers); i < len(row); i++ {
		rec.Set(types.ExtraColumn(i), row[i])
	}

	p.current = rec
	return true
}

// Record returns the current row.
func (p *StreamingParser) Record() *types.RawRecord {
	return p.current
}

// Headers returns the parsed headers.
func (p *StreamingParser) Headers() []string {
	return p.headers
}

// Err returns any error that occurred during parsing.
func (p *StreamingParser) Err() error {
	return p.err
}

// Close closes the underlying file.
func (p *StreamingParser) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
