// =============================================================================
// Merchant Feed Ingest - Shared Types
// =============================================================================
//
// This package contains the record and error types shared by the parsers,
// the validation engine, the converter and the writers. Keeping them here
// avoids import cycles between those packages.
//
// RECORD LIFECYCLE:
//   RawRecord --(restructure)--> CanonicalRecord   (row is clean)
//                           \--> RowError          (row has field errors)
//
// Both records keep their keys in insertion order so that the clean output
// header and the serialized records in the error report follow the input.
//
// =============================================================================

package types

import (
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// UnmappedField is the canonical name reported for a source column that has
// no entry in the column mapping table.
const UnmappedField = "-"

// StaticSource is the source column name reported for errors raised by
// configured static fields (values injected by the converter, not read from
// the feed).
const StaticSource = "(static)"

// ColumnMapping maps a merchant's source column name to a canonical field name.
type ColumnMapping map[string]string

// =============================================================================
// RAW RECORD
// =============================================================================

// RawRecord is one input row keyed by source column name.
type RawRecord struct {
	// Line is the 1-based line (or sheet row) in the feed; the header is 1.
	Line int

	fields *orderedmap.OrderedMap[string, string]
}

// NewRawRecord creates an empty raw record for the given feed line.
func NewRawRecord(line int) *RawRecord {
	return &RawRecord{
		Line:   line,
		fields: orderedmap.New[string, string](),
	}
}

// Set stores a column value. Setting an existing column keeps its position.
func (r *RawRecord) Set(column, value string) {
	r.fields.Set(column, value)
}

// Get returns the value of a column.
func (r *RawRecord) Get(column string) (string, bool) {
	return r.fields.Get(column)
}

// Len returns the number of columns in the record.
func (r *RawRecord) Len() int {
	return r.fields.Len()
}

// Each calls fn for every column in input order.
func (r *RawRecord) Each(fn func(column, value string)) {
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// String serializes the record as a JSON object in column order. It is the
// representation used in the error report.
func (r *RawRecord) String() string {
	data, err := r.fields.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(data)
}

// =============================================================================
// CANONICAL RECORD
// =============================================================================

// CanonicalRecord is one restructured row keyed by canonical field name.
// Values are typed: string, decimal.Decimal or NullInt for the built-in field
// types. The converter builds it; everything downstream only reads it.
type CanonicalRecord struct {
	fields *orderedmap.OrderedMap[string, any]
}

// NewCanonicalRecord creates an empty canonical record.
func NewCanonicalRecord() *CanonicalRecord {
	return &CanonicalRecord{fields: orderedmap.New[string, any]()}
}

// Set stores a typed value under a canonical field name.
func (c *CanonicalRecord) Set(field string, value any) {
	c.fields.Set(field, value)
}

// Get returns the typed value of a canonical field.
func (c *CanonicalRecord) Get(field string) (any, bool) {
	return c.fields.Get(field)
}

// Has reports whether the field is present.
func (c *CanonicalRecord) Has(field string) bool {
	_, ok := c.fields.Get(field)
	return ok
}

// Len returns the number of fields.
func (c *CanonicalRecord) Len() int {
	return c.fields.Len()
}

// Keys returns the field names in insertion order.
func (c *CanonicalRecord) Keys() []string {
	keys := make([]string, 0, c.fields.Len())
	for pair := c.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// =============================================================================
// NULLABLE INTEGER
// =============================================================================

// NullInt is an integer that may be absent. The zero value is null.
type NullInt struct {
	Int64 int64
	Valid bool
}

// IntOf returns a valid NullInt holding n.
func IntOf(n int64) NullInt {
	return NullInt{Int64: n, Valid: true}
}

// String returns the decimal representation, or "" when null.
func (n NullInt) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatInt(n.Int64, 10)
}

// =============================================================================
// ERRORS
// =============================================================================

// FieldError describes one field that could not be placed in the canonical
// record.
type FieldError struct {
	// SourceColumn is the column name as it appears in the merchant feed.
	SourceColumn string

	// CanonicalField is the mapped canonical name, or UnmappedField.
	CanonicalField string

	// Value is the offending raw value.
	Value string

	// Description is the human-readable reason.
	Description string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return e.SourceColumn + " -> " + e.CanonicalField + ": " + e.Description
}

// RowError groups the field errors of one disqualified row.
type RowError struct {
	// Line is the feed line of the offending row.
	Line int

	// Record is the serialized raw record.
	Record string

	// Errors lists the field errors in column order.
	Errors []FieldError
}

// ExtraColumn names a cell at the 0-based index that lies past the header.
// Such a column can never be mapped, so its row surfaces in the error report
// instead of losing data.
func ExtraColumn(index int) string {
	return "(extra column " + strconv.Itoa(index+1) + ")"
}
