package converter

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/config"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
	"github.com/ginjaninja78/merchant-feed-ingest/internal/validation"
)

// ErrNoMapping is returned at startup when the column mapping or a static
// field targets a canonical field that has no validation rule.
var ErrNoMapping = errors.New("column mapping does not match the canonical schema")

// =============================================================================
// RESTRUCTURER
// =============================================================================

// Restructurer turns raw records keyed by merchant column names into
// canonical records keyed by canonical field names. Every value passes
// through the validation chain of its canonical field on the way.
//
// A Restructurer is read-only after construction.
type Restructurer struct {
	mapping types.ColumnMapping
	schema  validation.Schema
	statics []config.StaticField
}

// NewRestructurer builds a restructurer and checks that every mapped
// canonical field and every static field has rules in the schema.
//
// PARAMETERS:
//   - mapping: The merchant's source column to canonical field table.
//   - schema: The canonical schema (field name to field type).
//   - statics: Constant fields appended to every row, in order.
//
// RETURNS:
//   - The restructurer.
//   - An error wrapping ErrNoMapping if a rule is missing.
func NewRestructurer(mapping types.ColumnMapping, schema validation.Schema, statics []config.StaticField) (*Restructurer, error) {
	if err := schema.CheckMapping(mapping); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMapping, err)
	}

	for _, s := range statics {
		if _, ok := schema.Rules(s.Field); !ok {
			return nil, fmt.Errorf("%w: no validation rule for static field %q", ErrNoMapping, s.Field)
		}
	}

	return &Restructurer{
		mapping: mapping,
		schema:  schema,
		statics: statics,
	}, nil
}

// Restructure maps and coerces one raw record.
//
// Columns are handled in the record's order. A column with no mapping, or a
// value its chain rejects, produces a FieldError and is left out of the
// canonical record. The row is clean only when the returned slice is empty.
func (r *Restructurer) Restructure(raw *types.RawRecord) (*types.CanonicalRecord, []types.FieldError) {
	canonical := types.NewCanonicalRecord()
	claimed := make(map[string]bool)
	var errs []types.FieldError

	raw.Each(func(column, value string) {
		field, ok := r.mapping[column]
		if !ok {
			errs = append(errs, types.FieldError{
				SourceColumn:   column,
				CanonicalField: types.UnmappedField,
				Value:          value,
				Description:    fmt.Sprintf("no table mapping for this source column (%s)", column),
			})
			return
		}

		claimed[field] = true
		if fe, ok := r.place(canonical, column, field, value); !ok {
			errs = append(errs, fe)
		}
	})

	// Source columns win over static values for the same field.
	for _, s := range r.statics {
		if claimed[s.Field] {
			continue
		}
		claimed[s.Field] = true
		if fe, ok := r.place(canonical, types.StaticSource, s.Field, s.Value); !ok {
			errs = append(errs, fe)
		}
	}

	return canonical, errs
}

// place runs the field's chain and stores the result. On failure it returns
// the FieldError and leaves the record untouched.
func (r *Restructurer) place(canonical *types.CanonicalRecord, column, field, value string) (types.FieldError, bool) {
	steps, ok := r.schema.Rules(field)
	if !ok {
		return types.FieldError{
			SourceColumn:   column,
			CanonicalField: field,
			Value:          value,
			Description:    fmt.Sprintf("no validation rule for canonical field (%s)", field),
		}, false
	}

	coerced, err := validation.RunChain(value, steps)
	if err != nil {
		return types.FieldError{
			SourceColumn:   column,
			CanonicalField: field,
			Value:          value,
			Description:    err.Error(),
		}, false
	}

	canonical.Set(field, coerced)
	return types.FieldError{}, true
}
