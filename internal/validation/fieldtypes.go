package validation

// fieldtypes.go declares the semantic field types and the canonical schema.
//
// The set of field types is closed: each type is a named, ordered list of
// steps declared here. Configuration refers to types by name; names are
// resolved once at startup with LookupType, so an unknown name or a mapping to
// a field without a type is reported before any row is read.

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
)

// ErrUnknownType is returned for a field type name that is not declared.
var ErrUnknownType = errors.New("unknown field type")

// FieldType is a named validation chain.
type FieldType struct {
	Name  string
	Steps []Step
}

// Built-in field types.
var (
	// String accepts any text.
	String = FieldType{
		Name: "string",
		Steps: []Step{
			{Target: "string", Valid: IsString, Coerce: ToString},
		},
	}

	// TrimmedString is text with surrounding white space removed.
	TrimmedString = FieldType{
		Name: "trimmed_string",
		Steps: []Step{
			{Target: "string", Valid: IsString, Coerce: ToString},
			{Target: "trimmed string", Valid: IsTrimmed, Coerce: TrimSpace},
		},
	}

	// Decimal is an arbitrary-precision decimal number.
	Decimal = FieldType{
		Name: "decimal",
		Steps: []Step{
			{Target: "decimal", Valid: IsDecimal, Coerce: ToDecimal},
		},
	}

	// Money is a decimal that must not be negative.
	Money = FieldType{
		Name: "money",
		Steps: []Step{
			{Target: "decimal", Valid: IsDecimal, Coerce: ToDecimal},
			{Target: "non-negative decimal", Valid: IsNonNegative, Coerce: Reject("amount is negative")},
		},
	}

	// NullableInt is an integer where a blank value means "no value".
	NullableInt = FieldType{
		Name: "nullable_int",
		Steps: []Step{
			{Target: "nullable integer", Valid: IsNullInt, Coerce: ToNullInt},
		},
	}
)

var fieldTypes = map[string]FieldType{
	String.Name:        String,
	TrimmedString.Name: TrimmedString,
	Decimal.Name:       Decimal,
	Money.Name:         Money,
	NullableInt.Name:   NullableInt,
}

// LookupType resolves a field type by name. Names are case-insensitive.
func LookupType(name string) (FieldType, error) {
	ft, ok := fieldTypes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return FieldType{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownType, name, strings.Join(TypeNames(), ", "))
	}
	return ft, nil
}

// TypeNames returns the declared type names, sorted.
func TypeNames() []string {
	names := make([]string, 0, len(fieldTypes))
	for name := range fieldTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// SCHEMA
// =============================================================================

// Schema maps each canonical field name to its field type.
type Schema map[string]FieldType

// Canonical field names of the product schema.
const (
	FieldMerchantProductID    = "merchant_product_id"
	FieldMarketplaceProductID = "marketplace_product_id"
	FieldName                 = "name"
	FieldMaxPriceIncVAT       = "max_price_inc_vat"
	FieldMinPriceIncVAT       = "min_price_inc_vat"
	FieldMerchantID           = "multiply_merchant_id"
	FieldStockQty             = "stock_qty"
)

// DefaultSchema returns the canonical product schema.
func DefaultSchema() Schema {
	return Schema{
		FieldMerchantProductID:    String,
		FieldMarketplaceProductID: String,
		FieldName:                 String,
		FieldMaxPriceIncVAT:       Decimal,
		FieldMinPriceIncVAT:       Decimal,
		FieldMerchantID:           NullableInt,
		FieldStockQty:             String,
	}
}

// Rules returns the steps for a canonical field.
func (s Schema) Rules(field string) ([]Step, bool) {
	ft, ok := s[field]
	if !ok {
		return nil, false
	}
	return ft.Steps, true
}

// WithOverrides returns a copy of the schema with the given fields added or
// retyped. Overrides map canonical field name to type name.
func (s Schema) WithOverrides(overrides map[string]string) (Schema, error) {
	out := make(Schema, len(s)+len(overrides))
	for field, ft := range s {
		out[field] = ft
	}

	for field, typeName := range overrides {
		ft, err := LookupType(typeName)
		if err != nil {
			return nil, fmt.Errorf("canonical field %q: %w", field, err)
		}
		out[field] = ft
	}

	return out, nil
}

// CheckMapping verifies that every canonical field targeted by the mapping has
// a type in the schema. Missing fields are reported together, sorted.
func (s Schema) CheckMapping(mapping types.ColumnMapping) error {
	var missing []string
	seen := make(map[string]bool)

	for source, canonical := range mapping {
		if _, ok := s[canonical]; ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		missing = append(missing, fmt.Sprintf("%s (from %s)", canonical, source))
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("no validation rule for canonical field(s): %s", strings.Join(missing, ", "))
	}

	return nil
}
