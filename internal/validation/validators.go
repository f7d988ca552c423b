package validation

import (
	"strings"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
	"github.com/shopspring/decimal"
)

// Predicate reports whether a value already satisfies a target type.
type Predicate func(value any) bool

// IsString accepts any Go string, including the empty string.
func IsString(value any) bool {
	_, ok := value.(string)
	return ok
}

// IsDecimal accepts decimal.Decimal values only. Raw feed values are strings
// and are therefore always handed to the paired coercion.
func IsDecimal(value any) bool {
	_, ok := value.(decimal.Decimal)
	return ok
}

// IsNullInt accepts a types.NullInt, null or not.
func IsNullInt(value any) bool {
	_, ok := value.(types.NullInt)
	return ok
}

// IsTrimmed accepts strings without leading or trailing white space.
func IsTrimmed(value any) bool {
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) == s
}

// IsNonNegative accepts decimals >= 0.
func IsNonNegative(value any) bool {
	d, ok := value.(decimal.Decimal)
	return ok && !d.IsNegative()
}
