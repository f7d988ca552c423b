package validation

// transformers.go holds the coercions paired with the predicates in
// validators.go. A coercion either returns the value converted into its target
// type or an error; it never returns a partially converted value.
//
// Raw feed values arrive as strings. Coercions also accept the typed values
// produced by earlier steps of a chain so that types can be composed.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
	"github.com/shopspring/decimal"
)

// Coercion converts a value into a target type.
type Coercion func(value any) (any, error)

// errUnsupported is returned when a coercion does not know the input's Go type.
var errUnsupported = errors.New("unsupported input type")

// ToString renders a value as a string.
func ToString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case nil:
		return nil, errors.New("value is absent")
	case fmt.Stringer:
		return v.String(), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return nil, fmt.Errorf("%w %T", errUnsupported, value)
	}
}

// ToDecimal parses a value as an arbitrary-precision decimal. Surrounding
// white space is ignored; an empty string is not a number.
func ToDecimal(value any) (any, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		return d, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case types.NullInt:
		if !v.Valid {
			return nil, errors.New("value is null")
		}
		return decimal.NewFromInt(v.Int64), nil
	default:
		return nil, fmt.Errorf("%w %T", errUnsupported, value)
	}
}

// ToNullInt parses a value as a nullable integer. Absent and blank values
// become null; anything else must be a base-10 integer.
func ToNullInt(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return types.NullInt{}, nil
	case types.NullInt:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return types.NullInt{}, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return types.IntOf(n), nil
	case int:
		return types.IntOf(int64(v)), nil
	case int64:
		return types.IntOf(v), nil
	case decimal.Decimal:
		if !v.IsInteger() {
			return nil, errors.New("value has a fractional part")
		}
		return types.IntOf(v.IntPart()), nil
	default:
		return nil, fmt.Errorf("%w %T", errUnsupported, value)
	}
}

// TrimSpace removes leading and trailing white space from a string.
func TrimSpace(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w %T", errUnsupported, value)
	}
	return strings.TrimSpace(s), nil
}

// Reject returns a coercion that always fails. It pairs with predicates that
// express a constraint rather than a type, where no repair is possible.
func Reject(reason string) Coercion {
	return func(any) (any, error) {
		return nil, errors.New(reason)
	}
}
