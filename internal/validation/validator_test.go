package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
	"github.com/shopspring/decimal"
)

func TestRunChain_AlreadyValidIsUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		value any
		ft    FieldType
	}{
		{name: "string", value: "A1", ft: String},
		{name: "empty string", value: "", ft: String},
		{name: "decimal", value: decimal.RequireFromString("19.99"), ft: Decimal},
		{name: "null int", value: types.NullInt{}, ft: NullableInt},
		{name: "valid int", value: types.IntOf(276), ft: NullableInt},
		{name: "trimmed string", value: "Blue mug", ft: TrimmedString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RunChain(tt.value, tt.ft.Steps)
			if err != nil {
				t.Fatalf("RunChain() error = %v", err)
			}
			if d, ok := tt.value.(decimal.Decimal); ok {
				if !got.(decimal.Decimal).Equal(d) {
					t.Errorf("RunChain() = %v, want %v", got, d)
				}
				return
			}
			if got != tt.value {
				t.Errorf("RunChain() = %v, want %v", got, tt.value)
			}
		})
	}
}

func TestRunChain_CoercedValueFeedsNextStep(t *testing.T) {
	var seen []any
	record := func(valid bool) Predicate {
		return func(v any) bool {
			seen = append(seen, v)
			return valid
		}
	}

	steps := []Step{
		{Target: "upper", Valid: record(false), Coerce: func(v any) (any, error) {
			return strings.ToUpper(v.(string)), nil
		}},
		{Target: "check", Valid: record(true), Coerce: Reject("unreachable")},
	}

	got, err := RunChain("abc", steps)
	if err != nil {
		t.Fatalf("RunChain() error = %v", err)
	}
	if got != "ABC" {
		t.Errorf("RunChain() = %v, want ABC", got)
	}
	if len(seen) != 2 || seen[0] != "abc" || seen[1] != "ABC" {
		t.Errorf("predicates saw %v, want [abc ABC]", seen)
	}
}

func TestRunChain_FailFast(t *testing.T) {
	laterCalled := false
	steps := []Step{
		{Target: "decimal", Valid: IsDecimal, Coerce: ToDecimal},
		{Target: "never", Valid: func(any) bool {
			laterCalled = true
			return false
		}, Coerce: Reject("never")},
	}

	got, err := RunChain("not-a-number", steps)
	if err == nil {
		t.Fatal("RunChain() expected error")
	}
	if laterCalled {
		t.Error("step after the failing coercion was evaluated")
	}
	if got != "not-a-number" {
		t.Errorf("RunChain() value = %v, want the pre-coercion value", got)
	}

	var ce *CoercionError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want *CoercionError", err)
	}
	if ce.Step != 0 || ce.Target != "decimal" {
		t.Errorf("CoercionError = %+v", ce)
	}
	msg := err.Error()
	if !strings.Contains(msg, "decimal") || !strings.Contains(msg, "not-a-number") {
		t.Errorf("error %q should name the target type and the value", msg)
	}
}

func TestRunChain_FailureKeepsLastHeldValue(t *testing.T) {
	got, err := RunChain("-5.00", Money.Steps)
	if err == nil {
		t.Fatal("RunChain() expected error for negative money")
	}
	d, ok := got.(decimal.Decimal)
	if !ok {
		t.Fatalf("RunChain() value type = %T, want decimal.Decimal from step 0", got)
	}
	if !d.Equal(decimal.RequireFromString("-5")) {
		t.Errorf("RunChain() value = %v, want -5", d)
	}

	var ce *CoercionError
	if !errors.As(err, &ce) || ce.Step != 1 || ce.Target != "non-negative decimal" {
		t.Errorf("error = %v, want failure at step 1", err)
	}
}

func TestRunChain_EmptyChain(t *testing.T) {
	got, err := RunChain("x", nil)
	if err != nil || got != "x" {
		t.Errorf("RunChain(nil steps) = %v, %v", got, err)
	}
}

func TestRunChain_Scenarios(t *testing.T) {
	t.Run("decimal price", func(t *testing.T) {
		got, err := RunChain("19.99", Decimal.Steps)
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if !got.(decimal.Decimal).Equal(decimal.RequireFromString("19.99")) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("empty merchant id is null", func(t *testing.T) {
		got, err := RunChain("", NullableInt.Steps)
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if got != (types.NullInt{}) {
			t.Errorf("got %#v, want null", got)
		}
	})

	t.Run("absent merchant id is null", func(t *testing.T) {
		got, err := RunChain(nil, NullableInt.Steps)
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if got != (types.NullInt{}) {
			t.Errorf("got %#v, want null", got)
		}
	})

	t.Run("non-numeric merchant id", func(t *testing.T) {
		if _, err := RunChain("abc", NullableInt.Steps); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("trimmed string", func(t *testing.T) {
		got, err := RunChain("  Blue mug ", TrimmedString.Steps)
		if err != nil || got != "Blue mug" {
			t.Errorf("got %q, %v", got, err)
		}
	})
}
