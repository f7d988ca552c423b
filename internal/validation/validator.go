// =============================================================================
// Merchant Feed Ingest - Validation Engine
// =============================================================================
//
// This package validates and coerces single field values into the semantic
// type declared for their canonical field.
//
// VALIDATION STRATEGY:
//   Every field type is an ordered list of steps. A step pairs a predicate
//   (does the value already have the target type?) with a coercion (try to
//   convert it). The chain runner walks the steps in order:
//     1. predicate accepts         -> keep the value, next step
//     2. predicate rejects         -> coerce
//        a. coercion succeeds      -> the coerced value feeds the next step
//        b. coercion fails         -> stop, report, skip the remaining steps
//
// ERROR HANDLING:
//   - A failed coercion is terminal for the field; there are no retries.
//   - The error names the attempted target type and the offending value.
//   - The chain never panics on bad input; everything is returned as error.
//
// =============================================================================

package validation

import (
	"fmt"
)

// =============================================================================
// STEP
// =============================================================================

// Step is one (predicate, coercion) pair of a validation chain.
type Step struct {
	// Target names the type the step checks for. It appears in error messages.
	Target string

	// Valid reports whether the current value already satisfies the step.
	Valid Predicate

	// Coerce is applied when Valid rejects the current value.
	Coerce Coercion
}

// =============================================================================
// COERCION ERROR
// =============================================================================

// CoercionError is returned by RunChain when a step's coercion fails.
type CoercionError struct {
	// Step is the 0-based index of the failing step.
	Step int

	// Target is the type the coercion attempted to produce.
	Target string

	// Value is the value that was handed to the coercion.
	Value any

	// Err is the underlying conversion error.
	Err error
}

// Error implements the error interface.
func (e *CoercionError) Error() string {
	return fmt.Sprintf("could not transform value %q to %s: %v", formatValue(e.Value), e.Target, e.Err)
}

// Unwrap returns the underlying conversion error.
func (e *CoercionError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CHAIN RUNNER
// =============================================================================

// RunChain validates value against steps and returns the final value.
//
// PARAMETERS:
//   - value: The raw field value (a string when it comes from a feed).
//   - steps: The ordered steps of the field's type.
//
// RETURNS:
//   - The validated or coerced value and nil on success.
//   - The last value held before the failing coercion and a *CoercionError
//     when a coercion fails. Later steps are not attempted.
func RunChain(value any, steps []Step) (any, error) {
	current := value

	for i, step := range steps {
		if step.Valid(current) {
			continue
		}

		coerced, err := step.Coerce(current)
		if err != nil {
			return current, &CoercionError{
				Step:   i,
				Target: step.Target,
				Value:  current,
				Err:    err,
			}
		}

		current = coerced
	}

	return current, nil
}

// formatValue renders a chain value for error messages.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
