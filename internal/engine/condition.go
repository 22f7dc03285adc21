package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alertmesh/alertmesh/internal/rules"
)

// conditionHolds evaluates one rule condition against a sample value and the
// rule threshold. Numeric comparisons on non-numeric values simply fail the
// comparison; they never fail the evaluator.
func conditionHolds(cond rules.Condition, value, threshold any) bool {
	switch cond {
	case rules.ConditionGreaterThan:
		v, okV := toFloat(value)
		t, okT := toFloat(threshold)
		return okV && okT && v > t

	case rules.ConditionLessThan:
		v, okV := toFloat(value)
		t, okT := toFloat(threshold)
		return okV && okT && v < t

	case rules.ConditionEquals:
		return valuesEqual(value, threshold)

	case rules.ConditionNotEquals:
		return !valuesEqual(value, threshold)

	case rules.ConditionContains:
		return strings.Contains(fmt.Sprint(value), fmt.Sprint(threshold))

	case rules.ConditionNotContains:
		return !strings.Contains(fmt.Sprint(value), fmt.Sprint(threshold))

	default:
		return false
	}
}

// toFloat coerces the numeric types a sample or threshold can carry after a
// JSON round-trip, plus numeric strings.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// valuesEqual compares two raw values: numerically when both sides coerce to
// numbers (so 100 equals 100.0 across serialization), by string form otherwise.
func valuesEqual(a, b any) bool {
	av, aok := toFloat(a)
	bv, bok := toFloat(b)
	if aok && bok {
		return av == bv
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
