// Package sla implements the SLA computation core: condition matching,
// policy resolution, business-time arithmetic, and breach/status
// evaluation. Every function is pure; the package performs no I/O and
// holds no state, so calls may run concurrently without coordination.
package sla

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/spf13/cast"

	"github.com/deskhive/slacore/internal/models"
)

// Operators accepted in policy conditions.
const (
	OpEquals             = "equals"
	OpNotEquals          = "not_equals"
	OpContains           = "contains"
	OpNotContains        = "not_contains"
	OpStartsWith         = "starts_with"
	OpEndsWith           = "ends_with"
	OpIn                 = "in"
	OpNotIn              = "not_in"
	OpGreaterThan        = "greater_than"
	OpLessThan           = "less_than"
	OpGreaterThanOrEqual = "greater_than_or_equal"
	OpLessThanOrEqual    = "less_than_or_equal"
	OpIsEmpty            = "is_empty"
	OpIsNotEmpty         = "is_not_empty"
	OpRegex              = "regex"
)

// FieldSource exposes named attributes for condition matching.
// models.TicketSnapshot satisfies it; tests may supply their own.
type FieldSource interface {
	Field(name string) interface{}
}

// Evaluate applies a single operator to an actual and expected value.
// It is a total function: an unknown operator, a type mismatch, or a
// coercion failure yields false rather than an error, so one malformed
// condition degrades to "does not match" instead of aborting policy
// resolution.
func Evaluate(actual interface{}, operator string, expected interface{}) bool {
	switch operator {
	case OpEquals:
		return valuesEqual(actual, expected)
	case OpNotEquals:
		return !valuesEqual(actual, expected)
	case OpContains, OpNotContains, OpStartsWith, OpEndsWith:
		return stringMatch(actual, operator, expected)
	case OpIn:
		return sequenceContains(expected, actual)
	case OpNotIn:
		if !isSequence(expected) {
			return false
		}
		return !sequenceContains(expected, actual)
	case OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual:
		return numericCompare(actual, operator, expected)
	case OpIsEmpty:
		return isEmpty(actual)
	case OpIsNotEmpty:
		return !isEmpty(actual)
	case OpRegex:
		return regexMatch(actual, expected)
	default:
		return false
	}
}

// EvaluateAll reports whether the entity satisfies every condition.
// An empty condition list always matches; default and global policies
// rely on this.
func EvaluateAll(entity FieldSource, conditions []models.Condition) bool {
	for _, c := range conditions {
		if !Evaluate(entity.Field(c.Field), c.Operator, c.Value) {
			return false
		}
	}
	return true
}

// valuesEqual compares case-insensitively when both operands are
// strings, numerically when both are numeric kinds, and exactly
// otherwise.
func valuesEqual(a, b interface{}) bool {
	as, aok := stringLike(a)
	bs, bok := stringLike(b)
	if aok && bok {
		return strings.EqualFold(as, bs)
	}
	if isNumericKind(a) && isNumericKind(b) {
		af, aerr := cast.ToFloat64E(a)
		bf, berr := cast.ToFloat64E(b)
		return aerr == nil && berr == nil && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func stringMatch(actual interface{}, operator string, expected interface{}) bool {
	a, ok := stringLike(actual)
	if !ok {
		return false
	}
	e, err := cast.ToStringE(expected)
	if err != nil {
		return false
	}
	a = strings.ToLower(a)
	e = strings.ToLower(e)
	switch operator {
	case OpContains:
		return strings.Contains(a, e)
	case OpNotContains:
		return !strings.Contains(a, e)
	case OpStartsWith:
		return strings.HasPrefix(a, e)
	case OpEndsWith:
		return strings.HasSuffix(a, e)
	}
	return false
}

func numericCompare(actual interface{}, operator string, expected interface{}) bool {
	a, err := cast.ToFloat64E(actual)
	if err != nil {
		return false
	}
	e, err := cast.ToFloat64E(expected)
	if err != nil {
		return false
	}
	switch operator {
	case OpGreaterThan:
		return a > e
	case OpLessThan:
		return a < e
	case OpGreaterThanOrEqual:
		return a >= e
	case OpLessThanOrEqual:
		return a <= e
	}
	return false
}

func regexMatch(actual, expected interface{}) bool {
	pattern, err := cast.ToStringE(expected)
	if err != nil {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(cast.ToString(actual))
}

func isSequence(v interface{}) bool {
	if v == nil {
		return false
	}
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func sequenceContains(seq, needle interface{}) bool {
	if !isSequence(seq) {
		return false
	}
	rv := reflect.ValueOf(seq)
	for i := 0; i < rv.Len(); i++ {
		if valuesEqual(needle, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func stringLike(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	}
	if v != nil {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.String {
			return rv.String(), true
		}
	}
	return "", false
}

func isNumericKind(v interface{}) bool {
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
