package core

import (
	"fmt"
	"time"
)

// CrossFieldRule is an invariant spanning several fields of one record.
// Rules see coerced values only and are skipped for records with field
// errors.
type CrossFieldRule struct {
	Name   string
	Fields []string

	// check returns a non-empty message when the invariant is violated.
	check func(values []any) string
}

// NewRule builds a CrossFieldRule from a check over the values of fields,
// passed in the same order.
func NewRule(name string, check func(values []any) string, fields ...string) CrossFieldRule {
	return CrossFieldRule{Name: name, Fields: fields, check: check}
}

// Apply evaluates the rule against a coerced record.
func (r CrossFieldRule) Apply(values map[string]any) error {
	vals := make([]any, len(r.Fields))
	for i, f := range r.Fields {
		vals[i] = values[f]
	}
	if msg := r.check(vals); msg != "" {
		return &ValidationError{
			Rule:    r.Name,
			Fields:  append([]string(nil), r.Fields...),
			Values:  vals,
			Message: msg,
		}
	}
	return nil
}

// SizeFractionRule checks a filter size range: the upper bound must not be
// negative and must not be below the lower bound. A missing upper bound
// always passes.
func SizeFractionRule(low, up string) CrossFieldRule {
	return NewRule("size_fraction", func(v []any) string {
		u, ok := number(v[1])
		if !ok {
			return ""
		}
		if u < 0 {
			return fmt.Sprintf("%s must not be negative", up)
		}
		if l, ok := number(v[0]); ok && u < l {
			return fmt.Sprintf("%s must not be less than %s", up, low)
		}
		return ""
	}, low, up)
}

// CoordinateRule checks that a latitude/longitude pair is on the globe.
// Each coordinate is checked independently and nil passes.
func CoordinateRule(lat, lon string) CrossFieldRule {
	return NewRule("coordinates", func(v []any) string {
		if f, ok := number(v[0]); ok && (f < -90 || f > 90) {
			return fmt.Sprintf("%s must be between -90 and 90", lat)
		}
		if f, ok := number(v[1]); ok && (f < -180 || f > 180) {
			return fmt.Sprintf("%s must be between -180 and 180", lon)
		}
		return ""
	}, lat, lon)
}

// DateOrderRule checks that end is not before start when both are set.
func DateOrderRule(start, end string) CrossFieldRule {
	return NewRule("date_order", func(v []any) string {
		s, ok1 := v[0].(time.Time)
		e, ok2 := v[1].(time.Time)
		if ok1 && ok2 && e.Before(s) {
			return fmt.Sprintf("%s must not be before %s", end, start)
		}
		return ""
	}, start, end)
}

func number(v any) (float64, bool) {
	f, _, ok := numeric(v)
	return f, ok
}
