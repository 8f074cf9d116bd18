package core

// errors.go defines the error taxonomy of the engine.
//
//   - CoercionError: one field's value cannot be interpreted under its rule
//   - ValidationError: a cross-field invariant does not hold
//   - SchemaSelectionError: the caller asked for a profile that is not registered
//
// Field problems are collected into a RecordError so the caller sees every
// problem in a row at once.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnrecognised is wrapped by coercers when a value matches none of
	// the accepted shapes of the field's rule.
	ErrUnrecognised = errors.New("unrecognised value")

	// ErrMissingField is wrapped when a required field is absent or null.
	ErrMissingField = errors.New("required field is missing")

	// ErrUnexpectedType is wrapped when a value cannot be narrowed to the
	// field's accepted type union.
	ErrUnexpectedType = errors.New("unexpected type")
)

// CoercionError reports a value that could not be coerced for one field.
type CoercionError struct {
	Field string // Canonical field name
	Value any    // Value as seen by the coercer (after pre-normalization)
	Err   error  // Underlying reason
}

func (e *CoercionError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Field, e.Err, describe(e.Value))
}

func (e *CoercionError) Unwrap() error { return e.Err }

// ValidationError reports a violated cross-field invariant.
type ValidationError struct {
	Rule    string
	Fields  []string
	Values  []any
	Message string
}

func (e *ValidationError) Error() string {
	pairs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		var v any
		if i < len(e.Values) {
			v = e.Values[i]
		}
		pairs[i] = fmt.Sprintf("%s=%s", f, describe(v))
	}
	return fmt.Sprintf("%s: %s (%s)", e.Rule, e.Message, strings.Join(pairs, ", "))
}

// SchemaSelectionError is returned when no profile is registered for the
// requested key. It is a caller error, not a data error.
type SchemaSelectionError struct {
	Key ProfileKey
}

func (e *SchemaSelectionError) Error() string {
	return fmt.Sprintf("unknown profile %s", e.Key)
}

// RecordError aggregates every problem found in one record.
type RecordError struct {
	Profile  ProfileKey
	Problems []error // *CoercionError or *ValidationError
}

func (e *RecordError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("record invalid under %s: %s", e.Profile, strings.Join(msgs, "; "))
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *RecordError) Unwrap() []error { return e.Problems }

// FieldError is the flattened, report-friendly view of a single problem.
type FieldError struct {
	Field  string `json:"field"`
	Value  any    `json:"value,omitempty"`
	Reason string `json:"reason"`
	Code   string `json:"code"`
}

func (e FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return e.Reason
}

// FieldErrors flattens err into one FieldError per problem. A cross-field
// violation yields one entry per participating field.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	var problems []error
	var re *RecordError
	if errors.As(err, &re) {
		problems = re.Problems
	} else {
		problems = []error{err}
	}

	var out []FieldError
	for _, p := range problems {
		var ce *CoercionError
		var ve *ValidationError
		switch {
		case errors.As(p, &ce):
			out = append(out, FieldError{
				Field:  ce.Field,
				Value:  ce.Value,
				Reason: ce.Err.Error(),
				Code:   MapError(ce).Code,
			})
		case errors.As(p, &ve):
			for i, f := range ve.Fields {
				var v any
				if i < len(ve.Values) {
					v = ve.Values[i]
				}
				out = append(out, FieldError{
					Field:  f,
					Value:  v,
					Reason: ve.Message,
					Code:   MapError(ve).Code,
				})
			}
		default:
			out = append(out, FieldError{Reason: p.Error(), Code: MapError(p).Code})
		}
	}
	return out
}

// describe renders a value for error messages, quoting strings so that
// whitespace and tabs stay visible.
func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", x)
	default:
		return fmt.Sprintf("%v (%T)", x, x)
	}
}
