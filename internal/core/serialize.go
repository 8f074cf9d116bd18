package core

// serialize.go renders validated records into stable output forms.
//
// A column must never mix representations across rows: a field that holds
// an int in one record and a float in another is rendered as float for
// both. Renderers never fail; a value of an unexpected type renders to nil.

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical output form of dates.
const DateLayout = "2006-01-02"

// RenderDate renders a date as YYYY-MM-DD.
func RenderDate(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(DateLayout)
	}
	return nil
}

// RenderTimestamp renders a date-time as RFC 3339 in UTC.
func RenderTimestamp(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return nil
}

// RenderStringOrFloat renders free-text-or-number fields as text. Floats
// keep their decimal point ("5.0").
func RenderStringOrFloat(v any) any {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return FormatFloat(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return nil
}

// RenderFloat renders int-or-float fields as float.
func RenderFloat(v any) any {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	}
	return nil
}

// RenderInt renders integer fields. Integral floats are accepted.
func RenderInt(v any) any {
	switch x := v.(type) {
	case int64:
		return x
	case float64:
		if x == math.Trunc(x) {
			if n, err := truncInt(x); err == nil {
				return n
			}
		}
	}
	return nil
}

// RenderBool renders boolean fields.
func RenderBool(v any) any {
	if b, ok := v.(bool); ok {
		return b
	}
	return nil
}

// RenderText renders text fields.
func RenderText(v any) any {
	if s, ok := v.(string); ok {
		return s
	}
	return nil
}

// RenderAsText renders a value of any mixed-type field as text.
func RenderAsText(v any) any {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return FormatFloat(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	}
	return nil
}

// RenderAuto passes any normalized value through unchanged.
func RenderAuto(v any) any {
	switch v.(type) {
	case string, int64, float64, bool, time.Time:
		return v
	}
	return nil
}

// rendererFor picks the renderer of a field: its own, or one derived from
// its accepted types.
func rendererFor(f FieldSpec) Renderer {
	if f.Render != nil {
		return f.Render
	}
	switch f.Accept {
	case TypeDate:
		return RenderDate
	case TypeTimestamp:
		return RenderTimestamp
	case TypeText:
		return RenderText
	case TypeInt:
		return RenderInt
	case TypeFloat, TypeNumber:
		return RenderFloat
	case TypeBool:
		return RenderBool
	case TypeText | TypeFloat, TypeText | TypeInt, TypeText | TypeNumber:
		return RenderStringOrFloat
	}
	if f.Accept == 0 || f.Accept.Has(TypeAny) {
		return RenderAuto
	}
	return RenderAsText
}

// Serialize renders every field of r with its profile renderer.
func Serialize(p Profile, r ValidatedRecord) map[string]any {
	out := make(map[string]any, len(p.Fields))
	for _, f := range p.Fields {
		v, _ := r.Get(f.Name)
		out[f.Name] = rendererFor(f)(v)
	}
	return out
}

// Header returns the CSV header matching SerializeRow.
func Header(p Profile) []string {
	return p.FieldNames()
}

// SerializeRow renders r as CSV cells in profile order. Null renders as an
// empty cell.
func SerializeRow(p Profile, r ValidatedRecord) []string {
	row := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		v, _ := r.Get(f.Name)
		row[i] = Cell(rendererFor(f)(v))
	}
	return row
}

// Cell formats a rendered value as a CSV cell.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return FormatFloat(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return ""
}

// FormatFloat renders f in the shortest form that round-trips, always
// with a decimal point or exponent: 5 -> "5.0", 0.25 -> "0.25",
// 1e16 -> "1e+16". This matches what the sheets' earlier tooling wrote.
func FormatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	e := strconv.FormatFloat(f, 'e', -1, 64)
	if exp, err := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:]); err == nil && (exp < -4 || exp >= 16) {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
