package core

// convert.go provides the field coercers for observatory sheet data.
//
// These functions handle the messy reality of hand-maintained sheets:
//   - Booleans spelled y/n/t/f, or with a Greek tau
//   - ISO and day-first dates, plus "expected ..." placeholders
//   - Thousands separators and comma decimal separators
//   - Integer columns promoted to float by missing values upstream
//   - Free-text annotations in measurement columns
//
// Every coercer receives a pre-normalized value (see PreNormalize) and
// returns nil without an error only where a rule documents that outcome.
// Anything else unrecognised is an error wrapping ErrUnrecognised.

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ReplicateBlank is the token written for a missing replicate. Downstream
// sheet tooling reads the literal word "blank" as a null marker, so it has
// to be reproduced exactly.
const ReplicateBlank = "blank"

// TaxIDFloatIsPromotedInt records the assumption that a float taxonomic id
// is an integer promoted to float because its column had missing values,
// never a genuinely fractional identifier. ToTaxID truncates on that basis;
// setting it to false makes fractional ids an error instead.
const TaxIDFloatIsPromotedInt = true

// longStoreSentinel is a whole row fragment pasted into a single long_store
// cell of one sheet. It carries no boolean and maps to null.
const longStoreSentinel = "N\t2022-10-17\t2022-10-19\t-70\t2023-06-01\t2023-06-01"

// greekTau is used for "true" in one sheet.
const greekTau = "τ"

// Date layouts, tried in order.
var (
	isoDateLayout      = "2006-1-2"
	dayFirstDateLayout = "2/1/2006"
	timestampLayouts   = []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
	}
)

// datePlaceholders mark cells annotated with a future date rather than a
// date ("expected 06-2024", "to_arrive_Sep_2023").
var datePlaceholders = []string{"expected", "arrive"}

// ----------------------------------------------------------------------------
// Booleans
// ----------------------------------------------------------------------------

// ToTriStateBool converts the sheet boolean spellings to true, false or nil.
//
//	bool                       -> unchanged
//	"y", "t", "τ"              -> true
//	"n", "f"                   -> false
//	any number                 -> nil (a data-entry error, not a boolean)
//	the long_store row sentinel -> nil
//
// Any other string is an error.
func ToTriStateBool(v any) (any, error) {
	return triStateBool(v, false)
}

// ToTriStateBoolWords is ToTriStateBool that also accepts "true" and
// "false", as written by the curated copies of the sheets.
func ToTriStateBoolWords(v any) (any, error) {
	return triStateBool(v, true)
}

func triStateBool(v any, words bool) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return x, nil
	case string:
		if strings.TrimRight(x, "\t") == longStoreSentinel {
			return nil, nil
		}
		if _, ok := parseFloat(x); ok {
			return nil, nil
		}
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "y", "t", greekTau:
			return true, nil
		case "n", "f":
			return false, nil
		case "true":
			if words {
				return true, nil
			}
		case "false":
			if words {
				return false, nil
			}
		}
		return nil, fmt.Errorf("%w: boolean must be y/n/t/f", ErrUnrecognised)
	}
	if _, _, ok := numeric(v); ok {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: boolean must be y/n/t/f", ErrUnrecognised)
}

// ToYesNo accepts only "y" and "n" (or a bool), as used by the site
// summary sheet.
func ToYesNo(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "y":
			return true, nil
		case "n":
			return false, nil
		}
	}
	return nil, fmt.Errorf("%w: must be y or n", ErrUnrecognised)
}

// ----------------------------------------------------------------------------
// Dates
// ----------------------------------------------------------------------------

// ToDate parses ISO (YYYY-MM-DD) and then day-first (DD/MM/YYYY) dates.
// Placeholder annotations containing "expected" or "arrive" become nil.
func ToDate(v any) (any, error) {
	return parseDate(v, isoDateLayout, dayFirstDateLayout)
}

// ToDayFirstDate parses DD/MM/YYYY first and falls back to ISO.
func ToDayFirstDate(v any) (any, error) {
	return parseDate(v, dayFirstDateLayout, isoDateLayout)
}

func parseDate(v any, layouts ...string) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return truncateDay(x), nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		lower := strings.ToLower(s)
		for _, p := range datePlaceholders {
			if strings.Contains(lower, p) {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("%w: invalid date, use YYYY-MM-DD or DD/MM/YYYY", ErrUnrecognised)
	}
	return nil, fmt.Errorf("%w: invalid date of type %s", ErrUnrecognised, typeName(v))
}

// ToTimestamp parses a date-time, accepting a bare date as midnight UTC.
func ToTimestamp(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return x.UTC(), nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		if t, err := time.Parse(isoDateLayout, s); err == nil {
			return t, nil
		}
		return nil, fmt.Errorf("%w: invalid date-time, use RFC 3339", ErrUnrecognised)
	}
	return nil, fmt.Errorf("%w: invalid date-time of type %s", ErrUnrecognised, typeName(v))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ----------------------------------------------------------------------------
// Numbers
// ----------------------------------------------------------------------------

// ToLocaleDecimal reads numbers written with "," as thousands separator
// ("36,356.62"). Without a decimal point a comma is ambiguous and the value
// becomes nil, as does any string that still fails to parse: several sheets
// put free-text notes in numeric columns.
func ToLocaleDecimal(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return decimalFromNumber(v)
	}
	s = strings.TrimSpace(s)
	switch {
	case strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Contains(s, ","):
		return nil, nil
	}
	if f, ok := parseFloat(s); ok {
		return f, nil
	}
	return nil, nil
}

// ToCommaDecimal reads numbers written with "," as decimal separator
// ("16,7041"). Unparseable strings become nil.
func ToCommaDecimal(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return decimalFromNumber(v)
	}
	if f, ok := parseFloat(strings.ReplaceAll(s, ",", ".")); ok {
		return f, nil
	}
	return nil, nil
}

// ToMeasurement is for columns holding either a reading or a note about
// the reading ("could not retrieve CTD"). Parseable strings become floats;
// notes are dropped to nil because the column carries the measurement.
func ToMeasurement(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return decimalFromNumber(v)
	}
	if f, ok := parseFloat(s); ok {
		return f, nil
	}
	return nil, nil
}

func decimalFromNumber(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if f, _, ok := numeric(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, nil
		}
		return f, nil
	}
	return nil, fmt.Errorf("%w: invalid number of type %s", ErrUnrecognised, typeName(v))
}

// ToTaxID normalizes a taxonomic identifier to int64. Floats are truncated
// under TaxIDFloatIsPromotedInt. Zero is treated as missing.
func ToTaxID(v any) (any, error) {
	if s, ok := v.(string); ok {
		n, err := parseIntLike(s)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number for taxonomic id", ErrUnrecognised)
		}
		v = n
	}
	if v == nil {
		return nil, nil
	}
	f, isInt, ok := numeric(v)
	if !ok {
		return nil, fmt.Errorf("%w: invalid number of type %s", ErrUnrecognised, typeName(v))
	}
	if !isInt && !TaxIDFloatIsPromotedInt && f != math.Trunc(f) {
		return nil, fmt.Errorf("%w: fractional taxonomic id", ErrUnrecognised)
	}
	id, err := truncInt(f)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}
	return id, nil
}

// ToReplicate renders a replicate number as its decimal string. Missing and
// zero replicates become ReplicateBlank. Floats are truncated first, since
// they are integers promoted by missing values. Non-numeric strings are
// replicate labels and are kept.
func ToReplicate(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return ReplicateBlank, nil
	case bool:
		return nil, fmt.Errorf("%w: replicate must be a number or label", ErrUnrecognised)
	case string:
		s := strings.TrimSpace(x)
		if s == "" || strings.EqualFold(s, ReplicateBlank) {
			return ReplicateBlank, nil
		}
		n, err := parseIntLike(s)
		if err != nil {
			return s, nil
		}
		v = n
	}
	f, _, ok := numeric(v)
	if !ok {
		return nil, fmt.Errorf("%w: replicate of type %s", ErrUnrecognised, typeName(v))
	}
	n, err := truncInt(f)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return ReplicateBlank, nil
	}
	return strconv.FormatInt(n, 10), nil
}

// ToStoreTemp reads a storage temperature in whole degrees. One sheet has
// dates in this column; those become nil.
func ToStoreTemp(v any) (any, error) {
	return storeTemp(v, false)
}

// ToCelsiusTemp is ToStoreTemp that also strips a "°C" or "C" suffix
// ("-80°C").
func ToCelsiusTemp(v any) (any, error) {
	return storeTemp(v, true)
}

func storeTemp(v any, unit bool) (any, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if unit {
			s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "C"), "°"))
		}
		if n, err := parseIntLike(s); err == nil {
			return n, nil
		}
		if _, err := time.Parse(isoDateLayout, s); err == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: invalid number for temperature", ErrUnrecognised)
	}
	if v == nil {
		return nil, nil
	}
	f, _, ok := numeric(v)
	if !ok {
		return nil, fmt.Errorf("%w: temperature of type %s", ErrUnrecognised, typeName(v))
	}
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("%w: invalid number, temperature must be whole degrees", ErrUnrecognised)
	}
	return truncInt(f)
}

// ----------------------------------------------------------------------------
// Text
// ----------------------------------------------------------------------------

// ToText trims strings and renders numbers in their decimal form, for
// identifier columns that readers sometimes type as numbers.
func ToText(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
		return s, nil
	case bool, time.Time:
		return nil, fmt.Errorf("%w: text of type %s", ErrUnrecognised, typeName(v))
	}
	f, isInt, ok := numeric(v)
	if !ok {
		return nil, fmt.Errorf("%w: text of type %s", ErrUnrecognised, typeName(v))
	}
	if isInt {
		return strconv.FormatInt(toInt64(v), 10), nil
	}
	if math.IsNaN(f) {
		return nil, nil
	}
	return FormatFloat(f), nil
}

// ToHTTPURL accepts absolute http and https URLs.
func ToHTTPURL(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(x)
		u, err := url.Parse(s)
		if err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			return s, nil
		}
		return nil, fmt.Errorf("%w: invalid url, must be http(s)", ErrUnrecognised)
	}
	return nil, fmt.Errorf("%w: url of type %s", ErrUnrecognised, typeName(v))
}

// ----------------------------------------------------------------------------
// Union narrowing
// ----------------------------------------------------------------------------

// Narrow converts v to a member of accept. Each input shape has an explicit
// rule; the first accepted target in the listed order wins:
//
//	bool      -> bool
//	integer   -> int, float, text
//	float     -> float, int (if integral), text
//	string    -> text, int, float, bool, date, timestamp
//	time.Time -> date, timestamp
//
// Values that fit none of the accepted types are errors wrapping
// ErrUnexpectedType. nil is returned unchanged.
func Narrow(v any, accept TypeSet) (any, error) {
	if n, ok := v.(json.Number); ok {
		v = fromJSONNumber(n)
	}
	if v == nil {
		return nil, nil
	}
	if accept.Has(TypeAny) {
		return canonical(v), nil
	}

	switch x := v.(type) {
	case bool:
		if accept.Has(TypeBool) {
			return x, nil
		}
	case string:
		return narrowString(x, accept)
	case time.Time:
		switch {
		case accept.Has(TypeDate):
			return truncateDay(x), nil
		case accept.Has(TypeTimestamp):
			return x.UTC(), nil
		}
	default:
		f, isInt, ok := numeric(v)
		if !ok {
			break
		}
		if math.IsNaN(f) {
			return nil, nil
		}
		return narrowNumber(v, f, isInt, accept)
	}
	return nil, unexpected(v, accept)
}

func narrowNumber(v any, f float64, isInt bool, accept TypeSet) (any, error) {
	integral := isInt || (f == math.Trunc(f) && !math.IsInf(f, 0))
	switch {
	case isInt && accept.Has(TypeInt):
		return toInt64(v), nil
	case !isInt && accept.Has(TypeFloat):
		return f, nil
	case isInt && accept.Has(TypeFloat):
		return f, nil
	case integral && accept.Has(TypeInt):
		return truncInt(f)
	case accept.Has(TypeText):
		if isInt {
			return strconv.FormatInt(toInt64(v), 10), nil
		}
		return FormatFloat(f), nil
	}
	return nil, unexpected(v, accept)
}

func narrowString(s string, accept TypeSet) (any, error) {
	s = strings.TrimSpace(s)
	if accept.Has(TypeText) {
		return s, nil
	}
	if accept.Has(TypeInt) {
		if n, err := parseIntLike(s); err == nil {
			return n, nil
		}
	}
	if accept.Has(TypeFloat) {
		if f, ok := parseFloat(s); ok {
			return f, nil
		}
	}
	if accept.Has(TypeBool) {
		if b, ok := parseBoolWord(s); ok {
			return b, nil
		}
	}
	if accept.Has(TypeDate) {
		if t, err := ToDate(s); err == nil && t != nil {
			return t, nil
		}
	}
	if accept.Has(TypeTimestamp) {
		if t, err := ToTimestamp(s); err == nil && t != nil {
			return t, nil
		}
	}
	return nil, unexpected(s, accept)
}

func unexpected(v any, accept TypeSet) error {
	return fmt.Errorf("%w: got %s, want %s", ErrUnexpectedType, typeName(v), accept)
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// numeric extracts a float64 from any Go number type. isInt reports whether
// the input was an integer type.
func numeric(v any) (f float64, isInt bool, ok bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true, true
	case int8:
		return float64(x), true, true
	case int16:
		return float64(x), true, true
	case int32:
		return float64(x), true, true
	case int64:
		return float64(x), true, true
	case uint:
		return float64(x), true, true
	case uint8:
		return float64(x), true, true
	case uint16:
		return float64(x), true, true
	case uint32:
		return float64(x), true, true
	case uint64:
		return float64(x), true, true
	case float32:
		return float64(x), false, true
	case float64:
		return x, false, true
	case json.Number:
		return numeric(fromJSONNumber(x))
	}
	return 0, false, false
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	}
	f, _, _ := numeric(v)
	return int64(f)
}

// truncInt truncates f toward zero, rejecting values outside int64.
func truncInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, fmt.Errorf("%w: number out of range", ErrUnrecognised)
	}
	return int64(f), nil
}

// parseFloat parses a trimmed string as a finite float.
func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseIntLike parses "5" and "5.0" as 5; "5.5" is an error.
func parseIntLike(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, ok := parseFloat(s)
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: invalid number %q", ErrUnrecognised, s)
	}
	return truncInt(f)
}

// parseBoolWord accepts the generic spellings used by typed boolean
// columns (true/false, yes/no, t/f, y/n, 1/0).
func parseBoolWord(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

func fromJSONNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// canonical maps Go scalars onto the normalized value types.
func canonical(v any) any {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case bool:
		return x
	case time.Time:
		return x
	}
	if f, isInt, ok := numeric(v); ok {
		if isInt {
			return toInt64(v)
		}
		return f
	}
	return fmt.Sprint(v)
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "text"
	case bool:
		return "bool"
	case time.Time:
		return "date"
	case float32, float64:
		return "float"
	}
	if _, isInt, ok := numeric(v); ok && isInt {
		return "int"
	}
	return fmt.Sprintf("%T", v)
}
