package core

// prenormalize.go scrubs values that mean "missing" before any typed
// coercion runs. Several coercers rely on this having happened: the
// boolean rule, for example, would otherwise see "NA" as an unknown token.

import (
	"math"
	"strings"
)

// naTokens are the spellings of "not available" found in the source sheets,
// compared after trimming and lower-casing.
var naTokens = map[string]struct{}{
	"na":    {},
	"n a":   {},
	"n/a":   {},
	"n / a": {},
	"none":  {},
}

// IsNAToken reports whether s is an NA-like token.
func IsNAToken(s string) bool {
	_, ok := naTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// IsNull reports whether the pre-normalization pass maps v to nil.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case string:
		return strings.TrimSpace(x) == "" || IsNAToken(x)
	default:
		return false
	}
}

// PreNormalize returns a copy of rec with NaN, blank strings and NA-like
// tokens replaced by nil. It is idempotent.
func PreNormalize(rec RawRecord) RawRecord {
	out := make(RawRecord, len(rec))
	for k, v := range rec {
		if IsNull(v) {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	return out
}
