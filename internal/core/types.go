// Package core provides the record normalization and validation engine.
// This package has no I/O and can be used by any frontend.
package core

import (
	"sort"
	"strings"
	"time"
)

// RawRecord is one spreadsheet row as handed over by a reader: source
// column name to an untyped scalar (nil, bool, integer, float, string,
// time.Time or json.Number).
type RawRecord map[string]any

// Domain identifies the kind of sheet a record comes from.
type Domain string

const (
	DomainSampling      Domain = "sampling"
	DomainSoftSediment  Domain = "soft_sediment"
	DomainWaterColumn   Domain = "water_column"
	DomainObservatory   Domain = "observatory"
	DomainObservatories Domain = "observatories"
	DomainMeasured      Domain = "measured"
	DomainLogsheets     Domain = "logsheets"
)

// Tier is the strictness level a record is validated under.
type Tier string

const (
	TierLenient    Tier = "lenient"
	TierSemiStrict Tier = "semistrict"
	TierStrict     Tier = "strict"
)

// Tiers lists the strictness tiers from least to most strict.
var Tiers = []Tier{TierLenient, TierSemiStrict, TierStrict}

// ParseTier converts user input ("Semi-Strict", "strict", ...) to a Tier.
func ParseTier(s string) (Tier, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
	for _, t := range Tiers {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Variant distinguishes source-specific revisions of the same schema.
// The empty variant is the spreadsheet default.
type Variant string

const (
	VariantSheet  Variant = ""
	VariantGithub Variant = "github"
)

// ProfileKey identifies a registered schema profile.
type ProfileKey struct {
	Domain  Domain
	Tier    Tier
	Variant Variant
}

func (k ProfileKey) String() string {
	s := string(k.Domain) + "/" + string(k.Tier)
	if k.Variant != VariantSheet {
		s += "@" + string(k.Variant)
	}
	return s
}

// TypeSet is the union of normalized types a field may hold.
type TypeSet uint8

const (
	TypeText TypeSet = 1 << iota
	TypeInt
	TypeFloat
	TypeBool
	TypeDate
	TypeTimestamp
	TypeAny
)

// TypeNumber is the common "int or float" union.
const TypeNumber = TypeInt | TypeFloat

// Has reports whether every type in o is part of the set.
func (s TypeSet) Has(o TypeSet) bool { return s&o == o }

// Single reports whether the set names exactly one type.
func (s TypeSet) Single() bool { return s != 0 && s&(s-1) == 0 }

func (s TypeSet) String() string {
	if s == 0 {
		return "none"
	}
	names := []struct {
		t    TypeSet
		name string
	}{
		{TypeText, "text"},
		{TypeInt, "int"},
		{TypeFloat, "float"},
		{TypeBool, "bool"},
		{TypeDate, "date"},
		{TypeTimestamp, "timestamp"},
		{TypeAny, "any"},
	}
	var parts []string
	for _, n := range names {
		if s&n.t != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Coercer converts one pre-normalized raw value to its normalized form.
// Returning (nil, nil) means the value is null by a documented rule.
type Coercer func(v any) (any, error)

// Renderer converts a normalized value to its single-typed output form.
// Renderers never fail; values of an unexpected type render to nil.
type Renderer func(v any) any

// FieldSpec defines how one canonical field is located, coerced and
// rendered.
type FieldSpec struct {
	Name     string   // Canonical field name
	Aliases  []string // Accepted source headers in priority order (Name if empty)
	Accept   TypeSet  // Normalized types the field may hold
	Required bool     // Field must be present and non-null
	Default  any      // Used when no alias is present (already normalized)
	Coerce   Coercer  // Field-specific rule, applied before narrowing to Accept
	Render   Renderer // Output form; nil means RenderAuto
}

// candidates returns the alias list in priority order.
func (f FieldSpec) candidates() []string {
	if len(f.Aliases) == 0 {
		return []string{f.Name}
	}
	return f.Aliases
}

// ValidatedRecord is the immutable result of a successful validation.
// Every value is nil or one of string, int64, float64, bool or time.Time.
type ValidatedRecord struct {
	profile ProfileKey
	fields  []string
	values  map[string]any
}

// Profile returns the key of the profile the record satisfied.
func (r ValidatedRecord) Profile() ProfileKey { return r.profile }

// Get returns a field value. ok is false if the field is not in the profile.
func (r ValidatedRecord) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Fields returns the canonical field names in profile order.
func (r ValidatedRecord) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Map returns a copy of the record's values.
func (r ValidatedRecord) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Len returns the number of fields.
func (r ValidatedRecord) Len() int { return len(r.fields) }

// Date returns a date-typed field.
func (r ValidatedRecord) Date(name string) (time.Time, bool) {
	t, ok := r.values[name].(time.Time)
	return t, ok
}

// sortedKeys returns the keys of a raw record in lexical order.
func sortedKeys(m RawRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
