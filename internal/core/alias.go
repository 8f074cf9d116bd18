package core

import "strings"

// Resolve binds each FieldSpec to the first of its aliases present in raw
// and returns a record keyed by canonical name. Aliases are tried in
// declared order, first as exact keys and then ignoring case and
// surrounding whitespace, since sheet headers drift in both.
//
// Fields with no matching alias are absent from the result unless they
// carry a Default. Keys not claimed by any FieldSpec are dropped. Values
// are never modified.
func Resolve(raw RawRecord, specs []FieldSpec) RawRecord {
	var folded map[string]string
	out := make(RawRecord, len(specs))

	for _, spec := range specs {
		key, ok := "", false
		for _, alias := range spec.candidates() {
			if _, exists := raw[alias]; exists {
				key, ok = alias, true
				break
			}
		}
		if !ok {
			if folded == nil {
				folded = foldKeys(raw)
			}
			for _, alias := range spec.candidates() {
				if k, exists := folded[foldHeader(alias)]; exists {
					key, ok = k, true
					break
				}
			}
		}

		switch {
		case ok:
			out[spec.Name] = raw[key]
		case spec.Default != nil:
			out[spec.Name] = spec.Default
		}
	}
	return out
}

// foldKeys indexes raw keys by their folded form. When two keys fold to
// the same form the lexically first one wins so resolution is stable.
func foldKeys(raw RawRecord) map[string]string {
	idx := make(map[string]string, len(raw))
	for _, k := range sortedKeys(raw) {
		f := foldHeader(k)
		if _, dup := idx[f]; !dup {
			idx[f] = k
		}
	}
	return idx
}

// foldHeader lower-cases s and collapses runs of whitespace to one space.
func foldHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
