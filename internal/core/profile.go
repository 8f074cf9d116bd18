package core

import "fmt"

// Profile is the schema a record is validated against: an ordered list
// of field specs plus cross-field rules, identified by domain, tier and
// source variant.
type Profile struct {
	Key    ProfileKey
	Fields []FieldSpec
	Rules  []CrossFieldRule
}

// Field returns the spec for a canonical field name.
func (p Profile) Field(name string) (FieldSpec, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldNames returns the canonical names in profile order.
func (p Profile) FieldNames() []string {
	names := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		names[i] = f.Name
	}
	return names
}

// RequiredFields returns the names of required fields in profile order.
func (p Profile) RequiredFields() []string {
	var names []string
	for _, f := range p.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Override modifies a profile under construction. Overrides naming an
// unknown field panic: profiles are static and built at init time.
type Override func(p *Profile)

// Derive returns a copy of p for another tier with the overrides applied
// in order. The receiver is not modified.
func (p Profile) Derive(tier Tier, overrides ...Override) Profile {
	out := Profile{
		Key:    ProfileKey{Domain: p.Key.Domain, Tier: tier, Variant: p.Key.Variant},
		Fields: append([]FieldSpec(nil), p.Fields...),
		Rules:  append([]CrossFieldRule(nil), p.Rules...),
	}
	for _, o := range overrides {
		o(&out)
	}
	return out
}

func (p *Profile) edit(names []string, fn func(f *FieldSpec)) {
	for _, name := range names {
		found := false
		for i := range p.Fields {
			if p.Fields[i].Name == name {
				fn(&p.Fields[i])
				found = true
				break
			}
		}
		if !found {
			panic(fmt.Sprintf("profile %s: no field %q", p.Key, name))
		}
	}
}

// Require marks fields as required.
func Require(names ...string) Override {
	return func(p *Profile) {
		p.edit(names, func(f *FieldSpec) { f.Required = true })
	}
}

// RequireAllExcept marks every field except the named ones as required.
func RequireAllExcept(names ...string) Override {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	return func(p *Profile) {
		for i := range p.Fields {
			if !skip[p.Fields[i].Name] {
				p.Fields[i].Required = true
			}
		}
	}
}

// Optional marks fields as optional.
func Optional(names ...string) Override {
	return func(p *Profile) {
		p.edit(names, func(f *FieldSpec) { f.Required = false })
	}
}

// NarrowTo replaces the accepted type union of fields. The renderer is
// reset so output follows the new types; use RenderWith afterwards to
// override it.
func NarrowTo(accept TypeSet, names ...string) Override {
	return func(p *Profile) {
		p.edit(names, func(f *FieldSpec) {
			f.Accept = accept
			f.Render = nil
		})
	}
}

// NarrowEach narrows every field named in types that the profile has.
// Unlike NarrowTo it skips absent fields, so one table can serve
// profiles built from different subsets of the same fields.
func NarrowEach(types map[string]TypeSet) Override {
	return func(p *Profile) {
		for i := range p.Fields {
			if t, ok := types[p.Fields[i].Name]; ok {
				p.Fields[i].Accept = t
				p.Fields[i].Render = nil
			}
		}
	}
}

// CoerceWith replaces the field-specific coercer of fields.
func CoerceWith(c Coercer, names ...string) Override {
	return func(p *Profile) {
		p.edit(names, func(f *FieldSpec) { f.Coerce = c })
	}
}

// RenderWith replaces the output renderer of fields.
func RenderWith(r Renderer, names ...string) Override {
	return func(p *Profile) {
		p.edit(names, func(f *FieldSpec) { f.Render = r })
	}
}

// WithVariant sets the source variant of the derived profile.
func WithVariant(v Variant) Override {
	return func(p *Profile) { p.Key.Variant = v }
}

// AddFields appends field specs.
func AddFields(specs ...FieldSpec) Override {
	return func(p *Profile) { p.Fields = append(p.Fields, specs...) }
}

// AddRules appends cross-field rules.
func AddRules(rules ...CrossFieldRule) Override {
	return func(p *Profile) { p.Rules = append(p.Rules, rules...) }
}
