package core

// validation.go runs one raw record through the normalization pipeline.
//
// The stages always run in this order:
//  1. Resolve: bind historical header spellings to canonical names
//  2. PreNormalize: blank, NaN and NA-like values become nil
//  3. Coerce: each field's rule, then narrowing to its accepted types
//  4. Rules: cross-field invariants, only if every field succeeded
//
// Field problems are collected, never returned on the first failure, and a
// record is either fully valid or rejected with all its problems.

import "errors"

// Validator validates records against one profile. It holds no mutable
// state and is safe for concurrent use.
type Validator struct {
	profile Profile
}

// NewValidator creates a validator for the given profile.
func NewValidator(p Profile) *Validator {
	return &Validator{profile: p}
}

// Profile returns the profile records are validated against.
func (v *Validator) Profile() Profile { return v.profile }

// Validate converts raw into a ValidatedRecord or returns a *RecordError
// listing every problem.
func (v *Validator) Validate(raw RawRecord) (ValidatedRecord, error) {
	p := v.profile
	clean := PreNormalize(Resolve(raw, p.Fields))

	values := make(map[string]any, len(p.Fields))
	var problems []error

	for _, f := range p.Fields {
		in := clean[f.Name]
		out, err := coerceField(f, in)
		if err != nil {
			problems = append(problems, &CoercionError{Field: f.Name, Value: in, Err: err})
			continue
		}
		if out == nil && f.Required {
			problems = append(problems, &CoercionError{Field: f.Name, Value: in, Err: ErrMissingField})
			continue
		}
		values[f.Name] = out
	}

	if len(problems) == 0 {
		for _, r := range p.Rules {
			if err := r.Apply(values); err != nil {
				problems = append(problems, err)
			}
		}
	}

	if len(problems) > 0 {
		return ValidatedRecord{}, &RecordError{Profile: p.Key, Problems: problems}
	}

	return ValidatedRecord{
		profile: p.Key,
		fields:  p.FieldNames(),
		values:  values,
	}, nil
}

// Validate is a convenience for NewValidator(p).Validate(raw).
func Validate(p Profile, raw RawRecord) (ValidatedRecord, error) {
	return NewValidator(p).Validate(raw)
}

func coerceField(f FieldSpec, v any) (any, error) {
	if f.Coerce != nil {
		var err error
		if v, err = f.Coerce(v); err != nil {
			return nil, err
		}
	}

	accept := f.Accept
	if accept == 0 {
		accept = TypeAny
	}
	v, err := Narrow(v, accept)
	if err != nil {
		return nil, err
	}
	if IsNull(v) {
		return nil, nil
	}
	return v, nil
}

// IsMissing reports whether err contains a missing-field problem for name.
func IsMissing(err error, name string) bool {
	var re *RecordError
	if !errors.As(err, &re) {
		return false
	}
	for _, p := range re.Problems {
		var ce *CoercionError
		if errors.As(p, &ce) && ce.Field == name && errors.Is(ce.Err, ErrMissingField) {
			return true
		}
	}
	return false
}
