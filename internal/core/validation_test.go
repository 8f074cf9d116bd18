package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

// testProfile is a small sampling-like profile exercising each stage.
func testProfile() Profile {
	return Profile{
		Key: ProfileKey{Domain: "test", Tier: TierLenient},
		Fields: []FieldSpec{
			{Name: "id", Aliases: []string{"id", "sample_id"}, Accept: TypeText, Required: true, Coerce: ToText},
			{Name: "collected", Accept: TypeDate, Coerce: ToDate},
			{Name: "replicate", Accept: TypeText, Coerce: ToReplicate},
			{Name: "low", Accept: TypeFloat},
			{Name: "up", Accept: TypeFloat},
			{Name: "failure", Accept: TypeBool, Coerce: ToTriStateBool},
			{Name: "depth", Accept: TypeText | TypeFloat, Render: RenderStringOrFloat},
			{Name: "note", Accept: TypeText},
		},
		Rules: []CrossFieldRule{SizeFractionRule("low", "up")},
	}
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(testProfile())

	rec, err := v.Validate(RawRecord{
		"sample_id": "S1",
		"collected": "23/10/2023",
		"replicate": 2.0,
		"low":       "0.22",
		"up":        3,
		"failure":   "N",
		"depth":     "NA",
		"note":      "  ",
		"extra":     "dropped",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	want := map[string]any{
		"id":        "S1",
		"collected": time.Date(2023, 10, 23, 0, 0, 0, 0, time.UTC),
		"replicate": "2",
		"low":       0.22,
		"up":        3.0,
		"failure":   false,
		"depth":     nil,
		"note":      nil,
	}
	for k, w := range want {
		got, ok := rec.Get(k)
		if !ok {
			t.Errorf("field %q missing", k)
			continue
		}
		if wt, isTime := w.(time.Time); isTime {
			if gt, _ := got.(time.Time); !gt.Equal(wt) {
				t.Errorf("%s = %v, want %v", k, got, w)
			}
			continue
		}
		if got != w {
			t.Errorf("%s = %#v, want %#v", k, got, w)
		}
	}
	if _, ok := rec.Get("extra"); ok {
		t.Error("unclaimed input key must not appear in the record")
	}
	if rec.Len() != len(testProfile().Fields) {
		t.Errorf("Len() = %d, want %d", rec.Len(), len(testProfile().Fields))
	}
	if rec.Profile() != testProfile().Key {
		t.Errorf("Profile() = %v", rec.Profile())
	}
}

func TestValidator_CollectsAllFieldErrors(t *testing.T) {
	v := NewValidator(testProfile())

	_, err := v.Validate(RawRecord{
		"collected": "someday",
		"failure":   "maybe",
		"low":       "abc",
	})

	var re *RecordError
	if !errors.As(err, &re) {
		t.Fatalf("Validate() error = %T %v, want *RecordError", err, err)
	}
	if len(re.Problems) != 4 {
		t.Fatalf("got %d problems, want 4: %v", len(re.Problems), err)
	}

	fields := map[string]bool{}
	for _, fe := range FieldErrors(err) {
		fields[fe.Field] = true
	}
	for _, f := range []string{"id", "collected", "failure", "low"} {
		if !fields[f] {
			t.Errorf("no error reported for %q", f)
		}
	}
	if !IsMissing(err, "id") {
		t.Error("IsMissing(id) = false")
	}
	if !errors.Is(err, ErrUnrecognised) {
		t.Error("errors.Is(err, ErrUnrecognised) = false")
	}
}

func TestValidator_CrossFieldRules(t *testing.T) {
	v := NewValidator(testProfile())

	_, err := v.Validate(RawRecord{"id": "S1", "low": 2.0, "up": 1.0})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
	if ve.Rule != "size_fraction" {
		t.Errorf("Rule = %q", ve.Rule)
	}

	fes := FieldErrors(err)
	if len(fes) != 2 || fes[0].Code != "VAL007" {
		t.Errorf("FieldErrors() = %+v, want one entry per bound with VAL007", fes)
	}
}

func TestValidator_RulesSkippedOnFieldErrors(t *testing.T) {
	v := NewValidator(testProfile())

	_, err := v.Validate(RawRecord{"id": "S1", "low": 2.0, "up": 1.0, "failure": "maybe"})
	var ve *ValidationError
	if errors.As(err, &ve) {
		t.Error("cross-field rule ran although a field failed")
	}
	var re *RecordError
	if !errors.As(err, &re) || len(re.Problems) != 1 {
		t.Errorf("Validate() error = %v, want only the failure field problem", err)
	}
}

// No validated value may be NaN, an empty string or an NA token.
func TestValidator_NoNullLikeValues(t *testing.T) {
	p := Profile{
		Key: ProfileKey{Domain: "test", Tier: TierLenient},
		Fields: []FieldSpec{
			{Name: "a", Accept: TypeText},
			{Name: "b", Accept: TypeFloat},
			{Name: "c", Accept: TypeText | TypeFloat},
			{Name: "d", Accept: TypeAny},
			{Name: "e", Accept: TypeFloat, Coerce: ToMeasurement},
		},
	}
	inputs := []any{"", "   ", "NA", "n/a", "N / A", "none", math.NaN(), float32(math.NaN())}

	for _, in := range inputs {
		raw := RawRecord{"a": in, "b": in, "c": in, "d": in, "e": in}
		rec, err := Validate(p, raw)
		if err != nil {
			t.Fatalf("Validate(%#v) error = %v", in, err)
		}
		for _, f := range rec.Fields() {
			if v, _ := rec.Get(f); v != nil {
				t.Errorf("input %#v: field %s = %#v, want nil", in, f, v)
			}
		}
	}
}

func TestValidatedRecord_MapIsCopy(t *testing.T) {
	rec, err := Validate(testProfile(), RawRecord{"id": "S1"})
	if err != nil {
		t.Fatal(err)
	}
	m := rec.Map()
	m["id"] = "changed"
	if v, _ := rec.Get("id"); v != "S1" {
		t.Errorf("Map() shares storage with the record: id = %v", v)
	}
}
