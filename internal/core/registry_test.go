package core

import (
	"errors"
	"testing"
)

func TestRegistry(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	base := testProfile()
	Register(base)
	Register(base.Derive(TierStrict, Require("collected")))
	Register(base.Derive(TierStrict, WithVariant(VariantGithub)))

	if got := ProfileCount(); got != 3 {
		t.Fatalf("ProfileCount() = %d, want 3", got)
	}

	p, err := Lookup("test", TierStrict)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if f, _ := p.Field("collected"); !f.Required {
		t.Error("strict profile should require collected")
	}

	if _, err := LookupVariant("test", TierStrict, VariantGithub); err != nil {
		t.Errorf("LookupVariant() error = %v", err)
	}

	_, err = Lookup("test", TierSemiStrict)
	var se *SchemaSelectionError
	if !errors.As(err, &se) {
		t.Fatalf("Lookup(unknown) error = %v, want *SchemaSelectionError", err)
	}
	if se.Key.Tier != TierSemiStrict {
		t.Errorf("error key = %v", se.Key)
	}

	all := All()
	if len(all) != 3 || all[0].Key.Tier != TierLenient || all[1].Key.Tier != TierStrict || all[2].Key.Variant != VariantGithub {
		t.Errorf("All() order = %v %v %v", all[0].Key, all[1].Key, all[2].Key)
	}

	if d := Domains(); len(d) != 1 || d[0] != "test" {
		t.Errorf("Domains() = %v", d)
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	Register(testProfile())
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register(testProfile())
}

func TestDerive(t *testing.T) {
	base := testProfile()

	d := base.Derive(TierSemiStrict,
		Require("low", "up"),
		NarrowTo(TypeText, "depth"),
		CoerceWith(ToMeasurement, "low"),
		Optional("id"),
	)

	if d.Key.Tier != TierSemiStrict || d.Key.Domain != base.Key.Domain {
		t.Errorf("Key = %v", d.Key)
	}
	if f, _ := d.Field("depth"); f.Accept != TypeText || f.Render != nil {
		t.Errorf("depth = %+v, want narrowed to text with default renderer", f)
	}
	if f, _ := d.Field("id"); f.Required {
		t.Error("id should be optional")
	}
	if got := d.RequiredFields(); len(got) != 2 || got[0] != "low" || got[1] != "up" {
		t.Errorf("RequiredFields() = %v", got)
	}

	// The base profile is untouched.
	if f, _ := base.Field("depth"); f.Accept != TypeText|TypeFloat {
		t.Errorf("base depth changed: %v", f.Accept)
	}
	if f, _ := base.Field("id"); !f.Required {
		t.Error("base id changed")
	}
}

func TestDerive_UnknownFieldPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Require(unknown) did not panic")
		}
	}()
	testProfile().Derive(TierStrict, Require("no_such_field"))
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
		ok   bool
	}{
		{"lenient", TierLenient, true},
		{"Semi-Strict", TierSemiStrict, true},
		{"semi_strict", TierSemiStrict, true},
		{" STRICT ", TierStrict, true},
		{"loose", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTier(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseTier(%q) = %q, %v", tt.in, got, ok)
			}
		})
	}
}
