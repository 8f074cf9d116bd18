package core

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func TestIsNull(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  bool
	}{
		{"nil", nil, true},
		{"NaN", math.NaN(), true},
		{"float32 NaN", float32(math.NaN()), true},
		{"empty", "", true},
		{"whitespace", "  \t ", true},
		{"NA", "NA", true},
		{"n/a", "n/a", true},
		{"N / A", "N / A", true},
		{"n a", " n a ", true},
		{"None", "None", true},
		{"zero is a value", 0, false},
		{"false is a value", false, false},
		{"nan text is a value", "nan", false},
		{"NAN inside text", "NA1", false},
		{"plain text", "EMOBON", false},
		{"date", time.Now(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNull(tt.input); got != tt.want {
				t.Errorf("IsNull(%#v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPreNormalize(t *testing.T) {
	in := RawRecord{
		"blank":   "  ",
		"na":      "NA",
		"na2":     "n/a",
		"na3":     "N / A",
		"nan":     math.NaN(),
		"keep":    " value ",
		"zero":    0.0,
		"flag":    false,
		"missing": nil,
	}

	got := PreNormalize(in)

	for _, k := range []string{"blank", "na", "na2", "na3", "nan", "missing"} {
		if v, ok := got[k]; !ok || v != nil {
			t.Errorf("PreNormalize()[%q] = %#v, want nil", k, v)
		}
	}
	if got["keep"] != " value " {
		t.Errorf("values must not be trimmed, got %#v", got["keep"])
	}
	if got["zero"] != 0.0 || got["flag"] != false {
		t.Errorf("zero and false must survive, got %#v and %#v", got["zero"], got["flag"])
	}
	if s, _ := in["blank"].(string); s != "  " {
		t.Error("PreNormalize must not modify its input")
	}
}

func TestPreNormalize_Idempotent(t *testing.T) {
	inputs := []RawRecord{
		{},
		{"a": "NA", "b": "x", "c": 1.5},
		{"a": math.NaN(), "b": "", "c": "none", "d": true},
		{"a": "  N/A  ", "b": int64(3), "c": day(2023, 1, 1)},
	}

	for i, in := range inputs {
		once := PreNormalize(in)
		twice := PreNormalize(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("input %d: PreNormalize twice = %#v, once = %#v", i, twice, once)
		}
	}
}
