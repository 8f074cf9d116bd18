package profiles

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

func lookup(t *testing.T, d core.Domain, tier core.Tier, v core.Variant) core.Profile {
	t.Helper()
	p, err := core.LookupVariant(d, tier, v)
	if err != nil {
		t.Fatalf("LookupVariant(%s, %s, %q) error = %v", d, tier, v, err)
	}
	return p
}

// strictSamplingRecord satisfies the strict sampling profile.
func strictSamplingRecord() core.RawRecord {
	return core.RawRecord{
		"source_mat_id_orig":          "VB_1",
		"samp_description":            "surface water",
		"tax_id":                      408172,
		"scientific_name":             "marine metagenome",
		"investigation_type":          "metagenome",
		"env_material":                "water",
		"sampling_event":              "EV1",
		"sampl_person":                "A. Person",
		"depth":                       5,
		"replicate":                   1,
		"samp_size_vol":               2000,
		"time_fi":                     "fi",
		"size_frac":                   "0.22-3",
		"size_frac_low":               0.22,
		"size_frac_up":                3.0,
		"samp_collect_device":         "Niskin bottle",
		"samp_mat_process":            "filtration",
		"samp_mat_process_dev":        "peristaltic pump",
		"samp_store_loc":              "freezer",
		"samp_store_temp":             -80,
		"store_person":                "B. Person",
		"store_temp_hq":               "-80",
		"failure_comment":             "no failure",
		"ENA_accession_number_sample": "ERS0001",
		"source_material_id":          "EMOBON_VB_Wa_1",
	}
}

func TestAllDomainsRegistered(t *testing.T) {
	want := []core.Domain{
		core.DomainLogsheets,
		core.DomainMeasured,
		core.DomainObservatories,
		core.DomainObservatory,
		core.DomainSampling,
		core.DomainSoftSediment,
		core.DomainWaterColumn,
	}
	got := core.Domains()
	if len(got) != len(want) {
		t.Fatalf("Domains() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Domains()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	for _, d := range want {
		for _, tier := range core.Tiers {
			if _, err := core.Lookup(d, tier); err != nil {
				t.Errorf("Lookup(%s, %s) error = %v", d, tier, err)
			}
		}
	}
	for _, tier := range core.Tiers {
		lookup(t, core.DomainSampling, tier, core.VariantGithub)
	}
}

func TestProfilesAreWellFormed(t *testing.T) {
	for _, p := range core.All() {
		seen := map[string]bool{}
		for _, f := range p.Fields {
			if f.Accept == 0 {
				t.Errorf("%s: field %s has no accepted types", p.Key, f.Name)
			}
			if seen[f.Name] {
				t.Errorf("%s: field %s declared twice", p.Key, f.Name)
			}
			seen[f.Name] = true
		}
		for _, r := range p.Rules {
			for _, f := range r.Fields {
				if !seen[f] {
					t.Errorf("%s: rule %s names unknown field %s", p.Key, r.Name, f)
				}
			}
		}
	}
}

func TestUnknownProfile(t *testing.T) {
	_, err := core.Lookup("hard_substrate", core.TierStrict)
	var se *core.SchemaSelectionError
	if !errors.As(err, &se) {
		t.Fatalf("Lookup() error = %v, want *SchemaSelectionError", err)
	}
	_, err = core.LookupVariant(core.DomainMeasured, core.TierStrict, core.VariantGithub)
	if !errors.As(err, &se) {
		t.Fatalf("LookupVariant() error = %v, want *SchemaSelectionError", err)
	}
}

// A record missing a mandatory field validates under the lenient tier but
// fails under the strict tier with a report naming that field.
func TestStrictnessEscalation(t *testing.T) {
	full := strictSamplingRecord()

	for _, tier := range core.Tiers {
		if _, err := core.Validate(lookup(t, core.DomainSampling, tier, core.VariantSheet), full); err != nil {
			t.Fatalf("%s: complete record rejected: %v", tier, err)
		}
	}

	partial := strictSamplingRecord()
	delete(partial, "sampling_event")
	delete(partial, "failure_comment")

	if _, err := core.Validate(lookup(t, core.DomainSampling, core.TierLenient, core.VariantSheet), partial); err != nil {
		t.Errorf("lenient: %v", err)
	}

	_, err := core.Validate(lookup(t, core.DomainSampling, core.TierSemiStrict, core.VariantSheet), partial)
	if !core.IsMissing(err, "sampling_event") {
		t.Errorf("semistrict: want sampling_event missing, got %v", err)
	}
	if core.IsMissing(err, "failure_comment") {
		t.Error("semistrict must not require failure_comment")
	}

	_, err = core.Validate(lookup(t, core.DomainSampling, core.TierStrict, core.VariantSheet), partial)
	if !core.IsMissing(err, "sampling_event") || !core.IsMissing(err, "failure_comment") {
		t.Errorf("strict: want sampling_event and failure_comment missing, got %v", err)
	}
}

// A field a tier requires stays required in every stricter tier, so a
// record accepted by a stricter tier is never rejected by a looser one.
func TestTiersOnlyAddRequirements(t *testing.T) {
	for _, p := range core.All() {
		for _, tier := range core.Tiers {
			if tier == p.Key.Tier {
				break
			}
			loose := lookup(t, p.Key.Domain, tier, p.Key.Variant)
			required := make(map[string]bool, len(p.Fields))
			for _, f := range p.Fields {
				required[f.Name] = f.Required
			}
			for _, f := range loose.Fields {
				if f.Required && !required[f.Name] {
					t.Errorf("%s requires %s but %s does not", loose.Key, f.Name, p.Key)
				}
			}
		}
	}
}

// Fields accepting text or int serialize as text on every row.
func TestSerializeTextOrIntColumns(t *testing.T) {
	tests := []struct {
		name  string
		key   core.ProfileKey
		field string
		base  core.RawRecord
	}{
		{
			name:  "sampling time_fi",
			key:   core.ProfileKey{Domain: core.DomainSampling, Tier: core.TierSemiStrict},
			field: "time_fi",
			base:  strictSamplingRecord(),
		},
		{
			name:  "observatory loc_loc_mrgid",
			key:   core.ProfileKey{Domain: core.DomainObservatory, Tier: core.TierLenient},
			field: "loc_loc_mrgid",
			base:  core.RawRecord{"obs_id": "VB"},
		},
		{
			name:  "observatory organization_edmoid",
			key:   core.ProfileKey{Domain: core.DomainObservatory, Tier: core.TierSemiStrict},
			field: "organization_edmoid",
			base: core.RawRecord{
				"obs_id": "VB", "loc_loc_mrgid": 3293, "project_name": "EMO BON",
				"latitude": 51.2, "longitude": 2.9, "geo_loc_name": "Belgium",
				"organization": "VLIZ", "contact_name": "A. Person", "contact_email": "a@example.org",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := lookup(t, tt.key.Domain, tt.key.Tier, core.VariantSheet)
			for _, v := range []any{"abc", 5} {
				rec := core.RawRecord{}
				for k, x := range tt.base {
					rec[k] = x
				}
				rec[tt.field] = v

				got, err := core.Validate(p, rec)
				if err != nil {
					t.Fatalf("Validate(%s=%#v) error = %v", tt.field, v, err)
				}
				out := core.Serialize(p, got)
				if _, ok := out[tt.field].(string); !ok {
					t.Errorf("%s=%#v serialized as %#v (%T), want string", tt.field, v, out[tt.field], out[tt.field])
				}
			}
		})
	}
}

func TestStrictNarrowsTypes(t *testing.T) {
	rec := strictSamplingRecord()
	rec["depth"] = "5.5"

	lenient, err := core.Validate(lookup(t, core.DomainSampling, core.TierLenient, core.VariantSheet), rec)
	if err != nil {
		t.Fatalf("lenient: %v", err)
	}
	if v, _ := lenient.Get("depth"); v != "5.5" {
		t.Errorf("lenient depth = %#v, want text", v)
	}

	_, err = core.Validate(lookup(t, core.DomainSampling, core.TierStrict, core.VariantSheet), rec)
	if !errors.Is(err, core.ErrUnexpectedType) {
		t.Errorf("strict: want unexpected type for depth, got %v", err)
	}

	strict, err := core.Validate(lookup(t, core.DomainSampling, core.TierStrict, core.VariantSheet), strictSamplingRecord())
	if err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]any{
		"depth":         int64(5),
		"samp_size_vol": int64(2000),
		"store_temp_hq": int64(-80),
		"replicate":     "1",
		"size_frac_low": 0.22,
	} {
		if got, _ := strict.Get(name); got != want {
			t.Errorf("strict %s = %#v (%T), want %#v", name, got, got, want)
		}
	}
}

// Blank, NA-like and NaN values become null for every field of every
// lenient profile. Only missing-field errors may result.
func TestNullMapping(t *testing.T) {
	tokens := []any{"  ", "NA", "n/a", "N / A", math.NaN()}

	for _, p := range core.All() {
		if p.Key.Tier != core.TierLenient {
			continue
		}
		for _, tok := range tokens {
			raw := core.RawRecord{}
			for _, f := range p.Fields {
				raw[f.Name] = tok
			}

			rec, err := core.Validate(p, raw)
			if err != nil {
				var re *core.RecordError
				if !errors.As(err, &re) {
					t.Fatalf("%s: %v", p.Key, err)
				}
				for _, prob := range re.Problems {
					if !errors.Is(prob, core.ErrMissingField) {
						t.Errorf("%s with %#v: unexpected problem %v", p.Key, tok, prob)
					}
				}
				continue
			}
			for _, f := range rec.Fields() {
				v, _ := rec.Get(f)
				if f == "replicate" {
					if v != core.ReplicateBlank {
						t.Errorf("%s: replicate = %#v, want blank", p.Key, v)
					}
					continue
				}
				if v != nil {
					t.Errorf("%s with %#v: %s = %#v, want nil", p.Key, tok, f, v)
				}
			}
		}
	}
}

func TestSamplingSizeFraction(t *testing.T) {
	p := lookup(t, core.DomainSampling, core.TierLenient, core.VariantSheet)

	tests := []struct {
		name    string
		low, up any
		wantErr bool
	}{
		{"upper below lower", 2.0, 1.0, true},
		{"upper above lower", 1.0, 2.0, false},
		{"upper missing", 7.0, nil, false},
		{"upper negative", nil, -3.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.Validate(p, core.RawRecord{
				"source_mat_id": "S1",
				"size_frac_low": tt.low,
				"size_frac_up":  tt.up,
			})
			var ve *core.ValidationError
			if got := errors.As(err, &ve); got != tt.wantErr {
				t.Errorf("ValidationError = %v, want %v (err %v)", got, tt.wantErr, err)
			}
		})
	}
}

func TestSamplingGithubVariant(t *testing.T) {
	p := lookup(t, core.DomainSampling, core.TierLenient, core.VariantGithub)

	rec, err := core.Validate(p, core.RawRecord{
		"source_mat_id":   "EMOBON_VB_Wa_1",
		"collection_date": "2023-10-23",
		"replicate":       "2",
		"tax_id":          "https://www.ncbi.nlm.nih.gov/Taxonomy/Browser/wwwtax.cgi?id=408172",
		"membr_cut":       "true",
		"samp_store_temp": "-80°C",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if v, _ := rec.Get("membr_cut"); v != true {
		t.Errorf("membr_cut = %#v", v)
	}
	if v, _ := rec.Get("samp_store_temp"); v != int64(-80) {
		t.Errorf("samp_store_temp = %#v", v)
	}

	// The spreadsheet profile does not accept the curated spellings.
	sheet := lookup(t, core.DomainSampling, core.TierLenient, core.VariantSheet)
	if _, err := core.Validate(sheet, core.RawRecord{"source_mat_id": "S", "membr_cut": "true"}); err == nil {
		t.Error("sheet profile accepted membr_cut=true")
	}
}

func TestObservatoriesAliasesAndRules(t *testing.T) {
	p := lookup(t, core.DomainObservatories, core.TierSemiStrict, core.VariantSheet)

	raw := core.RawRecord{
		"country_code":             "BE",
		"country":                  "Belgium",
		"EMOBON_observatory_name":  "Belgian Part of the North Sea",
		"EMOBON_observatory_id":    "BPNS",
		"startdate":                "01/06/2021",
		"Water_Column":             "Y",
		"Soft_Substrates":          "y",
		"Hard_Substrates":          "n",
		"contect person":           "A. Person",
		"contact person email":     "a@example.org",
		"EMOBON_core":              "y",
		"sediment_site_longtitude": 2.9,
		"sediment_site_latitude":   51.4,
	}

	rec, err := core.Validate(p, raw)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if d, _ := rec.Date("start_date"); !d.Equal(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start_date = %v", d)
	}
	if v, _ := rec.Get("sediment_site_longitude"); v != 2.9 {
		t.Errorf("sediment_site_longitude = %#v", v)
	}
	if out := core.Serialize(p, rec); out["start_date"] != "2021-06-01" {
		t.Errorf("serialized start_date = %#v", out["start_date"])
	}

	raw["enddate"] = "01/01/2020"
	_, err = core.Validate(p, raw)
	var ve *core.ValidationError
	if !errors.As(err, &ve) || ve.Rule != "date_order" {
		t.Errorf("end before start: got %v", err)
	}

	delete(raw, "enddate")
	raw["Water_Column"] = "t"
	if _, err := core.Validate(p, raw); !errors.Is(err, core.ErrUnrecognised) {
		t.Errorf("Water_Column=t: got %v, want unrecognised", err)
	}
}

func TestObservatoryCoordinates(t *testing.T) {
	p := lookup(t, core.DomainObservatory, core.TierLenient, core.VariantSheet)

	if _, err := core.Validate(p, core.RawRecord{"obs_id": "VB", "loc_loc_mrgid": 3293, "latitude": "51.2", "longitude": 2.9}); err != nil {
		t.Errorf("valid coordinates: %v", err)
	}
	_, err := core.Validate(p, core.RawRecord{"obs_id": "VB", "loc_loc_mrgid": 3293, "latitude": 512.0})
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("latitude 512: got %v", err)
	}
}

func TestMeasuredCoercers(t *testing.T) {
	p := lookup(t, core.DomainMeasured, core.TierLenient, core.VariantSheet)

	rec, err := core.Validate(p, core.RawRecord{
		"source_material_id": "EMOBON_VB_Wa_1",
		"conduc":             "36,356.62",
		"ph":                 "8,1",
		"sea_subsurf_temp":   "16,7041",
		"chlorophyll":        "could not retrieve CTD",
		"nitrate":            "0.5",
		"alkalinity":         "2.3 mmol/kg",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	for name, want := range map[string]any{
		"conduc":           36356.62,
		"ph":               8.1,
		"sea_subsurf_temp": 16.7041,
		"chlorophyll":      nil,
		"nitrate":          0.5,
		"alkalinity":       "2.3 mmol/kg",
	} {
		if got, _ := rec.Get(name); got != want {
			t.Errorf("%s = %#v, want %#v", name, got, want)
		}
	}

	strict := lookup(t, core.DomainMeasured, core.TierStrict, core.VariantSheet)
	_, err = core.Validate(strict, core.RawRecord{"source_mat_id": "X", "sea_surf_temp": 14.2})
	if !core.IsMissing(err, "sea_surf_temp_method") || !core.IsMissing(err, "ph") {
		t.Errorf("strict measured: got %v", err)
	}
}

func TestLogsheets(t *testing.T) {
	p := lookup(t, core.DomainLogsheets, core.TierStrict, core.VariantSheet)

	rec, err := core.Validate(p, core.RawRecord{
		"EMBRC Node":                          "Belgium",
		"EMBRC Site":                          "VLIZ",
		"EMOBON_observatory_id":               "VB",
		"Water Column":                        "https://docs.google.com/spreadsheets/d/abc",
		"Soft sediment":                       "",
		"data_quality_control_threshold_date": "2024-03-01 10:00:00",
		"data_quality_control_assignee":       "C. Person",
		"rocrate_profile_uri":                 "https://w3id.org/ro/crate",
		"autogenerate":                        "TRUE",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if v, _ := rec.Get("autogenerate"); v != true {
		t.Errorf("autogenerate = %#v", v)
	}
	if v, _ := rec.Get("soft_sediment"); v != nil {
		t.Errorf("soft_sediment = %#v", v)
	}
	if out := core.Serialize(p, rec); out["data_quality_control_threshold_date"] != "2024-03-01T10:00:00Z" {
		t.Errorf("threshold date = %#v", out["data_quality_control_threshold_date"])
	}

	_, err = core.Validate(p, core.RawRecord{
		"country": "BE", "institute": "VLIZ", "observatory_id": "VB",
		"rocrate_profile_uri": "not a url", "autogenerate": false,
	})
	if !errors.Is(err, core.ErrUnrecognised) {
		t.Errorf("bad url: got %v", err)
	}
}

func TestMandatorySheets(t *testing.T) {
	ss := lookup(t, core.DomainSoftSediment, core.TierLenient, core.VariantSheet)
	if _, err := core.Validate(ss, core.RawRecord{"comm_samp": "core"}); err != nil {
		t.Errorf("lenient soft sediment: %v", err)
	}
	if _, ok := ss.Field("membr_cut"); ok {
		t.Error("soft sediment sheets have no membr_cut")
	}

	strict := lookup(t, core.DomainSoftSediment, core.TierStrict, core.VariantSheet)
	_, err := core.Validate(strict, core.RawRecord{"source_mat_id": "X"})
	if !core.IsMissing(err, "comm_samp") || !core.IsMissing(err, "samp_size_mass") {
		t.Errorf("strict soft sediment: got %v", err)
	}
	if core.IsMissing(err, "tidal_stage") {
		t.Error("tidal_stage is optional")
	}

	wc := lookup(t, core.DomainWaterColumn, core.TierSemiStrict, core.VariantSheet)
	if got := len(wc.RequiredFields()); got != len(waterColumnMandatory) {
		t.Errorf("water column semistrict requires %d fields, want %d", got, len(waterColumnMandatory))
	}
	if got := len(wc.Fields); got != len(waterColumnMandatory)+len(mandatoryOptional) {
		t.Errorf("water column has %d fields", got)
	}
}
