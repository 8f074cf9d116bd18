package profiles

import "github.com/JonMunkholm/sheetnorm/internal/core"

func init() {
	registerMandatory(core.DomainWaterColumn, waterColumnMandatory, nil)
	registerMandatory(core.DomainSoftSediment, softSedimentMandatory, softSedimentExtra)
}

// waterColumnMandatory are the fields every water column sheet must fill.
var waterColumnMandatory = []string{
	"arr_date_hq",
	"arr_date_seq",
	"collection_date",
	"depth",
	"env_material",
	"failure",
	"failure_comment",
	"investigation_type",
	"long_store",
	"membr_cut",
	"replicate",
	"samp_collect_device",
	"samp_description",
	"samp_mat_process",
	"samp_mat_process_dev",
	"samp_size_vol",
	"samp_store_date",
	"samp_store_loc",
	"samp_store_temp",
	"sampl_person",
	"sampling_event",
	"ship_date",
	"ship_date_seq",
	"size_frac",
	"size_frac_low",
	"size_frac_up",
	"source_mat_id_orig",
	"source_mat_id",
	"store_person",
	"store_temp_hq",
	"tax_id",
	"time_fi",
}

// softSedimentMandatory are the fields every soft sediment sheet must fill.
var softSedimentMandatory = []string{
	"arr_date_hq",
	"arr_date_seq",
	"collection_date",
	"comm_samp",
	"depth",
	"env_material",
	"failure",
	"failure_comment",
	"investigation_type",
	"long_store",
	"replicate",
	"samp_collect_device",
	"samp_mat_process",
	"samp_mat_process_dev",
	"samp_size_mass",
	"samp_store_date",
	"samp_store_loc",
	"samp_store_temp",
	"sampl_person",
	"sampling_event",
	"ship_date",
	"ship_date_seq",
	"size_frac_low",
	"size_frac_up",
	"source_mat_id_orig",
	"source_mat_id",
	"store_person",
	"store_temp_hq",
}

// mandatoryOptional are shared by both sheet types and never required.
var mandatoryOptional = []string{
	"noteworthy_env_cond",
	"other_person",
	"other_person_orcid",
	"sampl_person_orcid",
	"store_person_orcid",
	"tidal_stage",
}

// softSedimentExtra are fields only soft sediment sheets have.
var softSedimentExtra = []core.FieldSpec{
	{Name: "comm_samp", Accept: core.TypeText},
	{Name: "samp_size_mass", Accept: core.TypeNumber, Render: core.RenderFloat},
}

// pick returns the sampling field specs for names, in the order given,
// with any extra specs taking precedence. Panics on an unknown name.
func pick(names []string, extra []core.FieldSpec) []core.FieldSpec {
	byName := make(map[string]core.FieldSpec, len(samplingFields)+len(extra))
	for _, f := range samplingFields {
		byName[f.Name] = f
	}
	for _, f := range extra {
		byName[f.Name] = f
	}

	out := make([]core.FieldSpec, 0, len(names))
	for _, n := range names {
		f, ok := byName[n]
		if !ok {
			panic("profiles: unknown sampling field " + n)
		}
		out = append(out, f)
	}
	return out
}

// registerMandatory registers the three tiers of a mandatory field sheet.
// The lenient tier checks types only; the semi-strict tier requires every
// mandatory field; the strict tier also narrows each to one type.
func registerMandatory(domain core.Domain, mandatory []string, extra []core.FieldSpec) {
	fields := pick(append(append([]string(nil), mandatory...), mandatoryOptional...), extra)
	for i := range fields {
		fields[i].Required = false
	}

	base := core.Profile{
		Key:    core.ProfileKey{Domain: domain, Tier: core.TierLenient},
		Fields: fields,
		Rules:  []core.CrossFieldRule{SizeFraction},
	}
	core.Register(base)
	core.Register(base.Derive(core.TierSemiStrict,
		core.Require(mandatory...),
		core.NarrowEach(samplingSemiStrictTypes),
	))
	core.Register(base.Derive(core.TierStrict,
		core.Require(mandatory...),
		core.NarrowEach(samplingStrictTypes),
	))
}
