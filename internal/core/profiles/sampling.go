package profiles

import "github.com/JonMunkholm/sheetnorm/internal/core"

func init() {
	registerSampling()
}

// SizeFraction is the filter size range rule shared by the sampling sheets.
var SizeFraction = core.SizeFractionRule("size_frac_low", "size_frac_up")

// samplingFields is the lenient sampling event sheet: every type ever
// seen in the sheets is accepted and only the sample id is required.
var samplingFields = []core.FieldSpec{
	{Name: "source_mat_id_orig", Accept: core.TypeText},
	{Name: "samp_description", Accept: core.TypeText},
	{Name: "tax_id", Accept: core.TypeInt, Coerce: core.ToTaxID},
	{Name: "scientific_name", Accept: core.TypeText},
	{Name: "investigation_type", Accept: core.TypeText},
	{Name: "env_material", Accept: core.TypeText},
	{Name: "collection_date", Accept: core.TypeDate, Coerce: core.ToDate},
	{Name: "sampling_event", Accept: core.TypeText},
	{Name: "sampl_person", Accept: core.TypeText},
	{Name: "sampl_person_orcid", Accept: core.TypeText},
	{Name: "tidal_stage", Accept: core.TypeText},
	{Name: "depth", Accept: core.TypeText | core.TypeFloat, Render: core.RenderStringOrFloat},
	{Name: "noteworthy_env_cond", Accept: core.TypeText},
	{Name: "replicate", Accept: core.TypeText, Coerce: core.ToReplicate},
	{Name: "samp_size_vol", Accept: core.TypeNumber, Render: core.RenderFloat},
	{Name: "time_fi", Accept: core.TypeText | core.TypeFloat, Render: core.RenderStringOrFloat},
	{Name: "size_frac", Accept: core.TypeText | core.TypeFloat, Render: core.RenderStringOrFloat},
	{Name: "size_frac_low", Accept: core.TypeFloat},
	{Name: "size_frac_up", Accept: core.TypeFloat},
	{Name: "membr_cut", Accept: core.TypeBool, Coerce: core.ToTriStateBool},
	{Name: "samp_collect_device", Accept: core.TypeText},
	{Name: "samp_mat_process", Accept: core.TypeText},
	{Name: "samp_mat_process_dev", Accept: core.TypeText},
	{Name: "samp_store_date", Accept: core.TypeDate, Coerce: core.ToDate},
	{Name: "samp_store_loc", Accept: core.TypeText},
	{Name: "samp_store_temp", Accept: core.TypeInt},
	{Name: "store_person", Accept: core.TypeText},
	{Name: "store_person_orcid", Accept: core.TypeText},
	{Name: "other_person", Accept: core.TypeText},
	{Name: "other_person_orcid", Accept: core.TypeText},
	{Name: "long_store", Accept: core.TypeBool, Coerce: core.ToTriStateBool},
	{Name: "ship_date", Accept: core.TypeDate, Coerce: core.ToDate},
	{Name: "arr_date_hq", Accept: core.TypeDate, Coerce: core.ToDate},
	{Name: "store_temp_hq", Accept: core.TypeInt, Coerce: core.ToStoreTemp},
	{Name: "ship_date_seq", Accept: core.TypeDate, Coerce: core.ToDate},
	{Name: "arr_date_seq", Accept: core.TypeDate, Coerce: core.ToDate},
	{Name: "failure", Accept: core.TypeBool, Coerce: core.ToTriStateBool},
	{Name: "failure_comment", Accept: core.TypeText},
	{Name: "ENA_accession_number_sample", Accept: core.TypeText},
	{
		Name:     "source_mat_id",
		Aliases:  []string{"source_mat_id", "source_material_id"},
		Accept:   core.TypeText,
		Required: true,
		Coerce:   core.ToText,
	},
}

// samplingEventFields identify the sampling event and are required from
// the semi-strict tier up.
var samplingEventFields = []string{
	"source_mat_id_orig",
	"samp_description",
	"tax_id",
	"scientific_name",
	"investigation_type",
	"env_material",
	"sampling_event",
	"sampl_person",
}

// samplingSemiStrictTypes still accept both numeric types.
var samplingSemiStrictTypes = map[string]core.TypeSet{
	"depth":           core.TypeNumber,
	"samp_size_vol":   core.TypeNumber,
	"time_fi":         core.TypeText | core.TypeInt,
	"size_frac":       core.TypeText,
	"size_frac_low":   core.TypeNumber,
	"size_frac_up":    core.TypeNumber,
	"samp_store_temp": core.TypeNumber,
	"store_temp_hq":   core.TypeNumber,
	"samp_size_mass":  core.TypeNumber,
}

// samplingStrictTypes name the single canonical type of each field.
var samplingStrictTypes = map[string]core.TypeSet{
	"tax_id":          core.TypeInt,
	"depth":           core.TypeInt,
	"replicate":       core.TypeText,
	"samp_size_vol":   core.TypeInt,
	"time_fi":         core.TypeText,
	"size_frac":       core.TypeText,
	"size_frac_low":   core.TypeFloat,
	"size_frac_up":    core.TypeFloat,
	"samp_store_temp": core.TypeInt,
	"store_temp_hq":   core.TypeInt,
	"samp_size_mass":  core.TypeFloat,
}

// samplingStrictOptional stay optional under the strict tier.
var samplingStrictOptional = []string{
	"collection_date",
	"sampl_person_orcid",
	"tidal_stage",
	"noteworthy_env_cond",
	"membr_cut",
	"samp_store_date",
	"store_person_orcid",
	"other_person",
	"other_person_orcid",
	"long_store",
	"ship_date",
	"arr_date_hq",
	"ship_date_seq",
	"arr_date_seq",
	"failure",
}

// SamplingLenient is the base sampling profile.
func SamplingLenient() core.Profile {
	return core.Profile{
		Key:    core.ProfileKey{Domain: core.DomainSampling, Tier: core.TierLenient},
		Fields: append([]core.FieldSpec(nil), samplingFields...),
		Rules:  []core.CrossFieldRule{SizeFraction},
	}
}

// samplingGithubLenient is the curated copy kept in the observatory
// repositories: tax_id holds a taxonomy URL, booleans may be spelled out
// and storage temperatures may carry a unit.
func samplingGithubLenient() core.Profile {
	return SamplingLenient().Derive(core.TierLenient,
		core.WithVariant(core.VariantGithub),
		core.CoerceWith(core.ToHTTPURL, "tax_id"),
		core.NarrowTo(core.TypeText, "tax_id", "size_frac"),
		core.NarrowTo(core.TypeNumber, "size_frac_up"),
		core.RenderWith(core.RenderFloat, "size_frac_up"),
		core.CoerceWith(core.ToTriStateBoolWords, "membr_cut", "long_store", "failure"),
		core.CoerceWith(core.ToCelsiusTemp, "samp_store_temp"),
		core.Require("collection_date", "replicate"),
	)
}

func registerSampling() {
	sheet := SamplingLenient()
	core.Register(sheet)
	core.Register(sheet.Derive(core.TierSemiStrict,
		core.Require(samplingEventFields...),
		core.NarrowEach(samplingSemiStrictTypes),
	))
	core.Register(sheet.Derive(core.TierStrict,
		core.RequireAllExcept(samplingStrictOptional...),
		core.NarrowEach(samplingStrictTypes),
	))

	github := samplingGithubLenient()
	core.Register(github)
	core.Register(github.Derive(core.TierSemiStrict,
		core.CoerceWith(core.ToTaxID, "tax_id"),
		core.Require(samplingEventFields...),
		core.NarrowEach(samplingSemiStrictTypes),
	))
	core.Register(github.Derive(core.TierStrict,
		core.CoerceWith(core.ToTaxID, "tax_id"),
		core.RequireAllExcept(
			"sampl_person_orcid",
			"tidal_stage",
			"noteworthy_env_cond",
			"store_person_orcid",
			"other_person",
			"other_person_orcid",
		),
		core.NarrowEach(samplingStrictTypes),
		core.NarrowTo(core.TypeInt, "size_frac_low", "size_frac_up"),
	))
}
