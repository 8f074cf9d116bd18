package profiles

import "github.com/JonMunkholm/sheetnorm/internal/core"

func init() {
	registerObservatory()
	registerObservatories()
}

// observatoryFields is the "observatory" tab of the metadata workbook.
var observatoryFields = []core.FieldSpec{
	{Name: "project_name", Accept: core.TypeText},
	{Name: "latitude", Accept: core.TypeFloat},
	{Name: "longitude", Accept: core.TypeFloat},
	{Name: "geo_loc_name", Accept: core.TypeText},
	{Name: "loc_broad_ocean", Accept: core.TypeText},
	{Name: "loc_broad_ocean_mrgid", Accept: core.TypeInt},
	{Name: "loc_regional", Accept: core.TypeText},
	{Name: "loc_regional_mrgid", Accept: core.TypeInt},
	{Name: "loc_loc", Accept: core.TypeText},
	{Name: "loc_loc_mrgid", Accept: core.TypeText | core.TypeInt, Required: true},
	{Name: "env_broad_biome", Accept: core.TypeText},
	{Name: "env_local", Accept: core.TypeText},
	{Name: "env_package", Accept: core.TypeText},
	{Name: "tot_depth_water_col", Accept: core.TypeFloat},
	{Name: "organization", Accept: core.TypeText},
	{Name: "organization_country", Accept: core.TypeText},
	{Name: "organization_edmoid", Accept: core.TypeText | core.TypeInt},
	{Name: "obs_id", Accept: core.TypeText, Required: true, Coerce: core.ToText},
	{Name: "wa_id", Accept: core.TypeText},
	{Name: "extra_site_info", Accept: core.TypeText},
	{Name: "contact_name", Accept: core.TypeText},
	{Name: "contact_email", Accept: core.TypeText},
	{Name: "contact_orcid", Accept: core.TypeText},
	{Name: "ENA_accession_number_umbrella", Accept: core.TypeText},
	{Name: "ENA_accession_number_project", Accept: core.TypeText},
}

func registerObservatory() {
	base := core.Profile{
		Key:    core.ProfileKey{Domain: core.DomainObservatory, Tier: core.TierLenient},
		Fields: observatoryFields,
		Rules:  []core.CrossFieldRule{core.CoordinateRule("latitude", "longitude")},
	}
	core.Register(base)
	core.Register(base.Derive(core.TierSemiStrict,
		core.Require("project_name", "latitude", "longitude", "geo_loc_name",
			"organization", "contact_name", "contact_email"),
	))
	core.Register(base.Derive(core.TierStrict,
		core.RequireAllExcept("wa_id", "extra_site_info",
			"ENA_accession_number_umbrella", "ENA_accession_number_project"),
		core.NarrowTo(core.TypeInt, "loc_loc_mrgid", "organization_edmoid"),
	))
}

// observatoriesFields is the per-site summary sheet. Its headers changed
// several times, including two misspellings that are still in use.
var observatoriesFields = []core.FieldSpec{
	{Name: "country_code", Accept: core.TypeText},
	{Name: "country", Accept: core.TypeText},
	{
		Name:    "observatory_name",
		Aliases: []string{"EMOBON_observatory_name", "observatory_name"},
		Accept:  core.TypeText,
	},
	{
		Name:     "observatory_id",
		Aliases:  []string{"EMOBON_observatory_id", "observatory_id"},
		Accept:   core.TypeText,
		Required: true,
	},
	{
		Name:    "start_date",
		Aliases: []string{"startdate", "start_date"},
		Accept:  core.TypeDate,
		Coerce:  core.ToDayFirstDate,
	},
	{
		Name:    "end_date",
		Aliases: []string{"enddate", "end_date"},
		Accept:  core.TypeDate,
		Coerce:  core.ToDayFirstDate,
	},
	{
		Name:    "water_column",
		Aliases: []string{"Water_Column", "water_column"},
		Accept:  core.TypeBool,
		Coerce:  core.ToYesNo,
	},
	{
		Name:    "soft_substrates",
		Aliases: []string{"Soft_Substrates", "soft_substrates"},
		Accept:  core.TypeBool,
		Coerce:  core.ToYesNo,
	},
	{
		Name:    "hard_substrates",
		Aliases: []string{"Hard_Substrates", "hard_substrates"},
		Accept:  core.TypeBool,
		Coerce:  core.ToYesNo,
	},
	{Name: "water_site_latitude", Accept: core.TypeFloat},
	{Name: "water_site_longitude", Accept: core.TypeFloat},
	{Name: "sediment_site_latitude", Accept: core.TypeFloat},
	{
		Name:    "sediment_site_longitude",
		Aliases: []string{"sediment_site_longtitude", "sediment_site_longitude"},
		Accept:  core.TypeFloat,
	},
	{Name: "hard_substrates_site1_latitude", Accept: core.TypeFloat},
	{Name: "hard_substrates_site1_longitude", Accept: core.TypeFloat},
	{Name: "hard_substrates_site2_latitude", Accept: core.TypeFloat},
	{
		Name:    "hard_substrates_site2_longitude",
		Aliases: []string{"hard_substrates_site2_longtitude", "hard_substrates_site2_longitude"},
		Accept:  core.TypeFloat,
	},
	{
		Name:    "contact_person",
		Aliases: []string{"contect person", "contact_person"},
		Accept:  core.TypeText,
	},
	{
		Name:    "contact_person_email",
		Aliases: []string{"contact person email", "contact_person_email"},
		Accept:  core.TypeText,
	},
	{
		Name:    "ena_accession_number_umbrella",
		Aliases: []string{"ENA_accession_number_umbrella", "ena_accession_number_umbrella"},
		Accept:  core.TypeText,
	},
	{
		Name:    "ena_accession_number_project",
		Aliases: []string{"ENA_accession_number_project", "ena_accession_number_project"},
		Accept:  core.TypeText,
	},
	{
		Name:    "core",
		Aliases: []string{"EMOBON_core", "core"},
		Accept:  core.TypeBool,
		Coerce:  core.ToYesNo,
	},
}

// observatoriesRequired is the sheet's own required column set.
var observatoriesRequired = []string{
	"country_code",
	"country",
	"observatory_name",
	"observatory_id",
	"start_date",
	"water_column",
	"soft_substrates",
	"hard_substrates",
	"contact_person",
	"contact_person_email",
	"core",
}

func registerObservatories() {
	base := core.Profile{
		Key:    core.ProfileKey{Domain: core.DomainObservatories, Tier: core.TierLenient},
		Fields: observatoriesFields,
		Rules: []core.CrossFieldRule{
			core.DateOrderRule("start_date", "end_date"),
			core.CoordinateRule("water_site_latitude", "water_site_longitude"),
			core.CoordinateRule("sediment_site_latitude", "sediment_site_longitude"),
			core.CoordinateRule("hard_substrates_site1_latitude", "hard_substrates_site1_longitude"),
			core.CoordinateRule("hard_substrates_site2_latitude", "hard_substrates_site2_longitude"),
		},
	}
	core.Register(base)
	core.Register(base.Derive(core.TierSemiStrict,
		core.Require(observatoriesRequired...),
	))
	core.Register(base.Derive(core.TierStrict,
		core.Require(observatoriesRequired...),
		core.Require("ena_accession_number_umbrella", "ena_accession_number_project"),
	))
}
