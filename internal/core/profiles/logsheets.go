package profiles

import "github.com/JonMunkholm/sheetnorm/internal/core"

func init() {
	registerLogsheets()
}

// logsheetsFields is the logsheet assignment status sheet: one row per
// observatory, linking its sampling sheets and QC assignment.
var logsheetsFields = []core.FieldSpec{
	{
		Name:     "country",
		Aliases:  []string{"EMBRC Node", "country"},
		Accept:   core.TypeText,
		Required: true,
	},
	{
		Name:     "institute",
		Aliases:  []string{"EMBRC Site", "institute"},
		Accept:   core.TypeText,
		Required: true,
	},
	{
		Name:     "observatory_id",
		Aliases:  []string{"EMOBON_observatory_id", "observatory_id"},
		Accept:   core.TypeText,
		Required: true,
	},
	{
		Name:    "water_column",
		Aliases: []string{"Water Column", "water_column"},
		Accept:  core.TypeText,
		Coerce:  core.ToHTTPURL,
	},
	{
		Name:    "soft_sediment",
		Aliases: []string{"Soft sediment", "soft_sediemnt", "soft_sediment"},
		Accept:  core.TypeText,
		Coerce:  core.ToHTTPURL,
	},
	{Name: "data_quality_control_threshold_date", Accept: core.TypeTimestamp, Coerce: core.ToTimestamp},
	{Name: "data_quality_control_assignee", Accept: core.TypeText},
	{Name: "rocrate_profile_uri", Accept: core.TypeText, Coerce: core.ToHTTPURL},
	{Name: "autogenerate", Accept: core.TypeBool},
}

func registerLogsheets() {
	base := core.Profile{
		Key:    core.ProfileKey{Domain: core.DomainLogsheets, Tier: core.TierLenient},
		Fields: logsheetsFields,
	}
	core.Register(base)
	core.Register(base.Derive(core.TierSemiStrict,
		core.Require("rocrate_profile_uri", "autogenerate"),
	))
	core.Register(base.Derive(core.TierStrict,
		core.Require("rocrate_profile_uri", "autogenerate",
			"data_quality_control_threshold_date", "data_quality_control_assignee"),
	))
}
