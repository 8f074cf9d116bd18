package profiles

import "github.com/JonMunkholm/sheetnorm/internal/core"

func init() {
	registerMeasured()
}

// measuredFields is the measured parameters sheet. Several parameters are
// not taken for soft sediments and are simply left empty there.
var measuredFields = []core.FieldSpec{
	{
		Name:     "source_mat_id",
		Aliases:  []string{"source_mat_id", "source_material_id"},
		Accept:   core.TypeText,
		Required: true,
		Coerce:   core.ToText,
	},
	measurement("chlorophyll", core.ToMeasurement),
	method("chlorophyll_method"),
	measurement("sea_surf_temp", nil),
	method("sea_surf_temp_method"),
	measurement("sea_subsurf_temp", core.ToCommaDecimal),
	method("sea_subsurf_temp_method"),
	measurement("sea_surf_salinity", core.ToMeasurement),
	method("sea_surf_salinity_method"),
	measurement("sea_subsurf_salinity", core.ToMeasurement),
	method("sea_subsurf_salinity_method"),
	method("alkalinity"),
	method("alkalinity_method"),
	measurement("ammonium", nil),
	method("ammonium_method"),
	method("bac_prod"),
	method("bac_prod_method"),
	method("biomass"),
	method("biomass_method"),
	method("chem_administration"),
	measurement("conduc", core.ToLocaleDecimal),
	method("conduc_method"),
	measurement("density", core.ToMeasurement),
	method("density_method"),
	method("diss_carb_dioxide"),
	method("diss_carb_dioxide_method"),
	method("diss_inorg_carb"),
	method("diss_inorg_carb_method"),
	method("diss_org_carb"),
	method("diss_org_carb_method"),
	method("diss_org_nitro"),
	method("diss_org_nitro_method"),
	measurement("down_par", nil),
	method("down_par_method"),
	measurement("diss_oxygen", core.ToMeasurement),
	method("diss_oxygen_method"),
	method("n_alkanes"),
	method("n_alkanes_method"),
	measurement("nitrate", nil),
	method("nitrate_method"),
	measurement("nitrite", nil),
	method("nitrite_method"),
	method("organism_count"),
	method("organism_count_method"),
	measurement("ph", core.ToCommaDecimal),
	method("ph_method"),
	method("part_org_carb"),
	method("part_org_carb_method"),
	method("part_org_nitro"),
	method("part_org_nitro_method"),
	method("petroleum_hydrocarb"),
	method("petroleum_hydrocarb_method"),
	measurement("phaeopigments", nil),
	method("phaeopigments_method"),
	measurement("phosphate", core.ToMeasurement),
	method("phosphate_method"),
	measurement("pigments", core.ToMeasurement),
	method("pigments_method"),
	measurement("pressure", core.ToMeasurement),
	method("pressure_method"),
	method("primary_prod"),
	method("primary_prod_method"),
	measurement("silicate", nil),
	method("silicate_method"),
	method("sulfate"),
	method("sulfate_method"),
	method("sulfide"),
	method("sulfide_method"),
	measurement("turbidity", nil),
	method("turbidity_method"),
	method("water_current"),
	method("water_current_method"),
}

// measuredCore are the physico-chemical parameters every site reports.
var measuredCore = []string{
	"sea_surf_temp",
	"chlorophyll",
	"ph",
	"diss_oxygen",
	"nitrate",
	"phosphate",
	"silicate",
}

func measurement(name string, c core.Coercer) core.FieldSpec {
	return core.FieldSpec{Name: name, Accept: core.TypeFloat, Coerce: c}
}

func method(name string) core.FieldSpec {
	return core.FieldSpec{Name: name, Accept: core.TypeText}
}

func registerMeasured() {
	base := core.Profile{
		Key:    core.ProfileKey{Domain: core.DomainMeasured, Tier: core.TierLenient},
		Fields: measuredFields,
	}

	methods := make([]string, len(measuredCore))
	for i, n := range measuredCore {
		methods[i] = n + "_method"
	}

	core.Register(base)
	core.Register(base.Derive(core.TierSemiStrict,
		core.Require(measuredCore...),
	))
	core.Register(base.Derive(core.TierStrict,
		core.Require(measuredCore...),
		core.Require(methods...),
	))
}
