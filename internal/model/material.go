package model

// MaterialType is the fixed taxonomy diverted material is billed under
type MaterialType string

const (
	MaterialConcrete         MaterialType = "concrete"
	MaterialAsphalt          MaterialType = "asphalt"
	MaterialMetalFerrous     MaterialType = "metal_ferrous"
	MaterialMetalNonferrous  MaterialType = "metal_nonferrous"
	MaterialWoodClean        MaterialType = "wood_clean"
	MaterialWoodTreated      MaterialType = "wood_treated"
	MaterialCardboard        MaterialType = "cardboard"
	MaterialPaper            MaterialType = "paper"
	MaterialPlastic          MaterialType = "plastic"
	MaterialGlass            MaterialType = "glass"
	MaterialDrywall          MaterialType = "drywall"
	MaterialInsulation       MaterialType = "insulation"
	MaterialRoofing          MaterialType = "roofing"
	MaterialBrickMasonry     MaterialType = "brick_masonry"
	MaterialSoilLandClearing MaterialType = "soil_land_clearing"
	MaterialMixedCND         MaterialType = "mixed_c_and_d"
	MaterialHazardous        MaterialType = "hazardous"
	MaterialOther            MaterialType = "other"
)

// MaterialTypes returns the full taxonomy in declaration order. The order is
// load-bearing: the classifier breaks keyword-score ties by it.
func MaterialTypes() []MaterialType {
	return []MaterialType{
		MaterialConcrete,
		MaterialAsphalt,
		MaterialMetalFerrous,
		MaterialMetalNonferrous,
		MaterialWoodClean,
		MaterialWoodTreated,
		MaterialCardboard,
		MaterialPaper,
		MaterialPlastic,
		MaterialGlass,
		MaterialDrywall,
		MaterialInsulation,
		MaterialRoofing,
		MaterialBrickMasonry,
		MaterialSoilLandClearing,
		MaterialMixedCND,
		MaterialHazardous,
		MaterialOther,
	}
}
