package catalog

// Family groups categories that share one variation and detail schema.
type Family string

const (
	FamilyClothing Family = "clothing"
	FamilyMedical  Family = "medical"
	FamilyGeneric  Family = "generic"
)

func (f Family) Valid() bool {
	switch f {
	case FamilyClothing, FamilyMedical, FamilyGeneric:
		return true
	}
	return false
}

// Variation attribute names. The order of VariationFields is the order of the cartesian product.
const (
	AttrSize       = "size"
	AttrColor      = "color"
	AttrFlavor     = "flavor"
	AttrPackSize   = "pack_size"
	AttrStrength   = "strength"
	AttrAge        = "age"
	AttrDosageForm = "dosage_form"
)

func (f Family) VariationFields() []string {
	switch f {
	case FamilyClothing:
		return []string{AttrSize, AttrColor}
	case FamilyMedical:
		return []string{AttrPackSize, AttrStrength, AttrSize, AttrAge}
	default:
		return []string{AttrSize, AttrFlavor}
	}
}
