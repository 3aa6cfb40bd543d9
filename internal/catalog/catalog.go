package catalog

// Category is the product type chosen at identity time.
type Category string

const (
	CategoryOTCDrugs          Category = "over_the_counter_drugs"
	CategoryPrescriptionDrugs Category = "prescription_drugs"
	CategoryMedicalSupplies   Category = "medical_supplies"
	CategoryClothes           Category = "clothes"
	CategoryTShirt            Category = "tshirt"
	CategoryShoes             Category = "shoes"
	CategoryElectronics       Category = "electronics"
	CategoryFurniture         Category = "furniture"
	CategoryBooks             Category = "books"
	CategoryToys              Category = "toys"
	CategoryAccessories       Category = "accessories"
	CategorySportsClothes     Category = "sports_clothes"
	CategorySportsShoes       Category = "sports_shoes"
	CategoryJewelry           Category = "jewelry"
	CategoryBeauty            Category = "beauty"
	CategoryAutomotive        Category = "automotive"
	CategoryPetSupplies       Category = "pet_supplies"
	CategoryHomeAppliances    Category = "home_appliances"
	CategoryGeneric           Category = "generic"
	CategorySmartphone        Category = "smartphone"
	CategoryLaptop            Category = "laptop"
)

var categories = map[Category]Family{
	CategoryOTCDrugs:          FamilyMedical,
	CategoryPrescriptionDrugs: FamilyMedical,
	CategoryMedicalSupplies:   FamilyMedical,
	CategoryClothes:           FamilyClothing,
	CategoryTShirt:            FamilyClothing,
	CategoryShoes:             FamilyClothing,
	CategorySportsClothes:     FamilyClothing,
	CategorySportsShoes:       FamilyClothing,
	CategoryElectronics:       FamilyGeneric,
	CategoryFurniture:         FamilyGeneric,
	CategoryBooks:             FamilyGeneric,
	CategoryToys:              FamilyGeneric,
	CategoryAccessories:       FamilyGeneric,
	CategoryJewelry:           FamilyGeneric,
	CategoryBeauty:            FamilyGeneric,
	CategoryAutomotive:        FamilyGeneric,
	CategoryPetSupplies:       FamilyGeneric,
	CategoryHomeAppliances:    FamilyGeneric,
	CategoryGeneric:           FamilyGeneric,
	CategorySmartphone:        FamilyGeneric,
	CategoryLaptop:            FamilyGeneric,
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Family returns the schema family of the category. Unknown categories map to generic.
func (c Category) Family() Family {
	if f, ok := categories[c]; ok {
		return f
	}
	return FamilyGeneric
}

// Tax codes used by the payment provider's tax engine.
const (
	TaxCodeOTCDrugs          = "txcd_32020002"
	TaxCodePrescriptionDrugs = "txcd_32020001"
	TaxCodeMedicalSupplies   = "txcd_32070028"
	TaxCodeClothing          = "txcd_30011000"
	DefaultTaxCode           = TaxCodeOTCDrugs
)

var taxCodes = map[Category]string{
	CategoryOTCDrugs:          TaxCodeOTCDrugs,
	CategoryPrescriptionDrugs: TaxCodePrescriptionDrugs,
	CategoryMedicalSupplies:   TaxCodeMedicalSupplies,
	CategoryClothes:           TaxCodeClothing,
	CategoryTShirt:            TaxCodeClothing,
	CategoryShoes:             TaxCodeClothing,
}

func TaxCode(c Category) string {
	if code, ok := taxCodes[c]; ok {
		return code
	}
	return DefaultTaxCode
}

type Brand string

const (
	BrandGeneric    Brand = "generic"
	BrandEva        Brand = "eva"
	BrandGlobalNapi Brand = "global_napi"
	BrandApex       Brand = "apex"
)

func (b Brand) Valid() bool {
	switch b {
	case BrandGeneric, BrandEva, BrandGlobalNapi, BrandApex:
		return true
	}
	return false
}

type Condition string

const (
	ConditionNew         Condition = "new"
	ConditionUsed        Condition = "used"
	ConditionRefurbished Condition = "refurbished"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionRefurbished:
		return true
	}
	return false
}

// Fulfillment is the channel that ships an offer.
type Fulfillment string

const (
	FulfilledBySeller   Fulfillment = "seller"
	FulfilledByPlatform Fulfillment = "platform"
)

func (f Fulfillment) Valid() bool {
	return f == FulfilledBySeller || f == FulfilledByPlatform
}

// Categories lists every category, in declaration order.
func Categories() []Category {
	return []Category{
		CategoryOTCDrugs, CategoryPrescriptionDrugs, CategoryMedicalSupplies,
		CategoryClothes, CategoryTShirt, CategoryShoes, CategoryElectronics,
		CategoryFurniture, CategoryBooks, CategoryToys, CategoryAccessories,
		CategorySportsClothes, CategorySportsShoes, CategoryJewelry, CategoryBeauty,
		CategoryAutomotive, CategoryPetSupplies, CategoryHomeAppliances,
		CategoryGeneric, CategorySmartphone, CategoryLaptop,
	}
}
