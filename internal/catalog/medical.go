package catalog

import (
	"fmt"
	"strings"
)

type DosageForm string

const (
	DosageTablet      DosageForm = "tablet"
	DosageCapsule     DosageForm = "capsule"
	DosageSyrup       DosageForm = "syrup"
	DosageSuspension  DosageForm = "suspension"
	DosageInjection   DosageForm = "injection"
	DosageCream       DosageForm = "cream"
	DosageOintment    DosageForm = "ointment"
	DosageGel         DosageForm = "gel"
	DosagePowder      DosageForm = "powder"
	DosageSolution    DosageForm = "solution"
	DosageDrops       DosageForm = "drops"
	DosageInhaler     DosageForm = "inhaler"
	DosagePatch       DosageForm = "patch"
	DosageSuppository DosageForm = "suppository"
	DosageLozenge     DosageForm = "lozenge"
	DosageSpray       DosageForm = "spray"
	DosageGas         DosageForm = "gas"
	DosageLiquid      DosageForm = "liquid"
	DosageGranule     DosageForm = "granule"
	DosageElixir      DosageForm = "elixir"
	DosageEmulsion    DosageForm = "emulsion"
	DosageFoam        DosageForm = "foam"
	DosageJelly       DosageForm = "jelly"
	DosageImplant     DosageForm = "implant"
	DosageKit         DosageForm = "kit"
	DosageAerosol     DosageForm = "aerosol"
	DosagePaste       DosageForm = "paste"
	DosageOther       DosageForm = "other"
)

// UnitFamily is the physical state a dosage form's size or strength must be expressed in.
type UnitFamily int

const (
	UnitsAny UnitFamily = iota
	UnitsMass
	UnitsLiquid
)

type dosageInfo struct {
	units  UnitFamily
	plural string // countable noun plural; empty when the form is counted in items
}

var dosageForms = map[DosageForm]dosageInfo{
	DosageTablet:      {UnitsAny, "tablets"},
	DosageCapsule:     {UnitsAny, "capsules"},
	DosageGranule:     {UnitsAny, "granules"},
	DosageLozenge:     {UnitsAny, "lozenges"},
	DosageSuppository: {UnitsAny, "suppositories"},
	DosageSyrup:       {UnitsLiquid, ""},
	DosageSuspension:  {UnitsLiquid, ""},
	DosageSolution:    {UnitsLiquid, ""},
	DosageElixir:      {UnitsLiquid, ""},
	DosageEmulsion:    {UnitsLiquid, ""},
	DosageDrops:       {UnitsLiquid, ""},
	DosageLiquid:      {UnitsLiquid, ""},
	DosageInjection:   {UnitsLiquid, ""},
	DosageOintment:    {UnitsMass, ""},
	DosageGel:         {UnitsMass, ""},
	DosagePowder:      {UnitsMass, ""},
	DosageFoam:        {UnitsMass, ""},
	DosagePaste:       {UnitsMass, ""},
	DosageCream:       {UnitsMass, ""},
	DosageInhaler:     {UnitsAny, ""},
	DosagePatch:       {UnitsAny, ""},
	DosageSpray:       {UnitsAny, ""},
	DosageGas:         {UnitsAny, ""},
	DosageJelly:       {UnitsAny, ""},
	DosageImplant:     {UnitsAny, ""},
	DosageKit:         {UnitsAny, ""},
	DosageAerosol:     {UnitsAny, ""},
	DosageOther:       {UnitsAny, ""},
}

func (d DosageForm) Valid() bool {
	_, ok := dosageForms[d]
	return ok
}

func (d DosageForm) Units() UnitFamily {
	return dosageForms[d].units
}

// PackLabel renders a pack size with the form's countable noun: "1 tablet", "3 tablets",
// "1 item", "6 items".
func (d DosageForm) PackLabel(n int) string {
	info := dosageForms[d]
	if info.plural == "" {
		if n == 1 {
			return "1 item"
		}
		return fmt.Sprintf("%d items", n)
	}
	if n == 1 {
		return fmt.Sprintf("1 %s", d)
	}
	return fmt.Sprintf("%d %s", n, info.plural)
}

var (
	MassUnits   = []string{"mg", "g", "mcg"}
	LiquidUnits = []string{"ml", "l", "liter", "fl oz"}
)

// AllowsUnit reports whether unit is acceptable for the unit family. Units compare
// case-insensitively, so "mL" is a liquid unit.
func (u UnitFamily) AllowsUnit(unit string) bool {
	unit = strings.ToLower(unit)
	var allowed []string
	switch u {
	case UnitsMass:
		allowed = MassUnits
	case UnitsLiquid:
		allowed = LiquidUnits
	default:
		return true
	}
	for _, a := range allowed {
		if a == unit {
			return true
		}
	}
	return false
}

func (u UnitFamily) String() string {
	switch u {
	case UnitsMass:
		return "mass"
	case UnitsLiquid:
		return "liquid"
	default:
		return "any"
	}
}

var ageBuckets = map[string]bool{
	"newborn":  true,
	"infant":   true,
	"toddler":  true,
	"child":    true,
	"teenager": true,
	"adult":    true,
	"senior":   true,
	"all_ages": true,
}

func IsAgeBucket(s string) bool {
	return ageBuckets[s]
}

const MaxAge = 120
