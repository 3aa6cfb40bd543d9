package draft

import (
	"encoding/json"
	"strings"
	"time"

	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/catalog"
)

// MaxCombinations caps the size of the cartesian product of variation parameters.
const MaxCombinations = 100

// VariationInput carries the parameter lists of every family; each family accepts its own
// subset. A nil list means the parameter was not supplied.
type VariationInput struct {
	Size       []string           `json:"size,omitempty"`
	Color      []string           `json:"color,omitempty"`
	Flavor     []string           `json:"flavor,omitempty"`
	DosageForm catalog.DosageForm `json:"dosage_form,omitempty"`
	PackSize   []int              `json:"pack_size,omitempty"`
	Strength   []string           `json:"strength,omitempty"`
	Age        []string           `json:"age,omitempty"`
}

// familySchema owns the variation and detail rules of one category family.
type familySchema interface {
	// variations validates in and returns the normalized parameter lists and any detail
	// attributes the parameters imply.
	variations(in VariationInput) (map[string][]string, Attributes, error)
	// details validates a detail payload against the draft.
	details(d Draft, raw json.RawMessage, now time.Time) (Attributes, error)
}

func schemaFor(f catalog.Family) familySchema {
	switch f {
	case catalog.FamilyClothing:
		return clothingSchema{}
	case catalog.FamilyMedical:
		return medicalSchema{}
	default:
		return genericSchema{}
	}
}

// SetVariations validates the variation parameters for the draft's family and expands them
// into the addressable set of combinations. Offers attached to a previous set are dropped.
// Attributes the parameters imply (the medical dosage form) are kept with the set.
func SetVariations(d Draft, in VariationInput) (Draft, error) {
	id, err := requireIdentity(d)
	if err != nil {
		return Draft{}, err
	}
	if !id.HasVariations {
		return Draft{}, apperrors.Permission("product identity was set without variations").WithCode("VARIATIONS_NOT_ALLOWED")
	}

	params, implied, err := schemaFor(id.Family).variations(in)
	if err != nil {
		return Draft{}, err
	}
	if len(params) == 0 {
		return Draft{}, apperrors.Validation("at least one variation parameter is required")
	}
	if n := combinationCount(params); n > MaxCombinations {
		return Draft{}, apperrors.Validation("%d combinations exceed the limit of %d", n, MaxCombinations)
	}

	out := d.Clone()
	out.Variations = &VariationSet{
		Params:   params,
		Possible: GenerateVariations(id.Family.VariationFields(), params),
		Implied:  implied,
	}
	out.Offers = nil
	return out, nil
}

// GenerateVariations returns the cartesian product of params as themes with ids 1..N. Fields
// are combined in the given order and fields absent from params are skipped; the last field
// varies fastest.
func GenerateVariations(fields []string, params map[string][]string) map[int]Theme {
	var names []string
	for _, f := range fields {
		if len(params[f]) > 0 {
			names = append(names, f)
		}
	}
	out := map[int]Theme{}
	if len(names) == 0 {
		return out
	}

	idx := make([]int, len(names))
	for id := 1; ; id++ {
		theme := make(Theme, len(names))
		for i, name := range names {
			theme[name] = params[name][idx[i]]
		}
		out[id] = theme

		// advance the odometer
		pos := len(names) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(params[names[pos]]) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			return out
		}
	}
}

func combinationCount(params map[string][]string) int {
	n := 1
	for _, v := range params {
		n *= len(v)
	}
	return n
}

// checkList trims the entries of a supplied parameter list and enforces at least two distinct
// entries.
func checkList(c *apperrors.Collector, field string, values []string) []string {
	if len(values) < 2 {
		c.Add(field, "must have at least 2 entries")
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			c.Add(field, "entries must not be empty")
			return nil
		}
		if len(v) > 100 {
			c.Add(field, "entries must be at most 100 characters")
			return nil
		}
		if seen[v] {
			c.Add(field, "entries must be unique, %q repeats", v)
			return nil
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// rejectForeign flags parameters that the family does not vary on.
func rejectForeign(c *apperrors.Collector, in VariationInput, allowed ...string) {
	supplied := map[string]bool{
		catalog.AttrSize:       in.Size != nil,
		catalog.AttrColor:      in.Color != nil,
		catalog.AttrFlavor:     in.Flavor != nil,
		catalog.AttrDosageForm: in.DosageForm != "",
		catalog.AttrPackSize:   in.PackSize != nil,
		catalog.AttrStrength:   in.Strength != nil,
		catalog.AttrAge:        in.Age != nil,
	}
	ok := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		ok[a] = true
	}
	for _, name := range []string{
		catalog.AttrSize, catalog.AttrColor, catalog.AttrFlavor, catalog.AttrDosageForm,
		catalog.AttrPackSize, catalog.AttrStrength, catalog.AttrAge,
	} {
		if supplied[name] && !ok[name] {
			c.Add(name, "is not a variation parameter for this category")
		}
	}
}
