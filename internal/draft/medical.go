package draft

import (
	"encoding/json"
	"strings"
	"time"

	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/catalog"
)

type medicalSchema struct{}

func (medicalSchema) variations(in VariationInput) (map[string][]string, Attributes, error) {
	var c apperrors.Collector
	rejectForeign(&c, in, catalog.AttrDosageForm, catalog.AttrPackSize, catalog.AttrStrength,
		catalog.AttrSize, catalog.AttrAge)

	form := in.DosageForm
	switch {
	case form == "":
		c.Add(catalog.AttrDosageForm, "is required")
	case !form.Valid():
		c.Add(catalog.AttrDosageForm, "%q is not a valid dosage form", form)
	}

	params := map[string][]string{}
	if in.PackSize != nil {
		if len(in.PackSize) < 2 {
			c.Add(catalog.AttrPackSize, "must have at least 2 entries")
		} else if labels, err := packLabels(form, in.PackSize); err != nil {
			c.Add(catalog.AttrPackSize, "%v", err)
		} else {
			params[catalog.AttrPackSize] = labels
		}
	}
	if in.Strength != nil {
		if v := checkList(&c, catalog.AttrStrength, in.Strength); v != nil {
			if err := checkQuantities(v, parseStrength, form); err != nil {
				c.Add(catalog.AttrStrength, "%v", err)
			} else {
				params[catalog.AttrStrength] = v
			}
		}
	}
	if in.Size != nil {
		if v := checkList(&c, catalog.AttrSize, in.Size); v != nil {
			if err := checkQuantities(v, parseSize, form); err != nil {
				c.Add(catalog.AttrSize, "%v", err)
			} else {
				params[catalog.AttrSize] = v
			}
		}
	}
	if in.Age != nil {
		if v := checkList(&c, catalog.AttrAge, in.Age); v != nil {
			var bad error
			for _, age := range v {
				if err := checkAge(age); err != nil {
					bad = err
					break
				}
			}
			if bad != nil {
				c.Add(catalog.AttrAge, "%v", bad)
			} else {
				params[catalog.AttrAge] = v
			}
		}
	}
	if err := c.Err("invalid variation parameters"); err != nil {
		return nil, nil, err
	}
	return params, Attributes{catalog.AttrDosageForm: string(form)}, nil
}

type medicalDetails struct {
	DosageForm         *catalog.DosageForm `json:"dosage_form"`
	PackSize           *int                `json:"pack_size"`
	Size               *string             `json:"size" validate:"omitempty,max=40"`
	Strength           *string             `json:"strength" validate:"omitempty,max=50"`
	Age                *string             `json:"age" validate:"omitempty,max=100"`
	GenericName        *string             `json:"generic_name" validate:"omitempty,max=100"`
	ActiveIngredients  []string            `json:"active_ingredients" validate:"required,min=1,max=10,dive,notblank,max=100"`
	Contraindications  *string             `json:"contraindications" validate:"omitempty,max=500"`
	SideEffects        *string             `json:"side_effects" validate:"omitempty,max=500"`
	Precautions        *string             `json:"precautions" validate:"omitempty,max=500"`
	Interactions       *string             `json:"interactions" validate:"omitempty,max=500"`
	StorageConditions  *string             `json:"storage_conditions" validate:"omitempty,max=500"`
	ExpiryDate         string              `json:"expiry_date" validate:"notblank,max=20"`
	Manufacturer       *string             `json:"manufacturer" validate:"omitempty,max=100"`
	RegulatoryApproval *string             `json:"regulatory_approval" validate:"omitempty,max=100"`
	PrescriptionStatus *string             `json:"prescription_status" validate:"omitempty,max=100"`
}

func (medicalSchema) details(d Draft, raw json.RawMessage, now time.Time) (Attributes, error) {
	var in medicalDetails
	if err := decodeStrict(raw, &in); err != nil {
		return nil, err
	}
	var c apperrors.Collector
	c.Merge(validateStruct(in), "details")
	dropCovered(&c, d, map[string]bool{
		catalog.AttrPackSize: in.PackSize != nil,
		catalog.AttrSize:     in.Size != nil,
		catalog.AttrStrength: in.Strength != nil,
		catalog.AttrAge:      in.Age != nil,
	})

	// Without variation parameters the dosage form is captured here; otherwise the variation
	// stage already recorded it.
	var form catalog.DosageForm
	if d.Variations == nil || len(d.Variations.Params) == 0 {
		switch {
		case in.DosageForm == nil || *in.DosageForm == "":
			c.Add(catalog.AttrDosageForm, "is required")
		case !in.DosageForm.Valid():
			c.Add(catalog.AttrDosageForm, "%q is not a valid dosage form", *in.DosageForm)
		default:
			form = *in.DosageForm
		}
	} else {
		if in.DosageForm != nil {
			c.Add(catalog.AttrDosageForm, "was set with the variation parameters")
		}
		if s, ok := d.Variations.Implied[catalog.AttrDosageForm].(string); ok {
			form = catalog.DosageForm(s)
		}
	}

	attrs := Attributes{}
	if in.DosageForm != nil && form != "" {
		attrs[catalog.AttrDosageForm] = string(form)
	}

	if !d.HasParam(catalog.AttrPackSize) {
		switch {
		case in.PackSize == nil:
			c.Add(catalog.AttrPackSize, "is required")
		case *in.PackSize < 1:
			c.Add(catalog.AttrPackSize, "must be a positive integer")
		default:
			attrs[catalog.AttrPackSize] = form.PackLabel(*in.PackSize)
		}
	}
	if in.Size != nil && !d.HasParam(catalog.AttrSize) {
		if q, err := parseSize(*in.Size); err != nil {
			c.Add(catalog.AttrSize, "%v", err)
		} else if err := checkUnitFamily(form, q); err != nil {
			c.Add(catalog.AttrSize, "%v", err)
		} else {
			attrs[catalog.AttrSize] = strings.TrimSpace(*in.Size)
		}
	}
	if in.Strength != nil && !d.HasParam(catalog.AttrStrength) {
		if q, err := parseStrength(*in.Strength); err != nil {
			c.Add(catalog.AttrStrength, "%v", err)
		} else if err := checkUnitFamily(form, q); err != nil {
			c.Add(catalog.AttrStrength, "%v", err)
		} else {
			attrs[catalog.AttrStrength] = strings.TrimSpace(*in.Strength)
		}
	}
	if !d.HasParam(catalog.AttrAge) {
		if in.Age == nil {
			c.Add(catalog.AttrAge, "is required")
		} else if err := checkAge(strings.TrimSpace(*in.Age)); err != nil {
			c.Add(catalog.AttrAge, "%v", err)
		} else {
			attrs[catalog.AttrAge] = strings.TrimSpace(*in.Age)
		}
	}
	if strings.TrimSpace(in.ExpiryDate) != "" {
		if iso, err := parseExpiry(in.ExpiryDate, now); err != nil {
			c.Add("expiry_date", "%v", err)
		} else {
			attrs["expiry_date"] = iso
		}
	}
	if err := c.Err("invalid medical details"); err != nil {
		return nil, err
	}

	ingredients := make([]any, len(in.ActiveIngredients))
	for i, v := range in.ActiveIngredients {
		ingredients[i] = strings.TrimSpace(v)
	}
	attrs["active_ingredients"] = ingredients
	putString(attrs, "generic_name", in.GenericName)
	putString(attrs, "contraindications", in.Contraindications)
	putString(attrs, "side_effects", in.SideEffects)
	putString(attrs, "precautions", in.Precautions)
	putString(attrs, "interactions", in.Interactions)
	putString(attrs, "storage_conditions", in.StorageConditions)
	putString(attrs, "manufacturer", in.Manufacturer)
	putString(attrs, "regulatory_approval", in.RegulatoryApproval)
	putString(attrs, "prescription_status", in.PrescriptionStatus)
	return attrs, nil
}
