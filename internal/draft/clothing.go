package draft

import (
	"encoding/json"
	"time"

	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/catalog"
)

type clothingSchema struct{}

func (clothingSchema) variations(in VariationInput) (map[string][]string, Attributes, error) {
	var c apperrors.Collector
	rejectForeign(&c, in, catalog.AttrSize, catalog.AttrColor)
	params := map[string][]string{}
	if in.Size != nil {
		if v := checkList(&c, catalog.AttrSize, in.Size); v != nil {
			params[catalog.AttrSize] = v
		}
	}
	if in.Color != nil {
		if v := checkList(&c, catalog.AttrColor, in.Color); v != nil {
			params[catalog.AttrColor] = v
		}
	}
	if err := c.Err("invalid variation parameters"); err != nil {
		return nil, nil, err
	}
	return params, nil, nil
}

type clothingDetails struct {
	Size        *string `json:"size" validate:"omitempty,max=100"`
	Color       *string `json:"color" validate:"omitempty,max=500"`
	Fit         *string `json:"fit" validate:"omitempty,max=100"`
	Material    *string `json:"material" validate:"omitempty,max=100"`
	Neckline    *string `json:"neckline" validate:"omitempty,max=100"`
	SleeveLen   *string `json:"sleeve_length" validate:"omitempty,max=100"`
	ClosureType *string `json:"closure_type" validate:"omitempty,max=100"`
	Style       *string `json:"style" validate:"omitempty,max=100"`
}

func (clothingSchema) details(d Draft, raw json.RawMessage, _ time.Time) (Attributes, error) {
	var in clothingDetails
	if err := decodeStrict(raw, &in); err != nil {
		return nil, err
	}
	var c apperrors.Collector
	c.Merge(validateStruct(in), "details")
	dropCovered(&c, d, map[string]bool{
		catalog.AttrSize:  in.Size != nil,
		catalog.AttrColor: in.Color != nil,
	})
	if !d.HasParam(catalog.AttrSize) {
		requireString(&c, "size", in.Size)
	}
	if !d.HasParam(catalog.AttrColor) {
		requireString(&c, "color", in.Color)
	}
	requireString(&c, "fit", in.Fit)
	requireString(&c, "material", in.Material)
	requireString(&c, "neckline", in.Neckline)
	requireString(&c, "sleeve_length", in.SleeveLen)
	requireString(&c, "closure_type", in.ClosureType)
	requireString(&c, "style", in.Style)
	if err := c.Err("invalid clothing details"); err != nil {
		return nil, err
	}

	attrs := Attributes{}
	putString(attrs, "size", in.Size)
	putString(attrs, "color", in.Color)
	putString(attrs, "fit", in.Fit)
	putString(attrs, "material", in.Material)
	putString(attrs, "neckline", in.Neckline)
	putString(attrs, "sleeve_length", in.SleeveLen)
	putString(attrs, "closure_type", in.ClosureType)
	putString(attrs, "style", in.Style)
	return attrs, nil
}
