package draft

import (
	"encoding/json"
	"time"

	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/catalog"
)

type genericSchema struct{}

func (genericSchema) variations(in VariationInput) (map[string][]string, Attributes, error) {
	var c apperrors.Collector
	rejectForeign(&c, in, catalog.AttrSize, catalog.AttrFlavor)
	params := map[string][]string{}
	if in.Size != nil {
		if v := checkList(&c, catalog.AttrSize, in.Size); v != nil {
			params[catalog.AttrSize] = v
		}
	}
	if in.Flavor != nil {
		if v := checkList(&c, catalog.AttrFlavor, in.Flavor); v != nil {
			params[catalog.AttrFlavor] = v
		}
	}
	if err := c.Err("invalid variation parameters"); err != nil {
		return nil, nil, err
	}
	return params, nil, nil
}

type genericDetails struct {
	Size     *string `json:"size" validate:"omitempty,notblank,max=100"`
	Flavor   *string `json:"flavor" validate:"omitempty,notblank,max=100"`
	Color    *string `json:"color" validate:"omitempty,notblank,max=100"`
	Material *string `json:"material" validate:"omitempty,notblank,max=100"`
}

func (genericSchema) details(d Draft, raw json.RawMessage, _ time.Time) (Attributes, error) {
	var in genericDetails
	if err := decodeStrict(raw, &in); err != nil {
		return nil, err
	}
	var c apperrors.Collector
	c.Merge(validateStruct(in), "details")
	dropCovered(&c, d, map[string]bool{
		catalog.AttrSize:   in.Size != nil,
		catalog.AttrFlavor: in.Flavor != nil,
	})
	if err := c.Err("invalid product details"); err != nil {
		return nil, err
	}

	attrs := Attributes{}
	putString(attrs, "size", in.Size)
	putString(attrs, "flavor", in.Flavor)
	putString(attrs, "color", in.Color)
	putString(attrs, "material", in.Material)
	if len(attrs) == 0 {
		return nil, apperrors.Validation("at least one product detail is required")
	}
	return attrs, nil
}
