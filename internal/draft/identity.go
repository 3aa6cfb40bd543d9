package draft

import (
	"strings"

	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/catalog"
)

type IdentityInput struct {
	ItemName      string           `json:"item_name" validate:"notblank,max=100"`
	Category      catalog.Category `json:"category" validate:"required"`
	Brand         catalog.Brand    `json:"brand" validate:"required"`
	HasVariations bool             `json:"has_variations"`
}

// SetIdentity starts a new draft from the product identity. Whatever the previous draft held
// is discarded.
func SetIdentity(_ Draft, in IdentityInput) (Draft, error) {
	var c apperrors.Collector
	c.Merge(validateStruct(in), "identity")
	if in.Category != "" && !in.Category.Valid() {
		c.Add("category", "%q is not a valid category", in.Category)
	}
	if in.Brand != "" && !in.Brand.Valid() {
		c.Add("brand", "%q is not a valid brand", in.Brand)
	}
	if err := c.Err("invalid product identity"); err != nil {
		return Draft{}, err
	}

	return Draft{
		Identity: &Identity{
			ItemName:      strings.TrimSpace(in.ItemName),
			Category:      in.Category,
			Brand:         in.Brand,
			HasVariations: in.HasVariations,
			TaxCode:       catalog.TaxCode(in.Category),
			Family:        in.Category.Family(),
		},
	}, nil
}

func requireIdentity(d Draft) (*Identity, error) {
	if d.Identity == nil {
		return nil, apperrors.Validation("set the product identity first").WithCode("IDENTITY_REQUIRED")
	}
	return d.Identity, nil
}
