package draft

import (
	"marketplace-service/internal/apperrors"
)

// CheckPublishable reports the stages a draft still lacks before it can become a product.
func CheckPublishable(d Draft) error {
	var c apperrors.Collector
	if d.Identity == nil {
		c.Add("identity", "is missing")
	} else if d.Identity.HasVariations && (d.Variations == nil || len(d.Variations.Possible) == 0) {
		c.Add("variations", "are missing")
	}
	switch {
	case len(d.Offers) == 0:
		c.Add("offers", "are missing")
	default:
		if _, ok := d.DefaultOffer(); !ok {
			c.Add("offers", "have no default offer")
		}
	}
	if d.Description == nil {
		c.Add("description", "is missing")
	}
	if len(d.Details) == 0 {
		c.Add("details", "are missing")
	}
	if c.Empty() {
		return nil
	}

	// An incomplete draft is not a malformed request: the seller is not yet allowed to publish.
	verr, _ := apperrors.As(c.Err("draft is incomplete"))
	perr := apperrors.Permission("draft is incomplete").WithCode("DRAFT_INCOMPLETE")
	perr.Fields = verr.Fields
	return perr
}
