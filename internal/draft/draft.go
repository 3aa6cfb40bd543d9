// Package draft holds the seller's in-progress product definition and the stages that build it.
// Every stage is a pure function from a draft and an input to a new draft; persistence and
// locking belong to the caller.
package draft

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
	"marketplace-service/internal/catalog"
)

// SingleOfferKey is the synthetic key of the only offer of a product without variations.
const SingleOfferKey = 1

// Draft is a product definition assembled across several requests.
type Draft struct {
	Identity    *Identity     `json:"identity,omitempty"`
	Variations  *VariationSet `json:"variations,omitempty"`
	Offers      map[int]Offer `json:"offers,omitempty"`
	Description *Description  `json:"description,omitempty"`
	Details     Attributes    `json:"details,omitempty"`
}

type Identity struct {
	ItemName      string           `json:"item_name"`
	Category      catalog.Category `json:"category"`
	Brand         catalog.Brand    `json:"brand"`
	HasVariations bool             `json:"has_variations"`
	TaxCode       string           `json:"tax_code"`
	Family        catalog.Family   `json:"family"`
}

// Theme is the attribute-value mapping of one variation, e.g. {"size": "M", "color": "red"}.
type Theme map[string]string

// VariationSet is the validated variation parameters and their expansion.
type VariationSet struct {
	Params   map[string][]string `json:"params"`
	Possible map[int]Theme       `json:"possible"`
	Implied  Attributes          `json:"implied,omitempty"`
}

type Offer struct {
	SKU             string              `json:"sku"`
	UPC             string              `json:"upc"`
	Price           decimal.Decimal     `json:"price"`
	DiscountedPrice *decimal.Decimal    `json:"discounted_price,omitempty"`
	Stock           int                 `json:"stock"`
	Condition       catalog.Condition   `json:"condition"`
	FulfilledBy     catalog.Fulfillment `json:"fulfilled_by"`
	Default         bool                `json:"default"`
	Theme           Theme               `json:"theme"`
}

type Description struct {
	Text         string   `json:"product_description"`
	BulletPoints []string `json:"bullet_points"`
}

// Attributes is the category-specific detail block.
type Attributes map[string]any

// IsEmpty reports whether no stage has written to the draft.
func (d Draft) IsEmpty() bool {
	return d.Identity == nil && d.Variations == nil && len(d.Offers) == 0 &&
		d.Description == nil && len(d.Details) == 0
}

// Clone returns a deep copy so stages never alias the caller's maps.
func (d Draft) Clone() Draft {
	out := Draft{}
	if d.Identity != nil {
		id := *d.Identity
		out.Identity = &id
	}
	if d.Variations != nil {
		vs := VariationSet{
			Params:   make(map[string][]string, len(d.Variations.Params)),
			Possible: make(map[int]Theme, len(d.Variations.Possible)),
		}
		for k, v := range d.Variations.Params {
			vs.Params[k] = append([]string(nil), v...)
		}
		for k, v := range d.Variations.Possible {
			vs.Possible[k] = v.clone()
		}
		if d.Variations.Implied != nil {
			vs.Implied = cloneAttributes(d.Variations.Implied)
		}
		out.Variations = &vs
	}
	if d.Offers != nil {
		out.Offers = make(map[int]Offer, len(d.Offers))
		for k, o := range d.Offers {
			o.Theme = o.Theme.clone()
			if o.DiscountedPrice != nil {
				dp := *o.DiscountedPrice
				o.DiscountedPrice = &dp
			}
			out.Offers[k] = o
		}
	}
	if d.Description != nil {
		desc := Description{Text: d.Description.Text, BulletPoints: append([]string(nil), d.Description.BulletPoints...)}
		out.Description = &desc
	}
	if d.Details != nil {
		out.Details = cloneAttributes(d.Details)
	}
	return out
}

func (t Theme) clone() Theme {
	if t == nil {
		return nil
	}
	out := make(Theme, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// cloneAttributes copies through JSON; detail values are plain JSON values.
func cloneAttributes(a Attributes) Attributes {
	raw, err := json.Marshal(a)
	if err != nil {
		return a
	}
	out := Attributes{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return a
	}
	return out
}

// HasParam reports whether attr is one of the variation parameters.
func (d Draft) HasParam(attr string) bool {
	if d.Variations == nil {
		return false
	}
	_, ok := d.Variations.Params[attr]
	return ok
}

// OfferKeys returns the offer keys in ascending order.
func (d Draft) OfferKeys() []int {
	keys := make([]int, 0, len(d.Offers))
	for k := range d.Offers {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// DefaultOffer returns the key of the default offer.
func (d Draft) DefaultOffer() (int, bool) {
	for _, k := range d.OfferKeys() {
		if d.Offers[k].Default {
			return k, true
		}
	}
	return 0, false
}

// ProductDetails returns the detail block as persisted: the detail stage output plus the
// attributes implied by the variation parameters.
func (d Draft) ProductDetails() Attributes {
	out := Attributes{}
	if d.Variations != nil {
		for k, v := range d.Variations.Implied {
			out[k] = v
		}
	}
	for k, v := range d.Details {
		out[k] = v
	}
	return out
}

// UPCs lists the UPCs of every attached offer.
func (d Draft) UPCs() []string {
	out := make([]string, 0, len(d.Offers))
	for _, k := range d.OfferKeys() {
		out = append(out, d.Offers[k].UPC)
	}
	return out
}
