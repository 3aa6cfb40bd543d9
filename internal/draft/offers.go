package draft

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/catalog"
)

var pricePattern = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)

type OfferInput struct {
	SKU             string              `json:"sku" validate:"notblank,max=100"`
	UPC             string              `json:"upc" validate:"notblank"`
	Price           string              `json:"price" validate:"notblank"`
	DiscountedPrice *string             `json:"discounted_price,omitempty"`
	Stock           *int                `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Condition       catalog.Condition   `json:"condition,omitempty"`
	FulfilledBy     catalog.Fulfillment `json:"fulfilled_by,omitempty"`
	Default         bool                `json:"default"`
}

// UPCLookup reports whether a normalized UPC already belongs to a persisted variation.
type UPCLookup func(upc string) bool

// ParsePrice parses a price with up to eight integer digits and two decimals.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !pricePattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("price %q must be a non-negative number with up to two decimal places", s)
	}
	return decimal.NewFromString(s)
}

// NormalizeOffer validates one offer and returns it in stored form.
func NormalizeOffer(in OfferInput, taken UPCLookup) (Offer, error) {
	var c apperrors.Collector
	c.Merge(validateStruct(in), "offer")

	out := Offer{
		SKU:         strings.TrimSpace(in.SKU),
		Condition:   in.Condition,
		FulfilledBy: in.FulfilledBy,
		Default:     in.Default,
	}
	if in.Stock != nil {
		out.Stock = *in.Stock
	}
	if out.Condition == "" {
		out.Condition = catalog.ConditionNew
	}
	if out.FulfilledBy == "" {
		out.FulfilledBy = catalog.FulfilledBySeller
	}
	if !out.Condition.Valid() {
		c.Add("condition", "%q is not a valid condition", in.Condition)
	}
	if !out.FulfilledBy.Valid() {
		c.Add("fulfilled_by", "%q is not a valid fulfillment channel", in.FulfilledBy)
	}

	if strings.TrimSpace(in.UPC) != "" {
		upc, err := NormalizeGTIN(in.UPC)
		switch {
		case err != nil:
			c.Add("upc", "%s is an invalid UPC/GTIN code", in.UPC)
		case taken != nil && taken(upc):
			c.Add("upc", "a product with UPC/GTIN %s already exists", upc)
		default:
			out.UPC = upc
		}
	}
	priceOK := false
	if strings.TrimSpace(in.Price) != "" {
		if price, err := ParsePrice(in.Price); err != nil {
			c.Add("price", "%v", err)
		} else {
			out.Price = price
			priceOK = true
		}
	}
	if in.DiscountedPrice != nil {
		dp, err := ParsePrice(*in.DiscountedPrice)
		switch {
		case err != nil:
			c.Add("discounted_price", "%v", err)
		case priceOK && dp.GreaterThan(out.Price):
			c.Add("discounted_price", "must not exceed the price")
		default:
			out.DiscountedPrice = &dp
		}
	}
	if err := c.Err("invalid offer"); err != nil {
		return Offer{}, err
	}
	return out, nil
}

// SetSingleOffer attaches the only offer of a product without variations. It is always the
// default offer.
func SetSingleOffer(d Draft, in OfferInput, taken UPCLookup) (Draft, error) {
	id, err := requireIdentity(d)
	if err != nil {
		return Draft{}, err
	}
	if id.HasVariations {
		return Draft{}, apperrors.Permission("product has variations, submit one offer per variation").WithCode("VARIATIONS_REQUIRED")
	}
	offer, err := NormalizeOffer(in, taken)
	if err != nil {
		return Draft{}, err
	}
	offer.Default = true
	offer.Theme = nil

	out := d.Clone()
	out.Offers = map[int]Offer{SingleOfferKey: offer}
	return out, nil
}

// SetOffers attaches a batch of offers keyed by variation id. The batch is accepted or
// rejected as a whole.
func SetOffers(d Draft, batch map[int]OfferInput, taken UPCLookup) (Draft, error) {
	id, err := requireIdentity(d)
	if err != nil {
		return Draft{}, err
	}
	if !id.HasVariations {
		return Draft{}, apperrors.Permission("product has no variations, submit a single offer").WithCode("VARIATIONS_NOT_ALLOWED")
	}
	if d.Variations == nil || len(d.Variations.Possible) == 0 {
		return Draft{}, apperrors.Validation("set the variation parameters first").WithCode("VARIATIONS_REQUIRED")
	}
	if len(batch) == 0 {
		return Draft{}, apperrors.InvalidField("variations", "at least one offer is required")
	}

	var c apperrors.Collector
	offers := make(map[int]Offer, len(batch))
	seenUPC := map[string]int{}
	defaults := 0

	for _, k := range slices.Sorted(maps.Keys(batch)) {
		prefix := "variations." + strconv.Itoa(k)
		theme, ok := d.Variations.Possible[k]
		if !ok {
			c.Add(prefix, "variation %d does not exist", k)
			continue
		}
		offer, err := NormalizeOffer(batch[k], taken)
		if err != nil {
			c.Merge(apperrors.Prefix(err, prefix), prefix)
			continue
		}
		if other, dup := seenUPC[offer.UPC]; dup {
			c.Add(prefix+".upc", "duplicate UPC/GTIN %s, also used by variation %d", offer.UPC, other)
			continue
		}
		seenUPC[offer.UPC] = k
		if offer.Default {
			defaults++
		}
		offer.Theme = theme.clone()
		offers[k] = offer
	}
	if c.Empty() && defaults != 1 {
		c.Add("variations", "exactly one offer must be the default, got %d", defaults)
	}
	if err := c.Err("invalid offers"); err != nil {
		return Draft{}, err
	}

	out := d.Clone()
	out.Offers = offers
	return out, nil
}
