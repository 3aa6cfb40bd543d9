// Package pricing reconciles a customer's cart snapshot against live offers and computes
// checkout totals. Functions here never touch storage; callers load the live offers and persist
// the result.
package pricing

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
	"marketplace-service/internal/apperrors"
)

// Item is one cart line, keyed by offer id in Items.
type Item struct {
	Count            int               `json:"count"`
	Theme            map[string]string `json:"theme,omitempty"`
	ItemName         string            `json:"item_name"`
	Store            string            `json:"store"`
	ProductIdentity  string            `json:"product_identity"`
	ProductVariation string            `json:"product_variation"`
	Price            decimal.Decimal   `json:"price"`
	DiscountedPrice  *decimal.Decimal  `json:"discounted_price,omitempty"`
}

// UnitPrice is what the shopper pays for one unit.
func (i Item) UnitPrice() decimal.Decimal {
	if i.DiscountedPrice != nil {
		return *i.DiscountedPrice
	}
	return i.Price
}

// Items maps offer id to cart line.
type Items map[string]Item

// Clone returns a copy that shares no maps with i.
func (i Items) Clone() Items {
	out := make(Items, len(i))
	for id, item := range i {
		item.Theme = maps.Clone(item.Theme)
		if item.DiscountedPrice != nil {
			dp := *item.DiscountedPrice
			item.DiscountedPrice = &dp
		}
		out[id] = item
	}
	return out
}

// IDs returns the offer ids in sorted order.
func (i Items) IDs() []string {
	return slices.Sorted(maps.Keys(i))
}

// LiveOffer is the current state of a purchasable offer.
type LiveOffer struct {
	OfferID          string
	ItemName         string
	Store            string
	ProductIdentity  string
	ProductVariation string
	Theme            map[string]string
	Price            decimal.Decimal
	DiscountedPrice  *decimal.Decimal
	Stock            int
}

func (o LiveOffer) snapshot() Item {
	return Item{
		Count:            1,
		Theme:            maps.Clone(o.Theme),
		ItemName:         o.ItemName,
		Store:            o.Store,
		ProductIdentity:  o.ProductIdentity,
		ProductVariation: o.ProductVariation,
		Price:            o.Price,
		DiscountedPrice:  o.DiscountedPrice,
	}
}

// Quote is a reconciled cart.
type Quote struct {
	Items    Items           `json:"items"`
	Removed  []string        `json:"removed,omitempty"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
}

// Total is what the items cost after discounts, before shipping and tax.
func (q Quote) Total() decimal.Decimal {
	return q.Subtotal.Sub(q.Discount)
}

// Reconcile drops lines whose offer is no longer live and refreshes the remaining prices.
// Subtotal is computed on list prices; Discount is the sum of (price - discounted price) * count.
func Reconcile(items Items, live map[string]LiveOffer) Quote {
	q := Quote{Items: make(Items, len(items)), Subtotal: decimal.Zero, Discount: decimal.Zero}
	for _, id := range items.IDs() {
		offer, ok := live[id]
		if !ok || offer.Stock <= 0 {
			q.Removed = append(q.Removed, id)
			continue
		}
		item := items[id]
		item.Price = offer.Price
		item.DiscountedPrice = offer.DiscountedPrice
		q.Items[id] = item

		count := decimal.NewFromInt(int64(item.Count))
		q.Subtotal = q.Subtotal.Add(item.Price.Mul(count))
		q.Discount = q.Discount.Add(item.Price.Sub(item.UnitPrice()).Mul(count))
	}
	return q
}

// Add inserts a single-unit line for every offer not already in the cart. Lines already present
// are left untouched; quantities change only through UpdateCount.
func Add(items Items, offers []LiveOffer) Items {
	out := items.Clone()
	for _, o := range offers {
		if _, ok := out[o.OfferID]; ok {
			continue
		}
		out[o.OfferID] = o.snapshot()
	}
	return out
}

// CountUpdate names exactly one operation.
type CountUpdate struct {
	Increment string `json:"increment,omitempty"`
	Decrement string `json:"decrement,omitempty"`
	Remove    string `json:"remove,omitempty"`
}

// UpdateCount applies one count operation. Decrementing a line with a count of one removes it.
func UpdateCount(items Items, u CountUpdate) (Items, error) {
	ops := 0
	var id string
	for _, v := range []string{u.Increment, u.Decrement, u.Remove} {
		if v != "" {
			ops++
			id = v
		}
	}
	if ops != 1 {
		return nil, apperrors.Validation("exactly one of increment, decrement or remove is required")
	}
	item, ok := items[id]
	if !ok {
		return nil, apperrors.InvalidField("offer", "offer %s is not in the cart", id)
	}

	out := items.Clone()
	switch {
	case u.Increment != "":
		item.Count++
		out[id] = item
	case u.Decrement != "":
		if item.Count <= 1 {
			delete(out, id)
		} else {
			item.Count--
			out[id] = item
		}
	default:
		delete(out, id)
	}
	return out, nil
}
