package pricing

import (
	"github.com/shopspring/decimal"
)

// ShippingPolicy charges a flat rate unless the discounted total reaches the free-shipping
// threshold. A zero threshold never grants free shipping.
type ShippingPolicy struct {
	FlatRate      decimal.Decimal
	FreeThreshold decimal.Decimal
}

func (p ShippingPolicy) Cost(total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	if p.FreeThreshold.IsPositive() && total.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.FlatRate
}

type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Shipping   decimal.Decimal `json:"shipping_cost"`
	Tax        decimal.Decimal `json:"tax"`
	FinalTotal decimal.Decimal `json:"final_total"`
}

// ComputeTotals prices a reconciled cart. Tax applies to the discounted item total and is
// rounded to cents.
func ComputeTotals(q Quote, shipping ShippingPolicy, taxRate decimal.Decimal) Totals {
	net := q.Total()
	t := Totals{
		Subtotal: q.Subtotal.Round(2),
		Discount: q.Discount.Round(2),
		Shipping: shipping.Cost(net).Round(2),
		Tax:      net.Mul(taxRate).Round(2),
	}
	t.FinalTotal = t.Subtotal.Sub(t.Discount).Add(t.Shipping).Add(t.Tax)
	return t
}

// ToMinorUnits converts an amount to cents as expected by the payment provider.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
