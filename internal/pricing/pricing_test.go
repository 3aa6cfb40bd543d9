package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketplace-service/internal/apperrors"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func liveOffers() map[string]LiveOffer {
	return map[string]LiveOffer{
		"a": {OfferID: "a", ItemName: "Shirt", Store: "acme", Price: d("10.00"), Stock: 5, Theme: map[string]string{"size": "M"}},
		"b": {OfferID: "b", ItemName: "Mug", Store: "acme", Price: d("4.50"), DiscountedPrice: dp("4.00"), Stock: 1},
		"c": {OfferID: "c", ItemName: "Lamp", Store: "lumen", Price: d("30.00"), Stock: 0},
	}
}

func TestAdd(t *testing.T) {
	live := liveOffers()
	items := Add(Items{}, []LiveOffer{live["a"], live["b"]})
	require.Len(t, items, 2)
	assert.Equal(t, 1, items["a"].Count)
	assert.Equal(t, "Shirt", items["a"].ItemName)
	assert.Equal(t, map[string]string{"size": "M"}, items["a"].Theme)

	bumped, err := UpdateCount(items, CountUpdate{Increment: "a"})
	require.NoError(t, err)
	again := Add(bumped, []LiveOffer{live["a"]})
	assert.Equal(t, 2, again["a"].Count, "re-adding must not reset or increment the count")
	assert.Equal(t, 1, items["a"].Count, "input must not be mutated")
}

func TestReconcile(t *testing.T) {
	items := Items{
		"a":    {Count: 2, Price: d("99.00")},
		"b":    {Count: 3, Price: d("4.50")},
		"c":    {Count: 1, Price: d("30.00")},
		"gone": {Count: 1, Price: d("1.00")},
	}
	q := Reconcile(items, liveOffers())

	assert.Equal(t, []string{"a", "b"}, q.Items.IDs())
	assert.Equal(t, []string{"c", "gone"}, q.Removed)
	assert.True(t, q.Items["a"].Price.Equal(d("10.00")), "price refreshed from the live offer")
	assert.True(t, q.Subtotal.Equal(d("33.50")), q.Subtotal.String())
	assert.True(t, q.Discount.Equal(d("1.50")), q.Discount.String())
	assert.True(t, q.Total().Equal(d("32.00")))
}

func TestReconcile_Idempotent(t *testing.T) {
	items := Items{"a": {Count: 2}, "b": {Count: 1}, "gone": {Count: 4}}
	first := Reconcile(items, liveOffers())
	second := Reconcile(first.Items, liveOffers())

	assert.Equal(t, first.Items, second.Items)
	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.Empty(t, second.Removed)
}

func TestReconcile_Empty(t *testing.T) {
	q := Reconcile(nil, liveOffers())
	assert.Empty(t, q.Items)
	assert.True(t, q.Subtotal.IsZero())
}

func TestUpdateCount(t *testing.T) {
	items := Items{"a": {Count: 1}, "b": {Count: 2}}

	out, err := UpdateCount(items, CountUpdate{Increment: "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, out["a"].Count)

	out, err = UpdateCount(items, CountUpdate{Decrement: "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, out["b"].Count)

	out, err = UpdateCount(items, CountUpdate{Decrement: "a"})
	require.NoError(t, err)
	assert.NotContains(t, out, "a")

	out, err = UpdateCount(items, CountUpdate{Remove: "b"})
	require.NoError(t, err)
	assert.NotContains(t, out, "b")
	assert.Contains(t, items, "b")
}

func TestUpdateCount_Errors(t *testing.T) {
	items := Items{"a": {Count: 1}}
	for _, u := range []CountUpdate{{}, {Increment: "a", Remove: "a"}, {Increment: "zzz"}} {
		_, err := UpdateCount(items, u)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation), "%+v", u)
	}
}

func TestComputeTotals(t *testing.T) {
	q := Quote{Subtotal: d("50.00"), Discount: d("5.00")}
	policy := ShippingPolicy{FlatRate: d("4.99"), FreeThreshold: d("100")}

	got := ComputeTotals(q, policy, d("0.08"))
	assert.True(t, got.Shipping.Equal(d("4.99")))
	assert.True(t, got.Tax.Equal(d("3.60")), got.Tax.String())
	assert.True(t, got.FinalTotal.Equal(d("53.59")), got.FinalTotal.String())

	free := ComputeTotals(Quote{Subtotal: d("120"), Discount: decimal.Zero}, policy, decimal.Zero)
	assert.True(t, free.Shipping.IsZero())
	assert.True(t, free.FinalTotal.Equal(d("120")))

	never := ShippingPolicy{FlatRate: d("3")}
	assert.True(t, never.Cost(d("1000")).Equal(d("3")))
	assert.True(t, never.Cost(decimal.Zero).IsZero())
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), ToMinorUnits(d("19.99")))
	assert.Equal(t, int64(500), ToMinorUnits(d("5")))
}
