package services

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/models"
	"marketplace-service/internal/pricing"
)

const testCustomer = "customer-1"

func TestCart_AddAndGet(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Corner Shop")
	radio := f.approvedProduct(t, "user-1", "Radio", "036000291452", "20")
	clock := f.approvedProduct(t, "user-1", "Clock", "4006381333931", "15.50")
	radioOffer, clockOffer := radio.Offers[1].String(), clock.Offers[1].String()
	ctx := context.Background()

	view, err := f.carts.Add(ctx, testTenant, testCustomer, []string{radioOffer, clockOffer})
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "35.50", view.Subtotal)
	assert.Equal(t, "0.00", view.Discount)
	assert.Equal(t, "35.50", view.Total)
	item := view.Items[radioOffer]
	assert.Equal(t, 1, item.Count)
	assert.Equal(t, "Radio", item.ItemName)
	assert.Equal(t, "Corner Shop", item.Store)
	assert.Equal(t, radio.ProductIdentityID.String(), item.ProductIdentity)

	// adding again keeps the count
	_, err = f.carts.Add(ctx, testTenant, testCustomer, []string{radioOffer})
	require.NoError(t, err)
	view, err = f.carts.UpdateCount(ctx, testTenant, testCustomer, pricing.CountUpdate{Increment: radioOffer})
	require.NoError(t, err)
	assert.Equal(t, 2, view.Items[radioOffer].Count)
	assert.Equal(t, "55.50", view.Subtotal)

	view, err = f.carts.Get(ctx, testTenant, testCustomer)
	require.NoError(t, err)
	assert.Equal(t, "55.50", view.Subtotal)

	// other customers have their own cart
	other, err := f.carts.Get(ctx, testTenant, "customer-2")
	require.NoError(t, err)
	assert.Empty(t, other.Items)
	assert.Equal(t, "0.00", other.Subtotal)
}

func TestCart_AddRejectsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Shop")
	radio := f.approvedProduct(t, "user-1", "Radio", "036000291452", "20")
	f.simpleDraft(t, "user-1", "Clock", "4006381333931", "15")
	pending, err := f.publish.Publish(context.Background(), testTenant, "user-1", nil)
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"not-a-uuid", pending.Offers[1].String()} {
		_, err := f.carts.Add(ctx, testTenant, testCustomer, []string{radio.Offers[1].String(), id})
		assertCode(t, err, apperrors.KindValidation, "")
		appErr, _ := apperrors.As(err)
		assert.Equal(t, "add_item", appErr.Field())
	}

	view, err := f.carts.Get(ctx, testTenant, testCustomer)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = f.carts.Add(ctx, testTenant, testCustomer, nil)
	assertCode(t, err, apperrors.KindValidation, "")
}

func TestCart_ReconcilePrunesAndReprices(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Shop")
	radio := f.approvedProduct(t, "user-1", "Radio", "036000291452", "20")
	clock := f.approvedProduct(t, "user-1", "Clock", "4006381333931", "15")
	radioOffer, clockOffer := radio.Offers[1].String(), clock.Offers[1].String()
	ctx := context.Background()

	_, err := f.carts.Add(ctx, testTenant, testCustomer, []string{radioOffer, clockOffer})
	require.NoError(t, err)

	// the radio goes on sale, the clock sells out
	_, err = f.catalog.UpdateOffer(ctx, testTenant, "user-1", radio.Offers[1], models.UpdateOfferRequest{DiscountedPrice: strPtr("18")})
	require.NoError(t, err)
	_, err = f.catalog.UpdateOffer(ctx, testTenant, "user-1", clock.Offers[1], models.UpdateOfferRequest{Stock: intPtr(0)})
	require.NoError(t, err)

	view, err := f.carts.Get(ctx, testTenant, testCustomer)
	require.NoError(t, err)
	assert.Equal(t, []string{clockOffer}, view.Removed)
	require.Len(t, view.Items, 1)
	require.NotNil(t, view.Items[radioOffer].DiscountedPrice)
	assert.True(t, view.Items[radioOffer].DiscountedPrice.Equal(decimal.NewFromInt(18)))
	assert.Equal(t, "20.00", view.Subtotal)
	assert.Equal(t, "2.00", view.Discount)
	assert.Equal(t, "18.00", view.Total)

	// the pruned line was persisted
	view, err = f.carts.Get(ctx, testTenant, testCustomer)
	require.NoError(t, err)
	assert.Empty(t, view.Removed)
	assert.Len(t, view.Items, 1)
}

func TestCart_ProductRejectedAfterAdd(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Shop")
	radio := f.approvedProduct(t, "user-1", "Radio", "036000291452", "20")
	ctx := context.Background()

	_, err := f.carts.Add(ctx, testTenant, testCustomer, []string{radio.Offers[1].String()})
	require.NoError(t, err)
	require.NoError(t, f.catalog.SetProductStatus(ctx, testTenant, radio.ProductIdentityID, models.ProductStatusRejected, "admin-1"))

	view, err := f.carts.Get(ctx, testTenant, testCustomer)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, []string{radio.Offers[1].String()}, view.Removed)
}

func TestCart_UpdateCountAndClear(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Shop")
	radio := f.approvedProduct(t, "user-1", "Radio", "036000291452", "20")
	offer := radio.Offers[1].String()
	ctx := context.Background()

	_, err := f.carts.Add(ctx, testTenant, testCustomer, []string{offer})
	require.NoError(t, err)

	_, err = f.carts.UpdateCount(ctx, testTenant, testCustomer, pricing.CountUpdate{Increment: offer, Remove: offer})
	assertCode(t, err, apperrors.KindValidation, "")
	_, err = f.carts.UpdateCount(ctx, testTenant, testCustomer, pricing.CountUpdate{Decrement: "unknown"})
	assertCode(t, err, apperrors.KindValidation, "")

	view, err := f.carts.UpdateCount(ctx, testTenant, testCustomer, pricing.CountUpdate{Decrement: offer})
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = f.carts.Add(ctx, testTenant, testCustomer, []string{offer})
	require.NoError(t, err)
	require.NoError(t, f.carts.Clear(ctx, testTenant, testCustomer))
	view, err = f.carts.Get(ctx, testTenant, testCustomer)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCart_NonCanonicalOfferIDs(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Shop")
	radio := f.approvedProduct(t, "user-1", "Radio", "036000291452", "20")
	clock := f.approvedProduct(t, "user-1", "Clock", "4006381333931", "15")
	radioOffer, clockOffer := radio.Offers[1].String(), clock.Offers[1].String()
	ctx := context.Background()

	view, err := f.carts.Add(ctx, testTenant, testCustomer, []string{strings.ToUpper(radioOffer), "{" + clockOffer + "}"})
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Contains(t, view.Items, radioOffer)
	assert.Contains(t, view.Items, clockOffer)

	view, err = f.carts.UpdateCount(ctx, testTenant, testCustomer, pricing.CountUpdate{Increment: strings.ToUpper(radioOffer)})
	require.NoError(t, err)
	assert.Equal(t, 2, view.Items[radioOffer].Count)
}
