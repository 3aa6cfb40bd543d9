package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/models"
)

func TestSetProductStatus(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Shop")
	f.simpleDraft(t, "user-1", "Radio", "036000291452", "20")
	f.events.On("PublishProductCreated", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.reviews.On("CreateProductReviewRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	f.events.On("PublishProductStatusChanged", mock.Anything, mock.Anything, models.ProductStatusPending, models.ProductStatusApproved, "admin-1").
		Return(nil).Once()

	res, err := f.publish.Publish(context.Background(), testTenant, "user-1", nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, f.catalog.SetProductStatus(ctx, testTenant, res.ProductIdentityID, models.ProductStatusApproved, "admin-1"))
	// repeating the decision is a no-op
	require.NoError(t, f.catalog.SetProductStatus(ctx, testTenant, res.ProductIdentityID, models.ProductStatusApproved, "admin-1"))
	f.events.AssertNumberOfCalls(t, "PublishProductStatusChanged", 1)

	p, err := f.repo.GetProductIdentity(ctx, testTenant, res.ProductIdentityID, false)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusApproved, p.Status)

	err = f.catalog.SetProductStatus(ctx, testTenant, res.ProductIdentityID, "archived", "admin-1")
	assertCode(t, err, apperrors.KindValidation, "")

	err = f.catalog.SetProductStatus(ctx, testTenant, uuid.New(), models.ProductStatusRejected, "admin-1")
	assertCode(t, err, apperrors.KindNotFound, "")
}

func TestStorefront_OnlyApproved(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Corner Shop")
	approved := f.approvedProduct(t, "user-1", "Radio", "036000291452", "20")
	f.simpleDraft(t, "user-1", "Clock", "4006381333931", "15")
	pending, err := f.publish.Publish(context.Background(), testTenant, "user-1", nil)
	require.NoError(t, err)

	page, err := f.catalog.ListStorefront(context.Background(), testTenant, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Products, 1)
	entry := page.Products[0]
	assert.Equal(t, approved.ProductIdentityID, entry.ID)
	assert.Equal(t, approved.Offers[1], entry.OfferID)
	assert.Equal(t, "20.00", entry.Price)
	assert.Equal(t, 10, entry.Stock)
	assert.Equal(t, "Corner Shop", entry.Store)

	_, err = f.catalog.GetStorefrontProduct(context.Background(), testTenant, pending.ProductIdentityID)
	assertCode(t, err, apperrors.KindNotFound, "")

	other, err := f.catalog.ListStorefront(context.Background(), "tenant-2", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, other.Products)
}

func TestStorefront_ProductDetail(t *testing.T) {
	f := newFixture(t)
	f.expectPublishSideEffects()
	f.verifiedSeller(t, "user-1", "Tee Shop")
	f.sizedDraft(t, "user-1")
	res, err := f.publish.Publish(context.Background(), testTenant, "user-1", nil)
	require.NoError(t, err)
	require.NoError(t, f.catalog.SetProductStatus(context.Background(), testTenant, res.ProductIdentityID, models.ProductStatusApproved, "admin-1"))

	detail, err := f.catalog.GetStorefrontProduct(context.Background(), testTenant, res.ProductIdentityID)
	require.NoError(t, err)
	assert.Equal(t, "Plain tee", detail.ItemName)
	assert.Equal(t, "Tee Shop", detail.DefaultSeller)
	assert.Equal(t, []string{"durable"}, detail.BulletPoints)
	require.Len(t, detail.Variations, 2)
	for _, v := range detail.Variations {
		require.Len(t, v.Offers, 1)
		assert.Equal(t, "Tee Shop", v.Offers[0].Store)
		assert.Equal(t, "new", v.Offers[0].Condition)
	}

	page, err := f.catalog.ListStorefront(context.Background(), testTenant, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, map[string]string{"size": "L"}, page.Products[0].Theme)
	assert.Equal(t, "12.00", page.Products[0].Price)
	assert.Len(t, page.Products[0].VariationIDs, 2)
}

func TestUpdateOffer(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Shop")
	res := f.approvedProduct(t, "user-1", "Radio", "036000291452", "20")
	offerID := res.Offers[1]
	ctx := context.Background()

	f.events.On("PublishOfferPriceChanged", mock.Anything, testTenant, mock.Anything, res.ProductIdentityID,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(20)) }), "user-1").Return(nil).Once()

	offer, err := f.catalog.UpdateOffer(ctx, testTenant, "user-1", offerID, models.UpdateOfferRequest{
		Price:           strPtr("25.50"),
		DiscountedPrice: strPtr("22"),
		Stock:           intPtr(3),
	})
	require.NoError(t, err)
	assert.True(t, offer.Price.Equal(decimal.RequireFromString("25.50")))
	require.NotNil(t, offer.DiscountedPrice)
	assert.True(t, offer.DiscountedPrice.Equal(decimal.NewFromInt(22)))
	assert.Equal(t, 3, offer.Stock)
	f.events.AssertExpectations(t)

	// stock only, no price event
	offer, err = f.catalog.UpdateOffer(ctx, testTenant, "user-1", offerID, models.UpdateOfferRequest{ClearDiscount: true, Stock: intPtr(0)})
	require.NoError(t, err)
	assert.Nil(t, offer.DiscountedPrice)
	assert.Equal(t, 0, offer.Stock)
	f.events.AssertNumberOfCalls(t, "PublishOfferPriceChanged", 1)

	stored, err := f.repo.GetOffer(ctx, testTenant, offerID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Stock)
	assert.Nil(t, stored.DiscountedPrice)
}

func TestUpdateOffer_Errors(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Shop")
	f.verifiedSeller(t, "user-2", "Other shop")
	res := f.approvedProduct(t, "user-1", "Radio", "036000291452", "20")
	offerID := res.Offers[1]
	ctx := context.Background()

	tests := []struct {
		name  string
		user  string
		req   models.UpdateOfferRequest
		kind  apperrors.Kind
		field string
	}{
		{"discount above price", "user-1", models.UpdateOfferRequest{DiscountedPrice: strPtr("21")}, apperrors.KindValidation, "discounted_price"},
		{"bad price", "user-1", models.UpdateOfferRequest{Price: strPtr("-3")}, apperrors.KindValidation, "price"},
		{"negative stock", "user-1", models.UpdateOfferRequest{Stock: intPtr(-1)}, apperrors.KindValidation, "stock"},
		{"set and clear", "user-1", models.UpdateOfferRequest{DiscountedPrice: strPtr("5"), ClearDiscount: true}, apperrors.KindValidation, "discounted_price"},
		{"someone else's offer", "user-2", models.UpdateOfferRequest{Stock: intPtr(1)}, apperrors.KindNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.catalog.UpdateOffer(ctx, testTenant, tt.user, offerID, tt.req)
			assertCode(t, err, tt.kind, "")
			if tt.field != "" {
				appErr, _ := apperrors.As(err)
				assert.Equal(t, tt.field, appErr.Field())
			}
		})
	}

	stored, err := f.repo.GetOffer(ctx, testTenant, offerID)
	require.NoError(t, err)
	assert.True(t, stored.Price.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 10, stored.Stock)
}

func TestUpdateOffer_PublishFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Shop")
	res := f.approvedProduct(t, "user-1", "Radio", "036000291452", "20")
	f.events.On("PublishOfferPriceChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("nats down"))

	_, err := f.catalog.UpdateOffer(context.Background(), testTenant, "user-1", res.Offers[1], models.UpdateOfferRequest{Price: strPtr("30")})
	require.NoError(t, err)
}

func TestExportOffers(t *testing.T) {
	f := newFixture(t)
	f.expectPublishSideEffects()
	f.verifiedSeller(t, "user-1", "Shop")
	f.sizedDraft(t, "user-1")
	_, err := f.publish.Publish(context.Background(), testTenant, "user-1", nil)
	require.NoError(t, err)

	rows, err := f.catalog.ExportOffers(context.Background(), testTenant, "user-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "size=S", rows[0].Theme)
	assert.Equal(t, "00036000291452", rows[0].UPC)
	assert.Equal(t, "10.00", rows[0].Price)
	assert.Equal(t, "size=L", rows[1].Theme)
	assert.Equal(t, models.ProductStatusPending, rows[1].Status)

	_, err = f.catalog.ExportOffers(context.Background(), testTenant, "nobody")
	assertCode(t, err, apperrors.KindPermission, "SELLER_REQUIRED")
}

func TestThemeLabel(t *testing.T) {
	assert.Equal(t, "", themeLabel(nil))
	assert.Equal(t, "color=red, size=M", themeLabel(map[string]string{"size": "M", "color": "red"}))
}
