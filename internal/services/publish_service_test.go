package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/clients"
	"marketplace-service/internal/draft"
	"marketplace-service/internal/models"
)

func productTables(f *fixture) map[string]int {
	counts := f.repo.Counts()
	return map[string]int{
		"product_identities": counts["product_identities"],
		"seller_products":    counts["seller_products"],
		"product_variations": counts["product_variations"],
		"offers":             counts["offers"],
	}
}

func TestPublish_ActiveDraft(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Corner Shop")
	f.simpleDraft(t, "user-1", "Radio", "036000291452", "19.99")

	f.events.On("PublishProductCreated", mock.Anything,
		mock.MatchedBy(func(p *models.ProductIdentity) bool { return p.ItemName == "Radio" }),
		mock.MatchedBy(func(o *models.Offer) bool { return o != nil && o.SKU == "SKU-036000291452" }),
		"user-1").Return(nil).Once()
	f.reviews.On("CreateProductReviewRequest", mock.Anything, testTenant, "user-1", "Corner Shop", mock.Anything, "Radio").
		Return(&clients.ApprovalRequestResponse{}, nil).Once()

	res, err := f.publish.Publish(context.Background(), testTenant, "user-1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusPending, res.Status)
	assert.Len(t, res.Variations, 1)
	assert.Len(t, res.Offers, 1)

	assert.Equal(t, map[string]int{
		"product_identities": 1,
		"seller_products":    1,
		"product_variations": 1,
		"offers":             1,
	}, productTables(f))

	p, err := f.repo.GetProductIdentity(context.Background(), testTenant, res.ProductIdentityID, true)
	require.NoError(t, err)
	require.Len(t, p.Variations, 1)
	assert.True(t, p.Variations[0].Default)
	assert.Equal(t, "00036000291452", p.Variations[0].UPC)
	assert.Equal(t, "black", p.Details["color"])
	assert.Equal(t, []string{"durable"}, []string(p.BulletPoints))

	active, err := f.drafts.GetActive(context.Background(), testTenant, "user-1")
	require.NoError(t, err)
	assert.True(t, active.IsEmpty())

	f.events.AssertExpectations(t)
	f.reviews.AssertExpectations(t)
}

func TestPublish_Variations(t *testing.T) {
	f := newFixture(t)
	f.expectPublishSideEffects()
	f.verifiedSeller(t, "user-1", "Shop")
	f.sizedDraft(t, "user-1")

	res, err := f.publish.Publish(context.Background(), testTenant, "user-1", nil)
	require.NoError(t, err)
	assert.Len(t, res.Variations, 2)
	assert.Contains(t, res.Variations, 1)
	assert.Contains(t, res.Variations, 3)

	p, err := f.repo.GetProductIdentity(context.Background(), testTenant, res.ProductIdentityID, true)
	require.NoError(t, err)
	require.Len(t, p.Variations, 2)
	var defaults []string
	for _, v := range p.Variations {
		require.Len(t, v.Offers, 1)
		if v.Default {
			defaults = append(defaults, v.Theme.Data()["size"])
		}
	}
	assert.Equal(t, []string{"L"}, defaults)
	assert.Equal(t, []string{"S", "M", "L"}, p.VariationParams.Data()["size"])
}

func TestPublish_PartialFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Shop")
	f.sizedDraft(t, "user-1")
	f.repo.FailOn("CreateOffer", errors.New("connection reset"))

	_, err := f.publish.Publish(context.Background(), testTenant, "user-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	assert.Equal(t, map[string]int{
		"product_identities": 0,
		"seller_products":    0,
		"product_variations": 0,
		"offers":             0,
	}, productTables(f))

	f.repo.FailOn("CreateOffer", nil)
	active, err := f.drafts.GetActive(context.Background(), testTenant, "user-1")
	require.NoError(t, err)
	assert.False(t, active.IsEmpty())

	f.events.AssertNotCalled(t, "PublishProductCreated", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.reviews.AssertNotCalled(t, "CreateProductReviewRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublish_SourceSelection(t *testing.T) {
	f := newFixture(t)
	f.expectPublishSideEffects()
	f.verifiedSeller(t, "user-1", "Shop")
	ctx := context.Background()

	_, err := f.publish.Publish(ctx, testTenant, "user-1", nil)
	assertCode(t, err, apperrors.KindValidation, "DRAFT_EMPTY")

	f.simpleDraft(t, "user-1", "Radio", "036000291452", "20")
	_, err = f.drafts.SaveDraft(ctx, testTenant, "user-1", "radio")
	require.NoError(t, err)

	_, err = f.publish.Publish(ctx, testTenant, "user-1", strPtr("missing"))
	assertCode(t, err, apperrors.KindNotFound, "")

	f.simpleDraft(t, "user-1", "Clock", "4006381333931", "15")
	_, err = f.publish.Publish(ctx, testTenant, "user-1", strPtr("radio"))
	assertCode(t, err, apperrors.KindValidation, "AMBIGUOUS_DRAFT")

	require.NoError(t, f.drafts.DiscardActive(ctx, testTenant, "user-1"))
	res, err := f.publish.Publish(ctx, testTenant, "user-1", strPtr("Radio"))
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusPending, res.Status)
	assert.Equal(t, 1, f.repo.Counts()["product_identities"])
	assert.Equal(t, 0, f.repo.Counts()["saved_drafts"])
}

func TestPublish_IncompleteDraft(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Shop")
	f.sizedDraft(t, "user-1")
	ctx := context.Background()

	_, err := f.drafts.SetVariations(ctx, testTenant, "user-1", draft.VariationInput{Size: []string{"S", "M"}})
	require.NoError(t, err)

	_, err = f.publish.Publish(ctx, testTenant, "user-1", nil)
	assertCode(t, err, apperrors.KindPermission, "DRAFT_INCOMPLETE")
	appErr, _ := apperrors.As(err)
	assert.Equal(t, "offers", appErr.Field())
}

func TestPublish_UPCTakenSinceStage(t *testing.T) {
	f := newFixture(t)
	f.expectPublishSideEffects()
	f.verifiedSeller(t, "user-1", "Shop one")
	f.verifiedSeller(t, "user-2", "Shop two")
	f.simpleDraft(t, "user-1", "Radio", "036000291452", "20")
	f.simpleDraft(t, "user-2", "Radio too", "036000291452", "21")

	_, err := f.publish.Publish(context.Background(), testTenant, "user-1", nil)
	require.NoError(t, err)

	_, err = f.publish.Publish(context.Background(), testTenant, "user-2", nil)
	assertCode(t, err, apperrors.KindConflict, "UPC_TAKEN")
	assert.Equal(t, 1, f.repo.Counts()["product_identities"])
}

func TestPublish_SideEffectFailuresDoNotFail(t *testing.T) {
	f := newFixture(t)
	f.verifiedSeller(t, "user-1", "Shop")
	f.simpleDraft(t, "user-1", "Radio", "036000291452", "20")
	f.events.On("PublishProductCreated", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("nats down"))
	f.reviews.On("CreateProductReviewRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("approval service unavailable"))

	res, err := f.publish.Publish(context.Background(), testTenant, "user-1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusPending, res.Status)
}
