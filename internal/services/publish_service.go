package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/draft"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
)

// PublishService turns a complete draft into a product identity, its variations and the
// seller's offers in one transaction.
type PublishService struct {
	repo      repository.Repository
	publisher EventPublisher
	reviews   ReviewRequester
	cache     *repository.StorefrontCache
	logger    *logrus.Entry
}

func NewPublishService(repo repository.Repository, publisher EventPublisher, reviews ReviewRequester, cache *repository.StorefrontCache, logger *logrus.Logger) *PublishService {
	return &PublishService{
		repo:      repo,
		publisher: publisher,
		reviews:   reviews,
		cache:     cache,
		logger:    logger.WithField("component", "publish-service"),
	}
}

// published carries what the transaction created to the after-commit steps.
type published struct {
	seller       *models.Seller
	identity     *models.ProductIdentity
	defaultOffer *models.Offer
	result       *models.PublishResult
}

// Publish publishes the named draft, or the active draft when draftName is nil.
func (s *PublishService) Publish(ctx context.Context, tenantID, userID string, draftName *string) (*models.PublishResult, error) {
	var out published
	err := s.repo.WithTransaction(ctx, func(tx repository.Repository) error {
		seller, err := requireVerifiedSeller(ctx, tx, tenantID, userID)
		if err != nil {
			return err
		}
		row, err := tx.LockSellerDraft(ctx, tenantID, seller.ID)
		if err != nil {
			return err
		}

		d, saved, err := resolveSource(ctx, tx, tenantID, seller.ID, row, draftName)
		if err != nil {
			return err
		}
		if err := draft.CheckPublishable(d); err != nil {
			return err
		}

		out, err = s.create(ctx, tx, tenantID, seller, d)
		if err != nil {
			return err
		}

		if saved != nil {
			return tx.DeleteSavedDraft(ctx, tenantID, seller.ID, saved.NameKey)
		}
		row.Active = datatypes.NewJSONType(draft.Draft{})
		return tx.SaveSellerDraft(ctx, row)
	})
	if err != nil {
		return nil, err
	}

	s.afterPublish(ctx, tenantID, userID, out)
	return out.result, nil
}

// resolveSource picks the draft to publish. A named draft is refused while the active slot
// holds unsaved data because the caller's intent is ambiguous.
func resolveSource(ctx context.Context, tx repository.Repository, tenantID string, sellerID uuid.UUID, row *models.SellerDraft, draftName *string) (draft.Draft, *models.SavedDraft, error) {
	active := row.Active.Data()
	if draftName == nil {
		if active.IsEmpty() {
			return draft.Draft{}, nil, apperrors.Validation("there is no active draft to publish").WithCode("DRAFT_EMPTY")
		}
		return active, nil, nil
	}

	if !active.IsEmpty() {
		return draft.Draft{}, nil, apperrors.Validation("the active draft has unsaved changes, save or discard it before publishing a named draft").WithCode("AMBIGUOUS_DRAFT")
	}
	saved, err := tx.GetSavedDraft(ctx, tenantID, sellerID, nameKey(*draftName))
	if err != nil {
		return draft.Draft{}, nil, mapRepoError(err, "draft "+strings.TrimSpace(*draftName))
	}
	return saved.Draft.Data(), saved, nil
}

func (s *PublishService) create(ctx context.Context, tx repository.Repository, tenantID string, seller *models.Seller, d draft.Draft) (published, error) {
	upcs := d.UPCs()
	taken, err := tx.ExistingUPCs(ctx, tenantID, upcs)
	if err != nil {
		return published{}, err
	}
	if len(taken) > 0 {
		return published{}, apperrors.Conflict("a product with UPC/GTIN %s already exists", strings.Join(taken, ", ")).WithCode("UPC_TAKEN")
	}

	params := map[string][]string{}
	if d.Variations != nil {
		params = d.Variations.Params
	}

	identity := &models.ProductIdentity{
		TenantID:        tenantID,
		ItemName:        d.Identity.ItemName,
		Category:        d.Identity.Category,
		Brand:           d.Identity.Brand,
		HasVariations:   d.Identity.HasVariations,
		TaxCode:         d.Identity.TaxCode,
		Family:          d.Identity.Family,
		Description:     d.Description.Text,
		BulletPoints:    datatypes.JSONSlice[string](d.Description.BulletPoints),
		Details:         models.JSON(d.ProductDetails()),
		VariationParams: datatypes.NewJSONType(params),
		Status:          models.ProductStatusPending,
		CreatedBy:       seller.ID,
	}
	if err := tx.CreateProductIdentity(ctx, identity); err != nil {
		return published{}, publishError(err, "product")
	}

	sellerProduct := &models.SellerProduct{
		TenantID:          tenantID,
		SellerID:          seller.ID,
		ProductIdentityID: identity.ID,
		Default:           true,
		VariationParams:   datatypes.NewJSONType(params),
	}
	if err := tx.CreateSellerProduct(ctx, sellerProduct); err != nil {
		return published{}, publishError(err, "seller product")
	}

	result := &models.PublishResult{
		ProductIdentityID: identity.ID,
		SellerProductID:   sellerProduct.ID,
		Status:            identity.Status,
		Variations:        make(map[int]uuid.UUID, len(d.Offers)),
		Offers:            make(map[int]uuid.UUID, len(d.Offers)),
	}
	var defaultOffer *models.Offer

	for _, key := range d.OfferKeys() {
		o := d.Offers[key]
		if d.Identity.HasVariations && o.Theme == nil {
			return published{}, apperrors.Integrity(nil, "offer for variation %d has no theme", key)
		}
		variation := &models.ProductVariation{
			TenantID:          tenantID,
			ProductIdentityID: identity.ID,
			UPC:               o.UPC,
			Theme:             datatypes.NewJSONType(o.Theme),
			Default:           o.Default,
		}
		if err := tx.CreateProductVariation(ctx, variation); err != nil {
			return published{}, publishError(err, fmt.Sprintf("variation with UPC/GTIN %s", o.UPC))
		}

		offer := &models.Offer{
			TenantID:           tenantID,
			ProductVariationID: variation.ID,
			SellerID:           seller.ID,
			SKU:                o.SKU,
			Price:              o.Price,
			DiscountedPrice:    o.DiscountedPrice,
			Stock:              o.Stock,
			Condition:          o.Condition,
			FulfilledBy:        o.FulfilledBy,
		}
		if err := tx.CreateOffer(ctx, offer); err != nil {
			return published{}, publishError(err, "offer")
		}

		result.Variations[key] = variation.ID
		result.Offers[key] = offer.ID
		if o.Default {
			defaultOffer = offer
		}
	}

	return published{seller: seller, identity: identity, defaultOffer: defaultOffer, result: result}, nil
}

// publishError maps unique violations to conflicts and leaves other failures as they are so
// the transaction rolls back with the original cause.
func publishError(err error, what string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.Conflict("%s already exists", what).WithCode("PUBLISH_CONFLICT")
	}
	return fmt.Errorf("failed to create %s: %w", what, err)
}

// afterPublish runs the best-effort steps that follow a committed publish.
func (s *PublishService) afterPublish(ctx context.Context, tenantID, userID string, p published) {
	log := s.logger.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"seller_id":  p.seller.ID,
		"product_id": p.identity.ID,
	})
	log.WithField("variations", len(p.result.Variations)).Info("Product published")

	if s.publisher != nil {
		if err := s.publisher.PublishProductCreated(ctx, p.identity, p.defaultOffer, userID); err != nil {
			log.WithError(err).Warn("Failed to publish product.created event")
		}
	}
	if s.reviews != nil {
		if _, err := s.reviews.CreateProductReviewRequest(ctx, tenantID, userID, p.seller.StoreName, p.identity.ID.String(), p.identity.ItemName); err != nil {
			log.WithError(err).Warn("Failed to open product review request")
		}
	}
	s.cache.InvalidateProduct(ctx, tenantID, p.identity.ID)
}
