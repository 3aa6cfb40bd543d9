package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/draft"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
)

// CatalogService serves the storefront, product review and seller offer management.
type CatalogService struct {
	repo      repository.Repository
	cache     *repository.StorefrontCache
	publisher EventPublisher
	logger    *logrus.Entry
}

func NewCatalogService(repo repository.Repository, cache *repository.StorefrontCache, publisher EventPublisher, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		logger:    logger.WithField("component", "catalog-service"),
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func optionalMoney(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := money(*d)
	return &s
}

// defaultVariation returns the variation flagged default, falling back to the first one.
func defaultVariation(p models.ProductIdentity) (models.ProductVariation, bool) {
	if len(p.Variations) == 0 {
		return models.ProductVariation{}, false
	}
	for _, v := range p.Variations {
		if v.Default {
			return v, true
		}
	}
	return p.Variations[0], true
}

// sellerOffer returns the seller's offer on v, falling back to the first offer.
func sellerOffer(v models.ProductVariation, sellerID uuid.UUID) (models.Offer, bool) {
	if len(v.Offers) == 0 {
		return models.Offer{}, false
	}
	for _, o := range v.Offers {
		if o.SellerID == sellerID {
			return o, true
		}
	}
	return v.Offers[0], true
}

func offerSellerIDs(products ...models.ProductIdentity) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	for _, p := range products {
		seen[p.CreatedBy] = true
		for _, v := range p.Variations {
			for _, o := range v.Offers {
				seen[o.SellerID] = true
			}
		}
	}
	return slices.Collect(maps.Keys(seen))
}

// ListStorefront returns a page of approved products, each shown through its default variation
// and the default seller's offer on it.
func (s *CatalogService) ListStorefront(ctx context.Context, tenantID string, page, limit int) (*repository.StorefrontPage, error) {
	return s.cache.ProductList(ctx, tenantID, page, limit, func() (*repository.StorefrontPage, error) {
		products, total, err := s.repo.ListProductsByStatus(ctx, tenantID, models.ProductStatusApproved, page, limit)
		if err != nil {
			return nil, err
		}
		sellers, err := s.repo.GetSellersByIDs(ctx, tenantID, offerSellerIDs(products...))
		if err != nil {
			return nil, err
		}

		out := &repository.StorefrontPage{Products: make([]models.StorefrontProduct, 0, len(products)), Total: total}
		for _, p := range products {
			v, ok := defaultVariation(p)
			if !ok {
				continue
			}
			o, ok := sellerOffer(v, p.CreatedBy)
			if !ok {
				continue
			}
			entry := models.StorefrontProduct{
				ID:         p.ID,
				ItemName:   p.ItemName,
				Category:   string(p.Category),
				Brand:      string(p.Brand),
				Theme:      v.Theme.Data(),
				OfferID:    o.ID,
				Price:      money(o.Price),
				Discounted: optionalMoney(o.DiscountedPrice),
				Stock:      o.Stock,
				Store:      sellers[o.SellerID].StoreName,
			}
			for _, other := range p.Variations {
				entry.VariationIDs = append(entry.VariationIDs, other.ID)
			}
			out.Products = append(out.Products, entry)
		}
		return out, nil
	})
}

// GetStorefrontProduct returns an approved product with every variation and offer
func (s *CatalogService) GetStorefrontProduct(ctx context.Context, tenantID string, productID uuid.UUID) (*models.StorefrontProductDetail, error) {
	return s.cache.ProductDetail(ctx, tenantID, productID, func() (*models.StorefrontProductDetail, error) {
		p, err := s.repo.GetProductIdentity(ctx, tenantID, productID, true)
		if err != nil {
			return nil, mapRepoError(err, "product")
		}
		if p.Status != models.ProductStatusApproved {
			return nil, apperrors.NotFound("product not found")
		}
		sellers, err := s.repo.GetSellersByIDs(ctx, tenantID, offerSellerIDs(*p))
		if err != nil {
			return nil, err
		}

		detail := &models.StorefrontProductDetail{
			ID:           p.ID,
			ItemName:     p.ItemName,
			Category:     string(p.Category),
			Brand:        string(p.Brand),
			Description:  p.Description,
			BulletPoints: p.BulletPoints,
			Details:      p.Details,
			Variations:   make([]models.StorefrontVariation, 0, len(p.Variations)),
		}
		sp, err := s.repo.GetDefaultSellerProduct(ctx, tenantID, p.ID)
		switch {
		case err == nil:
			detail.DefaultSeller = sellers[sp.SellerID].StoreName
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}

		for _, v := range p.Variations {
			sv := models.StorefrontVariation{
				ID:      v.ID,
				UPC:     v.UPC,
				Theme:   v.Theme.Data(),
				Default: v.Default,
				Offers:  make([]models.StorefrontOffer, 0, len(v.Offers)),
			}
			for _, o := range v.Offers {
				sv.Offers = append(sv.Offers, models.StorefrontOffer{
					ID:          o.ID,
					Price:       money(o.Price),
					Discounted:  optionalMoney(o.DiscountedPrice),
					Stock:       o.Stock,
					Condition:   string(o.Condition),
					FulfilledBy: string(o.FulfilledBy),
					Store:       sellers[o.SellerID].StoreName,
				})
			}
			detail.Variations = append(detail.Variations, sv)
		}
		return detail, nil
	})
}

// SetProductStatus records a review decision. Setting the current status again is a no-op.
func (s *CatalogService) SetProductStatus(ctx context.Context, tenantID string, productID uuid.UUID, status models.ProductStatus, actorID string) error {
	if !status.Valid() || status == models.ProductStatusDraft {
		return apperrors.InvalidField("status", "%q is not a review status", status)
	}

	var product *models.ProductIdentity
	var oldStatus models.ProductStatus
	err := s.repo.WithTransaction(ctx, func(tx repository.Repository) error {
		var err error
		product, err = tx.GetProductIdentity(ctx, tenantID, productID, false)
		if err != nil {
			return mapRepoError(err, "product")
		}
		oldStatus = product.Status
		if oldStatus == status {
			return nil
		}
		if err := tx.UpdateProductStatus(ctx, tenantID, productID, status); err != nil {
			return mapRepoError(err, "product")
		}
		product.Status = status
		return nil
	})
	if err != nil || oldStatus == status {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"product_id": productID,
		"old_status": oldStatus,
		"new_status": status,
		"actor":      actorID,
	}).Info("Product status changed")

	if s.publisher != nil {
		if err := s.publisher.PublishProductStatusChanged(ctx, product, oldStatus, status, actorID); err != nil {
			s.logger.WithError(err).Warn("Failed to publish product status event")
		}
	}
	s.cache.InvalidateProduct(ctx, tenantID, productID)
	return nil
}

// UpdateOffer changes price, discount or stock of one of the caller's offers
func (s *CatalogService) UpdateOffer(ctx context.Context, tenantID, userID string, offerID uuid.UUID, req models.UpdateOfferRequest) (*models.Offer, error) {
	var offer *models.Offer
	var oldPrice decimal.Decimal
	var productID uuid.UUID
	err := s.repo.WithTransaction(ctx, func(tx repository.Repository) error {
		seller, err := requireVerifiedSeller(ctx, tx, tenantID, userID)
		if err != nil {
			return err
		}
		details, err := tx.GetOfferDetails(ctx, tenantID, []uuid.UUID{offerID})
		if err != nil {
			return err
		}
		// other sellers' offers are reported as missing
		if len(details) == 0 || details[0].Offer.SellerID != seller.ID {
			return apperrors.NotFound("offer not found")
		}
		current := details[0].Offer
		offer = &current
		oldPrice = current.Price
		productID = details[0].Identity.ID

		if err := applyOfferUpdate(offer, req); err != nil {
			return err
		}
		return mapRepoError(tx.UpdateOffer(ctx, offer), "offer")
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil && !offer.Price.Equal(oldPrice) {
		if err := s.publisher.PublishOfferPriceChanged(ctx, tenantID, offer, productID, oldPrice, userID); err != nil {
			s.logger.WithError(err).Warn("Failed to publish price change event")
		}
	}
	s.cache.InvalidateProduct(ctx, tenantID, productID)
	return offer, nil
}

func applyOfferUpdate(offer *models.Offer, req models.UpdateOfferRequest) error {
	var c apperrors.Collector
	if req.Price != nil {
		price, err := draft.ParsePrice(*req.Price)
		if err != nil {
			c.Add("price", "%v", err)
		} else {
			offer.Price = price
		}
	}
	switch {
	case req.ClearDiscount && req.DiscountedPrice != nil:
		c.Add("discounted_price", "cannot be set and cleared at once")
	case req.ClearDiscount:
		offer.DiscountedPrice = nil
	case req.DiscountedPrice != nil:
		dp, err := draft.ParsePrice(*req.DiscountedPrice)
		if err != nil {
			c.Add("discounted_price", "%v", err)
		} else {
			offer.DiscountedPrice = &dp
		}
	}
	if offer.DiscountedPrice != nil && offer.DiscountedPrice.GreaterThan(offer.Price) {
		c.Add("discounted_price", "must not exceed the price")
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			c.Add("stock", "must be zero or more")
		} else {
			offer.Stock = *req.Stock
		}
	}
	return c.Err("invalid offer update")
}

// ExportOffers flattens the caller's offers for the spreadsheet export
func (s *CatalogService) ExportOffers(ctx context.Context, tenantID, userID string) ([]models.OfferExportRow, error) {
	seller, err := requireSeller(ctx, s.repo, tenantID, userID)
	if err != nil {
		return nil, err
	}
	details, err := s.repo.ListSellerOfferDetails(ctx, tenantID, seller.ID)
	if err != nil {
		return nil, err
	}

	rows := make([]models.OfferExportRow, 0, len(details))
	for _, d := range details {
		row := models.OfferExportRow{
			OfferID:     d.Offer.ID.String(),
			ProductName: d.Identity.ItemName,
			Category:    string(d.Identity.Category),
			Status:      d.Identity.Status,
			UPC:         d.Variation.UPC,
			Theme:       themeLabel(d.Variation.Theme.Data()),
			SKU:         d.Offer.SKU,
			Price:       money(d.Offer.Price),
			Stock:       d.Offer.Stock,
			Condition:   string(d.Offer.Condition),
			FulfilledBy: string(d.Offer.FulfilledBy),
		}
		if d.Offer.DiscountedPrice != nil {
			row.DiscountedPrice = money(*d.Offer.DiscountedPrice)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// themeLabel renders a theme as "color=red, size=M".
func themeLabel(t draft.Theme) string {
	if len(t) == 0 {
		return ""
	}
	parts := make([]string, 0, len(t))
	for _, k := range slices.Sorted(maps.Keys(t)) {
		parts = append(parts, fmt.Sprintf("%s=%s", k, t[k]))
	}
	return strings.Join(parts, ", ")
}
