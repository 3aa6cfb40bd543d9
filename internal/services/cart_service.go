package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/models"
	"marketplace-service/internal/pricing"
	"marketplace-service/internal/repository"
)

// CartService keeps one cart per customer. Every call locks the cart row, reconciles it against
// the live offers and writes the pruned result back.
type CartService struct {
	repo   repository.Repository
	logger *logrus.Entry
}

func NewCartService(repo repository.Repository, logger *logrus.Logger) *CartService {
	return &CartService{
		repo:   repo,
		logger: logger.WithField("component", "cart-service"),
	}
}

// loadLiveOffers resolves offer ids to purchasable offers. Ids that do not parse, belong to an
// unapproved product or have no stock are absent from the result.
func loadLiveOffers(ctx context.Context, tx repository.Repository, tenantID string, ids []string) (map[string]pricing.LiveOffer, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if u, err := uuid.Parse(id); err == nil {
			parsed = append(parsed, u)
		}
	}
	live := make(map[string]pricing.LiveOffer, len(parsed))
	if len(parsed) == 0 {
		return live, nil
	}

	details, err := tx.GetOfferDetails(ctx, tenantID, parsed)
	if err != nil {
		return nil, err
	}
	for _, d := range details {
		if d.Identity.Status != models.ProductStatusApproved || d.Offer.Stock <= 0 {
			continue
		}
		id := d.Offer.ID.String()
		live[id] = pricing.LiveOffer{
			OfferID:          id,
			ItemName:         d.Identity.ItemName,
			Store:            d.StoreName,
			ProductIdentity:  d.Identity.ID.String(),
			ProductVariation: d.Variation.ID.String(),
			Theme:            d.Variation.Theme.Data(),
			Price:            d.Offer.Price,
			DiscountedPrice:  d.Offer.DiscountedPrice,
			Stock:            d.Offer.Stock,
		}
	}
	return live, nil
}

// canonicalOfferID returns the lower-case hyphenated form of an offer id. Ids that do not parse
// are returned unchanged and fail lookup later.
func canonicalOfferID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}

// reconcileLocked reconciles the locked cart with its current items.
func reconcileLocked(ctx context.Context, tx repository.Repository, cart *models.Cart, items pricing.Items) (pricing.Quote, error) {
	live, err := loadLiveOffers(ctx, tx, cart.TenantID, items.IDs())
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Reconcile(items, live), nil
}

func cartView(q pricing.Quote) *models.CartView {
	return &models.CartView{
		Items:    q.Items,
		Subtotal: money(q.Subtotal),
		Discount: money(q.Discount),
		Total:    money(q.Total()),
		Removed:  q.Removed,
	}
}

// mutate locks the cart, lets fn change its items and persists the reconciled result.
func (s *CartService) mutate(ctx context.Context, tenantID, customerID, op string, fn func(tx repository.Repository, items pricing.Items) (pricing.Items, error)) (*models.CartView, error) {
	var q pricing.Quote
	err := s.repo.WithTransaction(ctx, func(tx repository.Repository) error {
		cart, err := tx.LockCart(ctx, tenantID, customerID)
		if err != nil {
			return err
		}
		items := cart.Items.Data()
		if items == nil {
			items = pricing.Items{}
		}
		if fn != nil {
			if items, err = fn(tx, items); err != nil {
				return err
			}
		}
		if q, err = reconcileLocked(ctx, tx, cart, items); err != nil {
			return err
		}
		cart.Items = datatypes.NewJSONType(q.Items)
		return tx.SaveCart(ctx, cart)
	})
	if err != nil {
		return nil, err
	}

	if len(q.Removed) > 0 {
		s.logger.WithFields(logrus.Fields{
			"tenant_id":   tenantID,
			"customer_id": customerID,
			"op":          op,
			"removed":     q.Removed,
		}).Info("Pruned unavailable cart items")
	}
	return cartView(q), nil
}

// Get returns the reconciled cart
func (s *CartService) Get(ctx context.Context, tenantID, customerID string) (*models.CartView, error) {
	return s.mutate(ctx, tenantID, customerID, "get", nil)
}

// Add puts one unit of every listed offer in the cart. Offers already in the cart keep their count.
func (s *CartService) Add(ctx context.Context, tenantID, customerID string, offerIDs []string) (*models.CartView, error) {
	if len(offerIDs) == 0 {
		return nil, apperrors.InvalidField("add_item", "at least one offer id is required")
	}
	ids := make([]string, len(offerIDs))
	for i, id := range offerIDs {
		ids[i] = canonicalOfferID(id)
	}
	return s.mutate(ctx, tenantID, customerID, "add", func(tx repository.Repository, items pricing.Items) (pricing.Items, error) {
		live, err := loadLiveOffers(ctx, tx, tenantID, ids)
		if err != nil {
			return nil, err
		}
		offers := make([]pricing.LiveOffer, 0, len(ids))
		for i, id := range ids {
			o, ok := live[id]
			if !ok {
				return nil, apperrors.InvalidField("add_item", "offer %s is not available", offerIDs[i])
			}
			offers = append(offers, o)
		}
		return pricing.Add(items, offers), nil
	})
}

func (s *CartService) UpdateCount(ctx context.Context, tenantID, customerID string, u pricing.CountUpdate) (*models.CartView, error) {
	for _, id := range []*string{&u.Increment, &u.Decrement, &u.Remove} {
		if *id != "" {
			*id = canonicalOfferID(*id)
		}
	}
	return s.mutate(ctx, tenantID, customerID, "update", func(_ repository.Repository, items pricing.Items) (pricing.Items, error) {
		return pricing.UpdateCount(items, u)
	})
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, tenantID, customerID string) error {
	_, err := s.mutate(ctx, tenantID, customerID, "clear", func(repository.Repository, pricing.Items) (pricing.Items, error) {
		return pricing.Items{}, nil
	})
	return err
}
