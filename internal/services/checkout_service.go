package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/models"
	"marketplace-service/internal/payments"
	"marketplace-service/internal/pricing"
	"marketplace-service/internal/repository"
)

// CheckoutConfig holds the checkout pricing and session settings
type CheckoutConfig struct {
	Currency   string
	TTL        time.Duration
	SoftTTL    time.Duration
	Shipping   pricing.ShippingPolicy
	TaxRate    decimal.Decimal
	SuccessURL string
	CancelURL  string
}

// CheckoutService freezes a reconciled cart into a checkout and opens a payment session for it.
type CheckoutService struct {
	repo      repository.Repository
	provider  payments.Provider
	publisher EventPublisher
	cfg       CheckoutConfig
	logger    *logrus.Entry
	now       func() time.Time
}

func NewCheckoutService(repo repository.Repository, provider payments.Provider, publisher EventPublisher, cfg CheckoutConfig, logger *logrus.Logger) *CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.TTL <= 0 || cfg.TTL > payments.MaxSessionLifetime {
		cfg.TTL = payments.MaxSessionLifetime
	}
	if cfg.SoftTTL <= 0 || cfg.SoftTTL > cfg.TTL {
		cfg.SoftTTL = cfg.TTL
	}
	return &CheckoutService{
		repo:      repo,
		provider:  provider,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.WithField("component", "checkout-service"),
		now:       time.Now,
	}
}

func providerFailure(err error, step string) error {
	var pe *payments.ProviderError
	if errors.As(err, &pe) {
		return apperrors.Dependency(err, "payment provider failed to %s: %s", step, pe.Message).WithCode(strings.ToUpper(pe.Code))
	}
	return apperrors.Dependency(err, "payment provider failed to %s", step)
}

// Create checks out the customer's cart. Earlier pending checkouts of the customer are abandoned.
// Provider calls happen inside the transaction so a failure leaves nothing behind.
func (s *CheckoutService) Create(ctx context.Context, tenantID, customerID, email string) (*models.CheckoutSession, error) {
	var checkout *models.Checkout
	var clientSecret string
	err := s.repo.WithTransaction(ctx, func(tx repository.Repository) error {
		cart, err := tx.LockCart(ctx, tenantID, customerID)
		if err != nil {
			return err
		}
		q, err := reconcileLocked(ctx, tx, cart, cart.Items.Data())
		if err != nil {
			return err
		}
		if len(q.Items) == 0 {
			return apperrors.Validation("the cart is empty").WithCode("CART_EMPTY")
		}
		cart.Items = datatypes.NewJSONType(q.Items)
		if err := tx.SaveCart(ctx, cart); err != nil {
			return err
		}
		if _, err := tx.AbandonPendingCheckouts(ctx, tenantID, customerID); err != nil {
			return err
		}

		totals := pricing.ComputeTotals(q, s.cfg.Shipping, s.cfg.TaxRate)
		providerCustomer, err := s.ensurePaymentCustomer(ctx, tx, tenantID, customerID, email)
		if err != nil {
			return err
		}
		intent, err := s.provider.CreateSetupIntent(ctx, providerCustomer)
		if err != nil {
			return providerFailure(err, "create setup intent")
		}
		clientSecret = intent.ClientSecret

		now := s.now()
		checkout = &models.Checkout{
			ID:                uuid.New(),
			TenantID:          tenantID,
			CustomerID:        customerID,
			Status:            models.CheckoutStatusPending,
			Currency:          s.cfg.Currency,
			Subtotal:          totals.Subtotal,
			ShippingCost:      totals.Shipping,
			Discount:          totals.Discount,
			Tax:               totals.Tax,
			FinalTotal:        totals.FinalTotal,
			PaymentCustomerID: providerCustomer,
			SetupIntentID:     intent.ID,
			ExpiresAt:         now.Add(s.cfg.TTL),
			SoftExpiresAt:     now.Add(s.cfg.SoftTTL),
			Items:             checkoutItems(q.Items),
		}

		session, err := s.provider.CreateCheckoutSession(ctx, &payments.SessionRequest{
			TenantID:           tenantID,
			CheckoutID:         checkout.ID.String(),
			CustomerID:         customerID,
			ProviderCustomerID: providerCustomer,
			Currency:           s.cfg.Currency,
			Items:              sessionLines(checkout.Items),
			ShippingAmount:     pricing.ToMinorUnits(totals.Shipping),
			TaxAmount:          pricing.ToMinorUnits(totals.Tax),
			ExpiresAt:          checkout.ExpiresAt,
			SuccessURL:         s.cfg.SuccessURL,
			CancelURL:          s.cfg.CancelURL,
		})
		if err != nil {
			return providerFailure(err, "create checkout session")
		}
		checkout.SessionID = session.ID
		checkout.SessionURL = session.URL

		lines, err := s.provider.ListLineItems(ctx, session.ID)
		if err != nil {
			return providerFailure(err, "list session line items")
		}
		// cart lines come first, shipping and tax lines follow them
		for i := range checkout.Items {
			if i < len(lines) {
				checkout.Items[i].LineItemID = lines[i].ID
			}
		}

		return mapRepoError(tx.CreateCheckout(ctx, checkout), "checkout")
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"customer_id": customerID,
		"checkout_id": checkout.ID,
		"session_id":  checkout.SessionID,
		"final_total": checkout.FinalTotal.String(),
	}).Info("Checkout created")

	return &models.CheckoutSession{
		ClientSecret: clientSecret,
		SessionURL:   checkout.SessionURL,
		Checkout:     checkout,
	}, nil
}

// ensurePaymentCustomer returns the provider customer id, registering the customer on first use.
func (s *CheckoutService) ensurePaymentCustomer(ctx context.Context, tx repository.Repository, tenantID, customerID, email string) (string, error) {
	pc, err := tx.GetPaymentCustomer(ctx, tenantID, customerID)
	if err == nil {
		return pc.ProviderCustomerID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	id, err := s.provider.CreateCustomer(ctx, &payments.CustomerRequest{
		TenantID:   tenantID,
		CustomerID: customerID,
		Email:      email,
	})
	if err != nil {
		return "", providerFailure(err, "create customer")
	}
	pc = &models.PaymentCustomer{TenantID: tenantID, CustomerID: customerID, ProviderCustomerID: id}
	if err := tx.CreatePaymentCustomer(ctx, pc); err != nil {
		return "", mapRepoError(err, "payment customer")
	}
	return id, nil
}

// checkoutItems freezes the cart lines in offer id order.
func checkoutItems(items pricing.Items) []models.CheckoutItem {
	out := make([]models.CheckoutItem, 0, len(items))
	for _, id := range items.IDs() {
		item := items[id]
		out = append(out, models.CheckoutItem{
			OfferID:            id,
			ProductVariationID: item.ProductVariation,
			ProductIdentityID:  item.ProductIdentity,
			ItemName:           item.ItemName,
			Store:              item.Store,
			Price:              item.Price,
			DiscountedPrice:    item.DiscountedPrice,
			Quantity:           item.Count,
			Total:              item.UnitPrice().Mul(decimal.NewFromInt(int64(item.Count))).Round(2),
		})
	}
	return out
}

func sessionLines(items []models.CheckoutItem) []payments.LineItem {
	out := make([]payments.LineItem, 0, len(items))
	for _, item := range items {
		unit := item.Price
		if item.DiscountedPrice != nil {
			unit = *item.DiscountedPrice
		}
		out = append(out, payments.LineItem{
			Name:       item.ItemName,
			Reference:  item.OfferID,
			UnitAmount: pricing.ToMinorUnits(unit),
			Quantity:   int64(item.Quantity),
		})
	}
	return out
}

// Get returns the frozen checkout. Prices are never re-read; an expired pending checkout is
// abandoned and one past its soft expiry is flagged stale.
func (s *CheckoutService) Get(ctx context.Context, tenantID, customerID string, id uuid.UUID) (*models.Checkout, error) {
	checkout, err := s.repo.GetCheckout(ctx, tenantID, id)
	if err != nil {
		return nil, mapRepoError(err, "checkout")
	}
	if checkout.CustomerID != customerID {
		return nil, apperrors.NotFound("checkout not found")
	}
	if checkout.Status != models.CheckoutStatusPending {
		return checkout, nil
	}

	now := s.now()
	switch {
	case now.After(checkout.ExpiresAt):
		if err := s.repo.UpdateCheckoutStatus(ctx, tenantID, id, models.CheckoutStatusAbandoned, nil); err != nil {
			return nil, mapRepoError(err, "checkout")
		}
		checkout.Status = models.CheckoutStatusAbandoned
		s.logger.WithField("checkout_id", id).Info("Checkout expired")
	case now.After(checkout.SoftExpiresAt):
		checkout.Stale = true
	}
	return checkout, nil
}

// HandleWebhook applies a verified provider event. Events for unknown sessions and of unknown
// types are acknowledged and ignored; redelivered completions are no-ops.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		return apperrors.Validation("invalid webhook signature").WithCode("INVALID_SIGNATURE")
	}
	log := s.logger.WithFields(logrus.Fields{
		"event_id":   event.EventID,
		"event_type": event.Type,
		"session_id": event.SessionID,
	})

	switch event.Type {
	case payments.WebhookSessionCompleted, payments.WebhookSessionExpired:
	default:
		log.Debug("Ignoring webhook event")
		return nil
	}

	checkout, err := s.repo.GetCheckoutBySession(ctx, event.SessionID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("Webhook for unknown checkout session")
		return nil
	}
	if err != nil {
		return err
	}
	log = log.WithFields(logrus.Fields{"tenant_id": checkout.TenantID, "checkout_id": checkout.ID})

	if event.Type == payments.WebhookSessionExpired {
		return s.expire(ctx, checkout, log)
	}
	return s.complete(ctx, checkout, log)
}

func (s *CheckoutService) expire(ctx context.Context, checkout *models.Checkout, log *logrus.Entry) error {
	if checkout.Status != models.CheckoutStatusPending {
		return nil
	}
	if err := s.repo.UpdateCheckoutStatus(ctx, checkout.TenantID, checkout.ID, models.CheckoutStatusAbandoned, nil); err != nil {
		return err
	}
	log.Info("Checkout session expired")
	return nil
}

func (s *CheckoutService) complete(ctx context.Context, checkout *models.Checkout, log *logrus.Entry) error {
	if checkout.Status == models.CheckoutStatusCompleted {
		log.Debug("Checkout already completed")
		return nil
	}

	completedAt := s.now()
	already := false
	err := s.repo.WithTransaction(ctx, func(tx repository.Repository) error {
		current, err := tx.GetCheckout(ctx, checkout.TenantID, checkout.ID)
		if err != nil {
			return err
		}
		if current.Status == models.CheckoutStatusCompleted {
			already = true
			return nil
		}
		if err := tx.UpdateCheckoutStatus(ctx, checkout.TenantID, checkout.ID, models.CheckoutStatusCompleted, &completedAt); err != nil {
			return err
		}
		cart, err := tx.LockCart(ctx, checkout.TenantID, checkout.CustomerID)
		if err != nil {
			return err
		}
		cart.Items = datatypes.NewJSONType(pricing.Items{})
		return tx.SaveCart(ctx, cart)
	})
	if err != nil || already {
		return err
	}
	checkout.Status = models.CheckoutStatusCompleted
	checkout.CompletedAt = &completedAt
	log.Info("Checkout completed")

	if s.publisher != nil {
		if err := s.publisher.PublishPaymentSucceeded(ctx, checkout); err != nil {
			log.WithError(err).Warn("Failed to publish payment.succeeded event")
		}
	}
	return nil
}
