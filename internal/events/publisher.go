package events

import (
	"context"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"marketplace-service/internal/models"
)

const defaultNATSURL = "nats://nats.nats.svc.cluster.local:4222"

// Publisher wraps the go-shared events publisher for product and payment events
type Publisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewPublisher connects to NATS and ensures the product and payment streams exist
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	if natsURL == "" {
		natsURL = defaultNATSURL
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "marketplace-service"

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create events publisher: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.EnsureStream(ctx, events.StreamProducts, []string{"product.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure products stream (may already exist)")
	}
	if err := publisher.EnsureStream(ctx, events.StreamPayments, []string{"payment.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure payments stream (may already exist)")
	}

	return &Publisher{
		publisher: publisher,
		logger:    logger.WithField("component", "marketplace-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
}

// PublishProductCreated publishes a product.created event for a freshly published product.
// The default offer supplies the SKU and price.
func (p *Publisher) PublishProductCreated(ctx context.Context, product *models.ProductIdentity, defaultOffer *models.Offer, actorID string) error {
	event := p.buildProductEvent(events.ProductCreated, product)
	event.ActorID = actorID
	event.ChangeType = "created"
	if defaultOffer != nil {
		event.SKU = defaultOffer.SKU
		event.Price = defaultOffer.Price.InexactFloat64()
		event.VendorID = defaultOffer.SellerID.String()
	}
	return p.publishProduct(ctx, event)
}

// PublishProductStatusChanged publishes a product status change event
func (p *Publisher) PublishProductStatusChanged(ctx context.Context, product *models.ProductIdentity, oldStatus, newStatus models.ProductStatus, actorID string) error {
	event := p.buildProductEvent("product.status_changed", product)
	event.Status = string(newStatus)
	event.ActorID = actorID
	event.ChangeType = "status_changed"
	event.OldValue = map[string]interface{}{"status": oldStatus}
	event.NewValue = map[string]interface{}{"status": newStatus}
	event.ChangedFields = []string{"status"}
	return p.publishProduct(ctx, event)
}

// PublishOfferPriceChanged publishes a product.price_changed event for one seller offer
func (p *Publisher) PublishOfferPriceChanged(ctx context.Context, tenantID string, offer *models.Offer, productID uuid.UUID, oldPrice decimal.Decimal, actorID string) error {
	event := events.NewProductEvent("product.price_changed", tenantID)
	event.SourceID = uuid.New().String()
	event.ProductID = productID.String()
	event.SKU = offer.SKU
	event.Price = offer.Price.InexactFloat64()
	event.VendorID = offer.SellerID.String()
	event.ActorID = actorID
	event.ChangeType = "price_changed"
	event.OldValue = map[string]interface{}{"price": oldPrice.InexactFloat64()}
	event.NewValue = map[string]interface{}{"price": offer.Price.InexactFloat64()}
	event.ChangedFields = []string{"price"}
	return p.publishProduct(ctx, event)
}

// PublishPaymentSucceeded publishes a payment.succeeded event for a completed checkout
func (p *Publisher) PublishPaymentSucceeded(ctx context.Context, checkout *models.Checkout) error {
	event := events.NewPaymentEvent(events.PaymentSucceeded, checkout.TenantID)
	event.PaymentID = checkout.SessionID
	event.OrderID = checkout.ID.String()
	event.Amount = checkout.FinalTotal.InexactFloat64()
	event.Currency = checkout.Currency
	event.Provider = "stripe"
	event.Method = "checkout_session"
	event.Status = "succeeded"

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.publisher.PublishPayment(pubCtx, event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType":  event.EventType,
				"checkoutID": checkout.ID,
				"tenantID":   checkout.TenantID,
			}).WithError(err).Error("Failed to publish payment event")
			return
		}
		p.logger.WithFields(logrus.Fields{
			"eventType":  event.EventType,
			"checkoutID": checkout.ID,
			"tenantID":   checkout.TenantID,
		}).Info("Payment event published successfully")
	}()
	return nil
}

// buildProductEvent creates a ProductEvent from a product identity
func (p *Publisher) buildProductEvent(eventType string, product *models.ProductIdentity) *events.ProductEvent {
	event := events.NewProductEvent(eventType, product.TenantID)
	event.SourceID = uuid.New().String()
	event.ProductID = product.ID.String()
	event.ProductName = product.ItemName
	event.Status = string(product.Status)
	event.CategoryID = string(product.Category)
	return event
}

// publishProduct logs and publishes events asynchronously
func (p *Publisher) publishProduct(ctx context.Context, event *events.ProductEvent) error {
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.publisher.PublishProduct(pubCtx, event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"productID": event.ProductID,
				"tenantID":  event.TenantID,
			}).WithError(err).Error("Failed to publish product event")
		} else {
			p.logger.WithFields(logrus.Fields{
				"eventType":   event.EventType,
				"productID":   event.ProductID,
				"productName": event.ProductName,
				"tenantID":    event.TenantID,
			}).Info("Product event published successfully")
		}
	}()

	return nil
}
