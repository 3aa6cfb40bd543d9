package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/setupintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

// MaxSessionLifetime is the furthest out a checkout session may expire. Stripe rejects
// expiries more than 24 hours ahead.
const MaxSessionLifetime = 24*time.Hour - time.Minute

// StripeProvider implements Provider with Stripe Checkout
type StripeProvider struct {
	secretKey     string
	webhookSecret string
}

// NewStripeProvider creates a new Stripe provider
func NewStripeProvider(secretKey, webhookSecret string) (*StripeProvider, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("Stripe secret key is required")
	}
	return &StripeProvider{secretKey: secretKey, webhookSecret: webhookSecret}, nil
}

var _ Provider = (*StripeProvider)(nil)

func (p *StripeProvider) CreateCustomer(ctx context.Context, req *CustomerRequest) (string, error) {
	stripe.Key = p.secretKey

	params := &stripe.CustomerParams{
		Metadata: map[string]string{
			"tenant_id":   req.TenantID,
			"customer_id": req.CustomerID,
		},
	}
	params.Context = ctx
	if req.Email != "" {
		params.Email = stripe.String(req.Email)
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", handleStripeError(err)
	}
	return cust.ID, nil
}

func (p *StripeProvider) CreateSetupIntent(ctx context.Context, providerCustomerID string) (*SetupIntent, error) {
	stripe.Key = p.secretKey

	params := &stripe.SetupIntentParams{
		Customer: stripe.String(providerCustomerID),
		Usage:    stripe.String(string(stripe.SetupIntentUsageOffSession)),
	}
	params.Context = ctx
	intent, err := setupintent.New(params)
	if err != nil {
		return nil, handleStripeError(err)
	}
	return &SetupIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	stripe.Key = p.secretKey

	currency := strings.ToLower(req.Currency)
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items)+2)
	for _, item := range req.Items {
		lineItems = append(lineItems, priceLine(currency, item))
	}
	if req.ShippingAmount > 0 {
		lineItems = append(lineItems, priceLine(currency, LineItem{Name: "Shipping", UnitAmount: req.ShippingAmount, Quantity: 1}))
	}
	if req.TaxAmount > 0 {
		lineItems = append(lineItems, priceLine(currency, LineItem{Name: "Tax", UnitAmount: req.TaxAmount, Quantity: 1}))
	}

	metadata := map[string]string{
		"checkout_id": req.CheckoutID,
		"customer_id": req.CustomerID,
		"tenant_id":   req.TenantID,
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Metadata:   metadata,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	if req.ProviderCustomerID != "" {
		params.Customer = stripe.String(req.ProviderCustomerID)
		params.PaymentIntentData.SetupFutureUsage = stripe.String("off_session")
	}
	if !req.ExpiresAt.IsZero() {
		expires := req.ExpiresAt
		if limit := time.Now().Add(MaxSessionLifetime); expires.After(limit) {
			expires = limit
		}
		params.ExpiresAt = stripe.Int64(expires.Unix())
	}
	if req.CheckoutID != "" {
		params.IdempotencyKey = stripe.String("checkout-" + req.CheckoutID)
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, handleStripeError(err)
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

func priceLine(currency string, item LineItem) *stripe.CheckoutSessionLineItemParams {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(item.Name),
	}
	if item.Reference != "" {
		product.Metadata = map[string]string{"offer_id": item.Reference}
	}
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:    stripe.String(currency),
			UnitAmount:  stripe.Int64(item.UnitAmount),
			ProductData: product,
		},
		Quantity: stripe.Int64(item.Quantity),
	}
}

func (p *StripeProvider) ListLineItems(ctx context.Context, sessionID string) ([]SessionLineItem, error) {
	stripe.Key = p.secretKey

	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx
	iter := session.ListLineItems(params)

	var out []SessionLineItem
	for iter.Next() {
		li := iter.LineItem()
		out = append(out, SessionLineItem{ID: li.ID, Description: li.Description, Quantity: li.Quantity})
	}
	if err := iter.Err(); err != nil {
		return nil, handleStripeError(err)
	}
	return out, nil
}

// ParseWebhook verifies a Stripe webhook signature and decodes checkout session events
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if p.webhookSecret == "" {
		return nil, fmt.Errorf("webhook secret not configured")
	}

	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, NewProviderError("webhook_verification_failed", err.Error(), false)
	}

	out := &WebhookEvent{EventID: event.ID, Type: WebhookUnknown}
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		out.Type = WebhookSessionCompleted
	case stripe.EventTypeCheckoutSessionExpired:
		out.Type = WebhookSessionExpired
	default:
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session: %w", err)
	}
	out.SessionID = sess.ID
	out.TenantID = sess.Metadata["tenant_id"]
	out.CheckoutID = sess.Metadata["checkout_id"]
	return out, nil
}

func handleStripeError(err error) error {
	if stripeErr, ok := err.(*stripe.Error); ok {
		return &ProviderError{
			Code:      string(stripeErr.Code),
			Message:   stripeErr.Msg,
			Retryable: isRetryable(stripeErr),
		}
	}
	return NewProviderError("unknown_error", err.Error(), false)
}

func isRetryable(err *stripe.Error) bool {
	if err.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}

	retryableCodes := map[stripe.ErrorCode]bool{
		stripe.ErrorCodeRateLimit:           true,
		stripe.ErrorCodeLockTimeout:         true,
		stripe.ErrorCodeIdempotencyKeyInUse: true,
	}
	return retryableCodes[err.Code]
}
