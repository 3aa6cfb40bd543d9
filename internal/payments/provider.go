// Package payments talks to the payment provider that hosts checkout sessions.
package payments

import (
	"context"
	"fmt"
	"time"
)

// Provider defines what checkout needs from a payment provider
type Provider interface {
	// CreateCustomer registers a customer with the provider and returns the provider's id
	CreateCustomer(ctx context.Context, req *CustomerRequest) (string, error)

	// CreateSetupIntent prepares saving a payment method for the customer
	CreateSetupIntent(ctx context.Context, providerCustomerID string) (*SetupIntent, error)

	// CreateCheckoutSession opens a hosted payment session for the given lines
	CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*Session, error)

	// ListLineItems returns the session's line items in creation order
	ListLineItems(ctx context.Context, sessionID string) ([]SessionLineItem, error)

	// ParseWebhook verifies the signature and decodes a webhook event
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type CustomerRequest struct {
	TenantID   string
	CustomerID string
	Email      string
}

type SetupIntent struct {
	ID           string
	ClientSecret string
}

// LineItem is one line of a checkout session. UnitAmount is in minor units.
type LineItem struct {
	Name       string
	Reference  string
	UnitAmount int64
	Quantity   int64
}

type SessionRequest struct {
	TenantID           string
	CheckoutID         string
	CustomerID         string
	ProviderCustomerID string
	Currency           string
	Items              []LineItem
	ShippingAmount     int64
	TaxAmount          int64
	ExpiresAt          time.Time
	SuccessURL         string
	CancelURL          string
}

type Session struct {
	ID  string
	URL string
}

type SessionLineItem struct {
	ID          string
	Description string
	Quantity    int64
}

// WebhookEventType is a provider-neutral webhook event type
type WebhookEventType string

const (
	WebhookSessionCompleted WebhookEventType = "checkout.session.completed"
	WebhookSessionExpired   WebhookEventType = "checkout.session.expired"
	WebhookUnknown          WebhookEventType = "unknown"
)

// WebhookEvent is a verified webhook. TenantID and CheckoutID come from the session metadata.
type WebhookEvent struct {
	EventID    string
	Type       WebhookEventType
	SessionID  string
	TenantID   string
	CheckoutID string
}

// ProviderError is an error reported by the payment provider
type ProviderError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider error [%s]: %s", e.Code, e.Message)
}

func NewProviderError(code, message string, retryable bool) *ProviderError {
	return &ProviderError{Code: code, Message: message, Retryable: retryable}
}
