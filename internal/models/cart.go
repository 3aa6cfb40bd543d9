package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"marketplace-service/internal/pricing"
)

// Cart is the customer's held cart, one row per customer.
type Cart struct {
	ID         uuid.UUID                         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID   string                            `json:"tenantId" gorm:"not null;index:idx_carts_tenant_customer,unique"`
	CustomerID string                            `json:"customerId" gorm:"not null;index:idx_carts_tenant_customer,unique"`
	Items      datatypes.JSONType[pricing.Items] `json:"items" gorm:"type:jsonb"`
	UpdatedAt  time.Time                         `json:"updatedAt"`
}

// CheckoutStatus represents the lifecycle of a checkout session
type CheckoutStatus string

const (
	CheckoutStatusPending   CheckoutStatus = "pending"
	CheckoutStatusAbandoned CheckoutStatus = "abandoned"
	CheckoutStatusCompleted CheckoutStatus = "completed"
)

// Checkout is a frozen snapshot of a cart at payment-session creation.
type Checkout struct {
	ID                uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID          string          `json:"tenantId" gorm:"not null;index:idx_checkouts_tenant_customer_status"`
	CustomerID        string          `json:"customerId" gorm:"not null;index:idx_checkouts_tenant_customer_status"`
	Status            CheckoutStatus  `json:"status" gorm:"not null;default:'pending';index:idx_checkouts_tenant_customer_status"`
	Currency          string          `json:"currency" gorm:"not null;size:3"`
	Subtotal          decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	ShippingCost      decimal.Decimal `json:"shippingCost" gorm:"type:decimal(10,2);not null;default:0"`
	Discount          decimal.Decimal `json:"discount" gorm:"type:decimal(10,2);not null;default:0"`
	Tax               decimal.Decimal `json:"tax" gorm:"type:decimal(10,2);not null;default:0"`
	FinalTotal        decimal.Decimal `json:"finalTotal" gorm:"type:decimal(10,2);not null;default:0"`
	PaymentCustomerID string          `json:"paymentCustomerId"`
	SetupIntentID     string          `json:"-"`
	SessionID         string          `json:"sessionId" gorm:"uniqueIndex"`
	SessionURL        string          `json:"sessionUrl,omitempty"`
	ExpiresAt         time.Time       `json:"expiresAt"`
	SoftExpiresAt     time.Time       `json:"softExpiresAt"`
	CompletedAt       *time.Time      `json:"completedAt,omitempty"`
	Items             []CheckoutItem  `json:"items" gorm:"foreignKey:CheckoutID;constraint:OnDelete:CASCADE"`
	Stale             bool            `json:"stale" gorm:"-"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// CheckoutItem freezes one cart line.
type CheckoutItem struct {
	ID                 uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CheckoutID         uuid.UUID        `json:"checkoutId" gorm:"type:uuid;not null;index"`
	OfferID            string           `json:"offerId" gorm:"not null"`
	ProductVariationID string           `json:"productVariationId"`
	ProductIdentityID  string           `json:"productIdentityId"`
	ItemName           string           `json:"itemName" gorm:"not null"`
	Store              string           `json:"store"`
	Price              decimal.Decimal  `json:"price" gorm:"type:decimal(10,2);not null"`
	DiscountedPrice    *decimal.Decimal `json:"discountedPrice,omitempty" gorm:"type:decimal(10,2)"`
	Quantity           int              `json:"quantity" gorm:"not null"`
	Total              decimal.Decimal  `json:"total" gorm:"type:decimal(10,2);not null"`
	LineItemID         string           `json:"lineItemId,omitempty"`
}

// PaymentCustomer maps a customer to their payment-provider customer.
type PaymentCustomer struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID           string    `json:"tenantId" gorm:"not null;index:idx_payment_customers_customer,unique"`
	CustomerID         string    `json:"customerId" gorm:"not null;index:idx_payment_customers_customer,unique"`
	ProviderCustomerID string    `json:"providerCustomerId" gorm:"not null"`
	CreatedAt          time.Time `json:"createdAt"`
}

func (Cart) TableName() string {
	return "carts"
}

func (Checkout) TableName() string {
	return "checkouts"
}

func (CheckoutItem) TableName() string {
	return "checkout_items"
}

func (PaymentCustomer) TableName() string {
	return "payment_customers"
}
