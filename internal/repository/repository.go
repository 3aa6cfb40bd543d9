package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"marketplace-service/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

// OfferDetail is an offer joined with the variation, product identity and store it belongs to.
type OfferDetail struct {
	Offer     models.Offer
	Variation models.ProductVariation
	Identity  models.ProductIdentity
	StoreName string
}

// Repository is the persistence boundary of the marketplace. Lock* methods take a row lock
// that is held until the surrounding transaction ends; outside WithTransaction they only
// serialize the single statement.
type Repository interface {
	WithTransaction(ctx context.Context, fn func(tx Repository) error) error

	// Sellers
	CreateSeller(ctx context.Context, seller *models.Seller) error
	GetSellerByUser(ctx context.Context, tenantID, userID string) (*models.Seller, error)
	GetSeller(ctx context.Context, tenantID string, id uuid.UUID) (*models.Seller, error)
	VerifySeller(ctx context.Context, tenantID string, id uuid.UUID, verifiedBy string, at time.Time) error

	// Drafts
	LockSellerDraft(ctx context.Context, tenantID string, sellerID uuid.UUID) (*models.SellerDraft, error)
	SaveSellerDraft(ctx context.Context, d *models.SellerDraft) error
	CreateSavedDraft(ctx context.Context, d *models.SavedDraft) error
	GetSavedDraft(ctx context.Context, tenantID string, sellerID uuid.UUID, nameKey string) (*models.SavedDraft, error)
	ListSavedDrafts(ctx context.Context, tenantID string, sellerID uuid.UUID) ([]models.SavedDraft, error)
	DeleteSavedDraft(ctx context.Context, tenantID string, sellerID uuid.UUID, nameKey string) error

	// Catalog
	ExistingUPCs(ctx context.Context, tenantID string, upcs []string) ([]string, error)
	CreateProductIdentity(ctx context.Context, p *models.ProductIdentity) error
	CreateSellerProduct(ctx context.Context, sp *models.SellerProduct) error
	CreateProductVariation(ctx context.Context, v *models.ProductVariation) error
	CreateOffer(ctx context.Context, o *models.Offer) error
	GetProductIdentity(ctx context.Context, tenantID string, id uuid.UUID, withVariations bool) (*models.ProductIdentity, error)
	UpdateProductStatus(ctx context.Context, tenantID string, id uuid.UUID, status models.ProductStatus) error
	ListProductsByStatus(ctx context.Context, tenantID string, status models.ProductStatus, page, limit int) ([]models.ProductIdentity, int64, error)
	GetSellersByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) (map[uuid.UUID]models.Seller, error)
	GetDefaultSellerProduct(ctx context.Context, tenantID string, productID uuid.UUID) (*models.SellerProduct, error)
	GetOffer(ctx context.Context, tenantID string, id uuid.UUID) (*models.Offer, error)
	UpdateOffer(ctx context.Context, o *models.Offer) error
	GetOfferDetails(ctx context.Context, tenantID string, offerIDs []uuid.UUID) ([]OfferDetail, error)
	ListSellerOfferDetails(ctx context.Context, tenantID string, sellerID uuid.UUID) ([]OfferDetail, error)

	// Carts and checkouts
	LockCart(ctx context.Context, tenantID, customerID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	AbandonPendingCheckouts(ctx context.Context, tenantID, customerID string) (int64, error)
	CreateCheckout(ctx context.Context, c *models.Checkout) error
	GetCheckout(ctx context.Context, tenantID string, id uuid.UUID) (*models.Checkout, error)
	GetCheckoutBySession(ctx context.Context, sessionID string) (*models.Checkout, error)
	UpdateCheckoutStatus(ctx context.Context, tenantID string, id uuid.UUID, status models.CheckoutStatus, completedAt *time.Time) error
	GetPaymentCustomer(ctx context.Context, tenantID, customerID string) (*models.PaymentCustomer, error)
	CreatePaymentCustomer(ctx context.Context, pc *models.PaymentCustomer) error
}
