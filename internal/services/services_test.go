package services

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"marketplace-service/internal/catalog"
	"marketplace-service/internal/clients"
	"marketplace-service/internal/draft"
	"marketplace-service/internal/models"
	"marketplace-service/internal/payments"
	"marketplace-service/internal/pricing"
	"marketplace-service/internal/repository/memory"
)

const testTenant = "tenant-1"

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// MockPublisher is a mock implementation of EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishProductCreated(ctx context.Context, product *models.ProductIdentity, defaultOffer *models.Offer, actorID string) error {
	args := m.Called(ctx, product, defaultOffer, actorID)
	return args.Error(0)
}

func (m *MockPublisher) PublishProductStatusChanged(ctx context.Context, product *models.ProductIdentity, oldStatus, newStatus models.ProductStatus, actorID string) error {
	args := m.Called(ctx, product, oldStatus, newStatus, actorID)
	return args.Error(0)
}

func (m *MockPublisher) PublishOfferPriceChanged(ctx context.Context, tenantID string, offer *models.Offer, productID uuid.UUID, oldPrice decimal.Decimal, actorID string) error {
	args := m.Called(ctx, tenantID, offer, productID, oldPrice, actorID)
	return args.Error(0)
}

func (m *MockPublisher) PublishPaymentSucceeded(ctx context.Context, checkout *models.Checkout) error {
	args := m.Called(ctx, checkout)
	return args.Error(0)
}

// MockReviews is a mock implementation of ReviewRequester
type MockReviews struct {
	mock.Mock
}

func (m *MockReviews) CreateProductReviewRequest(ctx context.Context, tenantID, sellerUserID, storeName, productID, productName string) (*clients.ApprovalRequestResponse, error) {
	args := m.Called(ctx, tenantID, sellerUserID, storeName, productID, productName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.ApprovalRequestResponse), args.Error(1)
}

// MockProvider is a mock implementation of payments.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateCustomer(ctx context.Context, req *payments.CustomerRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) CreateSetupIntent(ctx context.Context, providerCustomerID string) (*payments.SetupIntent, error) {
	args := m.Called(ctx, providerCustomerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.SetupIntent), args.Error(1)
}

func (m *MockProvider) CreateCheckoutSession(ctx context.Context, req *payments.SessionRequest) (*payments.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Session), args.Error(1)
}

func (m *MockProvider) ListLineItems(ctx context.Context, sessionID string) ([]payments.SessionLineItem, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payments.SessionLineItem), args.Error(1)
}

func (m *MockProvider) ParseWebhook(payload []byte, signature string) (*payments.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.WebhookEvent), args.Error(1)
}

// fixture wires the services against one in-memory repository.
type fixture struct {
	repo     *memory.Repository
	sellers  *SellerService
	drafts   *DraftService
	publish  *PublishService
	catalog  *CatalogService
	carts    *CartService
	events   *MockPublisher
	reviews  *MockReviews
	provider *MockProvider
	checkout *CheckoutService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testLogger()
	repo := memory.New()
	f := &fixture{
		repo:     repo,
		events:   new(MockPublisher),
		reviews:  new(MockReviews),
		provider: new(MockProvider),
	}
	f.sellers = NewSellerService(repo, logger)
	f.sellers.now = func() time.Time { return testNow }
	f.drafts = NewDraftService(repo, logger)
	f.drafts.now = func() time.Time { return testNow }
	f.publish = NewPublishService(repo, f.events, f.reviews, nil, logger)
	f.catalog = NewCatalogService(repo, nil, f.events, logger)
	f.carts = NewCartService(repo, logger)
	f.checkout = NewCheckoutService(repo, f.provider, f.events, CheckoutConfig{
		Currency: "usd",
		TTL:      24 * time.Hour,
		SoftTTL:  30 * time.Minute,
		Shipping: pricing.ShippingPolicy{
			FlatRate:      decimal.RequireFromString("5.00"),
			FreeThreshold: decimal.RequireFromString("100.00"),
		},
		TaxRate: decimal.RequireFromString("0.10"),
	}, logger)
	f.checkout.now = func() time.Time { return testNow }
	return f
}

// verifiedSeller registers and verifies a seller for userID.
func (f *fixture) verifiedSeller(t *testing.T, userID, store string) *models.Seller {
	t.Helper()
	seller, err := f.sellers.Register(context.Background(), testTenant, userID, models.RegisterSellerRequest{StoreName: store})
	require.NoError(t, err)
	seller, err = f.sellers.Verify(context.Background(), testTenant, seller.ID, "admin-1")
	require.NoError(t, err)
	return seller
}

func offerInput(upc, price string, isDefault bool) draft.OfferInput {
	return draft.OfferInput{SKU: "SKU-" + upc, UPC: upc, Price: price, Stock: intPtr(10), Default: isDefault}
}

// simpleDraft fills the active draft of userID with a publishable product without variations.
func (f *fixture) simpleDraft(t *testing.T, userID, name, upc, price string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.drafts.SetIdentity(ctx, testTenant, userID, draft.IdentityInput{
		ItemName: name,
		Category: catalog.CategoryElectronics,
		Brand:    catalog.BrandGeneric,
	})
	require.NoError(t, err)
	_, err = f.drafts.SetSingleOffer(ctx, testTenant, userID, offerInput(upc, price, false))
	require.NoError(t, err)
	f.describe(t, userID, `{"color":"black"}`)
}

// sizedDraft fills the active draft of userID with a t-shirt in sizes S, M and L with offers on S
// and L, L being the default.
func (f *fixture) sizedDraft(t *testing.T, userID string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.drafts.SetIdentity(ctx, testTenant, userID, draft.IdentityInput{
		ItemName:      "Plain tee",
		Category:      catalog.CategoryTShirt,
		Brand:         catalog.BrandApex,
		HasVariations: true,
	})
	require.NoError(t, err)
	_, err = f.drafts.SetVariations(ctx, testTenant, userID, draft.VariationInput{Size: []string{"S", "M", "L"}})
	require.NoError(t, err)
	_, err = f.drafts.SetOffers(ctx, testTenant, userID, map[int]draft.OfferInput{
		1: offerInput("036000291452", "10", false),
		3: offerInput("4006381333931", "12", true),
	})
	require.NoError(t, err)
	f.describe(t, userID, `{"color":"white","fit":"regular","material":"cotton","neckline":"crew",`+
		`"sleeve_length":"short","closure_type":"pull-on","style":"casual"}`)
}

func (f *fixture) describe(t *testing.T, userID, details string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.drafts.SetDescription(ctx, testTenant, userID, draft.DescriptionInput{
		Text:         "Everyday item",
		BulletPoints: []string{"durable"},
	})
	require.NoError(t, err)
	_, err = f.drafts.SetDetails(ctx, testTenant, userID, json.RawMessage(details))
	require.NoError(t, err)
}

// expectPublishSideEffects accepts the after-commit calls of any number of publishes.
func (f *fixture) expectPublishSideEffects() {
	f.events.On("PublishProductCreated", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.events.On("PublishProductStatusChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.reviews.On("CreateProductReviewRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&clients.ApprovalRequestResponse{}, nil).Maybe()
}

// approvedProduct publishes a simple product for userID and approves it. It returns the
// publish result.
func (f *fixture) approvedProduct(t *testing.T, userID, name, upc, price string) *models.PublishResult {
	t.Helper()
	f.expectPublishSideEffects()
	f.simpleDraft(t, userID, name, upc, price)
	res, err := f.publish.Publish(context.Background(), testTenant, userID, nil)
	require.NoError(t, err)
	require.NoError(t, f.catalog.SetProductStatus(context.Background(), testTenant, res.ProductIdentityID, models.ProductStatusApproved, "admin-1"))
	return res
}
