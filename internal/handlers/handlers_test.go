package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"marketplace-service/internal/middleware"
	"marketplace-service/internal/payments"
	"marketplace-service/internal/repository/memory"
	"marketplace-service/internal/services"
)

const testTenant = "tenant-1"

func init() {
	gin.SetMode(gin.TestMode)
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

type testServer struct {
	router   *gin.Engine
	provider *MockProvider
}

// newTestServer wires every handler against an in-memory repository behind the
// development auth and tenant middleware.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := memory.New()
	provider := new(MockProvider)
	sellers := services.NewSellerService(repo, logger)
	drafts := services.NewDraftService(repo, logger)
	publish := services.NewPublishService(repo, nil, nil, nil, logger)
	catalog := services.NewCatalogService(repo, nil, nil, logger)
	carts := services.NewCartService(repo, logger)
	checkout := services.NewCheckoutService(repo, provider, nil, services.CheckoutConfig{Currency: "usd"}, logger)

	sellerHandler := NewSellerHandler(sellers, logger)
	draftHandler := NewDraftHandler(drafts, publish, logger)
	catalogHandler := NewCatalogHandler(catalog, 2, 5, logger)
	cartHandler := NewCartHandler(carts, logger)
	checkoutHandler := NewCheckoutHandler(checkout, logger)

	r := gin.New()
	r.GET("/health", HealthCheck)
	r.POST("/webhooks/stripe", checkoutHandler.HandleStripeWebhook)

	api := r.Group("/api/v1")
	api.Use(middleware.DevelopmentAuthMiddleware(), middleware.TenantMiddleware())
	api.POST("/sellers", sellerHandler.RegisterSeller)
	api.GET("/sellers/me", sellerHandler.GetMe)
	api.POST("/sellers/:id/verify", sellerHandler.VerifySeller)

	me := api.Group("/sellers/me")
	me.GET("/drafts/active", draftHandler.GetActiveDraft)
	me.DELETE("/drafts/active", draftHandler.DiscardActiveDraft)
	me.POST("/drafts/identity", draftHandler.SetIdentity)
	me.POST("/drafts/variations", draftHandler.SetVariations)
	me.POST("/drafts/offer", draftHandler.SetOffer)
	me.POST("/drafts/offers", draftHandler.SetOffers)
	me.POST("/drafts/description", draftHandler.SetDescription)
	me.POST("/drafts/details", draftHandler.SetDetails)
	me.POST("/drafts/save", draftHandler.SaveDraft)
	me.POST("/drafts/publish", draftHandler.Publish)
	me.GET("/drafts", draftHandler.ListDrafts)
	me.GET("/drafts/:name", draftHandler.GetDraft)
	me.POST("/drafts/:name/load", draftHandler.LoadDraft)
	me.DELETE("/drafts/:name", draftHandler.DeleteDraft)
	me.GET("/offers/export", catalogHandler.ExportOffers)
	me.PUT("/offers/:id", catalogHandler.UpdateOffer)
	api.PUT("/products/:id/status", catalogHandler.UpdateProductStatus)

	api.GET("/cart", cartHandler.GetCart)
	api.POST("/cart", cartHandler.AddItems)
	api.PUT("/cart", cartHandler.UpdateCount)
	api.DELETE("/cart", cartHandler.ClearCart)
	api.POST("/checkout", checkoutHandler.CreateCheckout)
	api.GET("/checkout/:id", checkoutHandler.GetCheckout)

	storefront := r.Group("/api/v1/storefront")
	storefront.Use(middleware.TenantMiddleware())
	storefront.GET("/products", catalogHandler.ListProducts)
	storefront.GET("/products/:id", catalogHandler.GetProduct)

	return &testServer{router: r, provider: provider}
}

// do sends a request as userID in the test tenant. A nil body sends no body.
func (s *testServer) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", testTenant)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Total      int64 `json:"total"`
		Limit      int   `json:"limit"`
		TotalPages int   `json:"totalPages"`
	} `json:"pagination"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
		Details struct {
			Fields []struct {
				Field   string `json:"field"`
				Message string `json:"message"`
			} `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	env := decode(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}

// verifiedSeller registers userID as a seller and verifies them.
func (s *testServer) verifiedSeller(t *testing.T, userID, store string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/sellers", userID, map[string]string{"store_name": store})
	requireStatus(t, w, http.StatusCreated)
	var seller struct {
		ID string `json:"id"`
	}
	decodeData(t, w, &seller)

	w = s.do(t, http.MethodPost, "/api/v1/sellers/"+seller.ID+"/verify", "admin-1", nil)
	requireStatus(t, w, http.StatusOK)
}

// stageRadio stages a publishable product without variations for userID.
func (s *testServer) stageRadio(t *testing.T, userID, name, upc string) {
	t.Helper()
	steps := []struct {
		path string
		body interface{}
	}{
		{"/drafts/identity", map[string]interface{}{"item_name": name, "category": "electronics", "brand": "generic"}},
		{"/drafts/offer", map[string]interface{}{"sku": "SKU-" + upc, "upc": upc, "price": "20", "stock": 5}},
		{"/drafts/description", map[string]interface{}{"product_description": "Pocket radio", "bullet_points": []string{"loud"}}},
		{"/drafts/details", `{"color":"black"}`},
	}
	for _, step := range steps {
		w := s.do(t, http.MethodPost, "/api/v1/sellers/me"+step.path, userID, step.body)
		requireStatus(t, w, http.StatusOK)
	}
}

type publishResult struct {
	ProductIdentityID string            `json:"product_identity_id"`
	Status            string            `json:"status"`
	Offers            map[string]string `json:"offers"`
}

// publishApproved publishes the staged draft of userID and approves the product.
func (s *testServer) publishApproved(t *testing.T, userID string) publishResult {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/sellers/me/drafts/publish", userID, nil)
	requireStatus(t, w, http.StatusCreated)
	var res publishResult
	decodeData(t, w, &res)

	w = s.do(t, http.MethodPut, "/api/v1/products/"+res.ProductIdentityID+"/status", "admin-1", map[string]string{"status": "approved"})
	requireStatus(t, w, http.StatusOK)
	return res
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "marketplace-service")
}

func TestRespondError_UnexpectedError(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, logger.WithField("component", "test"), errors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.NotContains(t, w.Body.String(), "connection refused")
}
