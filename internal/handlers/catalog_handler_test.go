package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCatalogHandler_Storefront(t *testing.T) {
	s := newTestServer(t)
	s.verifiedSeller(t, "user-1", "Corner Shop")
	upcs := []string{"036000291452", "4006381333931", "012345678905"}
	var first publishResult
	for i, upc := range upcs {
		s.stageRadio(t, "user-1", "Radio "+upc, upc)
		res := s.publishApproved(t, "user-1")
		if i == 0 {
			first = res
		}
	}

	w := s.do(t, http.MethodGet, "/api/v1/storefront/products", "", nil)
	requireStatus(t, w, http.StatusOK)
	env := decode(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(3), env.Pagination.Total)
	assert.Equal(t, 2, env.Pagination.Limit)
	assert.Equal(t, 2, env.Pagination.TotalPages)

	// limits above the maximum are clamped
	w = s.do(t, http.MethodGet, "/api/v1/storefront/products?limit=50", "", nil)
	requireStatus(t, w, http.StatusOK)
	var products []struct {
		ID    string `json:"id"`
		Store string `json:"store"`
		Price string `json:"price"`
	}
	decodeData(t, w, &products)
	assert.Len(t, products, 3)
	assert.Equal(t, 5, decode(t, w).Pagination.Limit)
	for _, p := range products {
		assert.Equal(t, "Corner Shop", p.Store)
		assert.Equal(t, "20.00", p.Price)
	}

	w = s.do(t, http.MethodGet, "/api/v1/storefront/products/"+first.ProductIdentityID, "", nil)
	requireStatus(t, w, http.StatusOK)
	var detail struct {
		ItemName   string `json:"item_name"`
		Variations []struct {
			Offers []struct {
				ID string `json:"id"`
			} `json:"offers"`
		} `json:"variations"`
	}
	decodeData(t, w, &detail)
	assert.Equal(t, "Radio 036000291452", detail.ItemName)
	require.Len(t, detail.Variations, 1)
	require.Len(t, detail.Variations[0].Offers, 1)
	assert.Equal(t, first.Offers["1"], detail.Variations[0].Offers[0].ID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/storefront/products", nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCatalogHandler_PendingProductHidden(t *testing.T) {
	s := newTestServer(t)
	s.verifiedSeller(t, "user-1", "Shop")
	s.stageRadio(t, "user-1", "Radio", "036000291452")

	w := s.do(t, http.MethodPost, "/api/v1/sellers/me/drafts/publish", "user-1", nil)
	requireStatus(t, w, http.StatusCreated)
	var res publishResult
	decodeData(t, w, &res)

	w = s.do(t, http.MethodGet, "/api/v1/storefront/products/"+res.ProductIdentityID, "", nil)
	requireStatus(t, w, http.StatusNotFound)

	w = s.do(t, http.MethodPut, "/api/v1/products/"+res.ProductIdentityID+"/status", "admin-1", map[string]string{"status": "draft"})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "status", decode(t, w).Error.Field)

	w = s.do(t, http.MethodPut, "/api/v1/products/"+res.ProductIdentityID+"/status", "admin-1", map[string]string{})
	requireStatus(t, w, http.StatusBadRequest)
}

func TestCatalogHandler_UpdateOffer(t *testing.T) {
	s := newTestServer(t)
	s.verifiedSeller(t, "user-1", "Shop")
	s.verifiedSeller(t, "user-2", "Other")
	s.stageRadio(t, "user-1", "Radio", "036000291452")
	res := s.publishApproved(t, "user-1")
	path := "/api/v1/sellers/me/offers/" + res.Offers["1"]

	w := s.do(t, http.MethodPut, path, "user-1", map[string]interface{}{"price": "25", "discounted_price": "22.50", "stock": 2})
	requireStatus(t, w, http.StatusOK)
	var offer struct {
		Price           string  `json:"price"`
		DiscountedPrice *string `json:"discountedPrice"`
		Stock           int     `json:"stock"`
	}
	decodeData(t, w, &offer)
	assert.Equal(t, "25", offer.Price)
	assert.Equal(t, 2, offer.Stock)

	w = s.do(t, http.MethodPut, path, "user-1", map[string]interface{}{"discounted_price": "30"})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "discounted_price", decode(t, w).Error.Field)

	w = s.do(t, http.MethodPut, path, "user-2", map[string]interface{}{"stock": 1})
	requireStatus(t, w, http.StatusNotFound)

	w = s.do(t, http.MethodPut, "/api/v1/sellers/me/offers/nope", "user-1", map[string]interface{}{"stock": 1})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "INVALID_ID", decode(t, w).Error.Code)
}

func TestCatalogHandler_ExportOffers(t *testing.T) {
	s := newTestServer(t)
	s.verifiedSeller(t, "user-1", "Shop")
	s.stageRadio(t, "user-1", "Radio", "036000291452")
	res := s.publishApproved(t, "user-1")

	w := s.do(t, http.MethodGet, "/api/v1/sellers/me/offers/export", "user-1", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(offerSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Offer ID", rows[0][0])
	assert.Equal(t, res.Offers["1"], rows[1][0])
	assert.Equal(t, "Radio", rows[1][1])
	assert.Equal(t, "approved", rows[1][3])
	assert.Equal(t, "00036000291452", rows[1][4])

	w = s.do(t, http.MethodGet, "/api/v1/sellers/me/offers/export", "user-9", nil)
	requireStatus(t, w, http.StatusForbidden)
}
