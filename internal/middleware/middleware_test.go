package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func echoRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/echo", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tenant": GetTenantID(c),
			"user":   c.GetString("user_id"),
			"staff":  c.GetString("staff_id"),
			"email":  c.GetString("user_email"),
		})
	})
	return r
}

func TestTenantMiddleware(t *testing.T) {
	r := echoRouter(TenantMiddleware())

	tests := []struct {
		name    string
		headers map[string]string
		status  int
		body    string
	}{
		{"vendor header", map[string]string{"X-Vendor-ID": "t-1", "X-Tenant-ID": "t-2"}, http.StatusOK, `"tenant":"t-1"`},
		{"tenant header", map[string]string{"X-Tenant-ID": "t-2"}, http.StatusOK, `"tenant":"t-2"`},
		{"missing", nil, http.StatusUnauthorized, "TENANT_REQUIRED"},
		{"too long", map[string]string{"X-Tenant-ID": strings.Repeat("x", maxTenantIDLength+1)}, http.StatusBadRequest, "INVALID_TENANT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/echo", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestTenantMiddleware_PrefersContext(t *testing.T) {
	setTenant := func(c *gin.Context) {
		c.Set("tenant_id", "from-jwt")
		c.Next()
	}
	r := echoRouter(setTenant, TenantMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("X-Tenant-ID", "from-header")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tenant":"from-jwt"`)
}

func TestDevelopmentAuthMiddleware(t *testing.T) {
	r := echoRouter(DevelopmentAuthMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("X-User-ID", "user-7")
	req.Header.Set("X-User-Email", "seven@example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"user":"user-7"`)
	assert.Contains(t, w.Body.String(), `"staff":"user-7"`)
	assert.Contains(t, w.Body.String(), `"email":"seven@example.com"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/echo", nil))
	assert.Contains(t, w.Body.String(), `"user":"`+devUserID+`"`)
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS("https://shop.example.com"))
	r.GET("/echo", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/echo", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
