package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"marketplace-service/internal/models"
)

// Cache TTL constants
const (
	StorefrontProductCacheTTL = 5 * time.Minute
	StorefrontListCacheTTL    = 2 * time.Minute // lists change whenever a product is reviewed
)

// StorefrontPage is one cached page of the approved product list.
type StorefrontPage struct {
	Products []models.StorefrontProduct `json:"products"`
	Total    int64                      `json:"total"`
}

// StorefrontCache caches storefront reads in redis with an in-process L1. A nil
// *StorefrontCache is valid and always calls the loader.
type StorefrontCache struct {
	cache *cache.CacheLayer
}

func NewStorefrontCache(redis *redis.Client) *StorefrontCache {
	if redis == nil {
		return nil
	}
	cacheConfig := cache.CacheConfig{
		L1Enabled:  true,
		L1MaxItems: 5000,
		L1TTL:      30 * time.Second,
		DefaultTTL: StorefrontProductCacheTTL,
		KeyPrefix:  "tesseract:marketplace:",
	}
	return &StorefrontCache{cache: cache.NewCacheLayerFromClient(redis, cacheConfig)}
}

// ProductList returns a page of the storefront list, loading it on a miss.
func (c *StorefrontCache) ProductList(ctx context.Context, tenantID string, page, limit int, load func() (*StorefrontPage, error)) (*StorefrontPage, error) {
	if c == nil {
		return load()
	}
	cacheKey := fmt.Sprintf("storefront:list:%s:%d:%d", tenantID, page, limit)

	var result StorefrontPage
	var loadErr error
	err := c.cache.GetOrSetJSON(ctx, cacheKey, &result, StorefrontListCacheTTL, func() (any, error) {
		p, err := load()
		loadErr = err
		return p, err
	})
	if loadErr != nil {
		return nil, loadErr
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ProductDetail returns the storefront product page, loading it on a miss.
func (c *StorefrontCache) ProductDetail(ctx context.Context, tenantID string, productID uuid.UUID, load func() (*models.StorefrontProductDetail, error)) (*models.StorefrontProductDetail, error) {
	if c == nil {
		return load()
	}
	cacheKey := fmt.Sprintf("storefront:product:%s:%s", tenantID, productID.String())

	var detail models.StorefrontProductDetail
	var loadErr error
	err := c.cache.GetOrSetJSON(ctx, cacheKey, &detail, StorefrontProductCacheTTL, func() (any, error) {
		d, err := load()
		loadErr = err
		return d, err
	})
	if loadErr != nil {
		return nil, loadErr
	}
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// InvalidateProduct drops the product page and every list page of the tenant.
func (c *StorefrontCache) InvalidateProduct(ctx context.Context, tenantID string, productID uuid.UUID) {
	if c == nil {
		return
	}
	_ = c.cache.Delete(ctx, fmt.Sprintf("storefront:product:%s:%s", tenantID, productID.String()))
	_ = c.cache.DeletePattern(ctx, fmt.Sprintf("storefront:list:%s:*", tenantID))
}
