package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"marketplace-service/internal/catalog"
	"marketplace-service/internal/draft"
)

// ProductStatus represents the review status of a product identity
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusPending  ProductStatus = "pending"
	ProductStatusApproved ProductStatus = "approved"
	ProductStatusRejected ProductStatus = "rejected"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusPending, ProductStatusApproved, ProductStatusRejected:
		return true
	}
	return false
}

// ProductIdentity is the platform-owned product definition shared by every seller offering it.
type ProductIdentity struct {
	ID              uuid.UUID                               `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID        string                                  `json:"tenantId" gorm:"not null;index:idx_identities_tenant_status"`
	ItemName        string                                  `json:"itemName" gorm:"not null;size:100"`
	Category        catalog.Category                        `json:"category" gorm:"not null;index"`
	Brand           catalog.Brand                           `json:"brand" gorm:"not null"`
	HasVariations   bool                                    `json:"hasVariations"`
	TaxCode         string                                  `json:"taxCode" gorm:"not null"`
	Family          catalog.Family                          `json:"family" gorm:"not null"`
	Description     string                                  `json:"description" gorm:"type:text"`
	BulletPoints    datatypes.JSONSlice[string]             `json:"bulletPoints" gorm:"type:jsonb"`
	Details         JSON                                    `json:"details" gorm:"type:jsonb"`
	VariationParams datatypes.JSONType[map[string][]string] `json:"variationParams" gorm:"type:jsonb"`
	Status          ProductStatus                           `json:"status" gorm:"not null;default:'pending';index:idx_identities_tenant_status"`
	CreatedBy       uuid.UUID                               `json:"createdBy" gorm:"type:uuid;index"`
	Variations      []ProductVariation                      `json:"variations,omitempty" gorm:"foreignKey:ProductIdentityID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time                               `json:"createdAt"`
	UpdatedAt       time.Time                               `json:"updatedAt"`
}

// ProductVariation is one addressable combination of a product, identified by its GTIN.
type ProductVariation struct {
	ID                uuid.UUID                       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID          string                          `json:"tenantId" gorm:"not null;index:idx_variations_tenant_upc,unique"`
	ProductIdentityID uuid.UUID                       `json:"productIdentityId" gorm:"type:uuid;not null;index"`
	UPC               string                          `json:"upc" gorm:"not null;size:14;index:idx_variations_tenant_upc,unique"`
	Theme             datatypes.JSONType[draft.Theme] `json:"theme" gorm:"type:jsonb"`
	Default           bool                            `json:"default"`
	Offers            []Offer                         `json:"offers,omitempty" gorm:"foreignKey:ProductVariationID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time                       `json:"createdAt"`
}

// Offer is a seller's price and stock for one variation.
type Offer struct {
	ID                 uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID           string              `json:"tenantId" gorm:"not null;index"`
	ProductVariationID uuid.UUID           `json:"productVariationId" gorm:"type:uuid;not null;index:idx_offers_variation_seller,unique"`
	SellerID           uuid.UUID           `json:"sellerId" gorm:"type:uuid;not null;index:idx_offers_variation_seller,unique;index"`
	SKU                string              `json:"sku" gorm:"not null;size:100"`
	Price              decimal.Decimal     `json:"price" gorm:"type:decimal(10,2);not null"`
	DiscountedPrice    *decimal.Decimal    `json:"discountedPrice,omitempty" gorm:"type:decimal(10,2)"`
	Stock              int                 `json:"stock" gorm:"not null;default:0"`
	Condition          catalog.Condition   `json:"condition" gorm:"not null;default:'new'"`
	FulfilledBy        catalog.Fulfillment `json:"fulfilledBy" gorm:"not null;default:'seller'"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// SellerProduct links a seller to a product identity they offer.
type SellerProduct struct {
	ID                uuid.UUID                               `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID          string                                  `json:"tenantId" gorm:"not null;index"`
	SellerID          uuid.UUID                               `json:"sellerId" gorm:"type:uuid;not null;index:idx_seller_products_seller_product,unique"`
	ProductIdentityID uuid.UUID                               `json:"productIdentityId" gorm:"type:uuid;not null;index:idx_seller_products_seller_product,unique"`
	Default           bool                                    `json:"default"`
	VariationParams   datatypes.JSONType[map[string][]string] `json:"variationParams" gorm:"type:jsonb"`
	CreatedAt         time.Time                               `json:"createdAt"`
}

// TableName returns the table name for the ProductIdentity model
func (ProductIdentity) TableName() string {
	return "product_identities"
}

// TableName returns the table name for the ProductVariation model
func (ProductVariation) TableName() string {
	return "product_variations"
}

func (Offer) TableName() string {
	return "offers"
}

func (SellerProduct) TableName() string {
	return "seller_products"
}
