package models

import (
	"github.com/google/uuid"
	"marketplace-service/internal/draft"
	"marketplace-service/internal/pricing"
)

type RegisterSellerRequest struct {
	StoreName string `json:"store_name" binding:"required"`
	Email     string `json:"email" binding:"omitempty,email"`
}

type SaveDraftRequest struct {
	DraftName string `json:"draft_name" binding:"required"`
}

type PublishRequest struct {
	DraftName *string `json:"draft_name,omitempty"`
}

// OfferBatchRequest carries one offer per variation id.
type OfferBatchRequest struct {
	Variations map[int]draft.OfferInput `json:"variations" binding:"required"`
}

type UpdateOfferRequest struct {
	Price           *string `json:"price,omitempty"`
	DiscountedPrice *string `json:"discounted_price,omitempty"`
	ClearDiscount   bool    `json:"clear_discount,omitempty"`
	Stock           *int    `json:"stock,omitempty"`
}

type UpdateProductStatusRequest struct {
	Status ProductStatus `json:"status" binding:"required"`
	Reason string        `json:"reason,omitempty"`
}

type AddToCartRequest struct {
	AddItem []string `json:"add_item" binding:"required,min=1"`
}

// Response types

type DraftResponse struct {
	Success bool        `json:"success"`
	Data    draft.Draft `json:"data"`
}

// PublishResult reports what a publish created.
type PublishResult struct {
	ProductIdentityID uuid.UUID         `json:"product_identity_id"`
	SellerProductID   uuid.UUID         `json:"seller_product_id"`
	Status            ProductStatus     `json:"status"`
	Variations        map[int]uuid.UUID `json:"variations"`
	Offers            map[int]uuid.UUID `json:"offers"`
}

// CartView is the reconciled cart returned to the customer.
type CartView struct {
	Items    pricing.Items `json:"items"`
	Subtotal string        `json:"subtotal"`
	Discount string        `json:"discount"`
	Total    string        `json:"total"`
	Removed  []string      `json:"removed,omitempty"`
}

// CheckoutSession is returned when a checkout is created.
type CheckoutSession struct {
	ClientSecret string    `json:"client_secret"`
	SessionURL   string    `json:"session_url,omitempty"`
	Checkout     *Checkout `json:"checkout"`
}

// StorefrontProduct is a product list entry: the default variation with its default offer.
type StorefrontProduct struct {
	ID           uuid.UUID         `json:"id"`
	ItemName     string            `json:"item_name"`
	Category     string            `json:"category"`
	Brand        string            `json:"brand"`
	Theme        map[string]string `json:"theme,omitempty"`
	OfferID      uuid.UUID         `json:"offer_id"`
	Price        string            `json:"price"`
	Discounted   *string           `json:"discounted_price,omitempty"`
	Stock        int               `json:"stock"`
	Store        string            `json:"store"`
	VariationIDs []uuid.UUID       `json:"variation_ids,omitempty"`
}

// StorefrontOffer is one seller's offer on a variation.
type StorefrontOffer struct {
	ID          uuid.UUID `json:"id"`
	Price       string    `json:"price"`
	Discounted  *string   `json:"discounted_price,omitempty"`
	Stock       int       `json:"stock"`
	Condition   string    `json:"condition"`
	FulfilledBy string    `json:"fulfilled_by"`
	Store       string    `json:"store"`
}

type StorefrontVariation struct {
	ID      uuid.UUID         `json:"id"`
	UPC     string            `json:"upc"`
	Theme   map[string]string `json:"theme,omitempty"`
	Default bool              `json:"default"`
	Offers  []StorefrontOffer `json:"offers"`
}

// StorefrontProductDetail is the product page: every variation with its offers.
type StorefrontProductDetail struct {
	ID            uuid.UUID             `json:"id"`
	ItemName      string                `json:"item_name"`
	Category      string                `json:"category"`
	Brand         string                `json:"brand"`
	Description   string                `json:"description"`
	BulletPoints  []string              `json:"bullet_points"`
	Details       JSON                  `json:"details"`
	DefaultSeller string                `json:"default_seller,omitempty"`
	Variations    []StorefrontVariation `json:"variations"`
}

type StorefrontListResponse struct {
	Success    bool                `json:"success"`
	Data       []StorefrontProduct `json:"data"`
	Pagination *PaginationInfo     `json:"pagination"`
}
