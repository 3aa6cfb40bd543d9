package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"marketplace-service/internal/draft"
)

// Seller is a user's seller account and the store they sell under.
type Seller struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID     string     `json:"tenantId" gorm:"not null;index:idx_sellers_tenant_user,unique;index:idx_sellers_tenant_store,unique"`
	UserID       string     `json:"userId" gorm:"not null;index:idx_sellers_tenant_user,unique"`
	StoreName    string     `json:"storeName" gorm:"not null;size:100"`
	StoreNameKey string     `json:"-" gorm:"not null;size:100;index:idx_sellers_tenant_store,unique"`
	Email        string     `json:"email,omitempty"`
	Verified     bool       `json:"verified"`
	VerifiedAt   *time.Time `json:"verifiedAt,omitempty"`
	VerifiedBy   *string    `json:"verifiedBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// SellerDraft holds a seller's active draft. The row is the per-seller lock target.
type SellerDraft struct {
	SellerID  uuid.UUID                       `json:"sellerId" gorm:"type:uuid;primary_key"`
	TenantID  string                          `json:"tenantId" gorm:"not null;index"`
	Active    datatypes.JSONType[draft.Draft] `json:"active" gorm:"type:jsonb"`
	UpdatedAt time.Time                       `json:"updatedAt"`
}

// SavedDraft is a named draft. Names are unique per seller regardless of case.
type SavedDraft struct {
	ID        uuid.UUID                       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string                          `json:"tenantId" gorm:"not null;index:idx_saved_drafts_name,unique"`
	SellerID  uuid.UUID                       `json:"sellerId" gorm:"type:uuid;not null;index:idx_saved_drafts_name,unique"`
	Name      string                          `json:"name" gorm:"not null;size:100"`
	NameKey   string                          `json:"-" gorm:"not null;size:100;index:idx_saved_drafts_name,unique"`
	Draft     datatypes.JSONType[draft.Draft] `json:"draft" gorm:"type:jsonb"`
	CreatedAt time.Time                       `json:"createdAt"`
	UpdatedAt time.Time                       `json:"updatedAt"`
}

func (Seller) TableName() string {
	return "sellers"
}

func (SellerDraft) TableName() string {
	return "seller_drafts"
}

func (SavedDraft) TableName() string {
	return "saved_drafts"
}
