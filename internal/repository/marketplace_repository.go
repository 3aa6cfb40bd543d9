package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"marketplace-service/internal/models"
)

// MarketplaceRepository is the gorm/postgres Repository.
type MarketplaceRepository struct {
	db *gorm.DB
}

func NewMarketplaceRepository(db *gorm.DB) *MarketplaceRepository {
	return &MarketplaceRepository{db: db}
}

var _ Repository = (*MarketplaceRepository)(nil)

// translate maps gorm errors to the repository sentinels. The database must be opened with
// TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (r *MarketplaceRepository) WithTransaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&MarketplaceRepository{db: tx})
	})
}

// --- Sellers ---

func (r *MarketplaceRepository) CreateSeller(ctx context.Context, seller *models.Seller) error {
	return translate(r.db.WithContext(ctx).Create(seller).Error)
}

func (r *MarketplaceRepository) GetSellerByUser(ctx context.Context, tenantID, userID string) (*models.Seller, error) {
	var seller models.Seller
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND user_id = ?", tenantID, userID).First(&seller).Error
	if err != nil {
		return nil, translate(err)
	}
	return &seller, nil
}

func (r *MarketplaceRepository) GetSeller(ctx context.Context, tenantID string, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&seller).Error
	if err != nil {
		return nil, translate(err)
	}
	return &seller, nil
}

func (r *MarketplaceRepository) VerifySeller(ctx context.Context, tenantID string, id uuid.UUID, verifiedBy string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Seller{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"verified":    true,
			"verified_at": at,
			"verified_by": verifiedBy,
			"updated_at":  at,
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MarketplaceRepository) GetSellersByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) (map[uuid.UUID]models.Seller, error) {
	out := make(map[uuid.UUID]models.Seller, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var sellers []models.Seller
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id IN ?", tenantID, ids).Find(&sellers).Error; err != nil {
		return nil, err
	}
	for _, s := range sellers {
		out[s.ID] = s
	}
	return out, nil
}

// --- Drafts ---

// LockSellerDraft creates the seller's draft row on first use and locks it FOR UPDATE.
func (r *MarketplaceRepository) LockSellerDraft(ctx context.Context, tenantID string, sellerID uuid.UUID) (*models.SellerDraft, error) {
	seed := models.SellerDraft{SellerID: sellerID, TenantID: tenantID, UpdatedAt: time.Now()}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, translate(err)
	}

	var row models.SellerDraft
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND seller_id = ?", tenantID, sellerID).
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *MarketplaceRepository) SaveSellerDraft(ctx context.Context, d *models.SellerDraft) error {
	d.UpdatedAt = time.Now()
	return translate(r.db.WithContext(ctx).Save(d).Error)
}

func (r *MarketplaceRepository) CreateSavedDraft(ctx context.Context, d *models.SavedDraft) error {
	return translate(r.db.WithContext(ctx).Create(d).Error)
}

func (r *MarketplaceRepository) GetSavedDraft(ctx context.Context, tenantID string, sellerID uuid.UUID, nameKey string) (*models.SavedDraft, error) {
	var d models.SavedDraft
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND seller_id = ? AND name_key = ?", tenantID, sellerID, nameKey).
		First(&d).Error
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *MarketplaceRepository) ListSavedDrafts(ctx context.Context, tenantID string, sellerID uuid.UUID) ([]models.SavedDraft, error) {
	var drafts []models.SavedDraft
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND seller_id = ?", tenantID, sellerID).
		Order("name_key ASC").
		Find(&drafts).Error
	return drafts, err
}

func (r *MarketplaceRepository) DeleteSavedDraft(ctx context.Context, tenantID string, sellerID uuid.UUID, nameKey string) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND seller_id = ? AND name_key = ?", tenantID, sellerID, nameKey).
		Delete(&models.SavedDraft{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Catalog ---

func (r *MarketplaceRepository) ExistingUPCs(ctx context.Context, tenantID string, upcs []string) ([]string, error) {
	if len(upcs) == 0 {
		return nil, nil
	}
	var found []string
	err := r.db.WithContext(ctx).Model(&models.ProductVariation{}).
		Where("tenant_id = ? AND upc IN ?", tenantID, upcs).
		Pluck("upc", &found).Error
	return found, err
}

func (r *MarketplaceRepository) CreateProductIdentity(ctx context.Context, p *models.ProductIdentity) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error)
}

func (r *MarketplaceRepository) CreateSellerProduct(ctx context.Context, sp *models.SellerProduct) error {
	return translate(r.db.WithContext(ctx).Create(sp).Error)
}

func (r *MarketplaceRepository) CreateProductVariation(ctx context.Context, v *models.ProductVariation) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error)
}

func (r *MarketplaceRepository) CreateOffer(ctx context.Context, o *models.Offer) error {
	return translate(r.db.WithContext(ctx).Create(o).Error)
}

func (r *MarketplaceRepository) GetProductIdentity(ctx context.Context, tenantID string, id uuid.UUID, withVariations bool) (*models.ProductIdentity, error) {
	var p models.ProductIdentity
	query := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id)
	if withVariations {
		query = query.Preload("Variations", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_variations.created_at ASC")
		}).Preload("Variations.Offers")
	}
	if err := query.First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *MarketplaceRepository) UpdateProductStatus(ctx context.Context, tenantID string, id uuid.UUID, status models.ProductStatus) error {
	result := r.db.WithContext(ctx).Model(&models.ProductIdentity{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MarketplaceRepository) ListProductsByStatus(ctx context.Context, tenantID string, status models.ProductStatus, page, limit int) ([]models.ProductIdentity, int64, error) {
	var products []models.ProductIdentity
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ProductIdentity{}).Where("tenant_id = ? AND status = ?", tenantID, status)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Preload("Variations").Preload("Variations.Offers").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *MarketplaceRepository) GetDefaultSellerProduct(ctx context.Context, tenantID string, productID uuid.UUID) (*models.SellerProduct, error) {
	var sp models.SellerProduct
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_identity_id = ? AND \"default\" = ?", tenantID, productID, true).
		Order("created_at ASC").
		First(&sp).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sp, nil
}

func (r *MarketplaceRepository) GetOffer(ctx context.Context, tenantID string, id uuid.UUID) (*models.Offer, error) {
	var o models.Offer
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *MarketplaceRepository) UpdateOffer(ctx context.Context, o *models.Offer) error {
	o.UpdatedAt = time.Now()
	return translate(r.db.WithContext(ctx).Save(o).Error)
}

func (r *MarketplaceRepository) GetOfferDetails(ctx context.Context, tenantID string, offerIDs []uuid.UUID) ([]OfferDetail, error) {
	if len(offerIDs) == 0 {
		return nil, nil
	}
	var offers []models.Offer
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id IN ?", tenantID, offerIDs).Find(&offers).Error; err != nil {
		return nil, err
	}
	return r.joinOffers(ctx, tenantID, offers)
}

func (r *MarketplaceRepository) ListSellerOfferDetails(ctx context.Context, tenantID string, sellerID uuid.UUID) ([]OfferDetail, error) {
	var offers []models.Offer
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND seller_id = ?", tenantID, sellerID).
		Order("created_at ASC").
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return r.joinOffers(ctx, tenantID, offers)
}

// joinOffers batch-loads the variations, identities and sellers of offers. Offers whose
// variation or identity no longer exists are skipped.
func (r *MarketplaceRepository) joinOffers(ctx context.Context, tenantID string, offers []models.Offer) ([]OfferDetail, error) {
	if len(offers) == 0 {
		return nil, nil
	}
	variationIDs := make([]uuid.UUID, 0, len(offers))
	sellerIDs := make([]uuid.UUID, 0, len(offers))
	for _, o := range offers {
		variationIDs = append(variationIDs, o.ProductVariationID)
		sellerIDs = append(sellerIDs, o.SellerID)
	}

	var variations []models.ProductVariation
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id IN ?", tenantID, variationIDs).Find(&variations).Error; err != nil {
		return nil, err
	}
	byVariation := make(map[uuid.UUID]models.ProductVariation, len(variations))
	identityIDs := make([]uuid.UUID, 0, len(variations))
	for _, v := range variations {
		byVariation[v.ID] = v
		identityIDs = append(identityIDs, v.ProductIdentityID)
	}

	var identities []models.ProductIdentity
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id IN ?", tenantID, identityIDs).Find(&identities).Error; err != nil {
		return nil, err
	}
	byIdentity := make(map[uuid.UUID]models.ProductIdentity, len(identities))
	for _, p := range identities {
		byIdentity[p.ID] = p
	}

	sellers, err := r.GetSellersByIDs(ctx, tenantID, sellerIDs)
	if err != nil {
		return nil, err
	}

	out := make([]OfferDetail, 0, len(offers))
	for _, o := range offers {
		v, ok := byVariation[o.ProductVariationID]
		if !ok {
			continue
		}
		p, ok := byIdentity[v.ProductIdentityID]
		if !ok {
			continue
		}
		out = append(out, OfferDetail{Offer: o, Variation: v, Identity: p, StoreName: sellers[o.SellerID].StoreName})
	}
	return out, nil
}

// --- Carts and checkouts ---

// LockCart creates the customer's cart on first use and locks it FOR UPDATE.
func (r *MarketplaceRepository) LockCart(ctx context.Context, tenantID, customerID string) (*models.Cart, error) {
	seed := models.Cart{ID: uuid.New(), TenantID: tenantID, CustomerID: customerID, UpdatedAt: time.Now()}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, translate(err)
	}

	var cart models.Cart
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		First(&cart).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cart, nil
}

func (r *MarketplaceRepository) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()
	return translate(r.db.WithContext(ctx).Save(cart).Error)
}

func (r *MarketplaceRepository) AbandonPendingCheckouts(ctx context.Context, tenantID, customerID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Checkout{}).
		Where("tenant_id = ? AND customer_id = ? AND status = ?", tenantID, customerID, models.CheckoutStatusPending).
		Updates(map[string]interface{}{"status": models.CheckoutStatusAbandoned, "updated_at": time.Now()})
	return result.RowsAffected, result.Error
}

func (r *MarketplaceRepository) CreateCheckout(ctx context.Context, c *models.Checkout) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *MarketplaceRepository) GetCheckout(ctx context.Context, tenantID string, id uuid.UUID) (*models.Checkout, error) {
	var c models.Checkout
	err := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND id = ?", tenantID, id).First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *MarketplaceRepository) GetCheckoutBySession(ctx context.Context, sessionID string) (*models.Checkout, error) {
	var c models.Checkout
	err := r.db.WithContext(ctx).Preload("Items").Where("session_id = ?", sessionID).First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *MarketplaceRepository) UpdateCheckoutStatus(ctx context.Context, tenantID string, id uuid.UUID, status models.CheckoutStatus, completedAt *time.Time) error {
	updates := map[string]interface{}{"status": status, "updated_at": time.Now()}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}
	result := r.db.WithContext(ctx).Model(&models.Checkout{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(updates)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MarketplaceRepository) GetPaymentCustomer(ctx context.Context, tenantID, customerID string) (*models.PaymentCustomer, error) {
	var pc models.PaymentCustomer
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).First(&pc).Error
	if err != nil {
		return nil, translate(err)
	}
	return &pc, nil
}

func (r *MarketplaceRepository) CreatePaymentCustomer(ctx context.Context, pc *models.PaymentCustomer) error {
	return translate(r.db.WithContext(ctx).Create(pc).Error)
}
