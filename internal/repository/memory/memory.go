// Package memory is an in-process Repository used by service and handler tests. Transactions
// are serialized by a single mutex and roll back by restoring a snapshot of every table.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
)

type tables struct {
	seq              int64
	order            map[uuid.UUID]int64
	sellers          map[uuid.UUID]models.Seller
	sellerDrafts     map[uuid.UUID]models.SellerDraft
	savedDrafts      map[uuid.UUID]models.SavedDraft
	identities       map[uuid.UUID]models.ProductIdentity
	sellerProducts   map[uuid.UUID]models.SellerProduct
	variations       map[uuid.UUID]models.ProductVariation
	offers           map[uuid.UUID]models.Offer
	carts            map[string]models.Cart
	checkouts        map[uuid.UUID]models.Checkout
	paymentCustomers map[string]models.PaymentCustomer
}

func newTables() *tables {
	return &tables{
		order:            map[uuid.UUID]int64{},
		sellers:          map[uuid.UUID]models.Seller{},
		sellerDrafts:     map[uuid.UUID]models.SellerDraft{},
		savedDrafts:      map[uuid.UUID]models.SavedDraft{},
		identities:       map[uuid.UUID]models.ProductIdentity{},
		sellerProducts:   map[uuid.UUID]models.SellerProduct{},
		variations:       map[uuid.UUID]models.ProductVariation{},
		offers:           map[uuid.UUID]models.Offer{},
		carts:            map[string]models.Cart{},
		checkouts:        map[uuid.UUID]models.Checkout{},
		paymentCustomers: map[string]models.PaymentCustomer{},
	}
}

// clone copies the row maps. Rows are replaced, never mutated in place, so copying the
// maps is enough to restore them.
func (t *tables) clone() *tables {
	return &tables{
		seq:              t.seq,
		order:            maps.Clone(t.order),
		sellers:          maps.Clone(t.sellers),
		sellerDrafts:     maps.Clone(t.sellerDrafts),
		savedDrafts:      maps.Clone(t.savedDrafts),
		identities:       maps.Clone(t.identities),
		sellerProducts:   maps.Clone(t.sellerProducts),
		variations:       maps.Clone(t.variations),
		offers:           maps.Clone(t.offers),
		carts:            maps.Clone(t.carts),
		checkouts:        maps.Clone(t.checkouts),
		paymentCustomers: maps.Clone(t.paymentCustomers),
	}
}

func (t *tables) stamp(id uuid.UUID) {
	if _, ok := t.order[id]; ok {
		return
	}
	t.seq++
	t.order[id] = t.seq
}

type store struct {
	mu     sync.Mutex
	data   *tables
	failOn map[string]error
}

// Repository implements repository.Repository in memory.
type Repository struct {
	s    *store
	inTx bool
}

var _ repository.Repository = (*Repository)(nil)

func New() *Repository {
	return &Repository{s: &store{data: newTables(), failOn: map[string]error{}}}
}

// FailOn makes every later call of the named method return err. A nil err clears it.
func (r *Repository) FailOn(method string, err error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err == nil {
		delete(r.s.failOn, method)
		return
	}
	r.s.failOn[method] = err
}

// begin takes the store lock unless the caller already holds it inside a transaction, and
// reports the injected failure for method.
func (r *Repository) begin(method string) (func(), error) {
	unlock := func() {}
	if !r.inTx {
		r.s.mu.Lock()
		unlock = r.s.mu.Unlock
	}
	if err, ok := r.s.failOn[method]; ok {
		return unlock, err
	}
	return unlock, nil
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx repository.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err, ok := r.s.failOn["WithTransaction"]; ok {
		return err
	}
	snapshot := r.s.data.clone()
	if err := fn(&Repository{s: r.s, inTx: true}); err != nil {
		r.s.data = snapshot
		return err
	}
	return nil
}

func duplicate(what string) error {
	return fmt.Errorf("%w: %s", repository.ErrDuplicate, what)
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func now(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}

// --- Sellers ---

func (r *Repository) CreateSeller(ctx context.Context, seller *models.Seller) error {
	unlock, err := r.begin("CreateSeller")
	defer unlock()
	if err != nil {
		return err
	}
	for _, s := range r.s.data.sellers {
		if s.TenantID != seller.TenantID {
			continue
		}
		if s.UserID == seller.UserID {
			return duplicate("idx_sellers_tenant_user")
		}
		if s.StoreNameKey == seller.StoreNameKey {
			return duplicate("idx_sellers_tenant_store")
		}
	}
	newID(&seller.ID)
	now(&seller.CreatedAt)
	seller.UpdatedAt = seller.CreatedAt
	r.s.data.sellers[seller.ID] = *seller
	r.s.data.stamp(seller.ID)
	return nil
}

func (r *Repository) GetSellerByUser(ctx context.Context, tenantID, userID string) (*models.Seller, error) {
	unlock, err := r.begin("GetSellerByUser")
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, s := range r.s.data.sellers {
		if s.TenantID == tenantID && s.UserID == userID {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Repository) GetSeller(ctx context.Context, tenantID string, id uuid.UUID) (*models.Seller, error) {
	unlock, err := r.begin("GetSeller")
	defer unlock()
	if err != nil {
		return nil, err
	}
	s, ok := r.s.data.sellers[id]
	if !ok || s.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *Repository) VerifySeller(ctx context.Context, tenantID string, id uuid.UUID, verifiedBy string, at time.Time) error {
	unlock, err := r.begin("VerifySeller")
	defer unlock()
	if err != nil {
		return err
	}
	s, ok := r.s.data.sellers[id]
	if !ok || s.TenantID != tenantID {
		return repository.ErrNotFound
	}
	s.Verified = true
	s.VerifiedAt = &at
	s.VerifiedBy = &verifiedBy
	s.UpdatedAt = at
	r.s.data.sellers[id] = s
	return nil
}

func (r *Repository) GetSellersByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) (map[uuid.UUID]models.Seller, error) {
	unlock, err := r.begin("GetSellersByIDs")
	defer unlock()
	if err != nil {
		return nil, err
	}
	return r.sellersByIDs(tenantID, ids), nil
}

func (r *Repository) sellersByIDs(tenantID string, ids []uuid.UUID) map[uuid.UUID]models.Seller {
	out := make(map[uuid.UUID]models.Seller, len(ids))
	for _, id := range ids {
		if s, ok := r.s.data.sellers[id]; ok && s.TenantID == tenantID {
			out[id] = s
		}
	}
	return out
}

// --- Drafts ---

func (r *Repository) LockSellerDraft(ctx context.Context, tenantID string, sellerID uuid.UUID) (*models.SellerDraft, error) {
	unlock, err := r.begin("LockSellerDraft")
	defer unlock()
	if err != nil {
		return nil, err
	}
	row, ok := r.s.data.sellerDrafts[sellerID]
	if !ok {
		row = models.SellerDraft{SellerID: sellerID, TenantID: tenantID, UpdatedAt: time.Now()}
		r.s.data.sellerDrafts[sellerID] = row
	}
	if row.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (r *Repository) SaveSellerDraft(ctx context.Context, d *models.SellerDraft) error {
	unlock, err := r.begin("SaveSellerDraft")
	defer unlock()
	if err != nil {
		return err
	}
	d.UpdatedAt = time.Now()
	r.s.data.sellerDrafts[d.SellerID] = *d
	return nil
}

func (r *Repository) CreateSavedDraft(ctx context.Context, d *models.SavedDraft) error {
	unlock, err := r.begin("CreateSavedDraft")
	defer unlock()
	if err != nil {
		return err
	}
	for _, existing := range r.s.data.savedDrafts {
		if existing.TenantID == d.TenantID && existing.SellerID == d.SellerID && existing.NameKey == d.NameKey {
			return duplicate("idx_saved_drafts_name")
		}
	}
	newID(&d.ID)
	now(&d.CreatedAt)
	d.UpdatedAt = d.CreatedAt
	r.s.data.savedDrafts[d.ID] = *d
	r.s.data.stamp(d.ID)
	return nil
}

func (r *Repository) findSavedDraft(tenantID string, sellerID uuid.UUID, nameKey string) (models.SavedDraft, bool) {
	for _, d := range r.s.data.savedDrafts {
		if d.TenantID == tenantID && d.SellerID == sellerID && d.NameKey == nameKey {
			return d, true
		}
	}
	return models.SavedDraft{}, false
}

func (r *Repository) GetSavedDraft(ctx context.Context, tenantID string, sellerID uuid.UUID, nameKey string) (*models.SavedDraft, error) {
	unlock, err := r.begin("GetSavedDraft")
	defer unlock()
	if err != nil {
		return nil, err
	}
	d, ok := r.findSavedDraft(tenantID, sellerID, nameKey)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *Repository) ListSavedDrafts(ctx context.Context, tenantID string, sellerID uuid.UUID) ([]models.SavedDraft, error) {
	unlock, err := r.begin("ListSavedDrafts")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []models.SavedDraft
	for _, d := range r.s.data.savedDrafts {
		if d.TenantID == tenantID && d.SellerID == sellerID {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b models.SavedDraft) int {
		switch {
		case a.NameKey < b.NameKey:
			return -1
		case a.NameKey > b.NameKey:
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *Repository) DeleteSavedDraft(ctx context.Context, tenantID string, sellerID uuid.UUID, nameKey string) error {
	unlock, err := r.begin("DeleteSavedDraft")
	defer unlock()
	if err != nil {
		return err
	}
	d, ok := r.findSavedDraft(tenantID, sellerID, nameKey)
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.savedDrafts, d.ID)
	return nil
}

// --- Catalog ---

func (r *Repository) ExistingUPCs(ctx context.Context, tenantID string, upcs []string) ([]string, error) {
	unlock, err := r.begin("ExistingUPCs")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var found []string
	for _, v := range r.s.data.variations {
		if v.TenantID == tenantID && slices.Contains(upcs, v.UPC) {
			found = append(found, v.UPC)
		}
	}
	slices.Sort(found)
	return found, nil
}

func (r *Repository) CreateProductIdentity(ctx context.Context, p *models.ProductIdentity) error {
	unlock, err := r.begin("CreateProductIdentity")
	defer unlock()
	if err != nil {
		return err
	}
	newID(&p.ID)
	now(&p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	if p.Status == "" {
		p.Status = models.ProductStatusPending
	}
	row := *p
	row.Variations = nil
	r.s.data.identities[p.ID] = row
	r.s.data.stamp(p.ID)
	return nil
}

func (r *Repository) CreateSellerProduct(ctx context.Context, sp *models.SellerProduct) error {
	unlock, err := r.begin("CreateSellerProduct")
	defer unlock()
	if err != nil {
		return err
	}
	for _, existing := range r.s.data.sellerProducts {
		if existing.SellerID == sp.SellerID && existing.ProductIdentityID == sp.ProductIdentityID {
			return duplicate("idx_seller_products_seller_product")
		}
	}
	newID(&sp.ID)
	now(&sp.CreatedAt)
	r.s.data.sellerProducts[sp.ID] = *sp
	r.s.data.stamp(sp.ID)
	return nil
}

func (r *Repository) CreateProductVariation(ctx context.Context, v *models.ProductVariation) error {
	unlock, err := r.begin("CreateProductVariation")
	defer unlock()
	if err != nil {
		return err
	}
	for _, existing := range r.s.data.variations {
		if existing.TenantID == v.TenantID && existing.UPC == v.UPC {
			return duplicate("idx_variations_tenant_upc")
		}
	}
	newID(&v.ID)
	now(&v.CreatedAt)
	row := *v
	row.Offers = nil
	r.s.data.variations[v.ID] = row
	r.s.data.stamp(v.ID)
	return nil
}

func (r *Repository) CreateOffer(ctx context.Context, o *models.Offer) error {
	unlock, err := r.begin("CreateOffer")
	defer unlock()
	if err != nil {
		return err
	}
	for _, existing := range r.s.data.offers {
		if existing.ProductVariationID == o.ProductVariationID && existing.SellerID == o.SellerID {
			return duplicate("idx_offers_variation_seller")
		}
	}
	newID(&o.ID)
	now(&o.CreatedAt)
	o.UpdatedAt = o.CreatedAt
	r.s.data.offers[o.ID] = *o
	r.s.data.stamp(o.ID)
	return nil
}

func (r *Repository) byOrder(a, b uuid.UUID) int {
	return int(r.s.data.order[a] - r.s.data.order[b])
}

// assemble loads the variations and their offers of an identity, oldest first.
func (r *Repository) assemble(p models.ProductIdentity) models.ProductIdentity {
	var variationIDs []uuid.UUID
	for id, v := range r.s.data.variations {
		if v.ProductIdentityID == p.ID {
			variationIDs = append(variationIDs, id)
		}
	}
	slices.SortFunc(variationIDs, r.byOrder)

	p.Variations = make([]models.ProductVariation, 0, len(variationIDs))
	for _, vid := range variationIDs {
		v := r.s.data.variations[vid]
		var offerIDs []uuid.UUID
		for oid, o := range r.s.data.offers {
			if o.ProductVariationID == vid {
				offerIDs = append(offerIDs, oid)
			}
		}
		slices.SortFunc(offerIDs, r.byOrder)
		v.Offers = make([]models.Offer, 0, len(offerIDs))
		for _, oid := range offerIDs {
			v.Offers = append(v.Offers, r.s.data.offers[oid])
		}
		p.Variations = append(p.Variations, v)
	}
	return p
}

func (r *Repository) GetProductIdentity(ctx context.Context, tenantID string, id uuid.UUID, withVariations bool) (*models.ProductIdentity, error) {
	unlock, err := r.begin("GetProductIdentity")
	defer unlock()
	if err != nil {
		return nil, err
	}
	p, ok := r.s.data.identities[id]
	if !ok || p.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	if withVariations {
		p = r.assemble(p)
	}
	return &p, nil
}

func (r *Repository) UpdateProductStatus(ctx context.Context, tenantID string, id uuid.UUID, status models.ProductStatus) error {
	unlock, err := r.begin("UpdateProductStatus")
	defer unlock()
	if err != nil {
		return err
	}
	p, ok := r.s.data.identities[id]
	if !ok || p.TenantID != tenantID {
		return repository.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	r.s.data.identities[id] = p
	return nil
}

func (r *Repository) ListProductsByStatus(ctx context.Context, tenantID string, status models.ProductStatus, page, limit int) ([]models.ProductIdentity, int64, error) {
	unlock, err := r.begin("ListProductsByStatus")
	defer unlock()
	if err != nil {
		return nil, 0, err
	}
	var ids []uuid.UUID
	for id, p := range r.s.data.identities {
		if p.TenantID == tenantID && p.Status == status {
			ids = append(ids, id)
		}
	}
	// newest first
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return r.byOrder(b, a) })

	total := int64(len(ids))
	offset := (page - 1) * limit
	if offset >= len(ids) {
		return []models.ProductIdentity{}, total, nil
	}
	end := min(offset+limit, len(ids))
	out := make([]models.ProductIdentity, 0, end-offset)
	for _, id := range ids[offset:end] {
		out = append(out, r.assemble(r.s.data.identities[id]))
	}
	return out, total, nil
}

func (r *Repository) GetDefaultSellerProduct(ctx context.Context, tenantID string, productID uuid.UUID) (*models.SellerProduct, error) {
	unlock, err := r.begin("GetDefaultSellerProduct")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var best *models.SellerProduct
	for _, sp := range r.s.data.sellerProducts {
		if sp.TenantID != tenantID || sp.ProductIdentityID != productID || !sp.Default {
			continue
		}
		if best == nil || r.byOrder(sp.ID, best.ID) < 0 {
			best = &sp
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

func (r *Repository) GetOffer(ctx context.Context, tenantID string, id uuid.UUID) (*models.Offer, error) {
	unlock, err := r.begin("GetOffer")
	defer unlock()
	if err != nil {
		return nil, err
	}
	o, ok := r.s.data.offers[id]
	if !ok || o.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r *Repository) UpdateOffer(ctx context.Context, o *models.Offer) error {
	unlock, err := r.begin("UpdateOffer")
	defer unlock()
	if err != nil {
		return err
	}
	if _, ok := r.s.data.offers[o.ID]; !ok {
		return repository.ErrNotFound
	}
	o.UpdatedAt = time.Now()
	r.s.data.offers[o.ID] = *o
	return nil
}

func (r *Repository) GetOfferDetails(ctx context.Context, tenantID string, offerIDs []uuid.UUID) ([]repository.OfferDetail, error) {
	unlock, err := r.begin("GetOfferDetails")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var offers []models.Offer
	for _, id := range offerIDs {
		if o, ok := r.s.data.offers[id]; ok && o.TenantID == tenantID {
			offers = append(offers, o)
		}
	}
	return r.joinOffers(tenantID, offers), nil
}

func (r *Repository) ListSellerOfferDetails(ctx context.Context, tenantID string, sellerID uuid.UUID) ([]repository.OfferDetail, error) {
	unlock, err := r.begin("ListSellerOfferDetails")
	defer unlock()
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for id, o := range r.s.data.offers {
		if o.TenantID == tenantID && o.SellerID == sellerID {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, r.byOrder)
	offers := make([]models.Offer, 0, len(ids))
	for _, id := range ids {
		offers = append(offers, r.s.data.offers[id])
	}
	return r.joinOffers(tenantID, offers), nil
}

func (r *Repository) joinOffers(tenantID string, offers []models.Offer) []repository.OfferDetail {
	if len(offers) == 0 {
		return nil
	}
	out := make([]repository.OfferDetail, 0, len(offers))
	for _, o := range offers {
		v, ok := r.s.data.variations[o.ProductVariationID]
		if !ok {
			continue
		}
		p, ok := r.s.data.identities[v.ProductIdentityID]
		if !ok || p.TenantID != tenantID {
			continue
		}
		seller := r.s.data.sellers[o.SellerID]
		out = append(out, repository.OfferDetail{Offer: o, Variation: v, Identity: p, StoreName: seller.StoreName})
	}
	return out
}

// --- Carts and checkouts ---

func cartKey(tenantID, customerID string) string {
	return tenantID + "/" + customerID
}

func (r *Repository) LockCart(ctx context.Context, tenantID, customerID string) (*models.Cart, error) {
	unlock, err := r.begin("LockCart")
	defer unlock()
	if err != nil {
		return nil, err
	}
	key := cartKey(tenantID, customerID)
	cart, ok := r.s.data.carts[key]
	if !ok {
		cart = models.Cart{ID: uuid.New(), TenantID: tenantID, CustomerID: customerID, UpdatedAt: time.Now()}
		r.s.data.carts[key] = cart
	}
	return &cart, nil
}

func (r *Repository) SaveCart(ctx context.Context, cart *models.Cart) error {
	unlock, err := r.begin("SaveCart")
	defer unlock()
	if err != nil {
		return err
	}
	cart.UpdatedAt = time.Now()
	r.s.data.carts[cartKey(cart.TenantID, cart.CustomerID)] = *cart
	return nil
}

func (r *Repository) AbandonPendingCheckouts(ctx context.Context, tenantID, customerID string) (int64, error) {
	unlock, err := r.begin("AbandonPendingCheckouts")
	defer unlock()
	if err != nil {
		return 0, err
	}
	var n int64
	for id, c := range r.s.data.checkouts {
		if c.TenantID == tenantID && c.CustomerID == customerID && c.Status == models.CheckoutStatusPending {
			c.Status = models.CheckoutStatusAbandoned
			c.UpdatedAt = time.Now()
			r.s.data.checkouts[id] = c
			n++
		}
	}
	return n, nil
}

func (r *Repository) CreateCheckout(ctx context.Context, c *models.Checkout) error {
	unlock, err := r.begin("CreateCheckout")
	defer unlock()
	if err != nil {
		return err
	}
	if c.SessionID != "" {
		for _, existing := range r.s.data.checkouts {
			if existing.SessionID == c.SessionID {
				return duplicate("checkouts.session_id")
			}
		}
	}
	newID(&c.ID)
	now(&c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	for i := range c.Items {
		newID(&c.Items[i].ID)
		c.Items[i].CheckoutID = c.ID
	}
	row := *c
	row.Items = slices.Clone(c.Items)
	row.Stale = false
	r.s.data.checkouts[c.ID] = row
	r.s.data.stamp(c.ID)
	return nil
}

func (r *Repository) loadCheckout(c models.Checkout) *models.Checkout {
	c.Items = slices.Clone(c.Items)
	return &c
}

func (r *Repository) GetCheckout(ctx context.Context, tenantID string, id uuid.UUID) (*models.Checkout, error) {
	unlock, err := r.begin("GetCheckout")
	defer unlock()
	if err != nil {
		return nil, err
	}
	c, ok := r.s.data.checkouts[id]
	if !ok || c.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return r.loadCheckout(c), nil
}

func (r *Repository) GetCheckoutBySession(ctx context.Context, sessionID string) (*models.Checkout, error) {
	unlock, err := r.begin("GetCheckoutBySession")
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, c := range r.s.data.checkouts {
		if c.SessionID == sessionID {
			return r.loadCheckout(c), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Repository) UpdateCheckoutStatus(ctx context.Context, tenantID string, id uuid.UUID, status models.CheckoutStatus, completedAt *time.Time) error {
	unlock, err := r.begin("UpdateCheckoutStatus")
	defer unlock()
	if err != nil {
		return err
	}
	c, ok := r.s.data.checkouts[id]
	if !ok || c.TenantID != tenantID {
		return repository.ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	if completedAt != nil {
		at := *completedAt
		c.CompletedAt = &at
	}
	r.s.data.checkouts[id] = c
	return nil
}

func (r *Repository) GetPaymentCustomer(ctx context.Context, tenantID, customerID string) (*models.PaymentCustomer, error) {
	unlock, err := r.begin("GetPaymentCustomer")
	defer unlock()
	if err != nil {
		return nil, err
	}
	pc, ok := r.s.data.paymentCustomers[cartKey(tenantID, customerID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &pc, nil
}

func (r *Repository) CreatePaymentCustomer(ctx context.Context, pc *models.PaymentCustomer) error {
	unlock, err := r.begin("CreatePaymentCustomer")
	defer unlock()
	if err != nil {
		return err
	}
	key := cartKey(pc.TenantID, pc.CustomerID)
	if _, ok := r.s.data.paymentCustomers[key]; ok {
		return duplicate("idx_payment_customers_customer")
	}
	newID(&pc.ID)
	now(&pc.CreatedAt)
	r.s.data.paymentCustomers[key] = *pc
	return nil
}

// Counts reports row counts per table, for assertions on rollback.
func (r *Repository) Counts() map[string]int {
	unlock, _ := r.begin("Counts")
	defer unlock()
	return map[string]int{
		"sellers":            len(r.s.data.sellers),
		"saved_drafts":       len(r.s.data.savedDrafts),
		"product_identities": len(r.s.data.identities),
		"seller_products":    len(r.s.data.sellerProducts),
		"product_variations": len(r.s.data.variations),
		"offers":             len(r.s.data.offers),
		"checkouts":          len(r.s.data.checkouts),
		"payment_customers":  len(r.s.data.paymentCustomers),
	}
}
