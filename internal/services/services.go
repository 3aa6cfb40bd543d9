// Package services holds the marketplace use cases. Every mutating operation runs inside one
// repository transaction; events, review requests and cache invalidation happen after commit and
// never change the result.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/clients"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
)

// EventPublisher is the subset of the NATS publisher the services use
type EventPublisher interface {
	PublishProductCreated(ctx context.Context, product *models.ProductIdentity, defaultOffer *models.Offer, actorID string) error
	PublishProductStatusChanged(ctx context.Context, product *models.ProductIdentity, oldStatus, newStatus models.ProductStatus, actorID string) error
	PublishOfferPriceChanged(ctx context.Context, tenantID string, offer *models.Offer, productID uuid.UUID, oldPrice decimal.Decimal, actorID string) error
	PublishPaymentSucceeded(ctx context.Context, checkout *models.Checkout) error
}

// ReviewRequester opens a review request for a new product
type ReviewRequester interface {
	CreateProductReviewRequest(ctx context.Context, tenantID, sellerUserID, storeName, productID, productName string) (*clients.ApprovalRequestResponse, error)
}

// mapRepoError turns repository sentinels into application errors naming what.
func mapRepoError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("%s not found", what)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("%s already exists", what)
	}
	return err
}

// nameKey is the case-insensitive form of a store or draft name.
func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// requireSeller loads the caller's seller account.
func requireSeller(ctx context.Context, repo repository.Repository, tenantID, userID string) (*models.Seller, error) {
	seller, err := repo.GetSellerByUser(ctx, tenantID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Permission("a seller account is required").WithCode("SELLER_REQUIRED")
	}
	if err != nil {
		return nil, err
	}
	return seller, nil
}

// requireVerifiedSeller loads the caller's seller account and checks it has been verified.
func requireVerifiedSeller(ctx context.Context, repo repository.Repository, tenantID, userID string) (*models.Seller, error) {
	seller, err := requireSeller(ctx, repo, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if !seller.Verified {
		return nil, apperrors.Permission("seller account %s is not verified", seller.StoreName).WithCode("SELLER_NOT_VERIFIED")
	}
	return seller, nil
}
