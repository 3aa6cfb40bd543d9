package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
)

const maxStoreNameLength = 100

// SellerService manages seller accounts
type SellerService struct {
	repo   repository.Repository
	logger *logrus.Entry
	now    func() time.Time
}

func NewSellerService(repo repository.Repository, logger *logrus.Logger) *SellerService {
	return &SellerService{
		repo:   repo,
		logger: logger.WithField("component", "seller-service"),
		now:    time.Now,
	}
}

// Register opens a seller account for the user. Store names are unique per tenant regardless
// of case.
func (s *SellerService) Register(ctx context.Context, tenantID, userID string, req models.RegisterSellerRequest) (*models.Seller, error) {
	storeName := strings.TrimSpace(req.StoreName)
	if n := utf8.RuneCountInString(storeName); n == 0 || n > maxStoreNameLength {
		return nil, apperrors.InvalidField("store_name", "must be between 1 and %d characters", maxStoreNameLength)
	}

	seller := &models.Seller{
		TenantID:     tenantID,
		UserID:       userID,
		StoreName:    storeName,
		StoreNameKey: nameKey(storeName),
		Email:        strings.TrimSpace(req.Email),
	}
	err := s.repo.WithTransaction(ctx, func(tx repository.Repository) error {
		if _, err := tx.GetSellerByUser(ctx, tenantID, userID); err == nil {
			return apperrors.Conflict("user already has a seller account").WithCode("SELLER_EXISTS")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		err := tx.CreateSeller(ctx, seller)
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.Conflict("store name %q is already taken", storeName).WithCode("STORE_NAME_TAKEN")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"seller_id": seller.ID,
		"store":     seller.StoreName,
	}).Info("Seller registered")
	return seller, nil
}

// Me returns the caller's seller account
func (s *SellerService) Me(ctx context.Context, tenantID, userID string) (*models.Seller, error) {
	seller, err := s.repo.GetSellerByUser(ctx, tenantID, userID)
	if err != nil {
		return nil, mapRepoError(err, "seller account")
	}
	return seller, nil
}

// Verify marks a seller account as verified by an administrator
func (s *SellerService) Verify(ctx context.Context, tenantID string, sellerID uuid.UUID, adminID string) (*models.Seller, error) {
	var seller *models.Seller
	err := s.repo.WithTransaction(ctx, func(tx repository.Repository) error {
		if err := tx.VerifySeller(ctx, tenantID, sellerID, adminID, s.now()); err != nil {
			return mapRepoError(err, "seller")
		}
		var err error
		seller, err = tx.GetSeller(ctx, tenantID, sellerID)
		return mapRepoError(err, "seller")
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"seller_id":   sellerID,
		"verified_by": adminID,
	}).Info("Seller verified")
	return seller, nil
}
