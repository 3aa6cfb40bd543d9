package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"marketplace-service/internal/apperrors"
	"marketplace-service/internal/draft"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
)

const maxDraftNameLength = 100

// DraftService runs the draft stages for a seller. Each stage holds the seller's draft row
// lock for the whole read-validate-write cycle.
type DraftService struct {
	repo   repository.Repository
	logger *logrus.Entry
	now    func() time.Time
}

func NewDraftService(repo repository.Repository, logger *logrus.Logger) *DraftService {
	return &DraftService{
		repo:   repo,
		logger: logger.WithField("component", "draft-service"),
		now:    time.Now,
	}
}

// stageFunc computes the next draft. tx is the locked transaction for lookups.
type stageFunc func(tx repository.Repository, tenantID string, d draft.Draft) (draft.Draft, error)

// locked runs fn with a verified seller and their locked draft row.
func (s *DraftService) locked(ctx context.Context, tenantID, userID string, fn func(tx repository.Repository, seller *models.Seller, row *models.SellerDraft) error) error {
	return s.repo.WithTransaction(ctx, func(tx repository.Repository) error {
		seller, err := requireVerifiedSeller(ctx, tx, tenantID, userID)
		if err != nil {
			return err
		}
		row, err := tx.LockSellerDraft(ctx, tenantID, seller.ID)
		if err != nil {
			return err
		}
		return fn(tx, seller, row)
	})
}

func (s *DraftService) apply(ctx context.Context, tenantID, userID, stage string, fn stageFunc) (draft.Draft, error) {
	var next draft.Draft
	err := s.locked(ctx, tenantID, userID, func(tx repository.Repository, seller *models.Seller, row *models.SellerDraft) error {
		var err error
		next, err = fn(tx, tenantID, row.Active.Data())
		if err != nil {
			return err
		}
		row.Active = datatypes.NewJSONType(next)
		return tx.SaveSellerDraft(ctx, row)
	})
	if err != nil {
		return draft.Draft{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"user_id":   userID,
		"stage":     stage,
	}).Debug("Draft stage applied")
	return next, nil
}

// takenUPCs looks up which of the submitted codes already belong to a persisted variation.
// Codes that do not parse are left to the stage to report.
func takenUPCs(ctx context.Context, tx repository.Repository, tenantID string, inputs ...draft.OfferInput) (draft.UPCLookup, error) {
	codes := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if upc, err := draft.NormalizeGTIN(in.UPC); err == nil {
			codes = append(codes, upc)
		}
	}
	existing, err := tx.ExistingUPCs(ctx, tenantID, codes)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(existing))
	for _, upc := range existing {
		set[upc] = true
	}
	return func(upc string) bool { return set[upc] }, nil
}

// SetIdentity starts a new draft from the product identity
func (s *DraftService) SetIdentity(ctx context.Context, tenantID, userID string, in draft.IdentityInput) (draft.Draft, error) {
	return s.apply(ctx, tenantID, userID, "identity", func(_ repository.Repository, _ string, d draft.Draft) (draft.Draft, error) {
		return draft.SetIdentity(d, in)
	})
}

func (s *DraftService) SetVariations(ctx context.Context, tenantID, userID string, in draft.VariationInput) (draft.Draft, error) {
	return s.apply(ctx, tenantID, userID, "variations", func(_ repository.Repository, _ string, d draft.Draft) (draft.Draft, error) {
		return draft.SetVariations(d, in)
	})
}

func (s *DraftService) SetSingleOffer(ctx context.Context, tenantID, userID string, in draft.OfferInput) (draft.Draft, error) {
	return s.apply(ctx, tenantID, userID, "offer", func(tx repository.Repository, tenantID string, d draft.Draft) (draft.Draft, error) {
		taken, err := takenUPCs(ctx, tx, tenantID, in)
		if err != nil {
			return draft.Draft{}, err
		}
		return draft.SetSingleOffer(d, in, taken)
	})
}

func (s *DraftService) SetOffers(ctx context.Context, tenantID, userID string, batch map[int]draft.OfferInput) (draft.Draft, error) {
	return s.apply(ctx, tenantID, userID, "offers", func(tx repository.Repository, tenantID string, d draft.Draft) (draft.Draft, error) {
		inputs := make([]draft.OfferInput, 0, len(batch))
		for _, in := range batch {
			inputs = append(inputs, in)
		}
		taken, err := takenUPCs(ctx, tx, tenantID, inputs...)
		if err != nil {
			return draft.Draft{}, err
		}
		return draft.SetOffers(d, batch, taken)
	})
}

func (s *DraftService) SetDescription(ctx context.Context, tenantID, userID string, in draft.DescriptionInput) (draft.Draft, error) {
	return s.apply(ctx, tenantID, userID, "description", func(_ repository.Repository, _ string, d draft.Draft) (draft.Draft, error) {
		return draft.SetDescription(d, in)
	})
}

func (s *DraftService) SetDetails(ctx context.Context, tenantID, userID string, raw json.RawMessage) (draft.Draft, error) {
	now := s.now()
	return s.apply(ctx, tenantID, userID, "details", func(_ repository.Repository, _ string, d draft.Draft) (draft.Draft, error) {
		return draft.SetDetails(d, raw, now)
	})
}

// GetActive returns the active draft, empty when the seller has none
func (s *DraftService) GetActive(ctx context.Context, tenantID, userID string) (draft.Draft, error) {
	var active draft.Draft
	err := s.locked(ctx, tenantID, userID, func(_ repository.Repository, _ *models.Seller, row *models.SellerDraft) error {
		active = row.Active.Data()
		return nil
	})
	return active, err
}

// DiscardActive clears the active draft
func (s *DraftService) DiscardActive(ctx context.Context, tenantID, userID string) error {
	return s.locked(ctx, tenantID, userID, func(tx repository.Repository, _ *models.Seller, row *models.SellerDraft) error {
		row.Active = datatypes.NewJSONType(draft.Draft{})
		return tx.SaveSellerDraft(ctx, row)
	})
}

func checkDraftName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > maxDraftNameLength {
		return "", apperrors.InvalidField("draft_name", "must be between 1 and %d characters", maxDraftNameLength)
	}
	return name, nil
}

// SaveDraft moves the active draft into the named set and clears the active slot
func (s *DraftService) SaveDraft(ctx context.Context, tenantID, userID, name string) (*models.SavedDraft, error) {
	name, err := checkDraftName(name)
	if err != nil {
		return nil, err
	}

	var saved *models.SavedDraft
	err = s.locked(ctx, tenantID, userID, func(tx repository.Repository, seller *models.Seller, row *models.SellerDraft) error {
		active := row.Active.Data()
		if active.IsEmpty() {
			return apperrors.Validation("there is no active draft to save").WithCode("DRAFT_EMPTY")
		}
		saved = &models.SavedDraft{
			TenantID: tenantID,
			SellerID: seller.ID,
			Name:     name,
			NameKey:  nameKey(name),
			Draft:    datatypes.NewJSONType(active),
		}
		if err := tx.CreateSavedDraft(ctx, saved); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.Conflict("a draft named %q already exists", name).WithCode("DRAFT_NAME_TAKEN")
			}
			return err
		}
		row.Active = datatypes.NewJSONType(draft.Draft{})
		return tx.SaveSellerDraft(ctx, row)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"seller_id":  saved.SellerID,
		"draft_name": name,
	}).Info("Draft saved")
	return saved, nil
}

// ListDrafts returns the seller's named drafts ordered by name
func (s *DraftService) ListDrafts(ctx context.Context, tenantID, userID string) ([]models.SavedDraft, error) {
	seller, err := requireSeller(ctx, s.repo, tenantID, userID)
	if err != nil {
		return nil, err
	}
	drafts, err := s.repo.ListSavedDrafts(ctx, tenantID, seller.ID)
	if err != nil {
		return nil, err
	}
	if drafts == nil {
		drafts = []models.SavedDraft{}
	}
	return drafts, nil
}

func (s *DraftService) GetDraft(ctx context.Context, tenantID, userID, name string) (*models.SavedDraft, error) {
	seller, err := requireSeller(ctx, s.repo, tenantID, userID)
	if err != nil {
		return nil, err
	}
	saved, err := s.repo.GetSavedDraft(ctx, tenantID, seller.ID, nameKey(name))
	if err != nil {
		return nil, mapRepoError(err, "draft "+strings.TrimSpace(name))
	}
	return saved, nil
}

func (s *DraftService) DeleteDraft(ctx context.Context, tenantID, userID, name string) error {
	seller, err := requireSeller(ctx, s.repo, tenantID, userID)
	if err != nil {
		return err
	}
	return mapRepoError(s.repo.DeleteSavedDraft(ctx, tenantID, seller.ID, nameKey(name)), "draft "+strings.TrimSpace(name))
}

// LoadDraft moves a named draft back into the active slot. Refused while the active slot
// holds unsaved data.
func (s *DraftService) LoadDraft(ctx context.Context, tenantID, userID, name string) (draft.Draft, error) {
	var loaded draft.Draft
	err := s.locked(ctx, tenantID, userID, func(tx repository.Repository, seller *models.Seller, row *models.SellerDraft) error {
		if !row.Active.Data().IsEmpty() {
			return apperrors.Validation("the active draft has unsaved changes, save or discard it first").WithCode("ACTIVE_DRAFT_NOT_EMPTY")
		}
		saved, err := tx.GetSavedDraft(ctx, tenantID, seller.ID, nameKey(name))
		if err != nil {
			return mapRepoError(err, "draft "+strings.TrimSpace(name))
		}
		if err := tx.DeleteSavedDraft(ctx, tenantID, seller.ID, saved.NameKey); err != nil {
			return err
		}
		loaded = saved.Draft.Data()
		row.Active = datatypes.NewJSONType(loaded)
		return tx.SaveSellerDraft(ctx, row)
	})
	if err != nil {
		return draft.Draft{}, err
	}
	return loaded, nil
}
