package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"marketplace-service/internal/draft"
	"marketplace-service/internal/models"
	"marketplace-service/internal/services"
)

// DraftHandler serves the seller's staged product draft, saved drafts and publishing.
type DraftHandler struct {
	drafts  *services.DraftService
	publish *services.PublishService
	logger  *logrus.Entry
}

func NewDraftHandler(drafts *services.DraftService, publish *services.PublishService, logger *logrus.Logger) *DraftHandler {
	return &DraftHandler{
		drafts:  drafts,
		publish: publish,
		logger:  logger.WithField("component", "draft-handler"),
	}
}

func (h *DraftHandler) respondDraft(c *gin.Context, d draft.Draft, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.DraftResponse{
		Success: true,
		Data:    d,
	})
}

// GetActiveDraft returns the draft being staged
func (h *DraftHandler) GetActiveDraft(c *gin.Context) {
	tenantID, userID := requestScope(c)
	d, err := h.drafts.GetActive(c.Request.Context(), tenantID, userID)
	h.respondDraft(c, d, err)
}

// DiscardActiveDraft empties the draft being staged
func (h *DraftHandler) DiscardActiveDraft(c *gin.Context) {
	tenantID, userID := requestScope(c)
	if err := h.drafts.DiscardActive(c.Request.Context(), tenantID, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Draft discarded",
	})
}

// SetIdentity starts a new draft from the product identity
// @Summary Stage product identity
// @Tags drafts
// @Accept json
// @Produce json
// @Param request body draft.IdentityInput true "Product identity"
// @Success 200 {object} models.DraftResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /sellers/me/drafts/identity [post]
func (h *DraftHandler) SetIdentity(c *gin.Context) {
	tenantID, userID := requestScope(c)
	var req draft.IdentityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	d, err := h.drafts.SetIdentity(c.Request.Context(), tenantID, userID, req)
	h.respondDraft(c, d, err)
}

func (h *DraftHandler) SetVariations(c *gin.Context) {
	tenantID, userID := requestScope(c)
	var req draft.VariationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	d, err := h.drafts.SetVariations(c.Request.Context(), tenantID, userID, req)
	h.respondDraft(c, d, err)
}

// SetOffer stages the offer of a product without variations
func (h *DraftHandler) SetOffer(c *gin.Context) {
	tenantID, userID := requestScope(c)
	var req draft.OfferInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	d, err := h.drafts.SetSingleOffer(c.Request.Context(), tenantID, userID, req)
	h.respondDraft(c, d, err)
}

// SetOffers stages one offer per variation id
// @Summary Stage variation offers
// @Tags drafts
// @Accept json
// @Produce json
// @Param request body models.OfferBatchRequest true "Offers keyed by variation id"
// @Success 200 {object} models.DraftResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /sellers/me/drafts/offers [post]
func (h *DraftHandler) SetOffers(c *gin.Context) {
	tenantID, userID := requestScope(c)
	var req models.OfferBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	d, err := h.drafts.SetOffers(c.Request.Context(), tenantID, userID, req.Variations)
	h.respondDraft(c, d, err)
}

func (h *DraftHandler) SetDescription(c *gin.Context) {
	tenantID, userID := requestScope(c)
	var req draft.DescriptionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	d, err := h.drafts.SetDescription(c.Request.Context(), tenantID, userID, req)
	h.respondDraft(c, d, err)
}

// SetDetails stages the category-specific details. The body is validated against the
// schema of the draft's category family.
func (h *DraftHandler) SetDetails(c *gin.Context) {
	tenantID, userID := requestScope(c)
	raw, err := c.GetRawData()
	if err != nil {
		respondBindError(c, err)
		return
	}
	d, err := h.drafts.SetDetails(c.Request.Context(), tenantID, userID, raw)
	h.respondDraft(c, d, err)
}

// SaveDraft stores the active draft under a name and empties it
func (h *DraftHandler) SaveDraft(c *gin.Context) {
	tenantID, userID := requestScope(c)
	var req models.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	saved, err := h.drafts.SaveDraft(c.Request.Context(), tenantID, userID, req.DraftName)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    saved,
	})
}

func (h *DraftHandler) ListDrafts(c *gin.Context) {
	tenantID, userID := requestScope(c)
	drafts, err := h.drafts.ListDrafts(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    drafts,
	})
}

func (h *DraftHandler) GetDraft(c *gin.Context) {
	tenantID, userID := requestScope(c)
	saved, err := h.drafts.GetDraft(c.Request.Context(), tenantID, userID, c.Param("name"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    saved,
	})
}

// LoadDraft makes a saved draft the active one
func (h *DraftHandler) LoadDraft(c *gin.Context) {
	tenantID, userID := requestScope(c)
	d, err := h.drafts.LoadDraft(c.Request.Context(), tenantID, userID, c.Param("name"))
	h.respondDraft(c, d, err)
}

func (h *DraftHandler) DeleteDraft(c *gin.Context) {
	tenantID, userID := requestScope(c)
	if err := h.drafts.DeleteDraft(c.Request.Context(), tenantID, userID, c.Param("name")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Draft deleted",
	})
}

// Publish publishes the active draft, or a saved one when draft_name is given. The body is optional.
// @Summary Publish draft
// @Tags drafts
// @Accept json
// @Produce json
// @Param request body models.PublishRequest false "Saved draft to publish"
// @Success 201 {object} models.SuccessResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /sellers/me/drafts/publish [post]
func (h *DraftHandler) Publish(c *gin.Context) {
	tenantID, userID := requestScope(c)
	var req models.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return
	}

	result, err := h.publish.Publish(c.Request.Context(), tenantID, userID, req.DraftName)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    result,
	})
}
