package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"marketplace-service/internal/models"
	"marketplace-service/internal/services"
)

type SellerHandler struct {
	sellers *services.SellerService
	logger  *logrus.Entry
}

func NewSellerHandler(sellers *services.SellerService, logger *logrus.Logger) *SellerHandler {
	return &SellerHandler{
		sellers: sellers,
		logger:  logger.WithField("component", "seller-handler"),
	}
}

// RegisterSeller registers the caller as a seller with a store
// @Summary Register seller
// @Tags sellers
// @Accept json
// @Produce json
// @Param request body models.RegisterSellerRequest true "Store details"
// @Success 201 {object} models.SuccessResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /sellers [post]
func (h *SellerHandler) RegisterSeller(c *gin.Context) {
	tenantID, userID := requestScope(c)

	var req models.RegisterSellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	seller, err := h.sellers.Register(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    seller,
	})
}

// GetMe returns the caller's seller account
func (h *SellerHandler) GetMe(c *gin.Context) {
	tenantID, userID := requestScope(c)

	seller, err := h.sellers.Me(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    seller,
	})
}

// VerifySeller marks a seller as verified. Admin only.
// @Summary Verify seller
// @Tags sellers
// @Produce json
// @Param id path string true "Seller ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /sellers/{id}/verify [post]
func (h *SellerHandler) VerifySeller(c *gin.Context) {
	tenantID, adminID := requestScope(c)
	sellerID, ok := uuidParam(c, "id", "seller")
	if !ok {
		return
	}

	seller, err := h.sellers.Verify(c.Request.Context(), tenantID, sellerID, adminID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    seller,
	})
}
