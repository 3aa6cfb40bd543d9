package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"marketplace-service/internal/models"
	"marketplace-service/internal/pricing"
	"marketplace-service/internal/services"
)

// CartHandler serves the customer's cart. Every read and write reconciles it against the
// live offers.
type CartHandler struct {
	carts  *services.CartService
	logger *logrus.Entry
}

func NewCartHandler(carts *services.CartService, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger.WithField("component", "cart-handler"),
	}
}

func (h *CartHandler) respondCart(c *gin.Context, view *models.CartView, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    view,
	})
}

// GetCart returns the reconciled cart
// @Summary Get cart
// @Tags cart
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Router /cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	tenantID, customerID := requestScope(c)
	view, err := h.carts.Get(c.Request.Context(), tenantID, customerID)
	h.respondCart(c, view, err)
}

// AddItems adds offers to the cart
// @Summary Add to cart
// @Tags cart
// @Accept json
// @Produce json
// @Param request body models.AddToCartRequest true "Offer IDs"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /cart [post]
func (h *CartHandler) AddItems(c *gin.Context) {
	tenantID, customerID := requestScope(c)
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	view, err := h.carts.Add(c.Request.Context(), tenantID, customerID, req.AddItem)
	h.respondCart(c, view, err)
}

// UpdateCount applies exactly one of increment, decrement or remove
func (h *CartHandler) UpdateCount(c *gin.Context) {
	tenantID, customerID := requestScope(c)
	var req pricing.CountUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	view, err := h.carts.UpdateCount(c.Request.Context(), tenantID, customerID, req)
	h.respondCart(c, view, err)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	tenantID, customerID := requestScope(c)
	if err := h.carts.Clear(c.Request.Context(), tenantID, customerID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cart cleared",
	})
}
