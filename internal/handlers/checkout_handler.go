package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"marketplace-service/internal/models"
	"marketplace-service/internal/services"
)

// maxWebhookBytes bounds the webhook payload read into memory.
const maxWebhookBytes = 65536

type CheckoutHandler struct {
	checkout *services.CheckoutService
	logger   *logrus.Entry
}

func NewCheckoutHandler(checkout *services.CheckoutService, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger.WithField("component", "checkout-handler"),
	}
}

// CreateCheckout freezes the cart and opens a payment session
// @Summary Create checkout
// @Tags checkout
// @Produce json
// @Success 201 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /checkout [post]
func (h *CheckoutHandler) CreateCheckout(c *gin.Context) {
	tenantID, customerID := requestScope(c)

	session, err := h.checkout.Create(c.Request.Context(), tenantID, customerID, c.GetString("user_email"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    session,
	})
}

// GetCheckout returns one of the caller's checkouts, expiring it when its time is up
func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	tenantID, customerID := requestScope(c)
	checkoutID, ok := uuidParam(c, "id", "checkout")
	if !ok {
		return
	}

	checkout, err := h.checkout.Get(c.Request.Context(), tenantID, customerID, checkoutID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    checkout,
	})
}

// HandleStripeWebhook handles POST /webhooks/stripe. The tenant comes from the checkout the
// session belongs to, so the route sits outside the tenant middleware.
func (h *CheckoutHandler) HandleStripeWebhook(c *gin.Context) {
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "MISSING_SIGNATURE",
				Message: "Stripe-Signature header is required",
			},
		})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_BODY",
				Message: "Failed to read request body",
			},
		})
		return
	}

	if err := h.checkout.HandleWebhook(c.Request.Context(), body, signature); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
