package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"marketplace-service/internal/middleware"
	"marketplace-service/internal/models"
	"marketplace-service/internal/services"
)

// CatalogHandler serves the storefront, review decisions and seller offer maintenance.
type CatalogHandler struct {
	catalog         *services.CatalogService
	defaultPageSize int
	maxPageSize     int
	logger          *logrus.Entry
}

func NewCatalogHandler(catalog *services.CatalogService, defaultPageSize, maxPageSize int, logger *logrus.Logger) *CatalogHandler {
	if defaultPageSize < 1 {
		defaultPageSize = 20
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = defaultPageSize
	}
	return &CatalogHandler{
		catalog:         catalog,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger.WithField("component", "catalog-handler"),
	}
}

// ListProducts lists approved products with their default offer
// @Summary List storefront products
// @Tags storefront
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} models.StorefrontListResponse
// @Router /storefront/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = h.defaultPageSize
	}
	if limit > h.maxPageSize {
		limit = h.maxPageSize
	}

	result, err := h.catalog.ListStorefront(c.Request.Context(), tenantID, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	products := result.Products
	if products == nil {
		products = []models.StorefrontProduct{}
	}
	c.JSON(http.StatusOK, models.StorefrontListResponse{
		Success:    true,
		Data:       products,
		Pagination: models.NewPaginationInfo(page, limit, result.Total),
	})
}

// GetProduct returns an approved product with every variation and offer
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	productID, ok := uuidParam(c, "id", "product")
	if !ok {
		return
	}

	detail, err := h.catalog.GetStorefrontProduct(c.Request.Context(), tenantID, productID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    detail,
	})
}

// UpdateProductStatus records a review decision on a product
// @Summary Update product review status
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body models.UpdateProductStatusRequest true "New status"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id}/status [put]
func (h *CatalogHandler) UpdateProductStatus(c *gin.Context) {
	tenantID, actorID := requestScope(c)
	productID, ok := uuidParam(c, "id", "product")
	if !ok {
		return
	}

	var req models.UpdateProductStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.catalog.SetProductStatus(c.Request.Context(), tenantID, productID, req.Status, actorID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if req.Reason != "" {
		h.logger.WithFields(logrus.Fields{
			"tenant_id":  tenantID,
			"product_id": productID,
			"status":     req.Status,
			"reason":     req.Reason,
		}).Info("Review decision recorded")
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product status updated successfully",
	})
}

// UpdateOffer changes the price, discount or stock of one of the caller's offers
func (h *CatalogHandler) UpdateOffer(c *gin.Context) {
	tenantID, userID := requestScope(c)
	offerID, ok := uuidParam(c, "id", "offer")
	if !ok {
		return
	}

	var req models.UpdateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	offer, err := h.catalog.UpdateOffer(c.Request.Context(), tenantID, userID, offerID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    offer,
	})
}

// ExportOffers downloads the caller's offers as a spreadsheet
// @Summary Export seller offers
// @Tags sellers
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 403 {object} models.ErrorResponse
// @Router /sellers/me/offers/export [get]
func (h *CatalogHandler) ExportOffers(c *gin.Context) {
	tenantID, userID := requestScope(c)

	rows, err := h.catalog.ExportOffers(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	f, err := buildOfferWorkbook(rows)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("offers_%s.%s", time.Now().UTC().Format("20060102"), models.ExportFormatXLSX)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write offer export")
	}
}

const offerSheet = "Offers"

func buildOfferWorkbook(rows []models.OfferExportRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", offerSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range models.OfferExportColumns() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(offerSheet, cell, col.Description)
		f.SetCellStyle(offerSheet, cell, cell, headerStyle)
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(offerSheet, colName, colName, col.Width)
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{
			r.OfferID, r.ProductName, r.Category, string(r.Status), r.UPC, r.Theme,
			r.SKU, r.Price, r.DiscountedPrice, r.Stock, r.Condition, r.FulfilledBy,
		}
		if err := f.SetSheetRow(offerSheet, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}
