package models

// ExportFormat represents the file format for offer exports
type ExportFormat string

const (
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ExportColumn defines a column in the offer export sheet
type ExportColumn struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Width       float64 `json:"width"`
}

// OfferExportRow is one seller offer flattened for a spreadsheet.
type OfferExportRow struct {
	OfferID         string
	ProductName     string
	Category        string
	Status          ProductStatus
	UPC             string
	Theme           string
	SKU             string
	Price           string
	DiscountedPrice string
	Stock           int
	Condition       string
	FulfilledBy     string
}

// OfferExportColumns returns the export sheet layout, in column order.
func OfferExportColumns() []ExportColumn {
	return []ExportColumn{
		{Name: "offer_id", Description: "Offer ID", Width: 38},
		{Name: "product_name", Description: "Product", Width: 30},
		{Name: "category", Description: "Category", Width: 20},
		{Name: "status", Description: "Review status", Width: 12},
		{Name: "upc", Description: "UPC/GTIN", Width: 16},
		{Name: "variation", Description: "Variation", Width: 28},
		{Name: "sku", Description: "SKU", Width: 18},
		{Name: "price", Description: "Price", Width: 10},
		{Name: "discounted_price", Description: "Discounted price", Width: 16},
		{Name: "stock", Description: "Stock", Width: 8},
		{Name: "condition", Description: "Condition", Width: 12},
		{Name: "fulfilled_by", Description: "Fulfilled by", Width: 12},
	}
}
