// Package model defines the order-line records flowing through the mapper.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine represents one purchased line item of a sales order.
// Instances are immutable once read from a source.
type OrderLine struct {
	CompanyCode string          `json:"company_code"`
	OrderID     string          `json:"order_id"`
	LineItem    int             `json:"line_item_id"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	OrderDate   time.Time       `json:"order_date"`
}

// FamilyObservation is one mart-side sighting of a product-family label
// for an order line. Observations for the same SKU may disagree; the
// mapping layer resolves them by frequency.
type FamilyObservation struct {
	CompanyCode string `json:"company_code"`
	OrderID     string `json:"order_id"`
	LineItem    int    `json:"line_item_id"`
	ProductSKU  string `json:"product_sku"`
	FamilyName  string `json:"family_name"`
}

// AnnotatedOrderLine is an OrderLine extended with its resolved family.
type AnnotatedOrderLine struct {
	OrderLine
	FamilyName string `json:"family_name"`
}

// FamilyEntry is one resolved row of the product-family map.
type FamilyEntry struct {
	CompanyCode string `json:"company_code"`
	ProductSKU  string `json:"product_sku"`
	FamilyName  string `json:"family_name"`
}
