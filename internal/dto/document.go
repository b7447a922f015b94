package dto

import (
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LineItemRequest is one priced row in a create/update document request.
// Either a catalog product reference or a free-form description is given;
// when ProductID is set, unit price and tax rate default from the catalog
// unless overridden.
type LineItemRequest struct {
	ProductID       *string          `json:"productID"`
	Description     string           `json:"description"`
	Quantity        decimal.Decimal  `json:"quantity" binding:"required,gt=0"`
	UnitPrice       *decimal.Decimal `json:"unitPrice"`
	TaxRate         *decimal.Decimal `json:"taxRate"`
	DiscountPercent decimal.Decimal  `json:"discountPercent"`
}

// LineItemResponse defines data returned for a line item.
type LineItemResponse struct {
	LineItemID      string          `json:"lineItemID"`
	ProductID       *string         `json:"productID,omitempty"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Position        int             `json:"position"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"taxAmount"`
	Total           decimal.Decimal `json:"total"`
}

// ToLineItemResponses converts domain line items to DTOs.
func ToLineItemResponses(items []domain.LineItem) []LineItemResponse {
	res := make([]LineItemResponse, len(items))
	for i, it := range items {
		res[i] = LineItemResponse{
			LineItemID:      it.LineItemID,
			ProductID:       it.ProductID,
			Description:     it.Description,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			TaxRate:         it.TaxRate,
			DiscountPercent: it.DiscountPercent,
			Position:        it.Position,
			Subtotal:        it.Subtotal,
			TaxAmount:       it.TaxAmount,
			Total:           it.Total,
		}
	}
	return res
}

// DocumentDiscountRequest is an optional document-level discount.
type DocumentDiscountRequest struct {
	Type  domain.DiscountType `json:"type" binding:"required,oneof=NONE PERCENT FIXED"`
	Value decimal.Decimal     `json:"value" binding:"gte=0"`
}
