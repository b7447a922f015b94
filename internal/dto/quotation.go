package dto

import (
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateQuotationRequest defines data for creating a quotation in draft.
type CreateQuotationRequest struct {
	ContactID     string                   `json:"contactID" binding:"required"`
	OpportunityID *string                  `json:"opportunityID"`
	CurrencyCode  string                   `json:"currencyCode" binding:"omitempty,iso4217"`
	ValidUntil    *time.Time               `json:"validUntil"`
	Notes         string                   `json:"notes"`
	Discount      *DocumentDiscountRequest `json:"discount"`
	Items         []LineItemRequest        `json:"items" binding:"required,min=1,dive"`
}

// UpdateQuotationItemsRequest replaces the line items of a draft quotation.
type UpdateQuotationItemsRequest struct {
	Discount *DocumentDiscountRequest `json:"discount"`
	Items    []LineItemRequest        `json:"items" binding:"required,min=1,dive"`
}

// QuotationResponse defines data returned for a quotation.
type QuotationResponse struct {
	QuotationID          string                 `json:"quotationID"`
	Number               string                 `json:"number"`
	ContactID            string                 `json:"contactID"`
	OpportunityID        *string                `json:"opportunityID,omitempty"`
	Status               domain.QuotationStatus `json:"status"`
	CurrencyCode         string                 `json:"currencyCode"`
	Subtotal             decimal.Decimal        `json:"subtotal"`
	DiscountTotal        decimal.Decimal        `json:"discountTotal"`
	TaxTotal             decimal.Decimal        `json:"taxTotal"`
	Total                decimal.Decimal        `json:"total"`
	ValidUntil           *time.Time             `json:"validUntil,omitempty"`
	Notes                string                 `json:"notes"`
	ConvertedToInvoiceID *string                `json:"convertedToInvoiceID,omitempty"`
	SentAt               *time.Time             `json:"sentAt,omitempty"`
	Items                []LineItemResponse     `json:"items,omitempty"`
	CreatedAt            time.Time              `json:"createdAt"`
}

// ToQuotationResponse converts a quotation (optionally with items) to DTO.
func ToQuotationResponse(q *domain.Quotation, items []domain.LineItem) QuotationResponse {
	resp := QuotationResponse{
		QuotationID:          q.QuotationID,
		Number:               q.Number,
		ContactID:            q.ContactID,
		OpportunityID:        q.OpportunityID,
		Status:               q.Status,
		CurrencyCode:         q.CurrencyCode,
		Subtotal:             q.Subtotal,
		DiscountTotal:        q.DiscountTotal,
		TaxTotal:             q.TaxTotal,
		Total:                q.Total,
		ValidUntil:           q.ValidUntil,
		Notes:                q.Notes,
		ConvertedToInvoiceID: q.ConvertedToInvoiceID,
		SentAt:               q.SentAt,
		CreatedAt:            q.CreatedAt,
	}
	if items != nil {
		resp.Items = ToLineItemResponses(items)
	}
	return resp
}

// ListQuotationsResponse wraps a paginated quotation list.
type ListQuotationsResponse struct {
	Quotations []QuotationResponse `json:"quotations"`
	NextToken  *string             `json:"nextToken,omitempty"`
}

// ToListQuotationsResponse converts quotations plus pagination token to DTO.
func ToListQuotationsResponse(quotations []domain.Quotation, nextToken *string) ListQuotationsResponse {
	list := make([]QuotationResponse, len(quotations))
	for i := range quotations {
		list[i] = ToQuotationResponse(&quotations[i], nil)
	}
	return ListQuotationsResponse{Quotations: list, NextToken: nextToken}
}
