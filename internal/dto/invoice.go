package dto

import (
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest defines data for creating an invoice in draft.
type CreateInvoiceRequest struct {
	ContactID    string                   `json:"contactID" binding:"required"`
	CurrencyCode string                   `json:"currencyCode" binding:"omitempty,iso4217"`
	DueDate      *time.Time               `json:"dueDate"`
	PaymentTerms string                   `json:"paymentTerms"`
	Notes        string                   `json:"notes"`
	Discount     *DocumentDiscountRequest `json:"discount"`
	Items        []LineItemRequest        `json:"items" binding:"required,min=1,dive"`
}

// UpdateInvoiceItemsRequest replaces the line items of a draft invoice.
type UpdateInvoiceItemsRequest struct {
	Discount *DocumentDiscountRequest `json:"discount"`
	Items    []LineItemRequest        `json:"items" binding:"required,min=1,dive"`
}

// RecordPaymentRequest records money received against an invoice.
type RecordPaymentRequest struct {
	Amount      decimal.Decimal      `json:"amount" binding:"required"`
	PaymentDate *time.Time           `json:"paymentDate"`
	Method      domain.PaymentMethod `json:"method" binding:"required,oneof=BANK_TRANSFER CARD CASH DIRECT_DEBIT OTHER"`
	Reference   string               `json:"reference"`
	Notes       string               `json:"notes"`
}

// InvoiceResponse defines data returned for an invoice. Status is the
/// effective (display) status: sent/viewed invoices past their due date read
// as OVERDUE; StoredStatus carries the raw column for clients that need it.
type InvoiceResponse struct {
	InvoiceID     string               `json:"invoiceID"`
	Number        string               `json:"number"`
	ContactID     string               `json:"contactID"`
	QuotationID   *string              `json:"quotationID,omitempty"`
	Status        domain.InvoiceStatus `json:"status"`
	StoredStatus  domain.InvoiceStatus `json:"storedStatus"`
	CurrencyCode  string               `json:"currencyCode"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	DiscountTotal decimal.Decimal      `json:"discountTotal"`
	TaxTotal      decimal.Decimal      `json:"taxTotal"`
	Total         decimal.Decimal      `json:"total"`
	AmountPaid    decimal.Decimal      `json:"amountPaid"`
	AmountDue     decimal.Decimal      `json:"amountDue"`
	DueDate       *time.Time           `json:"dueDate,omitempty"`
	PaymentTerms  string               `json:"paymentTerms"`
	Notes         string               `json:"notes"`
	SentAt        *time.Time           `json:"sentAt,omitempty"`
	PaidAt        *time.Time           `json:"paidAt,omitempty"`
	Items         []LineItemResponse   `json:"items,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// ToInvoiceResponse converts an invoice (optionally with items) to DTO.
func ToInvoiceResponse(inv *domain.Invoice, items []domain.LineItem, now time.Time) InvoiceResponse {
	resp := InvoiceResponse{
		InvoiceID:     inv.InvoiceID,
		Number:        inv.Number,
		ContactID:     inv.ContactID,
		QuotationID:   inv.QuotationID,
		Status:        inv.EffectiveStatus(now),
		StoredStatus:  inv.Status,
		CurrencyCode:  inv.CurrencyCode,
		Subtotal:      inv.Subtotal,
		DiscountTotal: inv.DiscountTotal,
		TaxTotal:      inv.TaxTotal,
		Total:         inv.Total,
		AmountPaid:    inv.AmountPaid,
		AmountDue:     inv.AmountDue(),
		DueDate:       inv.DueDate,
		PaymentTerms:  inv.PaymentTerms,
		Notes:         inv.Notes,
		SentAt:        inv.SentAt,
		PaidAt:        inv.PaidAt,
		CreatedAt:     inv.CreatedAt,
	}
	if items != nil {
		resp.Items = ToLineItemResponses(items)
	}
	return resp
}

// ListInvoicesResponse wraps a paginated invoice list.
type ListInvoicesResponse struct {
	Invoices  []InvoiceResponse `json:"invoices"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToListInvoicesResponse converts invoices plus pagination token to DTO.
func ToListInvoicesResponse(invoices []domain.Invoice, nextToken *string, now time.Time) ListInvoicesResponse {
	list := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		list[i] = ToInvoiceResponse(&invoices[i], nil, now)
	}
	return ListInvoicesResponse{Invoices: list, NextToken: nextToken}
}

// PaymentResponse defines data returned for a payment.
type PaymentResponse struct {
	PaymentID   string               `json:"paymentID"`
	InvoiceID   string               `json:"invoiceID"`
	Amount      decimal.Decimal      `json:"amount"`
	PaymentDate time.Time            `json:"paymentDate"`
	Method      domain.PaymentMethod `json:"method"`
	Reference   string               `json:"reference"`
	Notes       string               `json:"notes"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// ToPaymentResponses converts payments to DTOs.
func ToPaymentResponses(payments []domain.Payment) []PaymentResponse {
	res := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		res[i] = PaymentResponse{
			PaymentID:   p.PaymentID,
			InvoiceID:   p.InvoiceID,
			Amount:      p.Amount,
			PaymentDate: p.PaymentDate,
			Method:      p.Method,
			Reference:   p.Reference,
			Notes:       p.Notes,
			CreatedAt:   p.CreatedAt,
		}
	}
	return res
}
