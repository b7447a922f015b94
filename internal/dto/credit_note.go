package dto

import (
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateCreditNoteRequest defines data for creating a credit note in draft.
type CreateCreditNoteRequest struct {
	ContactID    string          `json:"contactID" binding:"required"`
	InvoiceID    *string         `json:"invoiceID"`
	CurrencyCode string          `json:"currencyCode" binding:"omitempty,iso4217"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Reason       string          `json:"reason" binding:"required"`
}

// CreditNoteResponse defines data returned for a credit note.
type CreditNoteResponse struct {
	CreditNoteID string                  `json:"creditNoteID"`
	Number       string                  `json:"number"`
	ContactID    string                  `json:"contactID"`
	InvoiceID    *string                 `json:"invoiceID,omitempty"`
	Status       domain.CreditNoteStatus `json:"status"`
	CurrencyCode string                  `json:"currencyCode"`
	Amount       decimal.Decimal         `json:"amount"`
	Reason       string                  `json:"reason"`
	IssuedAt     *time.Time              `json:"issuedAt,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
}

// ToCreditNoteResponse converts domain.CreditNote to DTO.
func ToCreditNoteResponse(cn *domain.CreditNote) CreditNoteResponse {
	return CreditNoteResponse{
		CreditNoteID: cn.CreditNoteID,
		Number:       cn.Number,
		ContactID:    cn.ContactID,
		InvoiceID:    cn.InvoiceID,
		Status:       cn.Status,
		CurrencyCode: cn.CurrencyCode,
		Amount:       cn.Amount,
		Reason:       cn.Reason,
		IssuedAt:     cn.IssuedAt,
		CreatedAt:    cn.CreatedAt,
	}
}

// ListCreditNotesResponse wraps a paginated credit note list.
type ListCreditNotesResponse struct {
	CreditNotes []CreditNoteResponse `json:"creditNotes"`
	NextToken   *string              `json:"nextToken,omitempty"`
}

// ToListCreditNotesResponse converts credit notes plus token to DTO.
func ToListCreditNotesResponse(notes []domain.CreditNote, nextToken *string) ListCreditNotesResponse {
	list := make([]CreditNoteResponse, len(notes))
	for i := range notes {
		list[i] = ToCreditNoteResponse(&notes[i])
	}
	return ListCreditNotesResponse{CreditNotes: list, NextToken: nextToken}
}
