package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditNoteStatus is the stored lifecycle state of a credit note.
type CreditNoteStatus string

const (
	CreditNoteDraft     CreditNoteStatus = "DRAFT"
	CreditNoteIssued    CreditNoteStatus = "ISSUED"
	CreditNoteApplied   CreditNoteStatus = "APPLIED"
	CreditNoteRefunded  CreditNoteStatus = "REFUNDED"
	CreditNoteCancelled CreditNoteStatus = "CANCELLED"
)

// creditNoteTransitions: APPLIED, REFUNDED and CANCELLED are terminal.
var creditNoteTransitions = map[string][]string{
	string(CreditNoteDraft):  {string(CreditNoteIssued)},
	string(CreditNoteIssued): {string(CreditNoteApplied), string(CreditNoteRefunded), string(CreditNoteCancelled)},
}

// CreditNote is the negative-value counterpart of an invoice, correcting or
// refunding a previously issued one. Amount is stored positive; its sign is a
// property of the document type.
type CreditNote struct {
	CreditNoteID string           `json:"creditNoteID" db:"credit_note_id"`
	WorkspaceID  string           `json:"workspaceID" db:"workspace_id"`
	Number       string           `json:"number" db:"number"`
	ContactID    string           `json:"contactID" db:"contact_id"`
	InvoiceID    *string          `json:"invoiceID" db:"invoice_id"` // Nullable: standalone credit notes are allowed
	Status       CreditNoteStatus `json:"status" db:"status"`
	CurrencyCode string           `json:"currencyCode" db:"currency_code"`
	Amount       decimal.Decimal  `json:"amount" db:"amount"`
	Reason       string           `json:"reason" db:"reason"`
	IssuedAt     *time.Time       `json:"issuedAt" db:"issued_at"`
	Version      int64            `json:"version" db:"version"`
	AuditFields
}

// CanTransitionTo validates a status change against the credit note table.
func (cn CreditNote) CanTransitionTo(next CreditNoteStatus) error {
	return checkTransition("credit note", creditNoteTransitions, string(cn.Status), string(next))
}
