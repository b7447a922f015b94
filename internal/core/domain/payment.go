package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a payment was made.
type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCard         PaymentMethod = "CARD"
	PaymentCash         PaymentMethod = "CASH"
	PaymentDirectDebit  PaymentMethod = "DIRECT_DEBIT"
	PaymentOther        PaymentMethod = "OTHER"
)

// Payment records money received against a single invoice. The invoice's
// AmountPaid is recomputed from the sum of its payments inside the same
// transaction that inserts or deletes a payment row.
type Payment struct {
	PaymentID   string          `json:"paymentID" db:"payment_id"`
	InvoiceID   string          `json:"invoiceID" db:"invoice_id"`
	WorkspaceID string          `json:"workspaceID" db:"workspace_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	PaymentDate time.Time       `json:"paymentDate" db:"payment_date"`
	Method      PaymentMethod   `json:"method" db:"method"`
	Reference   string          `json:"reference" db:"reference"`
	Notes       string          `json:"notes" db:"notes"`
	AuditFields
}
