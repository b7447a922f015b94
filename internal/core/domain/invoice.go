package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the stored lifecycle state of an invoice. OVERDUE is
// intentionally absent: it is derived from the due date at read time and never
// written to the row (see EffectiveStatus).
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceSent      InvoiceStatus = "SENT"
	InvoiceViewed    InvoiceStatus = "VIEWED"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"

	// InvoiceOverdue is a display-only status returned by EffectiveStatus.
	InvoiceOverdue InvoiceStatus = "OVERDUE"
)

// invoiceTransitions: PAID and CANCELLED are terminal.
var invoiceTransitions = map[string][]string{
	string(InvoiceDraft):  {string(InvoiceSent)},
	string(InvoiceSent):   {string(InvoiceViewed), string(InvoicePaid), string(InvoiceCancelled)},
	string(InvoiceViewed): {string(InvoicePaid), string(InvoiceCancelled)},
}

// Invoice is a payable financial document. AmountPaid is recomputed from the
// payment rows on every payment write; AmountDue() is always derived.
type Invoice struct {
	InvoiceID     string          `json:"invoiceID" db:"invoice_id"`
	WorkspaceID   string          `json:"workspaceID" db:"workspace_id"`
	Number        string          `json:"number" db:"number"`
	ContactID     string          `json:"contactID" db:"contact_id"`
	QuotationID   *string         `json:"quotationID" db:"quotation_id"` // Back-reference to the originating quotation
	Status        InvoiceStatus   `json:"status" db:"status"`
	CurrencyCode  string          `json:"currencyCode" db:"currency_code"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discountTotal" db:"discount_total"`
	TaxTotal      decimal.Decimal `json:"taxTotal" db:"tax_total"`
	Total         decimal.Decimal `json:"total" db:"total"`
	DiscountType  DiscountType    `json:"discountType" db:"discount_type"`
	DiscountValue decimal.Decimal `json:"discountValue" db:"discount_value"`
	AmountPaid    decimal.Decimal `json:"amountPaid" db:"amount_paid"`
	DueDate       *time.Time      `json:"dueDate" db:"due_date"`
	PaymentTerms  string          `json:"paymentTerms" db:"payment_terms"`
	Notes         string          `json:"notes" db:"notes"`
	SentAt        *time.Time      `json:"sentAt" db:"sent_at"`
	PaidAt        *time.Time      `json:"paidAt" db:"paid_at"`
	Version       int64           `json:"version" db:"version"`
	AuditFields
}

// CanTransitionTo validates a status change against the invoice table.
func (i Invoice) CanTransitionTo(next InvoiceStatus) error {
	return checkTransition("invoice", invoiceTransitions, string(i.Status), string(next))
}

// AmountDue is Total − AmountPaid. Overpayment yields a negative due amount,
// surfaced to the caller as a credit rather than clamped in storage.
func (i Invoice) AmountDue() decimal.Decimal {
	return i.Total.Sub(i.AmountPaid)
}

// IsOverdue reports whether an unpaid, non-cancelled invoice is past its due
// date. The stored status is left untouched.
func (i Invoice) IsOverdue(now time.Time) bool {
	if i.DueDate == nil {
		return false
	}
	switch i.Status {
	case InvoiceSent, InvoiceViewed:
		return i.DueDate.Before(now)
	}
	return false
}

// EffectiveStatus is the status to display: the stored status, except that
// sent/viewed invoices past their due date read as OVERDUE. Every read path
// must use this (or an equivalent due-date predicate in SQL) instead of
// trusting the stored column alone.
func (i Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if i.IsOverdue(now) {
		return InvoiceOverdue
	}
	return i.Status
}
