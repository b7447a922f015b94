package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuotationStatus is the stored lifecycle state of a quotation.
type QuotationStatus string

const (
	QuotationDraft    QuotationStatus = "DRAFT"
	QuotationSent     QuotationStatus = "SENT"
	QuotationAccepted QuotationStatus = "ACCEPTED"
	QuotationRejected QuotationStatus = "REJECTED"
	QuotationExpired  QuotationStatus = "EXPIRED"
)

// quotationTransitions: ACCEPTED, REJECTED and EXPIRED are terminal; the
// accepted→invoice conversion is tracked via ConvertedToInvoiceID, not a
// status change.
var quotationTransitions = map[string][]string{
	string(QuotationDraft): {string(QuotationSent)},
	string(QuotationSent):  {string(QuotationAccepted), string(QuotationRejected), string(QuotationExpired)},
}

// Quotation is an offer of priced line items to a contact, optionally raised
// against an opportunity. Totals are recomputed whenever line items change;
// Total = Subtotal − DiscountTotal + TaxTotal holds at cent precision.
type Quotation struct {
	QuotationID          string          `json:"quotationID" db:"quotation_id"`
	WorkspaceID          string          `json:"workspaceID" db:"workspace_id"`
	Number               string          `json:"number" db:"number"`
	ContactID            string          `json:"contactID" db:"contact_id"`
	OpportunityID        *string         `json:"opportunityID" db:"opportunity_id"`
	Status               QuotationStatus `json:"status" db:"status"`
	CurrencyCode         string          `json:"currencyCode" db:"currency_code"`
	Subtotal             decimal.Decimal `json:"subtotal" db:"subtotal"`
	DiscountTotal        decimal.Decimal `json:"discountTotal" db:"discount_total"`
	TaxTotal             decimal.Decimal `json:"taxTotal" db:"tax_total"`
	Total                decimal.Decimal `json:"total" db:"total"`
	DiscountType         DiscountType    `json:"discountType" db:"discount_type"`
	DiscountValue        decimal.Decimal `json:"discountValue" db:"discount_value"`
	ValidUntil           *time.Time      `json:"validUntil" db:"valid_until"`
	Notes                string          `json:"notes" db:"notes"`
	ConvertedToInvoiceID *string         `json:"convertedToInvoiceID" db:"converted_to_invoice_id"`
	SentAt               *time.Time      `json:"sentAt" db:"sent_at"`
	Version              int64           `json:"version" db:"version"`
	AuditFields
}

// CanTransitionTo validates a status change against the quotation table.
func (q Quotation) CanTransitionTo(next QuotationStatus) error {
	return checkTransition("quotation", quotationTransitions, string(q.Status), string(next))
}

// IsConverted reports whether the quotation has already produced an invoice.
func (q Quotation) IsConverted() bool {
	return q.ConvertedToInvoiceID != nil && *q.ConvertedToInvoiceID != ""
}

// IsExpired reports whether the validity window has passed. Expiry is only
// meaningful for sent quotations; the follow-up job persists the transition.
func (q Quotation) IsExpired(now time.Time) bool {
	return q.Status == QuotationSent && q.ValidUntil != nil && q.ValidUntil.Before(now)
}
