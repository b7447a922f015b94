package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RecurrenceFrequency controls how far the generator advances NextRunDate
// after stamping an invoice from a template.
type RecurrenceFrequency string

const (
	FrequencyWeekly    RecurrenceFrequency = "WEEKLY"
	FrequencyMonthly   RecurrenceFrequency = "MONTHLY"
	FrequencyQuarterly RecurrenceFrequency = "QUARTERLY"
	FrequencyYearly    RecurrenceFrequency = "YEARLY"
)

// RecurringTemplate is a blueprint for periodically generated invoices. Its
// line items are a snapshot: later catalog price changes do not affect the
// template.
type RecurringTemplate struct {
	TemplateID        string              `json:"templateID" db:"template_id"`
	WorkspaceID       string              `json:"workspaceID" db:"workspace_id"`
	ContactID         string              `json:"contactID" db:"contact_id"`
	Name              string              `json:"name" db:"name"`
	CurrencyCode      string              `json:"currencyCode" db:"currency_code"`
	Frequency         RecurrenceFrequency `json:"frequency" db:"frequency"`
	NextRunDate       time.Time           `json:"nextRunDate" db:"next_run_date"`
	LastRunDate       *time.Time          `json:"lastRunDate" db:"last_run_date"`
	PaymentTermsDays  int                 `json:"paymentTermsDays" db:"payment_terms_days"`
	AutoSend          bool                `json:"autoSend" db:"auto_send"`
	IsActive          bool                `json:"isActive" db:"is_active"`
	InvoicesGenerated int                 `json:"invoicesGenerated" db:"invoices_generated"`
	AuditFields
}

// TemplateLineItem is one snapshot row of a recurring template.
type TemplateLineItem struct {
	TemplateLineItemID string          `json:"templateLineItemID" db:"template_line_item_id"`
	TemplateID         string          `json:"templateID" db:"template_id"`
	Description        string          `json:"description" db:"description"`
	Quantity           decimal.Decimal `json:"quantity" db:"quantity"`
	UnitPrice          decimal.Decimal `json:"unitPrice" db:"unit_price"`
	TaxRate            decimal.Decimal `json:"taxRate" db:"tax_rate"`
	DiscountPercent    decimal.Decimal `json:"discountPercent" db:"discount_percent"`
	Position           int             `json:"position" db:"position"`
}

// NextAfter advances a run date by one frequency step. Monthly and longer
// steps use AddDate, which normalizes overflow rather than clamping: Jan 31
// plus one month lands on Mar 2 (or Mar 3), so month-end schedules drift off
// the 31st after the first short month.
func (f RecurrenceFrequency) NextAfter(t time.Time) (time.Time, error) {
	switch f {
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7), nil
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0), nil
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0), nil
	case FrequencyYearly:
		return t.AddDate(1, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("unknown recurrence frequency %q", string(f))
}
