package dto

import (
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TemplateLineItemRequest is one snapshot row in a template request.
type TemplateLineItemRequest struct {
	Description     string          `json:"description" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	UnitPrice       decimal.Decimal `json:"unitPrice" binding:"required,gte=0"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

// CreateRecurringTemplateRequest defines data for creating a template.
type CreateRecurringTemplateRequest struct {
	ContactID        string                     `json:"contactID" binding:"required"`
	Name             string                     `json:"name" binding:"required"`
	CurrencyCode     string                     `json:"currencyCode" binding:"omitempty,iso4217"`
	Frequency        domain.RecurrenceFrequency `json:"frequency" binding:"required,oneof=WEEKLY MONTHLY QUARTERLY YEARLY"`
	NextRunDate      time.Time                  `json:"nextRunDate" binding:"required"`
	PaymentTermsDays int                        `json:"paymentTermsDays"`
	AutoSend         bool                       `json:"autoSend"`
	Items            []TemplateLineItemRequest  `json:"items" binding:"required,min=1,dive"`
}

// UpdateRecurringTemplateRequest defines mutable template fields.
type UpdateRecurringTemplateRequest struct {
	Name             *string                     `json:"name"`
	Frequency        *domain.RecurrenceFrequency `json:"frequency" binding:"omitempty,oneof=WEEKLY MONTHLY QUARTERLY YEARLY"`
	NextRunDate      *time.Time                  `json:"nextRunDate"`
	PaymentTermsDays *int                        `json:"paymentTermsDays"`
	AutoSend         *bool                       `json:"autoSend"`
	Items            []TemplateLineItemRequest   `json:"items" binding:"omitempty,min=1,dive"`
}

// RecurringTemplateResponse defines data returned for a template.
type RecurringTemplateResponse struct {
	TemplateID        string                     `json:"templateID"`
	ContactID         string                     `json:"contactID"`
	Name              string                     `json:"name"`
	CurrencyCode      string                     `json:"currencyCode"`
	Frequency         domain.RecurrenceFrequency `json:"frequency"`
	NextRunDate       time.Time                  `json:"nextRunDate"`
	LastRunDate       *time.Time                 `json:"lastRunDate,omitempty"`
	PaymentTermsDays  int                        `json:"paymentTermsDays"`
	AutoSend          bool                       `json:"autoSend"`
	IsActive          bool                       `json:"isActive"`
	InvoicesGenerated int                        `json:"invoicesGenerated"`
	CreatedAt         time.Time                  `json:"createdAt"`
}

// ToRecurringTemplateResponse converts domain.RecurringTemplate to DTO.
func ToRecurringTemplateResponse(t *domain.RecurringTemplate) RecurringTemplateResponse {
	return RecurringTemplateResponse{
		TemplateID:        t.TemplateID,
		ContactID:         t.ContactID,
		Name:              t.Name,
		CurrencyCode:      t.CurrencyCode,
		Frequency:         t.Frequency,
		NextRunDate:       t.NextRunDate,
		LastRunDate:       t.LastRunDate,
		PaymentTermsDays:  t.PaymentTermsDays,
		AutoSend:          t.AutoSend,
		IsActive:          t.IsActive,
		InvoicesGenerated: t.InvoicesGenerated,
		CreatedAt:         t.CreatedAt,
	}
}
