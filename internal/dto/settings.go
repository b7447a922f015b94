package dto

import "github.com/nextfact/crm_billing_app/internal/core/domain"

// UpdateInvoiceSettingsRequest defines mutable numbering/letterhead settings.
// Counters are deliberately absent: they only move through the allocator.
type UpdateInvoiceSettingsRequest struct {
	QuotationPrefix  *string `json:"quotationPrefix"`
	InvoicePrefix    *string `json:"invoicePrefix"`
	CreditNotePrefix *string `json:"creditNotePrefix"`
	NumberPadding    *int    `json:"numberPadding" binding:"omitempty,min=1,max=10"`
	CurrencyCode     *string `json:"currencyCode" binding:"omitempty,iso4217"`
	PaymentTermsDays *int    `json:"paymentTermsDays" binding:"omitempty,min=0"`
	CompanyName      *string `json:"companyName"`
	CompanyAddress   *string `json:"companyAddress"`
	CompanyVATNumber *string `json:"companyVATNumber"`
	CompanyIBAN      *string `json:"companyIBAN"`
}

// InvoiceSettingsResponse defines data returned for workspace settings.
type InvoiceSettingsResponse struct {
	WorkspaceID      string `json:"workspaceID"`
	QuotationPrefix  string `json:"quotationPrefix"`
	InvoicePrefix    string `json:"invoicePrefix"`
	CreditNotePrefix string `json:"creditNotePrefix"`
	NumberPadding    int    `json:"numberPadding"`
	CurrencyCode     string `json:"currencyCode"`
	PaymentTermsDays int    `json:"paymentTermsDays"`
	CompanyName      string `json:"companyName"`
	CompanyAddress   string `json:"companyAddress"`
	CompanyVATNumber string `json:"companyVATNumber"`
	CompanyIBAN      string `json:"companyIBAN"`
}

// ToInvoiceSettingsResponse converts domain.InvoiceSettings to DTO.
func ToInvoiceSettingsResponse(s *domain.InvoiceSettings) InvoiceSettingsResponse {
	return InvoiceSettingsResponse{
		WorkspaceID:      s.WorkspaceID,
		QuotationPrefix:  s.QuotationPrefix,
		InvoicePrefix:    s.InvoicePrefix,
		CreditNotePrefix: s.CreditNotePrefix,
		NumberPadding:    s.NumberPadding,
		CurrencyCode:     s.CurrencyCode,
		PaymentTermsDays: s.PaymentTermsDays,
		CompanyName:      s.CompanyName,
		CompanyAddress:   s.CompanyAddress,
		CompanyVATNumber: s.CompanyVATNumber,
		CompanyIBAN:      s.CompanyIBAN,
	}
}
