package domain

import "fmt"

// InvoiceSettings holds per-workspace document numbering and defaults. One row
// per workspace, created lazily on first use. The counters are only ever
// advanced through the allocator's atomic increment-and-return statement.
type InvoiceSettings struct {
	WorkspaceID          string `json:"workspaceID" db:"workspace_id"`
	QuotationPrefix      string `json:"quotationPrefix" db:"quotation_prefix"`
	InvoicePrefix        string `json:"invoicePrefix" db:"invoice_prefix"`
	CreditNotePrefix     string `json:"creditNotePrefix" db:"credit_note_prefix"`
	NextQuotationNumber  int64  `json:"nextQuotationNumber" db:"next_quotation_number"`
	NextInvoiceNumber    int64  `json:"nextInvoiceNumber" db:"next_invoice_number"`
	NextCreditNoteNumber int64  `json:"nextCreditNoteNumber" db:"next_credit_note_number"`
	NumberPadding        int    `json:"numberPadding" db:"number_padding"`
	CurrencyCode         string `json:"currencyCode" db:"currency_code"`
	PaymentTermsDays     int    `json:"paymentTermsDays" db:"payment_terms_days"`
	CompanyName          string `json:"companyName" db:"company_name"`
	CompanyAddress       string `json:"companyAddress" db:"company_address"`
	CompanyVATNumber     string `json:"companyVATNumber" db:"company_vat_number"`
	CompanyIBAN          string `json:"companyIBAN" db:"company_iban"`
	AuditFields
}

// Default numbering prefixes, overridable per workspace.
const (
	DefaultQuotationPrefix  = "OFF"
	DefaultInvoicePrefix    = "FAC"
	DefaultCreditNotePrefix = "AVR"
	DefaultNumberPadding    = 4
)

// PrefixFor returns the configured prefix for a document type.
func (s InvoiceSettings) PrefixFor(docType DocumentType) string {
	switch docType {
	case DocTypeQuotation:
		return s.QuotationPrefix
	case DocTypeCreditNote:
		return s.CreditNotePrefix
	default:
		return s.InvoicePrefix
	}
}

// FormatDocumentNumber renders a human-readable document number such as
// "FAC-2024-0001" from a prefix, issue year and allocated sequence.
func FormatDocumentNumber(prefix string, year int, seq int64, padding int) string {
	if padding <= 0 {
		padding = DefaultNumberPadding
	}
	return fmt.Sprintf("%s-%d-%0*d", prefix, year, padding, seq)
}
