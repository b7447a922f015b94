package domain

// DocumentType distinguishes the numbered financial documents a workspace
// issues. Used by the numbering allocator and the outbox event payloads.
type DocumentType string

const (
	DocTypeQuotation  DocumentType = "QUOTATION"
	DocTypeInvoice    DocumentType = "INVOICE"
	DocTypeCreditNote DocumentType = "CREDIT_NOTE"
)

// DiscountType qualifies a document-level discount.
type DiscountType string

const (
	DiscountNone    DiscountType = "NONE"
	DiscountPercent DiscountType = "PERCENT"
	DiscountFixed   DiscountType = "FIXED"
)
