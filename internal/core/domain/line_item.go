package domain

import "github.com/shopspring/decimal"

// LineItem is one priced row within a quotation or an invoice. Exactly one of
// QuotationID/InvoiceID is set. Derived fields (Subtotal, TaxAmount, Total)
// are computed by the accounting aggregator and persisted alongside the raw
// inputs; they must always equal the recomputation from those inputs.
type LineItem struct {
	LineItemID      string          `json:"lineItemID" db:"line_item_id"`
	QuotationID     *string         `json:"quotationID" db:"quotation_id"`
	InvoiceID       *string         `json:"invoiceID" db:"invoice_id"`
	ProductID       *string         `json:"productID" db:"product_id"` // Nullable: free-form lines have no catalog product
	Description     string          `json:"description" db:"description"`
	Quantity        decimal.Decimal `json:"quantity" db:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice" db:"unit_price"`
	TaxRate         decimal.Decimal `json:"taxRate" db:"tax_rate"`                 // Percent
	DiscountPercent decimal.Decimal `json:"discountPercent" db:"discount_percent"` // Percent, 0..100
	Position        int             `json:"position" db:"position"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	TaxAmount       decimal.Decimal `json:"taxAmount" db:"tax_amount"`
	Total           decimal.Decimal `json:"total" db:"total"`
	AuditFields
}
