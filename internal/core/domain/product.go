package domain

import "github.com/shopspring/decimal"

// Product is a catalog item priced per unit. Products referenced by historical
// documents are deactivated rather than deleted so old line items keep their
// provenance.
type Product struct {
	ProductID   string          `json:"productID" db:"product_id"`
	WorkspaceID string          `json:"workspaceID" db:"workspace_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"unit_price"`
	TaxRate     decimal.Decimal `json:"taxRate" db:"tax_rate"` // Percent, e.g. 21 for 21%
	UnitLabel   string          `json:"unitLabel" db:"unit_label"`
	IsActive    bool            `json:"isActive" db:"is_active"`
	AuditFields
}
