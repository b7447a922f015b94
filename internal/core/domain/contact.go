package domain

// Contact is a person or organisation a workspace does business with.
// Quotations and invoices are always addressed to a contact.
type Contact struct {
	ContactID   string `json:"contactID" db:"contact_id"`
	WorkspaceID string `json:"workspaceID" db:"workspace_id"`
	Name        string `json:"name" db:"name"`
	Email       string `json:"email" db:"email"`
	Phone       string `json:"phone" db:"phone"`
	CompanyName string `json:"companyName" db:"company_name"`
	VATNumber   string `json:"vatNumber" db:"vat_number"`
	Notes       string `json:"notes" db:"notes"`
	IsArchived  bool   `json:"isArchived" db:"is_archived"`
	AuditFields
}
