package domain

// Agency is a whitelabel reseller that owns multiple client workspaces.
// Its branding is applied to documents sent from the workspaces it owns.
type Agency struct {
	AgencyID string `json:"agencyID" db:"agency_id"`
	Name     string `json:"name" db:"name"`
	IsActive bool   `json:"isActive" db:"is_active"`
	Branding
	AuditFields
}

// Branding is the per-tenant presentation configuration consulted when a
// document leaves the system. It is plain configuration, passed explicitly
// through the send path, never mutated at runtime.
type Branding struct {
	BrandName   string `json:"brandName" db:"brand_name"`
	LogoURL     string `json:"logoURL" db:"logo_url"`
	AccentColor string `json:"accentColor" db:"accent_color"` // Hex, e.g. "#1A73E8"
	FooterNote  string `json:"footerNote" db:"footer_note"`
}

// DefaultBranding is used for workspaces not owned by an agency.
var DefaultBranding = Branding{
	BrandName:   "nextfact",
	AccentColor: "#111827",
}
