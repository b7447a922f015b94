package services

import (
	"context"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/nextfact/crm_billing_app/internal/dto"
)

// SettingsSvcFacade manages per-workspace invoice settings and numbering.
type SettingsSvcFacade interface {
	// GetSettings returns the workspace settings, creating the defaults row
	// on first access.
	GetSettings(ctx context.Context, workspaceID, requestingUserID string) (*domain.InvoiceSettings, error)

	// UpdateSettings applies partial settings changes. Admin only. Counters
	// are not updatable through this path.
	UpdateSettings(ctx context.Context, workspaceID string, req dto.UpdateInvoiceSettingsRequest, userID string) (*domain.InvoiceSettings, error)

	// NextDocumentNumber allocates and formats the next number for a document
	// type. Each call consumes a sequence value even if the caller discards it.
	NextDocumentNumber(ctx context.Context, workspaceID string, docType domain.DocumentType, year int) (string, error)
}
