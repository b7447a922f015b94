package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
)

// settingsService implements the SettingsSvcFacade interface
type settingsService struct {
	BaseService
	settingsRepo portsrepo.SettingsRepositoryFacade
}

// NewSettingsService creates a new settings service with the provided dependencies
func NewSettingsService(settingsRepo portsrepo.SettingsRepositoryFacade, authorizer portssvc.WorkspaceAuthorizerSvc) portssvc.SettingsSvcFacade {
	return &settingsService{
		BaseService:  BaseService{WorkspaceAuthorizer: authorizer},
		settingsRepo: settingsRepo,
	}
}

var _ portssvc.SettingsSvcFacade = (*settingsService)(nil)

// GetSettings returns the workspace settings, creating the defaults row on
// first access.
func (s *settingsService) GetSettings(ctx context.Context, workspaceID, requestingUserID string) (*domain.InvoiceSettings, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	settings, err := s.settingsRepo.GetOrCreateSettings(ctx, workspaceID, requestingUserID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load invoice settings", slog.String("workspace_id", workspaceID))
		return nil, err
	}
	return settings, nil
}

// UpdateSettings applies partial settings changes. Counters never move through
// this path; they belong to the allocator.
func (s *settingsService) UpdateSettings(ctx context.Context, workspaceID string, req dto.UpdateInvoiceSettingsRequest, userID string) (*domain.InvoiceSettings, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleAdmin); err != nil {
		return nil, err
	}

	settings, err := s.settingsRepo.GetOrCreateSettings(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}

	if req.QuotationPrefix != nil {
		settings.QuotationPrefix = *req.QuotationPrefix
	}
	if req.InvoicePrefix != nil {
		settings.InvoicePrefix = *req.InvoicePrefix
	}
	if req.CreditNotePrefix != nil {
		settings.CreditNotePrefix = *req.CreditNotePrefix
	}
	if req.NumberPadding != nil {
		settings.NumberPadding = *req.NumberPadding
	}
	if req.CurrencyCode != nil {
		settings.CurrencyCode = *req.CurrencyCode
	}
	if req.PaymentTermsDays != nil {
		settings.PaymentTermsDays = *req.PaymentTermsDays
	}
	if req.CompanyName != nil {
		settings.CompanyName = *req.CompanyName
	}
	if req.CompanyAddress != nil {
		settings.CompanyAddress = *req.CompanyAddress
	}
	if req.CompanyVATNumber != nil {
		settings.CompanyVATNumber = *req.CompanyVATNumber
	}
	if req.CompanyIBAN != nil {
		settings.CompanyIBAN = *req.CompanyIBAN
	}
	settings.LastUpdatedAt = time.Now()
	settings.LastUpdatedBy = userID

	if err := s.settingsRepo.UpdateSettings(ctx, *settings); err != nil {
		s.LogError(ctx, err, "Failed to update invoice settings", slog.String("workspace_id", workspaceID))
		return nil, err
	}

	s.LogInfo(ctx, "Invoice settings updated", slog.String("workspace_id", workspaceID))
	return settings, nil
}

// NextDocumentNumber allocates and formats the next number for a document
// type. Allocation is an atomic increment in the repository; concurrent calls
// for the same workspace can never receive the same sequence.
func (s *settingsService) NextDocumentNumber(ctx context.Context, workspaceID string, docType domain.DocumentType, year int) (string, error) {
	settings, err := s.settingsRepo.GetOrCreateSettings(ctx, workspaceID, "system")
	if err != nil {
		return "", err
	}

	seq, err := s.settingsRepo.AllocateNumber(ctx, workspaceID, docType)
	if err != nil {
		s.LogError(ctx, err, "Failed to allocate document number",
			slog.String("workspace_id", workspaceID),
			slog.String("doc_type", string(docType)))
		return "", err
	}

	return domain.FormatDocumentNumber(settings.PrefixFor(docType), year, seq, settings.NumberPadding), nil
}
