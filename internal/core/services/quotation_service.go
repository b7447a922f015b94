package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/nextfact/crm_billing_app/internal/utils/accounting"
)

// quotationService implements the QuotationSvcFacade interface
type quotationService struct {
	BaseService
	quotationRepo portsrepo.QuotationRepositoryFacade
	contactRepo   portsrepo.ContactReader
	productRepo   portsrepo.ProductReader
	outboxRepo    portsrepo.OutboxWriter
	settingsSvc   portssvc.SettingsSvcFacade
	agencySvc     portssvc.AgencyReaderSvc
}

// NewQuotationService creates a new quotation service with the provided dependencies
func NewQuotationService(
	quotationRepo portsrepo.QuotationRepositoryFacade,
	contactRepo portsrepo.ContactReader,
	productRepo portsrepo.ProductReader,
	outboxRepo portsrepo.OutboxWriter,
	settingsSvc portssvc.SettingsSvcFacade,
	agencySvc portssvc.AgencyReaderSvc,
	authorizer portssvc.WorkspaceAuthorizerSvc,
) portssvc.QuotationSvcFacade {
	return &quotationService{
		BaseService:   BaseService{WorkspaceAuthorizer: authorizer},
		quotationRepo: quotationRepo,
		contactRepo:   contactRepo,
		productRepo:   productRepo,
		outboxRepo:    outboxRepo,
		settingsSvc:   settingsSvc,
		agencySvc:     agencySvc,
	}
}

var _ portssvc.QuotationSvcFacade = (*quotationService)(nil)

// GetQuotation retrieves a quotation and its line items
func (s *quotationService) GetQuotation(ctx context.Context, workspaceID, quotationID, requestingUserID string) (*domain.Quotation, []domain.LineItem, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, nil, err
	}

	quotation, err := s.quotationRepo.FindQuotationByID(ctx, workspaceID, quotationID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find quotation", slog.String("quotation_id", quotationID))
		}
		return nil, nil, err
	}

	items, err := s.quotationRepo.FindLineItemsByQuotationID(ctx, quotationID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load quotation line items", slog.String("quotation_id", quotationID))
		return nil, nil, err
	}

	return quotation, items, nil
}

// ListQuotations retrieves a paginated quotation list, optionally by status
func (s *quotationService) ListQuotations(ctx context.Context, workspaceID string, status *domain.QuotationStatus, limit int, nextToken *string, requestingUserID string) ([]domain.Quotation, *string, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, nil, err
	}

	quotations, token, err := s.quotationRepo.ListQuotations(ctx, workspaceID, status, limit, nextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list quotations", slog.String("workspace_id", workspaceID))
		return nil, nil, err
	}
	return quotations, token, nil
}

// CreateQuotation creates a draft quotation with an allocated number and
// aggregated totals
func (s *quotationService) CreateQuotation(ctx context.Context, workspaceID string, req dto.CreateQuotationRequest, creatorUserID string) (*domain.Quotation, error) {
	if err := s.AuthorizeUser(ctx, creatorUserID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	contact, err := s.contactRepo.FindContactByID(ctx, workspaceID, req.ContactID)
	if err != nil {
		return nil, err
	}
	if contact.IsArchived {
		return nil, apperrors.NewValidationFailedError("cannot create documents for an archived contact")
	}

	now := time.Now()
	items, err := buildLineItems(ctx, s.productRepo, workspaceID, req.Items, creatorUserID, now)
	if err != nil {
		return nil, err
	}

	discountType, discountValue := documentDiscountOf(req.Discount)
	totals, err := accounting.ApplyToItems(items, discountType, discountValue)
	if err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}

	number, err := s.settingsSvc.NextDocumentNumber(ctx, workspaceID, domain.DocTypeQuotation, now.Year())
	if err != nil {
		return nil, err
	}

	quotationID := uuid.NewString()
	for i := range items {
		items[i].QuotationID = &quotationID
	}

	quotation := domain.Quotation{
		QuotationID:   quotationID,
		WorkspaceID:   workspaceID,
		Number:        number,
		ContactID:     req.ContactID,
		OpportunityID: req.OpportunityID,
		Status:        domain.QuotationDraft,
		CurrencyCode:  req.CurrencyCode,
		Subtotal:      totals.Subtotal,
		DiscountTotal: totals.DiscountTotal,
		TaxTotal:      totals.TaxTotal,
		Total:         totals.Total,
		DiscountType:  discountType,
		DiscountValue: discountValue,
		ValidUntil:    req.ValidUntil,
		Notes:         req.Notes,
		Version:       1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.quotationRepo.SaveQuotation(ctx, quotation, items); err != nil {
		s.LogError(ctx, err, "Failed to save quotation", slog.String("workspace_id", workspaceID))
		return nil, err
	}

	s.LogInfo(ctx, "Quotation created",
		slog.String("quotation_id", quotation.QuotationID),
		slog.String("number", quotation.Number))
	return &quotation, nil
}

// UpdateQuotationItems replaces the line items of a draft quotation
func (s *quotationService) UpdateQuotationItems(ctx context.Context, workspaceID, quotationID string, req dto.UpdateQuotationItemsRequest, userID string) (*domain.Quotation, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	quotation, err := s.quotationRepo.FindQuotationByID(ctx, workspaceID, quotationID)
	if err != nil {
		return nil, err
	}
	if quotation.Status != domain.QuotationDraft {
		return nil, apperrors.NewValidationFailedError("only draft quotations can be edited")
	}

	now := time.Now()
	items, err := buildLineItems(ctx, s.productRepo, workspaceID, req.Items, userID, now)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].QuotationID = &quotation.QuotationID
	}

	discountType, discountValue := documentDiscountOf(req.Discount)
	totals, err := accounting.ApplyToItems(items, discountType, discountValue)
	if err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}

	quotation.Subtotal = totals.Subtotal
	quotation.DiscountTotal = totals.DiscountTotal
	quotation.TaxTotal = totals.TaxTotal
	quotation.Total = totals.Total
	quotation.DiscountType = discountType
	quotation.DiscountValue = discountValue
	quotation.LastUpdatedAt = now
	quotation.LastUpdatedBy = userID

	if err := s.quotationRepo.ReplaceLineItems(ctx, *quotation, items); err != nil {
		s.LogError(ctx, err, "Failed to replace quotation line items", slog.String("quotation_id", quotationID))
		return nil, err
	}

	return quotation, nil
}

// DeleteQuotation hard-deletes a draft quotation
func (s *quotationService) DeleteQuotation(ctx context.Context, workspaceID, quotationID, userID string) error {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return err
	}

	quotation, err := s.quotationRepo.FindQuotationByID(ctx, workspaceID, quotationID)
	if err != nil {
		return err
	}
	if quotation.Status != domain.QuotationDraft {
		return apperrors.NewValidationFailedError("only draft quotations can be deleted")
	}

	if err := s.quotationRepo.DeleteQuotationDraft(ctx, workspaceID, quotationID); err != nil {
		s.LogError(ctx, err, "Failed to delete quotation draft", slog.String("quotation_id", quotationID))
		return err
	}

	s.LogInfo(ctx, "Quotation deleted", slog.String("quotation_id", quotationID))
	return nil
}

// SendQuotation transitions draft→sent and emits quotation.sent with the
// workspace's resolved branding
func (s *quotationService) SendQuotation(ctx context.Context, workspaceID, quotationID, userID string) (*domain.Quotation, error) {
	quotation, err := s.transition(ctx, workspaceID, quotationID, userID, domain.QuotationSent)
	if err != nil {
		return nil, err
	}

	branding, err := s.agencySvc.ResolveBranding(ctx, workspaceID)
	if err != nil {
		// Branding is presentation only; fall back to the default rather than
		// blocking the send.
		s.LogError(ctx, err, "Failed to resolve branding, using default", slog.String("workspace_id", workspaceID))
		branding = domain.DefaultBranding
	}

	s.emit(ctx, workspaceID, domain.EventQuotationSent, map[string]any{
		"quotationID": quotation.QuotationID,
		"number":      quotation.Number,
		"contactID":   quotation.ContactID,
		"total":       quotation.Total,
		"branding":    branding,
	})

	return quotation, nil
}

// MarkQuotationAccepted transitions sent→accepted and emits quotation.accepted
func (s *quotationService) MarkQuotationAccepted(ctx context.Context, workspaceID, quotationID, userID string) (*domain.Quotation, error) {
	quotation, err := s.transition(ctx, workspaceID, quotationID, userID, domain.QuotationAccepted)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, workspaceID, domain.EventQuotationAccepted, map[string]any{
		"quotationID": quotation.QuotationID,
		"number":      quotation.Number,
		"contactID":   quotation.ContactID,
	})

	return quotation, nil
}

// MarkQuotationRejected transitions sent→rejected
func (s *quotationService) MarkQuotationRejected(ctx context.Context, workspaceID, quotationID, userID string) (*domain.Quotation, error) {
	return s.transition(ctx, workspaceID, quotationID, userID, domain.QuotationRejected)
}

// ConvertToInvoice turns an accepted, unconverted quotation into a draft
// invoice atomically
func (s *quotationService) ConvertToInvoice(ctx context.Context, workspaceID, quotationID, userID string) (*domain.Invoice, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	quotation, err := s.quotationRepo.FindQuotationByID(ctx, workspaceID, quotationID)
	if err != nil {
		return nil, err
	}
	if quotation.Status != domain.QuotationAccepted {
		return nil, apperrors.NewValidationFailedError("only accepted quotations can be converted")
	}
	if quotation.IsConverted() {
		return nil, apperrors.NewConflictError("quotation has already been converted to an invoice")
	}

	items, err := s.quotationRepo.FindLineItemsByQuotationID(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	number, err := s.settingsSvc.NextDocumentNumber(ctx, workspaceID, domain.DocTypeInvoice, now.Year())
	if err != nil {
		return nil, err
	}

	invoiceID := uuid.NewString()
	copied := make([]domain.LineItem, len(items))
	for i, item := range items {
		copied[i] = item
		copied[i].LineItemID = uuid.NewString()
		copied[i].QuotationID = nil
		copied[i].InvoiceID = &invoiceID
		copied[i].AuditFields = domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		}
	}

	invoice := domain.Invoice{
		InvoiceID:     invoiceID,
		WorkspaceID:   workspaceID,
		Number:        number,
		ContactID:     quotation.ContactID,
		QuotationID:   &quotation.QuotationID,
		Status:        domain.InvoiceDraft,
		CurrencyCode:  quotation.CurrencyCode,
		Subtotal:      quotation.Subtotal,
		DiscountTotal: quotation.DiscountTotal,
		TaxTotal:      quotation.TaxTotal,
		Total:         quotation.Total,
		DiscountType:  quotation.DiscountType,
		DiscountValue: quotation.DiscountValue,
		Notes:         quotation.Notes,
		Version:       1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	// The repository creates the invoice and stamps converted_to_invoice_id in
	// one transaction, guarded against concurrent double conversion.
	if err := s.quotationRepo.ConvertToInvoice(ctx, *quotation, invoice, copied); err != nil {
		s.LogError(ctx, err, "Failed to convert quotation",
			slog.String("quotation_id", quotationID),
			slog.String("invoice_id", invoiceID))
		return nil, err
	}

	s.LogInfo(ctx, "Quotation converted to invoice",
		slog.String("quotation_id", quotationID),
		slog.String("invoice_id", invoiceID),
		slog.String("invoice_number", number))
	return &invoice, nil
}

// transition applies a validated status change with optimistic locking.
func (s *quotationService) transition(ctx context.Context, workspaceID, quotationID, userID string, next domain.QuotationStatus) (*domain.Quotation, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	quotation, err := s.quotationRepo.FindQuotationByID(ctx, workspaceID, quotationID)
	if err != nil {
		return nil, err
	}

	if err := quotation.CanTransitionTo(next); err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}

	now := time.Now()
	quotation.Status = next
	if next == domain.QuotationSent {
		quotation.SentAt = &now
	}

	if err := s.quotationRepo.UpdateQuotationStatus(ctx, *quotation, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to update quotation status",
			slog.String("quotation_id", quotationID),
			slog.String("status", string(next)))
		return nil, err
	}
	quotation.Version++

	s.LogInfo(ctx, "Quotation status updated",
		slog.String("quotation_id", quotationID),
		slog.String("status", string(next)))
	return quotation, nil
}

// emit enqueues an outbox event; failures are logged, not propagated, so a
// broken outbox never rolls back a committed status change.
func (s *quotationService) emit(ctx context.Context, workspaceID string, eventType domain.OutboxEventType, payload any) {
	event, err := newOutboxEvent(workspaceID, eventType, payload, time.Now())
	if err != nil {
		s.LogError(ctx, err, "Failed to build outbox event", slog.String("event_type", string(eventType)))
		return
	}
	if err := s.outboxRepo.Enqueue(ctx, event); err != nil {
		s.LogError(ctx, err, "Failed to enqueue outbox event", slog.String("event_type", string(eventType)))
	}
}
