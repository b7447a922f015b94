package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/nextfact/crm_billing_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// claimBatchSize bounds how many due templates one generator pass stamps.
const claimBatchSize = 50

// recurringService implements the RecurringSvcFacade interface
type recurringService struct {
	BaseService
	recurringRepo portsrepo.RecurringRepositoryWithTx
	invoiceRepo   portsrepo.InvoiceWriter
	contactRepo   portsrepo.ContactReader
	settingsRepo  portsrepo.SettingsRepositoryFacade
	outboxRepo    portsrepo.OutboxWriter
	agencySvc     portssvc.AgencyReaderSvc
}

// NewRecurringService creates a new recurring template service with the provided dependencies
func NewRecurringService(
	recurringRepo portsrepo.RecurringRepositoryWithTx,
	invoiceRepo portsrepo.InvoiceWriter,
	contactRepo portsrepo.ContactReader,
	settingsRepo portsrepo.SettingsRepositoryFacade,
	outboxRepo portsrepo.OutboxWriter,
	agencySvc portssvc.AgencyReaderSvc,
	authorizer portssvc.WorkspaceAuthorizerSvc,
) portssvc.RecurringSvcFacade {
	return &recurringService{
		BaseService:   BaseService{WorkspaceAuthorizer: authorizer},
		recurringRepo: recurringRepo,
		invoiceRepo:   invoiceRepo,
		contactRepo:   contactRepo,
		settingsRepo:  settingsRepo,
		outboxRepo:    outboxRepo,
		agencySvc:     agencySvc,
	}
}

var _ portssvc.RecurringSvcFacade = (*recurringService)(nil)

// GetTemplate retrieves a template and its snapshot line items
func (s *recurringService) GetTemplate(ctx context.Context, workspaceID, templateID, requestingUserID string) (*domain.RecurringTemplate, []domain.TemplateLineItem, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, nil, err
	}

	template, err := s.recurringRepo.FindTemplateByID(ctx, workspaceID, templateID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.recurringRepo.FindTemplateLineItems(ctx, templateID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load template line items", slog.String("template_id", templateID))
		return nil, nil, err
	}

	return template, items, nil
}

// ListTemplates retrieves the workspace's recurring templates
func (s *recurringService) ListTemplates(ctx context.Context, workspaceID string, includeInactive bool, requestingUserID string) ([]domain.RecurringTemplate, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	templates, err := s.recurringRepo.ListTemplates(ctx, workspaceID, includeInactive)
	if err != nil {
		s.LogError(ctx, err, "Failed to list templates", slog.String("workspace_id", workspaceID))
		return nil, err
	}
	if templates == nil {
		return []domain.RecurringTemplate{}, nil
	}
	return templates, nil
}

// CreateTemplate creates an active recurring template with snapshot line items
func (s *recurringService) CreateTemplate(ctx context.Context, workspaceID string, req dto.CreateRecurringTemplateRequest, creatorUserID string) (*domain.RecurringTemplate, error) {
	if err := s.AuthorizeUser(ctx, creatorUserID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	contact, err := s.contactRepo.FindContactByID(ctx, workspaceID, req.ContactID)
	if err != nil {
		return nil, err
	}
	if contact.IsArchived {
		return nil, apperrors.NewValidationFailedError("cannot create templates for an archived contact")
	}

	now := time.Now()
	templateID := uuid.NewString()
	items, err := templateItemsOf(templateID, req.Items)
	if err != nil {
		return nil, err
	}

	template := domain.RecurringTemplate{
		TemplateID:       templateID,
		WorkspaceID:      workspaceID,
		ContactID:        req.ContactID,
		Name:             req.Name,
		CurrencyCode:     req.CurrencyCode,
		Frequency:        req.Frequency,
		NextRunDate:      req.NextRunDate,
		PaymentTermsDays: req.PaymentTermsDays,
		AutoSend:         req.AutoSend,
		IsActive:         true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.recurringRepo.SaveTemplate(ctx, template, items); err != nil {
		s.LogError(ctx, err, "Failed to save template", slog.String("workspace_id", workspaceID))
		return nil, err
	}

	s.LogInfo(ctx, "Recurring template created", slog.String("template_id", templateID))
	return &template, nil
}

// UpdateTemplate applies partial template changes, optionally replacing the
// snapshot line items
func (s *recurringService) UpdateTemplate(ctx context.Context, workspaceID, templateID string, req dto.UpdateRecurringTemplateRequest, userID string) (*domain.RecurringTemplate, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	template, err := s.recurringRepo.FindTemplateByID(ctx, workspaceID, templateID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.Frequency != nil {
		template.Frequency = *req.Frequency
	}
	if req.NextRunDate != nil {
		template.NextRunDate = *req.NextRunDate
	}
	if req.PaymentTermsDays != nil {
		template.PaymentTermsDays = *req.PaymentTermsDays
	}
	if req.AutoSend != nil {
		template.AutoSend = *req.AutoSend
	}
	template.LastUpdatedAt = time.Now()
	template.LastUpdatedBy = userID

	if req.Items != nil {
		items, err := templateItemsOf(templateID, req.Items)
		if err != nil {
			return nil, err
		}
		if err := s.recurringRepo.ReplaceTemplateLineItems(ctx, *template, items); err != nil {
			s.LogError(ctx, err, "Failed to replace template line items", slog.String("template_id", templateID))
			return nil, err
		}
		return template, nil
	}

	if err := s.recurringRepo.UpdateTemplate(ctx, *template); err != nil {
		s.LogError(ctx, err, "Failed to update template", slog.String("template_id", templateID))
		return nil, err
	}
	return template, nil
}

// PauseTemplate deactivates a template; its schedule is preserved
func (s *recurringService) PauseTemplate(ctx context.Context, workspaceID, templateID, userID string) error {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return err
	}

	if err := s.recurringRepo.SetTemplateActive(ctx, workspaceID, templateID, false, userID, time.Now()); err != nil {
		s.LogError(ctx, err, "Failed to pause template", slog.String("template_id", templateID))
		return err
	}

	s.LogInfo(ctx, "Recurring template paused", slog.String("template_id", templateID))
	return nil
}

// ResumeTemplate reactivates a paused template. A nextRunDate left in the past
// is advanced to the next future occurrence so resuming never back-fills the
// paused period.
func (s *recurringService) ResumeTemplate(ctx context.Context, workspaceID, templateID, userID string) error {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return err
	}

	template, err := s.recurringRepo.FindTemplateByID(ctx, workspaceID, templateID)
	if err != nil {
		return err
	}

	now := time.Now()
	if template.NextRunDate.Before(now) {
		next, err := advancePast(template.Frequency, template.NextRunDate, now)
		if err != nil {
			return apperrors.NewValidationFailedError(err.Error())
		}
		template.NextRunDate = next
		template.LastUpdatedAt = now
		template.LastUpdatedBy = userID
		if err := s.recurringRepo.UpdateTemplate(ctx, *template); err != nil {
			s.LogError(ctx, err, "Failed to advance template schedule", slog.String("template_id", templateID))
			return err
		}
	}

	if err := s.recurringRepo.SetTemplateActive(ctx, workspaceID, templateID, true, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to resume template", slog.String("template_id", templateID))
		return err
	}

	s.LogInfo(ctx, "Recurring template resumed", slog.String("template_id", templateID))
	return nil
}

// RunDueTemplates claims due templates under row locks and stamps one invoice
// per template. Each template's work (number, invoice, outbox event, schedule
// bookkeeping) runs inside its own savepoint on the claim transaction, so one
// template's failure rolls back that template alone and never blocks siblings.
func (s *recurringService) RunDueTemplates(ctx context.Context, now time.Time) (dto.DispatchReport, error) {
	var report dto.DispatchReport

	tx, err := s.recurringRepo.Begin(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to begin generator transaction")
		return report, err
	}
	defer s.recurringRepo.Rollback(ctx, tx)

	templates, err := s.recurringRepo.ClaimDueTemplates(ctx, tx, now, claimBatchSize)
	if err != nil {
		s.LogError(ctx, err, "Failed to claim due templates")
		return report, err
	}
	if len(templates) == 0 {
		return report, s.recurringRepo.Commit(ctx, tx)
	}

	for _, template := range templates {
		// pgx nests transactions as savepoints. A statement-level error inside
		// stampInvoice aborts only the savepoint; rolling it back leaves the
		// claim transaction usable for the remaining templates. The failed
		// template keeps its old next_run_date and is retried next pass.
		sub, err := tx.Begin(ctx)
		if err != nil {
			s.LogError(ctx, err, "Failed to open template savepoint")
			return report, err
		}
		if err := s.stampInvoice(ctx, sub, template, now); err != nil {
			if rbErr := sub.Rollback(ctx); rbErr != nil {
				s.LogError(ctx, rbErr, "Failed to roll back template savepoint",
					slog.String("template_id", template.TemplateID))
				report.Failed++
				return report, rbErr
			}
			s.LogError(ctx, err, "Failed to generate invoice from template",
				slog.String("template_id", template.TemplateID))
			report.Failed++
			continue
		}
		if err := sub.Commit(ctx); err != nil {
			s.LogError(ctx, err, "Failed to release template savepoint",
				slog.String("template_id", template.TemplateID))
			report.Failed++
			continue
		}
		report.Processed++
	}

	if err := s.recurringRepo.Commit(ctx, tx); err != nil {
		s.LogError(ctx, err, "Failed to commit generator transaction")
		return dto.DispatchReport{}, err
	}

	if report.Processed > 0 || report.Failed > 0 {
		s.LogInfo(ctx, "Recurring generator pass finished",
			slog.Int("processed", report.Processed),
			slog.Int("failed", report.Failed))
	}
	return report, nil
}

// stampInvoice turns one claimed template into an invoice inside tx.
func (s *recurringService) stampInvoice(ctx context.Context, tx pgx.Tx, template domain.RecurringTemplate, now time.Time) error {
	nextRun, err := advancePast(template.Frequency, template.NextRunDate, now)
	if err != nil {
		return err
	}

	snapshot, err := s.recurringRepo.FindTemplateLineItems(ctx, template.TemplateID)
	if err != nil {
		return err
	}
	if len(snapshot) == 0 {
		return apperrors.NewValidationFailedError("template has no line items")
	}

	invoiceID := uuid.NewString()
	items := make([]domain.LineItem, len(snapshot))
	for i, row := range snapshot {
		items[i] = domain.LineItem{
			LineItemID:      uuid.NewString(),
			InvoiceID:       &invoiceID,
			Description:     row.Description,
			Quantity:        row.Quantity,
			UnitPrice:       row.UnitPrice,
			TaxRate:         row.TaxRate,
			DiscountPercent: row.DiscountPercent,
			Position:        row.Position,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     template.CreatedBy,
				LastUpdatedAt: now,
				LastUpdatedBy: template.CreatedBy,
			},
		}
	}

	totals, err := accounting.ApplyToItems(items, domain.DiscountNone, decimal.Zero)
	if err != nil {
		return err
	}

	settings, err := s.settingsRepo.GetOrCreateSettings(ctx, template.WorkspaceID, "system")
	if err != nil {
		return err
	}
	seq, err := s.settingsRepo.AllocateNumberInTx(ctx, tx, template.WorkspaceID, domain.DocTypeInvoice)
	if err != nil {
		return err
	}
	number := domain.FormatDocumentNumber(settings.PrefixFor(domain.DocTypeInvoice), now.Year(), seq, settings.NumberPadding)

	termsDays := template.PaymentTermsDays
	if termsDays <= 0 {
		termsDays = settings.PaymentTermsDays
	}
	dueDate := now.AddDate(0, 0, termsDays)

	invoice := domain.Invoice{
		InvoiceID:     invoiceID,
		WorkspaceID:   template.WorkspaceID,
		Number:        number,
		ContactID:     template.ContactID,
		Status:        domain.InvoiceDraft,
		CurrencyCode:  template.CurrencyCode,
		Subtotal:      totals.Subtotal,
		DiscountTotal: totals.DiscountTotal,
		TaxTotal:      totals.TaxTotal,
		Total:         totals.Total,
		DiscountType:  domain.DiscountNone,
		DueDate:       &dueDate,
		Notes:         template.Name,
		Version:       1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     template.CreatedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: template.CreatedBy,
		},
	}
	if template.AutoSend {
		invoice.Status = domain.InvoiceSent
		sentAt := now
		invoice.SentAt = &sentAt
	}

	if err := s.invoiceRepo.SaveInvoiceInTx(ctx, tx, invoice, items); err != nil {
		return err
	}
	if err := s.recurringRepo.MarkTemplateRun(ctx, tx, template.TemplateID, nextRun, now); err != nil {
		return err
	}

	event, err := newOutboxEvent(template.WorkspaceID, domain.EventRecurringStamped, map[string]any{
		"templateID": template.TemplateID,
		"invoiceID":  invoice.InvoiceID,
		"number":     invoice.Number,
		"contactID":  invoice.ContactID,
		"total":      invoice.Total,
		"autoSent":   template.AutoSend,
	}, now)
	if err != nil {
		return err
	}
	if err := s.outboxRepo.EnqueueInTx(ctx, tx, event); err != nil {
		return err
	}

	if template.AutoSend {
		branding, err := s.agencySvc.ResolveBranding(ctx, template.WorkspaceID)
		if err != nil {
			branding = domain.DefaultBranding
		}
		sentEvent, err := newOutboxEvent(template.WorkspaceID, domain.EventInvoiceSent, map[string]any{
			"invoiceID": invoice.InvoiceID,
			"number":    invoice.Number,
			"contactID": invoice.ContactID,
			"total":     invoice.Total,
			"dueDate":   invoice.DueDate,
			"branding":  branding,
		}, now)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.EnqueueInTx(ctx, tx, sentEvent); err != nil {
			return err
		}
	}

	s.LogInfo(ctx, "Invoice generated from template",
		slog.String("template_id", template.TemplateID),
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("number", invoice.Number))
	return nil
}

// advancePast steps a run date forward by whole frequency periods until it is
// after now, so a long-idle template never back-fills missed periods.
func advancePast(freq domain.RecurrenceFrequency, from, now time.Time) (time.Time, error) {
	next, err := freq.NextAfter(from)
	if err != nil {
		return time.Time{}, err
	}
	for !next.After(now) {
		next, err = freq.NextAfter(next)
		if err != nil {
			return time.Time{}, err
		}
	}
	return next, nil
}

// templateItemsOf validates and converts snapshot line requests.
func templateItemsOf(templateID string, reqs []dto.TemplateLineItemRequest) ([]domain.TemplateLineItem, error) {
	items := make([]domain.TemplateLineItem, len(reqs))
	for i, r := range reqs {
		if !r.Quantity.IsPositive() {
			return nil, apperrors.NewValidationFailedError("template line quantity must be positive")
		}
		if r.UnitPrice.IsNegative() {
			return nil, apperrors.NewValidationFailedError("template line unit price must not be negative")
		}
		items[i] = domain.TemplateLineItem{
			TemplateLineItemID: uuid.NewString(),
			TemplateID:         templateID,
			Description:        r.Description,
			Quantity:           r.Quantity,
			UnitPrice:          r.UnitPrice,
			TaxRate:            r.TaxRate,
			DiscountPercent:    r.DiscountPercent,
			Position:           i + 1,
		}
	}
	return items, nil
}
