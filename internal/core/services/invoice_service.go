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

// invoiceService implements the InvoiceSvcFacade interface
type invoiceService struct {
	BaseService
	invoiceRepo portsrepo.InvoiceRepositoryFacade
	contactRepo portsrepo.ContactReader
	productRepo portsrepo.ProductReader
	outboxRepo  portsrepo.OutboxWriter
	settingsSvc portssvc.SettingsSvcFacade
	agencySvc   portssvc.AgencyReaderSvc
}

// NewInvoiceService creates a new invoice service with the provided dependencies
func NewInvoiceService(
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	contactRepo portsrepo.ContactReader,
	productRepo portsrepo.ProductReader,
	outboxRepo portsrepo.OutboxWriter,
	settingsSvc portssvc.SettingsSvcFacade,
	agencySvc portssvc.AgencyReaderSvc,
	authorizer portssvc.WorkspaceAuthorizerSvc,
) portssvc.InvoiceSvcFacade {
	return &invoiceService{
		BaseService: BaseService{WorkspaceAuthorizer: authorizer},
		invoiceRepo: invoiceRepo,
		contactRepo: contactRepo,
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		settingsSvc: settingsSvc,
		agencySvc:   agencySvc,
	}
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

// GetInvoice retrieves an invoice and its line items
func (s *invoiceService) GetInvoice(ctx context.Context, workspaceID, invoiceID, requestingUserID string) (*domain.Invoice, []domain.LineItem, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, nil, err
	}

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, workspaceID, invoiceID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find invoice", slog.String("invoice_id", invoiceID))
		}
		return nil, nil, err
	}

	items, err := s.invoiceRepo.FindLineItemsByInvoiceID(ctx, invoiceID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load invoice line items", slog.String("invoice_id", invoiceID))
		return nil, nil, err
	}

	return invoice, items, nil
}

// ListInvoices retrieves a paginated, filtered invoice list
func (s *invoiceService) ListInvoices(ctx context.Context, workspaceID string, filter portsrepo.InvoiceListFilter, limit int, nextToken *string, requestingUserID string) ([]domain.Invoice, *string, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, nil, err
	}

	invoices, token, err := s.invoiceRepo.ListInvoices(ctx, workspaceID, filter, limit, nextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list invoices", slog.String("workspace_id", workspaceID))
		return nil, nil, err
	}
	return invoices, token, nil
}

// ListPayments retrieves the payments recorded against an invoice
func (s *invoiceService) ListPayments(ctx context.Context, workspaceID, invoiceID, requestingUserID string) ([]domain.Payment, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	// Scope check: the invoice must belong to this workspace.
	if _, err := s.invoiceRepo.FindInvoiceByID(ctx, workspaceID, invoiceID); err != nil {
		return nil, err
	}

	payments, err := s.invoiceRepo.ListPaymentsByInvoiceID(ctx, invoiceID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list payments", slog.String("invoice_id", invoiceID))
		return nil, err
	}
	if payments == nil {
		return []domain.Payment{}, nil
	}
	return payments, nil
}

// CreateInvoice creates a standalone draft invoice
func (s *invoiceService) CreateInvoice(ctx context.Context, workspaceID string, req dto.CreateInvoiceRequest, creatorUserID string) (*domain.Invoice, error) {
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

	number, err := s.settingsSvc.NextDocumentNumber(ctx, workspaceID, domain.DocTypeInvoice, now.Year())
	if err != nil {
		return nil, err
	}

	invoiceID := uuid.NewString()
	for i := range items {
		items[i].InvoiceID = &invoiceID
	}

	invoice := domain.Invoice{
		InvoiceID:     invoiceID,
		WorkspaceID:   workspaceID,
		Number:        number,
		ContactID:     req.ContactID,
		Status:        domain.InvoiceDraft,
		CurrencyCode:  req.CurrencyCode,
		Subtotal:      totals.Subtotal,
		DiscountTotal: totals.DiscountTotal,
		TaxTotal:      totals.TaxTotal,
		Total:         totals.Total,
		DiscountType:  discountType,
		DiscountValue: discountValue,
		DueDate:       req.DueDate,
		PaymentTerms:  req.PaymentTerms,
		Notes:         req.Notes,
		Version:       1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.invoiceRepo.SaveInvoice(ctx, invoice, items); err != nil {
		s.LogError(ctx, err, "Failed to save invoice", slog.String("workspace_id", workspaceID))
		return nil, err
	}

	s.LogInfo(ctx, "Invoice created",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("number", invoice.Number))
	return &invoice, nil
}

// UpdateInvoiceItems replaces the line items of a draft invoice
func (s *invoiceService) UpdateInvoiceItems(ctx context.Context, workspaceID, invoiceID string, req dto.UpdateInvoiceItemsRequest, userID string) (*domain.Invoice, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, workspaceID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != domain.InvoiceDraft {
		return nil, apperrors.NewValidationFailedError("only draft invoices can be edited")
	}

	now := time.Now()
	items, err := buildLineItems(ctx, s.productRepo, workspaceID, req.Items, userID, now)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].InvoiceID = &invoice.InvoiceID
	}

	discountType, discountValue := documentDiscountOf(req.Discount)
	totals, err := accounting.ApplyToItems(items, discountType, discountValue)
	if err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}

	invoice.Subtotal = totals.Subtotal
	invoice.DiscountTotal = totals.DiscountTotal
	invoice.TaxTotal = totals.TaxTotal
	invoice.Total = totals.Total
	invoice.DiscountType = discountType
	invoice.DiscountValue = discountValue
	invoice.LastUpdatedAt = now
	invoice.LastUpdatedBy = userID

	if err := s.invoiceRepo.ReplaceLineItems(ctx, *invoice, items); err != nil {
		s.LogError(ctx, err, "Failed to replace invoice line items", slog.String("invoice_id", invoiceID))
		return nil, err
	}

	return invoice, nil
}

// DeleteInvoice hard-deletes a draft invoice
func (s *invoiceService) DeleteInvoice(ctx context.Context, workspaceID, invoiceID, userID string) error {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return err
	}

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, workspaceID, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status != domain.InvoiceDraft {
		return apperrors.NewValidationFailedError("only draft invoices can be deleted")
	}

	if err := s.invoiceRepo.DeleteInvoiceDraft(ctx, workspaceID, invoiceID); err != nil {
		s.LogError(ctx, err, "Failed to delete invoice draft", slog.String("invoice_id", invoiceID))
		return err
	}

	s.LogInfo(ctx, "Invoice deleted", slog.String("invoice_id", invoiceID))
	return nil
}

// SendInvoice transitions draft→sent. A missing due date is stamped from the
// workspace's payment terms so every sent invoice can go overdue.
func (s *invoiceService) SendInvoice(ctx context.Context, workspaceID, invoiceID, userID string) (*domain.Invoice, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, workspaceID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := invoice.CanTransitionTo(domain.InvoiceSent); err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}

	now := time.Now()
	if invoice.DueDate == nil {
		settings, err := s.settingsSvc.GetSettings(ctx, workspaceID, userID)
		if err != nil {
			return nil, err
		}
		due := now.AddDate(0, 0, settings.PaymentTermsDays)
		invoice.DueDate = &due
	}
	invoice.Status = domain.InvoiceSent
	invoice.SentAt = &now

	if err := s.invoiceRepo.UpdateInvoiceStatus(ctx, *invoice, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to send invoice", slog.String("invoice_id", invoiceID))
		return nil, err
	}
	invoice.Version++

	branding, err := s.agencySvc.ResolveBranding(ctx, workspaceID)
	if err != nil {
		s.LogError(ctx, err, "Failed to resolve branding, using default", slog.String("workspace_id", workspaceID))
		branding = domain.DefaultBranding
	}

	s.emit(ctx, workspaceID, domain.EventInvoiceSent, map[string]any{
		"invoiceID": invoice.InvoiceID,
		"number":    invoice.Number,
		"contactID": invoice.ContactID,
		"total":     invoice.Total,
		"dueDate":   invoice.DueDate,
		"branding":  branding,
	})

	s.LogInfo(ctx, "Invoice sent", slog.String("invoice_id", invoiceID))
	return invoice, nil
}

// MarkInvoiceViewed transitions sent→viewed
func (s *invoiceService) MarkInvoiceViewed(ctx context.Context, workspaceID, invoiceID, userID string) (*domain.Invoice, error) {
	return s.transition(ctx, workspaceID, invoiceID, userID, domain.InvoiceViewed)
}

// CancelInvoice transitions sent/viewed→cancelled
func (s *invoiceService) CancelInvoice(ctx context.Context, workspaceID, invoiceID, userID string) (*domain.Invoice, error) {
	return s.transition(ctx, workspaceID, invoiceID, userID, domain.InvoiceCancelled)
}

// RecordPayment records money received against an invoice. The repository
// recomputes amount_paid from the payment rows and flips the invoice to PAID
// in the same transaction when the total is covered.
func (s *invoiceService) RecordPayment(ctx context.Context, workspaceID, invoiceID string, req dto.RecordPaymentRequest, userID string) (*domain.Invoice, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	if !req.Amount.IsPositive() {
		return nil, apperrors.NewValidationFailedError("payment amount must be positive")
	}

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, workspaceID, invoiceID)
	if err != nil {
		return nil, err
	}
	switch invoice.Status {
	case domain.InvoiceSent, domain.InvoiceViewed:
	default:
		return nil, apperrors.NewValidationFailedError("payments can only be recorded on sent or viewed invoices")
	}

	now := time.Now()
	paymentDate := now
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	payment := domain.Payment{
		PaymentID:   uuid.NewString(),
		InvoiceID:   invoiceID,
		WorkspaceID: workspaceID,
		Amount:      req.Amount,
		PaymentDate: paymentDate,
		Method:      req.Method,
		Reference:   req.Reference,
		Notes:       req.Notes,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	updated, err := s.invoiceRepo.AddPaymentAndRecalc(ctx, payment)
	if err != nil {
		s.LogError(ctx, err, "Failed to record payment", slog.String("invoice_id", invoiceID))
		return nil, err
	}

	if updated.Status == domain.InvoicePaid && invoice.Status != domain.InvoicePaid {
		s.emit(ctx, workspaceID, domain.EventInvoicePaid, map[string]any{
			"invoiceID":  updated.InvoiceID,
			"number":     updated.Number,
			"contactID":  updated.ContactID,
			"amountPaid": updated.AmountPaid,
		})
	}

	s.LogInfo(ctx, "Payment recorded",
		slog.String("invoice_id", invoiceID),
		slog.String("payment_id", payment.PaymentID),
		slog.String("amount", req.Amount.String()))
	return updated, nil
}

// RemovePayment deletes a payment and recomputes the invoice's paid amount
func (s *invoiceService) RemovePayment(ctx context.Context, workspaceID, invoiceID, paymentID, userID string) (*domain.Invoice, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	updated, err := s.invoiceRepo.DeletePaymentAndRecalc(ctx, workspaceID, invoiceID, paymentID, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to remove payment",
			slog.String("invoice_id", invoiceID),
			slog.String("payment_id", paymentID))
		return nil, err
	}

	s.LogInfo(ctx, "Payment removed",
		slog.String("invoice_id", invoiceID),
		slog.String("payment_id", paymentID))
	return updated, nil
}

// transition applies a validated status change with optimistic locking.
func (s *invoiceService) transition(ctx context.Context, workspaceID, invoiceID, userID string, next domain.InvoiceStatus) (*domain.Invoice, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, workspaceID, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := invoice.CanTransitionTo(next); err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}

	now := time.Now()
	invoice.Status = next

	if err := s.invoiceRepo.UpdateInvoiceStatus(ctx, *invoice, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to update invoice status",
			slog.String("invoice_id", invoiceID),
			slog.String("status", string(next)))
		return nil, err
	}
	invoice.Version++

	s.LogInfo(ctx, "Invoice status updated",
		slog.String("invoice_id", invoiceID),
		slog.String("status", string(next)))
	return invoice, nil
}

func (s *invoiceService) emit(ctx context.Context, workspaceID string, eventType domain.OutboxEventType, payload any) {
	event, err := newOutboxEvent(workspaceID, eventType, payload, time.Now())
	if err != nil {
		s.LogError(ctx, err, "Failed to build outbox event", slog.String("event_type", string(eventType)))
		return
	}
	if err := s.outboxRepo.Enqueue(ctx, event); err != nil {
		s.LogError(ctx, err, "Failed to enqueue outbox event", slog.String("event_type", string(eventType)))
	}
}
