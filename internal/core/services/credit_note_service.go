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
)

// creditNoteService implements the CreditNoteSvcFacade interface
type creditNoteService struct {
	BaseService
	creditNoteRepo portsrepo.CreditNoteRepositoryFacade
	invoiceRepo    portsrepo.InvoiceReader
	contactRepo    portsrepo.ContactReader
	outboxRepo     portsrepo.OutboxWriter
	settingsSvc    portssvc.SettingsSvcFacade
}

// NewCreditNoteService creates a new credit note service with the provided dependencies
func NewCreditNoteService(
	creditNoteRepo portsrepo.CreditNoteRepositoryFacade,
	invoiceRepo portsrepo.InvoiceReader,
	contactRepo portsrepo.ContactReader,
	outboxRepo portsrepo.OutboxWriter,
	settingsSvc portssvc.SettingsSvcFacade,
	authorizer portssvc.WorkspaceAuthorizerSvc,
) portssvc.CreditNoteSvcFacade {
	return &creditNoteService{
		BaseService:    BaseService{WorkspaceAuthorizer: authorizer},
		creditNoteRepo: creditNoteRepo,
		invoiceRepo:    invoiceRepo,
		contactRepo:    contactRepo,
		outboxRepo:     outboxRepo,
		settingsSvc:    settingsSvc,
	}
}

var _ portssvc.CreditNoteSvcFacade = (*creditNoteService)(nil)

// GetCreditNote retrieves a credit note by ID
func (s *creditNoteService) GetCreditNote(ctx context.Context, workspaceID, creditNoteID, requestingUserID string) (*domain.CreditNote, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	creditNote, err := s.creditNoteRepo.FindCreditNoteByID(ctx, workspaceID, creditNoteID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find credit note", slog.String("credit_note_id", creditNoteID))
		}
		return nil, err
	}
	return creditNote, nil
}

// ListCreditNotes retrieves credit notes, optionally scoped to one invoice
func (s *creditNoteService) ListCreditNotes(ctx context.Context, workspaceID string, invoiceID *string, limit int, nextToken *string, requestingUserID string) ([]domain.CreditNote, *string, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, nil, err
	}

	if invoiceID != nil {
		// Scope check: the invoice must belong to this workspace.
		if _, err := s.invoiceRepo.FindInvoiceByID(ctx, workspaceID, *invoiceID); err != nil {
			return nil, nil, err
		}
		creditNotes, err := s.creditNoteRepo.ListCreditNotesByInvoiceID(ctx, *invoiceID)
		if err != nil {
			s.LogError(ctx, err, "Failed to list credit notes by invoice", slog.String("invoice_id", *invoiceID))
			return nil, nil, err
		}
		return creditNotes, nil, nil
	}

	creditNotes, token, err := s.creditNoteRepo.ListCreditNotes(ctx, workspaceID, nil, limit, nextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list credit notes", slog.String("workspace_id", workspaceID))
		return nil, nil, err
	}
	return creditNotes, token, nil
}

// CreateCreditNote creates a draft credit note with an allocated number
func (s *creditNoteService) CreateCreditNote(ctx context.Context, workspaceID string, req dto.CreateCreditNoteRequest, creatorUserID string) (*domain.CreditNote, error) {
	if err := s.AuthorizeUser(ctx, creatorUserID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	if !req.Amount.IsPositive() {
		return nil, apperrors.NewValidationFailedError("credit note amount must be positive")
	}

	if _, err := s.contactRepo.FindContactByID(ctx, workspaceID, req.ContactID); err != nil {
		return nil, err
	}

	currencyCode := req.CurrencyCode
	if req.InvoiceID != nil {
		invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, workspaceID, *req.InvoiceID)
		if err != nil {
			return nil, err
		}
		if req.Amount.GreaterThan(invoice.Total) {
			return nil, apperrors.NewValidationFailedError("credit note amount exceeds the linked invoice total")
		}
		if currencyCode == "" {
			currencyCode = invoice.CurrencyCode
		} else if currencyCode != invoice.CurrencyCode {
			return nil, apperrors.NewValidationFailedError("credit note currency must match the linked invoice")
		}
	}

	now := time.Now()
	number, err := s.settingsSvc.NextDocumentNumber(ctx, workspaceID, domain.DocTypeCreditNote, now.Year())
	if err != nil {
		return nil, err
	}

	creditNote := domain.CreditNote{
		CreditNoteID: uuid.NewString(),
		WorkspaceID:  workspaceID,
		Number:       number,
		ContactID:    req.ContactID,
		InvoiceID:    req.InvoiceID,
		Status:       domain.CreditNoteDraft,
		CurrencyCode: currencyCode,
		Amount:       req.Amount,
		Reason:       req.Reason,
		Version:      1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.creditNoteRepo.SaveCreditNote(ctx, creditNote); err != nil {
		s.LogError(ctx, err, "Failed to save credit note", slog.String("workspace_id", workspaceID))
		return nil, err
	}

	s.LogInfo(ctx, "Credit note created",
		slog.String("credit_note_id", creditNote.CreditNoteID),
		slog.String("number", creditNote.Number))
	return &creditNote, nil
}

// DeleteCreditNote hard-deletes a draft credit note
func (s *creditNoteService) DeleteCreditNote(ctx context.Context, workspaceID, creditNoteID, userID string) error {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return err
	}

	creditNote, err := s.creditNoteRepo.FindCreditNoteByID(ctx, workspaceID, creditNoteID)
	if err != nil {
		return err
	}
	if creditNote.Status != domain.CreditNoteDraft {
		return apperrors.NewValidationFailedError("only draft credit notes can be deleted")
	}

	if err := s.creditNoteRepo.DeleteCreditNoteDraft(ctx, workspaceID, creditNoteID); err != nil {
		s.LogError(ctx, err, "Failed to delete credit note draft", slog.String("credit_note_id", creditNoteID))
		return err
	}

	s.LogInfo(ctx, "Credit note deleted", slog.String("credit_note_id", creditNoteID))
	return nil
}

// IssueCreditNote transitions draft→issued, stamps issuedAt and emits
// credit_note.issued
func (s *creditNoteService) IssueCreditNote(ctx context.Context, workspaceID, creditNoteID, userID string) (*domain.CreditNote, error) {
	creditNote, err := s.transition(ctx, workspaceID, creditNoteID, userID, domain.CreditNoteIssued)
	if err != nil {
		return nil, err
	}

	event, err := newOutboxEvent(workspaceID, domain.EventCreditNoteIssued, map[string]any{
		"creditNoteID": creditNote.CreditNoteID,
		"number":       creditNote.Number,
		"contactID":    creditNote.ContactID,
		"invoiceID":    creditNote.InvoiceID,
		"amount":       creditNote.Amount,
	}, time.Now())
	if err != nil {
		s.LogError(ctx, err, "Failed to build outbox event", slog.String("credit_note_id", creditNoteID))
		return creditNote, nil
	}
	if err := s.outboxRepo.Enqueue(ctx, event); err != nil {
		s.LogError(ctx, err, "Failed to enqueue outbox event", slog.String("credit_note_id", creditNoteID))
	}

	return creditNote, nil
}

// ApplyCreditNote transitions issued→applied. A linked invoice must still be
// payable for the credit to settle against it.
func (s *creditNoteService) ApplyCreditNote(ctx context.Context, workspaceID, creditNoteID, userID string) (*domain.CreditNote, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	creditNote, err := s.creditNoteRepo.FindCreditNoteByID(ctx, workspaceID, creditNoteID)
	if err != nil {
		return nil, err
	}
	if err := creditNote.CanTransitionTo(domain.CreditNoteApplied); err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}
	if creditNote.InvoiceID == nil {
		return nil, apperrors.NewValidationFailedError("a standalone credit note cannot be applied; refund it instead")
	}

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, workspaceID, *creditNote.InvoiceID)
	if err != nil {
		return nil, err
	}
	switch invoice.Status {
	case domain.InvoiceSent, domain.InvoiceViewed:
	default:
		return nil, apperrors.NewValidationFailedError("credit can only be applied to a sent or viewed invoice")
	}

	return s.applyTransition(ctx, creditNote, userID, domain.CreditNoteApplied)
}

// RefundCreditNote transitions issued→refunded
func (s *creditNoteService) RefundCreditNote(ctx context.Context, workspaceID, creditNoteID, userID string) (*domain.CreditNote, error) {
	return s.transition(ctx, workspaceID, creditNoteID, userID, domain.CreditNoteRefunded)
}

// CancelCreditNote transitions issued→cancelled
func (s *creditNoteService) CancelCreditNote(ctx context.Context, workspaceID, creditNoteID, userID string) (*domain.CreditNote, error) {
	return s.transition(ctx, workspaceID, creditNoteID, userID, domain.CreditNoteCancelled)
}

// transition applies a validated status change with optimistic locking.
func (s *creditNoteService) transition(ctx context.Context, workspaceID, creditNoteID, userID string, next domain.CreditNoteStatus) (*domain.CreditNote, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	creditNote, err := s.creditNoteRepo.FindCreditNoteByID(ctx, workspaceID, creditNoteID)
	if err != nil {
		return nil, err
	}
	if err := creditNote.CanTransitionTo(next); err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}

	return s.applyTransition(ctx, creditNote, userID, next)
}

func (s *creditNoteService) applyTransition(ctx context.Context, creditNote *domain.CreditNote, userID string, next domain.CreditNoteStatus) (*domain.CreditNote, error) {
	now := time.Now()
	creditNote.Status = next
	if next == domain.CreditNoteIssued {
		creditNote.IssuedAt = &now
	}

	if err := s.creditNoteRepo.UpdateCreditNoteStatus(ctx, *creditNote, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to update credit note status",
			slog.String("credit_note_id", creditNote.CreditNoteID),
			slog.String("status", string(next)))
		return nil, err
	}
	creditNote.Version++

	s.LogInfo(ctx, "Credit note status updated",
		slog.String("credit_note_id", creditNote.CreditNoteID),
		slog.String("status", string(next)))
	return creditNote, nil
}
