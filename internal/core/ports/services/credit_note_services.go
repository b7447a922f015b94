package services

import (
	"context"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/nextfact/crm_billing_app/internal/dto"
)

// CreditNoteReaderSvc defines read operations for credit notes
type CreditNoteReaderSvc interface {
	GetCreditNote(ctx context.Context, workspaceID, creditNoteID, requestingUserID string) (*domain.CreditNote, error)
	ListCreditNotes(ctx context.Context, workspaceID string, invoiceID *string, limit int, nextToken *string, requestingUserID string) ([]domain.CreditNote, *string, error)
}

// CreditNoteWriterSvc defines write operations for credit notes
type CreditNoteWriterSvc interface {
	// CreateCreditNote creates a draft credit note with an allocated number.
	// When linked to an invoice the amount may not exceed that invoice's total.
	CreateCreditNote(ctx context.Context, workspaceID string, req dto.CreateCreditNoteRequest, creatorUserID string) (*domain.CreditNote, error)

	// DeleteCreditNote hard-deletes a draft credit note.
	DeleteCreditNote(ctx context.Context, workspaceID, creditNoteID, userID string) error
}

// CreditNoteLifecycleSvc drives credit note status transitions
type CreditNoteLifecycleSvc interface {
	// IssueCreditNote transitions draft→issued, stamps issuedAt and emits
	// credit_note.issued.
	IssueCreditNote(ctx context.Context, workspaceID, creditNoteID, userID string) (*domain.CreditNote, error)

	// ApplyCreditNote transitions issued→applied, reducing the linked
	// invoice's amount due.
	ApplyCreditNote(ctx context.Context, workspaceID, creditNoteID, userID string) (*domain.CreditNote, error)

	// RefundCreditNote transitions issued→refunded.
	RefundCreditNote(ctx context.Context, workspaceID, creditNoteID, userID string) (*domain.CreditNote, error)

	// CancelCreditNote transitions issued→cancelled.
	CancelCreditNote(ctx context.Context, workspaceID, creditNoteID, userID string) (*domain.CreditNote, error)
}

// CreditNoteSvcFacade combines all credit-note-related service interfaces
type CreditNoteSvcFacade interface {
	CreditNoteReaderSvc
	CreditNoteWriterSvc
	CreditNoteLifecycleSvc
}
