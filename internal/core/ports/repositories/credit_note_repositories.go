package repositories

import (
	"context"
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// CreditNoteReader defines read operations for credit note data
type CreditNoteReader interface {
	FindCreditNoteByID(ctx context.Context, workspaceID, creditNoteID string) (*domain.CreditNote, error)
	ListCreditNotes(ctx context.Context, workspaceID string, status *domain.CreditNoteStatus, limit int, nextToken *string) ([]domain.CreditNote, *string, error)
	ListCreditNotesByInvoiceID(ctx context.Context, invoiceID string) ([]domain.CreditNote, error)
}

// CreditNoteWriter defines write operations for credit note data
type CreditNoteWriter interface {
	SaveCreditNote(ctx context.Context, creditNote domain.CreditNote) error
	UpdateCreditNote(ctx context.Context, creditNote domain.CreditNote) error

	// UpdateCreditNoteStatus persists a status change with optimistic locking.
	UpdateCreditNoteStatus(ctx context.Context, creditNote domain.CreditNote, updatedByUserID string, now time.Time) error

	// DeleteCreditNoteDraft hard-deletes a credit note; guarded by status = DRAFT.
	DeleteCreditNoteDraft(ctx context.Context, workspaceID, creditNoteID string) error
}

// CreditNoteRepositoryFacade combines all credit-note repository interfaces
type CreditNoteRepositoryFacade interface {
	CreditNoteReader
	CreditNoteWriter
}
