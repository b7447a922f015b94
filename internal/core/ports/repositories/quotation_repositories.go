package repositories

import (
	"context"
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// QuotationReader defines read operations for quotation data
type QuotationReader interface {
	FindQuotationByID(ctx context.Context, workspaceID, quotationID string) (*domain.Quotation, error)

	// FindLineItemsByQuotationID retrieves the ordered line items of a quotation.
	FindLineItemsByQuotationID(ctx context.Context, quotationID string) ([]domain.LineItem, error)

	// ListQuotations retrieves a paginated list for a workspace, optionally
	// filtered by status, using token-based pagination.
	ListQuotations(ctx context.Context, workspaceID string, status *domain.QuotationStatus, limit int, nextToken *string) ([]domain.Quotation, *string, error)
}

// QuotationWriter defines write operations for quotation data
type QuotationWriter interface {
	// SaveQuotation persists a new quotation header and its line items in one
	// database transaction.
	SaveQuotation(ctx context.Context, quotation domain.Quotation, items []domain.LineItem) error

	// ReplaceLineItems swaps the full line item set of a quotation and updates
	// the header totals atomically.
	ReplaceLineItems(ctx context.Context, quotation domain.Quotation, items []domain.LineItem) error

	// UpdateQuotationStatus persists a status change with optimistic locking
	// on the header version.
	UpdateQuotationStatus(ctx context.Context, quotation domain.Quotation, updatedByUserID string, now time.Time) error

	// DeleteQuotationDraft hard-deletes a quotation and its line items; the
	// statement is guarded by status = DRAFT.
	DeleteQuotationDraft(ctx context.Context, workspaceID, quotationID string) error

	// ConvertToInvoice atomically creates the invoice (header + copied line
	// items) and stamps quotation.converted_to_invoice_id, guarded by
	// converted_to_invoice_id IS NULL so a second conversion fails.
	ConvertToInvoice(ctx context.Context, quotation domain.Quotation, invoice domain.Invoice, items []domain.LineItem) error

	// ExpireSentQuotations transitions sent quotations whose validity window
	// has passed to EXPIRED, returning the affected rows.
	ExpireSentQuotations(ctx context.Context, now time.Time) ([]domain.Quotation, error)
}

// QuotationRepositoryFacade combines all quotation-related repository interfaces
type QuotationRepositoryFacade interface {
	QuotationReader
	QuotationWriter
}

// QuotationRepositoryWithTx extends QuotationRepositoryFacade with transaction capabilities
type QuotationRepositoryWithTx interface {
	QuotationRepositoryFacade
	TransactionManager
}
