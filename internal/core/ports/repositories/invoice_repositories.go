package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// InvoiceListFilter narrows ListInvoices. OverdueOnly applies the due-date
// predicate in SQL (stored status is never trusted for overdue).
type InvoiceListFilter struct {
	Status      *domain.InvoiceStatus
	ContactID   *string
	OverdueOnly bool
}

// InvoiceReader defines read operations for invoice data
type InvoiceReader interface {
	FindInvoiceByID(ctx context.Context, workspaceID, invoiceID string) (*domain.Invoice, error)

	// FindLineItemsByInvoiceID retrieves the ordered line items of an invoice.
	FindLineItemsByInvoiceID(ctx context.Context, invoiceID string) ([]domain.LineItem, error)

	// ListInvoices retrieves a paginated, filtered list for a workspace.
	ListInvoices(ctx context.Context, workspaceID string, filter InvoiceListFilter, limit int, nextToken *string) ([]domain.Invoice, *string, error)

	// ListPaymentsByInvoiceID retrieves all payments recorded for an invoice.
	ListPaymentsByInvoiceID(ctx context.Context, invoiceID string) ([]domain.Payment, error)

	// ListOverdueInvoices returns sent/viewed invoices past their due date,
	// for the follow-up reminder job.
	ListOverdueInvoices(ctx context.Context, now time.Time, limit int) ([]domain.Invoice, error)
}

// InvoiceWriter defines write operations for invoice data
type InvoiceWriter interface {
	// SaveInvoice persists a new invoice header and its line items in one
	// database transaction.
	SaveInvoice(ctx context.Context, invoice domain.Invoice, items []domain.LineItem) error

	// SaveInvoiceInTx persists an invoice within a caller-managed transaction;
	// used by the recurring generator so template bookkeeping and the stamped
	// invoice commit together.
	SaveInvoiceInTx(ctx context.Context, tx pgx.Tx, invoice domain.Invoice, items []domain.LineItem) error

	// ReplaceLineItems swaps the full line item set and updates header totals
	// atomically.
	ReplaceLineItems(ctx context.Context, invoice domain.Invoice, items []domain.LineItem) error

	// UpdateInvoiceStatus persists a status change with optimistic locking.
	UpdateInvoiceStatus(ctx context.Context, invoice domain.Invoice, updatedByUserID string, now time.Time) error

	// AddPaymentAndRecalc inserts a payment and recomputes the invoice's
	// amount_paid from the payment sum inside one transaction. When the sum
	// reaches the total and the stored status allows it, the invoice is marked
	// PAID in the same transaction. Returns the refreshed invoice.
	AddPaymentAndRecalc(ctx context.Context, payment domain.Payment) (*domain.Invoice, error)

	// DeletePaymentAndRecalc removes a payment and recomputes amount_paid.
	DeletePaymentAndRecalc(ctx context.Context, workspaceID, invoiceID, paymentID, updatedByUserID string) (*domain.Invoice, error)

	// DeleteInvoiceDraft hard-deletes an invoice and its line items; guarded
	// by status = DRAFT.
	DeleteInvoiceDraft(ctx context.Context, workspaceID, invoiceID string) error
}

// InvoiceRepositoryFacade combines all invoice-related repository interfaces
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
}

// InvoiceRepositoryWithTx extends InvoiceRepositoryFacade with transaction capabilities
type InvoiceRepositoryWithTx interface {
	InvoiceRepositoryFacade
	TransactionManager
}
