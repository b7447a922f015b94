package services

import (
	"context"

	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/nextfact/crm_billing_app/internal/dto"
)

// InvoiceReaderSvc defines read operations for invoices
type InvoiceReaderSvc interface {
	GetInvoice(ctx context.Context, workspaceID, invoiceID, requestingUserID string) (*domain.Invoice, []domain.LineItem, error)
	ListInvoices(ctx context.Context, workspaceID string, filter portsrepo.InvoiceListFilter, limit int, nextToken *string, requestingUserID string) ([]domain.Invoice, *string, error)
	ListPayments(ctx context.Context, workspaceID, invoiceID, requestingUserID string) ([]domain.Payment, error)
}

// InvoiceWriterSvc defines write operations for invoices
type InvoiceWriterSvc interface {
	// CreateInvoice creates a draft invoice with an allocated number and
	// aggregated totals.
	CreateInvoice(ctx context.Context, workspaceID string, req dto.CreateInvoiceRequest, creatorUserID string) (*domain.Invoice, error)

	// UpdateInvoiceItems replaces the line items of a draft invoice.
	UpdateInvoiceItems(ctx context.Context, workspaceID, invoiceID string, req dto.UpdateInvoiceItemsRequest, userID string) (*domain.Invoice, error)

	// DeleteInvoice hard-deletes a draft invoice.
	DeleteInvoice(ctx context.Context, workspaceID, invoiceID, userID string) error
}

// InvoiceLifecycleSvc drives status transitions and payments
type InvoiceLifecycleSvc interface {
	// SendInvoice transitions draft→sent, stamps the due date from payment
	// terms when absent, and emits invoice.sent with resolved branding.
	SendInvoice(ctx context.Context, workspaceID, invoiceID, userID string) (*domain.Invoice, error)

	// MarkInvoiceViewed transitions sent→viewed (recipient opened the document).
	MarkInvoiceViewed(ctx context.Context, workspaceID, invoiceID, userID string) (*domain.Invoice, error)

	// CancelInvoice transitions sent/viewed→cancelled.
	CancelInvoice(ctx context.Context, workspaceID, invoiceID, userID string) (*domain.Invoice, error)

	// RecordPayment inserts a payment, recomputes amount_paid in the same
	// transaction and marks the invoice paid when fully covered, emitting
	// invoice.paid.
	RecordPayment(ctx context.Context, workspaceID, invoiceID string, req dto.RecordPaymentRequest, userID string) (*domain.Invoice, error)

	// RemovePayment deletes a payment and recomputes amount_paid.
	RemovePayment(ctx context.Context, workspaceID, invoiceID, paymentID, userID string) (*domain.Invoice, error)
}

// InvoiceSvcFacade combines all invoice-related service interfaces
type InvoiceSvcFacade interface {
	InvoiceReaderSvc
	InvoiceWriterSvc
	InvoiceLifecycleSvc
}
