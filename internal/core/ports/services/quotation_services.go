package services

import (
	"context"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/nextfact/crm_billing_app/internal/dto"
)

// QuotationReaderSvc defines read operations for quotations
type QuotationReaderSvc interface {
	GetQuotation(ctx context.Context, workspaceID, quotationID, requestingUserID string) (*domain.Quotation, []domain.LineItem, error)
	ListQuotations(ctx context.Context, workspaceID string, status *domain.QuotationStatus, limit int, nextToken *string, requestingUserID string) ([]domain.Quotation, *string, error)
}

// QuotationWriterSvc defines write operations for quotations
type QuotationWriterSvc interface {
	// CreateQuotation creates a draft quotation with an allocated number and
	// aggregated totals.
	CreateQuotation(ctx context.Context, workspaceID string, req dto.CreateQuotationRequest, creatorUserID string) (*domain.Quotation, error)

	// UpdateQuotationItems replaces the line items of a draft quotation and
	// recomputes totals.
	UpdateQuotationItems(ctx context.Context, workspaceID, quotationID string, req dto.UpdateQuotationItemsRequest, userID string) (*domain.Quotation, error)

	// DeleteQuotation hard-deletes a draft quotation.
	DeleteQuotation(ctx context.Context, workspaceID, quotationID, userID string) error
}

// QuotationLifecycleSvc drives status transitions and conversion
type QuotationLifecycleSvc interface {
	// SendQuotation transitions draft→sent and emits quotation.sent with the
	// workspace's resolved branding.
	SendQuotation(ctx context.Context, workspaceID, quotationID, userID string) (*domain.Quotation, error)

	// MarkQuotationAccepted transitions sent→accepted and emits quotation.accepted.
	MarkQuotationAccepted(ctx context.Context, workspaceID, quotationID, userID string) (*domain.Quotation, error)

	// MarkQuotationRejected transitions sent→rejected.
	MarkQuotationRejected(ctx context.Context, workspaceID, quotationID, userID string) (*domain.Quotation, error)

	// ConvertToInvoice turns an accepted, unconverted quotation into a draft
	// invoice atomically. A second conversion attempt fails with ErrDuplicate.
	ConvertToInvoice(ctx context.Context, workspaceID, quotationID, userID string) (*domain.Invoice, error)
}

// QuotationSvcFacade combines all quotation-related service interfaces
type QuotationSvcFacade interface {
	QuotationReaderSvc
	QuotationWriterSvc
	QuotationLifecycleSvc
}
