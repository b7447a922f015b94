package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// RecurringReader defines read operations for recurring template data
type RecurringReader interface {
	FindTemplateByID(ctx context.Context, workspaceID, templateID string) (*domain.RecurringTemplate, error)
	FindTemplateLineItems(ctx context.Context, templateID string) ([]domain.TemplateLineItem, error)
	ListTemplates(ctx context.Context, workspaceID string, includeInactive bool) ([]domain.RecurringTemplate, error)
}

// RecurringWriter defines write operations for recurring template data
type RecurringWriter interface {
	// SaveTemplate persists a template and its snapshot line items in one
	// database transaction.
	SaveTemplate(ctx context.Context, template domain.RecurringTemplate, items []domain.TemplateLineItem) error

	// ReplaceTemplateLineItems swaps the snapshot line items of a template.
	ReplaceTemplateLineItems(ctx context.Context, template domain.RecurringTemplate, items []domain.TemplateLineItem) error

	UpdateTemplate(ctx context.Context, template domain.RecurringTemplate) error
	SetTemplateActive(ctx context.Context, workspaceID, templateID string, active bool, updatedByUserID string, now time.Time) error

	// ClaimDueTemplates selects active templates with next_run_date <= now and
	// row-locks them with FOR UPDATE SKIP LOCKED inside the caller's
	// transaction, so overlapping generator runs cannot double-stamp.
	ClaimDueTemplates(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]domain.RecurringTemplate, error)

	// MarkTemplateRun advances next_run_date and the generation counter inside
	// the caller's transaction.
	MarkTemplateRun(ctx context.Context, tx pgx.Tx, templateID string, nextRunDate time.Time, now time.Time) error
}

// RecurringRepositoryFacade combines all recurring-template repository interfaces
type RecurringRepositoryFacade interface {
	RecurringReader
	RecurringWriter
}

// RecurringRepositoryWithTx extends RecurringRepositoryFacade with transaction capabilities
type RecurringRepositoryWithTx interface {
	RecurringRepositoryFacade
	TransactionManager
}
