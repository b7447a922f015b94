package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
)

type PgxRecurringRepository struct {
	BaseRepository
}

func newPgxRecurringRepository(pool *pgxpool.Pool) portsrepo.RecurringRepositoryWithTx {
	return &PgxRecurringRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxRecurringRepository implements portsrepo.RecurringRepositoryWithTx
var _ portsrepo.RecurringRepositoryWithTx = (*PgxRecurringRepository)(nil)

const recurringColumns = `
	rt.template_id, rt.workspace_id, rt.contact_id, rt.name, rt.currency_code,
	rt.frequency, rt.next_run_date, rt.last_run_date, rt.payment_terms_days,
	rt.auto_send, rt.is_active, rt.invoices_generated,
	rt.created_at, rt.created_by, rt.last_updated_at, rt.last_updated_by`

var FULL_RECURRING_SELECT_QUERY = `SELECT` + recurringColumns + `
FROM recurring_templates rt
`

func (r *PgxRecurringRepository) getTemplates(ctx context.Context, q rowQuerier, filterQuery string, args ...any) ([]domain.RecurringTemplate, error) {
	rows, err := q.Query(ctx, FULL_RECURRING_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query recurring templates", err)
	}
	defer rows.Close()
	templates, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.RecurringTemplate])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.RecurringTemplate{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect template rows", err)
	}
	return templates, nil
}

func (r *PgxRecurringRepository) FindTemplateByID(ctx context.Context, workspaceID, templateID string) (*domain.RecurringTemplate, error) {
	templates, err := r.getTemplates(ctx, r.Pool, `WHERE rt.workspace_id = $1 AND rt.template_id = $2`, workspaceID, templateID)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &templates[0], nil
}

func (r *PgxRecurringRepository) FindTemplateLineItems(ctx context.Context, templateID string) ([]domain.TemplateLineItem, error) {
	query := `
		SELECT
			tli.template_line_item_id, tli.template_id, tli.description, tli.quantity,
			tli.unit_price, tli.tax_rate, tli.discount_percent, tli.position
		FROM template_line_items tli
		WHERE tli.template_id = $1
		ORDER BY tli.position;
	`
	rows, err := r.Pool.Query(ctx, query, templateID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query template line items", err)
	}
	defer rows.Close()
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.TemplateLineItem])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect template line item rows", err)
	}
	return items, nil
}

func (r *PgxRecurringRepository) ListTemplates(ctx context.Context, workspaceID string, includeInactive bool) ([]domain.RecurringTemplate, error) {
	filter := `WHERE rt.workspace_id = $1`
	if !includeInactive {
		filter += ` AND rt.is_active = TRUE`
	}
	filter += ` ORDER BY rt.next_run_date`
	return r.getTemplates(ctx, r.Pool, filter, workspaceID)
}

func (r *PgxRecurringRepository) SaveTemplate(ctx context.Context, template domain.RecurringTemplate, items []domain.TemplateLineItem) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO recurring_templates (
			template_id, workspace_id, contact_id, name, currency_code, frequency,
			next_run_date, last_run_date, payment_terms_days, auto_send, is_active,
			invoices_generated, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	if _, err := tx.Exec(ctx, query,
		template.TemplateID,
		template.WorkspaceID,
		template.ContactID,
		template.Name,
		template.CurrencyCode,
		template.Frequency,
		template.NextRunDate,
		template.LastRunDate,
		template.PaymentTermsDays,
		template.AutoSend,
		template.IsActive,
		template.InvoicesGenerated,
		template.CreatedAt,
		template.CreatedBy,
		template.LastUpdatedAt,
		template.LastUpdatedBy,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return apperrors.NewValidationFailedError("contact does not exist")
		}
		return apperrors.NewAppError(500, "failed to save template "+template.TemplateID, err)
	}

	if err := r.insertTemplateItemsTx(ctx, tx, items); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func (r *PgxRecurringRepository) insertTemplateItemsTx(ctx context.Context, tx pgx.Tx, items []domain.TemplateLineItem) error {
	query := `
		INSERT INTO template_line_items (
			template_line_item_id, template_id, description, quantity, unit_price,
			tax_rate, discount_percent, position
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.TemplateLineItemID,
			item.TemplateID,
			item.Description,
			item.Quantity,
			item.UnitPrice,
			item.TaxRate,
			item.DiscountPercent,
			item.Position,
		)
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for range items {
		if _, err := results.Exec(); err != nil {
			return apperrors.NewAppError(500, "failed to insert template line items", err)
		}
	}
	return nil
}

func (r *PgxRecurringRepository) ReplaceTemplateLineItems(ctx context.Context, template domain.RecurringTemplate, items []domain.TemplateLineItem) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM template_line_items WHERE template_id = $1`, template.TemplateID); err != nil {
		return apperrors.NewAppError(500, "failed to clear template line items", err)
	}
	if err := r.insertTemplateItemsTx(ctx, tx, items); err != nil {
		return err
	}
	if err := r.updateTemplateTx(ctx, tx, template); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func (r *PgxRecurringRepository) UpdateTemplate(ctx context.Context, template domain.RecurringTemplate) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)
	if err := r.updateTemplateTx(ctx, tx, template); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func (r *PgxRecurringRepository) updateTemplateTx(ctx context.Context, tx pgx.Tx, template domain.RecurringTemplate) error {
	query := `
		UPDATE recurring_templates
		SET name = $1, currency_code = $2, frequency = $3, next_run_date = $4,
			payment_terms_days = $5, auto_send = $6,
			last_updated_at = $7, last_updated_by = $8
		WHERE workspace_id = $9 AND template_id = $10;
	`
	tag, err := tx.Exec(ctx, query,
		template.Name,
		template.CurrencyCode,
		template.Frequency,
		template.NextRunDate,
		template.PaymentTermsDays,
		template.AutoSend,
		template.LastUpdatedAt,
		template.LastUpdatedBy,
		template.WorkspaceID,
		template.TemplateID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update template "+template.TemplateID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxRecurringRepository) SetTemplateActive(ctx context.Context, workspaceID, templateID string, active bool, updatedByUserID string, now time.Time) error {
	query := `
		UPDATE recurring_templates
		SET is_active = $1, last_updated_at = $2, last_updated_by = $3
		WHERE workspace_id = $4 AND template_id = $5;
	`
	tag, err := r.Pool.Exec(ctx, query, active, now, updatedByUserID, workspaceID, templateID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to set template active flag", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ClaimDueTemplates row-locks due templates inside the caller's transaction.
// SKIP LOCKED keeps overlapping generator runs from double-stamping: a row
// claimed by one run is invisible to the other until commit, by which time
// its next_run_date has moved forward.
func (r *PgxRecurringRepository) ClaimDueTemplates(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]domain.RecurringTemplate, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.getTemplates(ctx, tx, `
		WHERE rt.is_active = TRUE AND rt.next_run_date <= $1
		ORDER BY rt.next_run_date
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, now, limit)
}

func (r *PgxRecurringRepository) MarkTemplateRun(ctx context.Context, tx pgx.Tx, templateID string, nextRunDate time.Time, now time.Time) error {
	query := `
		UPDATE recurring_templates
		SET next_run_date = $1, last_run_date = $2, invoices_generated = invoices_generated + 1,
			last_updated_at = $2, last_updated_by = 'system'
		WHERE template_id = $3;
	`
	tag, err := tx.Exec(ctx, query, nextRunDate, now, templateID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark template run", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
