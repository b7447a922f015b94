package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
	"github.com/nextfact/crm_billing_app/internal/utils/pagination"
)

type PgxQuotationRepository struct {
	BaseRepository
}

func newPgxQuotationRepository(pool *pgxpool.Pool) portsrepo.QuotationRepositoryWithTx {
	return &PgxQuotationRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxQuotationRepository implements portsrepo.QuotationRepositoryWithTx
var _ portsrepo.QuotationRepositoryWithTx = (*PgxQuotationRepository)(nil)

var FULL_QUOTATION_SELECT_QUERY = `
SELECT
	q.quotation_id, q.workspace_id, q.number, q.contact_id, q.opportunity_id, q.status,
	q.currency_code, q.subtotal, q.discount_total, q.tax_total, q.total,
	q.discount_type, q.discount_value, q.valid_until, q.notes,
	q.converted_to_invoice_id, q.sent_at, q.version,
	q.created_at, q.created_by, q.last_updated_at, q.last_updated_by
FROM quotations q
`

func (r *PgxQuotationRepository) getQuotations(ctx context.Context, filterQuery string, args ...any) ([]domain.Quotation, error) {
	rows, err := r.Pool.Query(ctx, FULL_QUOTATION_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query quotations", err)
	}
	defer rows.Close()
	quotations, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Quotation])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Quotation{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect quotation rows", err)
	}
	return quotations, nil
}

func (r *PgxQuotationRepository) FindQuotationByID(ctx context.Context, workspaceID, quotationID string) (*domain.Quotation, error) {
	quotations, err := r.getQuotations(ctx, `WHERE q.workspace_id = $1 AND q.quotation_id = $2`, workspaceID, quotationID)
	if err != nil {
		return nil, err
	}
	if len(quotations) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &quotations[0], nil
}

func (r *PgxQuotationRepository) FindLineItemsByQuotationID(ctx context.Context, quotationID string) ([]domain.LineItem, error) {
	return selectLineItems(ctx, r.Pool, `WHERE li.quotation_id = $1 ORDER BY li.position`, quotationID)
}

func (r *PgxQuotationRepository) ListQuotations(ctx context.Context, workspaceID string, status *domain.QuotationStatus, limit int, nextToken *string) ([]domain.Quotation, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	filter := `WHERE q.workspace_id = $1`
	args := []any{workspaceID}
	if status != nil {
		args = append(args, *status)
		filter += ` AND q.status = $` + strconv.Itoa(len(args))
	}
	if nextToken != nil {
		createdAt, id, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationFailedError("invalid pagination token")
		}
		args = append(args, createdAt, id)
		filter += ` AND (q.created_at, q.quotation_id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}
	filter += ` ORDER BY q.created_at DESC, q.quotation_id DESC LIMIT ` + strconv.Itoa(limit+1)

	quotations, err := r.getQuotations(ctx, filter, args...)
	if err != nil {
		return nil, nil, err
	}

	var token *string
	if len(quotations) > limit {
		quotations = quotations[:limit]
		last := quotations[len(quotations)-1]
		t := pagination.EncodeCursor(last.CreatedAt, last.QuotationID)
		token = &t
	}
	return quotations, token, nil
}

func (r *PgxQuotationRepository) SaveQuotation(ctx context.Context, quotation domain.Quotation, items []domain.LineItem) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.insertQuotationTx(ctx, tx, quotation); err != nil {
		return err
	}
	if err := insertLineItemsTx(ctx, tx, items); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func (r *PgxQuotationRepository) insertQuotationTx(ctx context.Context, tx pgx.Tx, quotation domain.Quotation) error {
	query := `
		INSERT INTO quotations (
			quotation_id, workspace_id, number, contact_id, opportunity_id, status,
			currency_code, subtotal, discount_total, tax_total, total,
			discount_type, discount_value, valid_until, notes, sent_at, version,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21);
	`
	_, err := tx.Exec(ctx, query,
		quotation.QuotationID,
		quotation.WorkspaceID,
		quotation.Number,
		quotation.ContactID,
		quotation.OpportunityID,
		quotation.Status,
		quotation.CurrencyCode,
		quotation.Subtotal,
		quotation.DiscountTotal,
		quotation.TaxTotal,
		quotation.Total,
		quotation.DiscountType,
		quotation.DiscountValue,
		quotation.ValidUntil,
		quotation.Notes,
		quotation.SentAt,
		quotation.Version,
		quotation.CreatedAt,
		quotation.CreatedBy,
		quotation.LastUpdatedAt,
		quotation.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return apperrors.NewConflictError("quotation number " + quotation.Number + " already exists")
			}
			if pgErr.Code == "23503" { // foreign_key_violation
				return apperrors.NewValidationFailedError("contact or opportunity does not exist")
			}
		}
		return apperrors.NewAppError(500, "failed to save quotation "+quotation.QuotationID, err)
	}
	return nil
}

func (r *PgxQuotationRepository) ReplaceLineItems(ctx context.Context, quotation domain.Quotation, items []domain.LineItem) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM line_items WHERE quotation_id = $1`, quotation.QuotationID); err != nil {
		return apperrors.NewAppError(500, "failed to clear quotation line items", err)
	}
	if err := insertLineItemsTx(ctx, tx, items); err != nil {
		return err
	}

	query := `
		UPDATE quotations
		SET subtotal = $1, discount_total = $2, tax_total = $3, total = $4,
			discount_type = $5, discount_value = $6,
			last_updated_at = $7, last_updated_by = $8, version = version + 1
		WHERE quotation_id = $9 AND workspace_id = $10 AND status = 'DRAFT';
	`
	tag, err := tx.Exec(ctx, query,
		quotation.Subtotal,
		quotation.DiscountTotal,
		quotation.TaxTotal,
		quotation.Total,
		quotation.DiscountType,
		quotation.DiscountValue,
		quotation.LastUpdatedAt,
		quotation.LastUpdatedBy,
		quotation.QuotationID,
		quotation.WorkspaceID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update quotation totals", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("quotation " + quotation.QuotationID + " is not an editable draft")
	}
	return r.Commit(ctx, tx)
}

func (r *PgxQuotationRepository) UpdateQuotationStatus(ctx context.Context, quotation domain.Quotation, updatedByUserID string, now time.Time) error {
	query := `
		UPDATE quotations
		SET status = $1, sent_at = $2, last_updated_at = $3, last_updated_by = $4, version = version + 1
		WHERE quotation_id = $5 AND workspace_id = $6 AND version = $7;
	`
	tag, err := r.Pool.Exec(ctx, query,
		quotation.Status,
		quotation.SentAt,
		now,
		updatedByUserID,
		quotation.QuotationID,
		quotation.WorkspaceID,
		quotation.Version,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update quotation status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("quotation " + quotation.QuotationID + " was modified concurrently")
	}
	return nil
}

func (r *PgxQuotationRepository) DeleteQuotationDraft(ctx context.Context, workspaceID, quotationID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM line_items WHERE quotation_id = $1`, quotationID); err != nil {
		return apperrors.NewAppError(500, "failed to delete quotation line items", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM quotations WHERE workspace_id = $1 AND quotation_id = $2 AND status = 'DRAFT'`, workspaceID, quotationID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete quotation "+quotationID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("quotation " + quotationID + " is not a deletable draft")
	}
	return r.Commit(ctx, tx)
}

// ConvertToInvoice creates the invoice and stamps the quotation's conversion
// marker in one transaction. The stamp is guarded by converted_to_invoice_id
// IS NULL, so a concurrent second conversion rolls back its invoice insert.
func (r *PgxQuotationRepository) ConvertToInvoice(ctx context.Context, quotation domain.Quotation, invoice domain.Invoice, items []domain.LineItem) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := insertInvoiceTx(ctx, tx, invoice); err != nil {
		return err
	}
	if err := insertLineItemsTx(ctx, tx, items); err != nil {
		return err
	}

	query := `
		UPDATE quotations
		SET converted_to_invoice_id = $1, last_updated_at = $2, last_updated_by = $3, version = version + 1
		WHERE quotation_id = $4 AND workspace_id = $5
			AND status = 'ACCEPTED' AND converted_to_invoice_id IS NULL;
	`
	tag, err := tx.Exec(ctx, query,
		invoice.InvoiceID,
		invoice.CreatedAt,
		invoice.CreatedBy,
		quotation.QuotationID,
		quotation.WorkspaceID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to stamp quotation conversion", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("quotation " + quotation.QuotationID + " has already been converted")
	}
	return r.Commit(ctx, tx)
}

func (r *PgxQuotationRepository) ExpireSentQuotations(ctx context.Context, now time.Time) ([]domain.Quotation, error) {
	query := `
		UPDATE quotations q
		SET status = 'EXPIRED', last_updated_at = $1, last_updated_by = 'system', version = version + 1
		WHERE q.status = 'SENT' AND q.valid_until IS NOT NULL AND q.valid_until < $1
		RETURNING
			q.quotation_id, q.workspace_id, q.number, q.contact_id, q.opportunity_id, q.status,
			q.currency_code, q.subtotal, q.discount_total, q.tax_total, q.total,
			q.discount_type, q.discount_value, q.valid_until, q.notes,
			q.converted_to_invoice_id, q.sent_at, q.version,
			q.created_at, q.created_by, q.last_updated_at, q.last_updated_by;
	`
	rows, err := r.Pool.Query(ctx, query, now)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to expire quotations", err)
	}
	defer rows.Close()
	expired, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Quotation])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect expired quotation rows", err)
	}
	return expired, nil
}
