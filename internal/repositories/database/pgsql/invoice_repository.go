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

type PgxInvoiceRepository struct {
	BaseRepository
}

func newPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceRepositoryWithTx {
	return &PgxInvoiceRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxInvoiceRepository implements portsrepo.InvoiceRepositoryWithTx
var _ portsrepo.InvoiceRepositoryWithTx = (*PgxInvoiceRepository)(nil)

const invoiceColumns = `
	i.invoice_id, i.workspace_id, i.number, i.contact_id, i.quotation_id, i.status,
	i.currency_code, i.subtotal, i.discount_total, i.tax_total, i.total,
	i.discount_type, i.discount_value, i.amount_paid, i.due_date, i.payment_terms,
	i.notes, i.sent_at, i.paid_at, i.version,
	i.created_at, i.created_by, i.last_updated_at, i.last_updated_by`

var FULL_INVOICE_SELECT_QUERY = `SELECT` + invoiceColumns + `
FROM invoices i
`

func collectInvoices(rows pgx.Rows) ([]domain.Invoice, error) {
	invoices, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Invoice])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Invoice{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect invoice rows", err)
	}
	return invoices, nil
}

func (r *PgxInvoiceRepository) getInvoices(ctx context.Context, filterQuery string, args ...any) ([]domain.Invoice, error) {
	rows, err := r.Pool.Query(ctx, FULL_INVOICE_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query invoices", err)
	}
	defer rows.Close()
	return collectInvoices(rows)
}

func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, workspaceID, invoiceID string) (*domain.Invoice, error) {
	invoices, err := r.getInvoices(ctx, `WHERE i.workspace_id = $1 AND i.invoice_id = $2`, workspaceID, invoiceID)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &invoices[0], nil
}

func (r *PgxInvoiceRepository) FindLineItemsByInvoiceID(ctx context.Context, invoiceID string) ([]domain.LineItem, error) {
	return selectLineItems(ctx, r.Pool, `WHERE li.invoice_id = $1 ORDER BY li.position`, invoiceID)
}

func (r *PgxInvoiceRepository) ListInvoices(ctx context.Context, workspaceID string, filter portsrepo.InvoiceListFilter, limit int, nextToken *string) ([]domain.Invoice, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	where := `WHERE i.workspace_id = $1`
	args := []any{workspaceID}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += ` AND i.status = $` + strconv.Itoa(len(args))
	}
	if filter.ContactID != nil {
		args = append(args, *filter.ContactID)
		where += ` AND i.contact_id = $` + strconv.Itoa(len(args))
	}
	if filter.OverdueOnly {
		// Overdue is derived from the due date, never read from the status column.
		where += ` AND i.status IN ('SENT', 'VIEWED') AND i.due_date IS NOT NULL AND i.due_date < NOW()`
	}
	if nextToken != nil {
		createdAt, id, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationFailedError("invalid pagination token")
		}
		args = append(args, createdAt, id)
		where += ` AND (i.created_at, i.invoice_id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}
	where += ` ORDER BY i.created_at DESC, i.invoice_id DESC LIMIT ` + strconv.Itoa(limit+1)

	invoices, err := r.getInvoices(ctx, where, args...)
	if err != nil {
		return nil, nil, err
	}

	var token *string
	if len(invoices) > limit {
		invoices = invoices[:limit]
		last := invoices[len(invoices)-1]
		t := pagination.EncodeCursor(last.CreatedAt, last.InvoiceID)
		token = &t
	}
	return invoices, token, nil
}

func (r *PgxInvoiceRepository) ListPaymentsByInvoiceID(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	query := `
		SELECT
			p.payment_id, p.invoice_id, p.workspace_id, p.amount, p.payment_date,
			p.method, p.reference, p.notes,
			p.created_at, p.created_by, p.last_updated_at, p.last_updated_by
		FROM payments p
		WHERE p.invoice_id = $1
		ORDER BY p.payment_date, p.created_at;
	`
	rows, err := r.Pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query payments", err)
	}
	defer rows.Close()
	payments, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Payment])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect payment rows", err)
	}
	return payments, nil
}

// ListOverdueInvoices feeds the daily reminder job. The NOT EXISTS clause
// skips invoices that already got an invoice.overdue event today, making the
// reminder at-most-once per invoice per day.
func (r *PgxInvoiceRepository) ListOverdueInvoices(ctx context.Context, now time.Time, limit int) ([]domain.Invoice, error) {
	if limit <= 0 {
		limit = 100
	}
	query := FULL_INVOICE_SELECT_QUERY + `
		WHERE i.status IN ('SENT', 'VIEWED') AND i.due_date IS NOT NULL AND i.due_date < $1
			AND NOT EXISTS (
				SELECT 1 FROM outbox_events oe
				WHERE oe.event_type = 'invoice.overdue'
					AND oe.payload->>'invoiceID' = i.invoice_id
					AND oe.created_at >= date_trunc('day', $1::timestamptz)
			)
		ORDER BY i.due_date
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query overdue invoices", err)
	}
	defer rows.Close()
	return collectInvoices(rows)
}

// insertInvoiceTx is shared with the quotation conversion path.
func insertInvoiceTx(ctx context.Context, tx pgx.Tx, invoice domain.Invoice) error {
	query := `
		INSERT INTO invoices (
			invoice_id, workspace_id, number, contact_id, quotation_id, status,
			currency_code, subtotal, discount_total, tax_total, total,
			discount_type, discount_value, amount_paid, due_date, payment_terms,
			notes, sent_at, paid_at, version,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24);
	`
	_, err := tx.Exec(ctx, query,
		invoice.InvoiceID,
		invoice.WorkspaceID,
		invoice.Number,
		invoice.ContactID,
		invoice.QuotationID,
		invoice.Status,
		invoice.CurrencyCode,
		invoice.Subtotal,
		invoice.DiscountTotal,
		invoice.TaxTotal,
		invoice.Total,
		invoice.DiscountType,
		invoice.DiscountValue,
		invoice.AmountPaid,
		invoice.DueDate,
		invoice.PaymentTerms,
		invoice.Notes,
		invoice.SentAt,
		invoice.PaidAt,
		invoice.Version,
		invoice.CreatedAt,
		invoice.CreatedBy,
		invoice.LastUpdatedAt,
		invoice.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return apperrors.NewConflictError("invoice number " + invoice.Number + " already exists")
			}
			if pgErr.Code == "23503" { // foreign_key_violation
				return apperrors.NewValidationFailedError("contact does not exist")
			}
		}
		return apperrors.NewAppError(500, "failed to save invoice "+invoice.InvoiceID, err)
	}
	return nil
}

func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice, items []domain.LineItem) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.SaveInvoiceInTx(ctx, tx, invoice, items); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func (r *PgxInvoiceRepository) SaveInvoiceInTx(ctx context.Context, tx pgx.Tx, invoice domain.Invoice, items []domain.LineItem) error {
	if err := insertInvoiceTx(ctx, tx, invoice); err != nil {
		return err
	}
	return insertLineItemsTx(ctx, tx, items)
}

func (r *PgxInvoiceRepository) ReplaceLineItems(ctx context.Context, invoice domain.Invoice, items []domain.LineItem) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM line_items WHERE invoice_id = $1`, invoice.InvoiceID); err != nil {
		return apperrors.NewAppError(500, "failed to clear invoice line items", err)
	}
	if err := insertLineItemsTx(ctx, tx, items); err != nil {
		return err
	}

	query := `
		UPDATE invoices
		SET subtotal = $1, discount_total = $2, tax_total = $3, total = $4,
			discount_type = $5, discount_value = $6,
			last_updated_at = $7, last_updated_by = $8, version = version + 1
		WHERE invoice_id = $9 AND workspace_id = $10 AND status = 'DRAFT';
	`
	tag, err := tx.Exec(ctx, query,
		invoice.Subtotal,
		invoice.DiscountTotal,
		invoice.TaxTotal,
		invoice.Total,
		invoice.DiscountType,
		invoice.DiscountValue,
		invoice.LastUpdatedAt,
		invoice.LastUpdatedBy,
		invoice.InvoiceID,
		invoice.WorkspaceID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update invoice totals", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("invoice " + invoice.InvoiceID + " is not an editable draft")
	}
	return r.Commit(ctx, tx)
}

func (r *PgxInvoiceRepository) UpdateInvoiceStatus(ctx context.Context, invoice domain.Invoice, updatedByUserID string, now time.Time) error {
	query := `
		UPDATE invoices
		SET status = $1, due_date = $2, sent_at = $3, paid_at = $4,
			last_updated_at = $5, last_updated_by = $6, version = version + 1
		WHERE invoice_id = $7 AND workspace_id = $8 AND version = $9;
	`
	tag, err := r.Pool.Exec(ctx, query,
		invoice.Status,
		invoice.DueDate,
		invoice.SentAt,
		invoice.PaidAt,
		now,
		updatedByUserID,
		invoice.InvoiceID,
		invoice.WorkspaceID,
		invoice.Version,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update invoice status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("invoice " + invoice.InvoiceID + " was modified concurrently")
	}
	return nil
}

// AddPaymentAndRecalc inserts the payment, recomputes amount_paid from the
// payment rows and flips the invoice to PAID when fully covered, all in one
// transaction. The invoice row is locked first so concurrent payments
// serialize on the recalculation.
func (r *PgxInvoiceRepository) AddPaymentAndRecalc(ctx context.Context, payment domain.Payment) (*domain.Invoice, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx,
		`SELECT 1 FROM invoices WHERE invoice_id = $1 AND workspace_id = $2 FOR UPDATE`,
		payment.InvoiceID, payment.WorkspaceID,
	); err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock invoice for payment", err)
	}

	insert := `
		INSERT INTO payments (
			payment_id, invoice_id, workspace_id, amount, payment_date, method,
			reference, notes, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	if _, err := tx.Exec(ctx, insert,
		payment.PaymentID,
		payment.InvoiceID,
		payment.WorkspaceID,
		payment.Amount,
		payment.PaymentDate,
		payment.Method,
		payment.Reference,
		payment.Notes,
		payment.CreatedAt,
		payment.CreatedBy,
		payment.LastUpdatedAt,
		payment.LastUpdatedBy,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to insert payment "+payment.PaymentID, err)
	}

	invoice, err := r.recalcAmountPaidTx(ctx, tx, payment.WorkspaceID, payment.InvoiceID, payment.CreatedBy)
	if err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *PgxInvoiceRepository) DeletePaymentAndRecalc(ctx context.Context, workspaceID, invoiceID, paymentID, updatedByUserID string) (*domain.Invoice, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx,
		`SELECT 1 FROM invoices WHERE invoice_id = $1 AND workspace_id = $2 FOR UPDATE`,
		invoiceID, workspaceID,
	); err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock invoice for payment removal", err)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM payments WHERE payment_id = $1 AND invoice_id = $2 AND workspace_id = $3`,
		paymentID, invoiceID, workspaceID,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to delete payment "+paymentID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperrors.ErrNotFound
	}

	invoice, err := r.recalcAmountPaidTx(ctx, tx, workspaceID, invoiceID, updatedByUserID)
	if err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return invoice, nil
}

// recalcAmountPaidTx recomputes amount_paid from the payment rows and derives
// the PAID flip (or its reversal after a payment removal) in one UPDATE.
func (r *PgxInvoiceRepository) recalcAmountPaidTx(ctx context.Context, tx pgx.Tx, workspaceID, invoiceID, updatedByUserID string) (*domain.Invoice, error) {
	query := `
		UPDATE invoices i
		SET amount_paid = paid.sum,
			status = CASE
				WHEN paid.sum >= i.total AND i.status IN ('SENT', 'VIEWED') THEN 'PAID'
				WHEN paid.sum < i.total AND i.status = 'PAID' THEN 'SENT'
				ELSE i.status
			END,
			paid_at = CASE
				WHEN paid.sum >= i.total AND i.status IN ('SENT', 'VIEWED') THEN NOW()
				WHEN paid.sum < i.total THEN NULL
				ELSE i.paid_at
			END,
			last_updated_at = NOW(), last_updated_by = $1, version = i.version + 1
		FROM (
			SELECT COALESCE(SUM(p.amount), 0) AS sum
			FROM payments p
			WHERE p.invoice_id = $2
		) paid
		WHERE i.invoice_id = $2 AND i.workspace_id = $3
		RETURNING` + invoiceColumns + `;
	`
	rows, err := tx.Query(ctx, query, updatedByUserID, invoiceID, workspaceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to recalculate invoice payments", err)
	}
	invoice, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[domain.Invoice])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to collect recalculated invoice", err)
	}
	return &invoice, nil
}

func (r *PgxInvoiceRepository) DeleteInvoiceDraft(ctx context.Context, workspaceID, invoiceID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM line_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return apperrors.NewAppError(500, "failed to delete invoice line items", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM invoices WHERE workspace_id = $1 AND invoice_id = $2 AND status = 'DRAFT'`, workspaceID, invoiceID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete invoice "+invoiceID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("invoice " + invoiceID + " is not a deletable draft")
	}
	return r.Commit(ctx, tx)
}
