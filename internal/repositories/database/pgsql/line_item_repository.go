package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// Line items are shared between quotations and invoices: one table, exactly
// one of quotation_id/invoice_id set per row. These helpers keep the two
// document repositories on identical SQL.

var FULL_LINE_ITEM_SELECT_QUERY = `
SELECT
	li.line_item_id, li.quotation_id, li.invoice_id, li.product_id, li.description,
	li.quantity, li.unit_price, li.tax_rate, li.discount_percent, li.position,
	li.subtotal, li.tax_amount, li.total,
	li.created_at, li.created_by, li.last_updated_at, li.last_updated_by
FROM line_items li
`

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func selectLineItems(ctx context.Context, q rowQuerier, filterQuery string, args ...any) ([]domain.LineItem, error) {
	rows, err := q.Query(ctx, FULL_LINE_ITEM_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query line items", err)
	}
	defer rows.Close()
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.LineItem])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.LineItem{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect line item rows", err)
	}
	return items, nil
}

// insertLineItemsTx bulk-inserts line items inside tx.
func insertLineItemsTx(ctx context.Context, tx pgx.Tx, items []domain.LineItem) error {
	query := `
		INSERT INTO line_items (
			line_item_id, quotation_id, invoice_id, product_id, description, quantity,
			unit_price, tax_rate, discount_percent, position, subtotal, tax_amount, total,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.LineItemID,
			item.QuotationID,
			item.InvoiceID,
			item.ProductID,
			item.Description,
			item.Quantity,
			item.UnitPrice,
			item.TaxRate,
			item.DiscountPercent,
			item.Position,
			item.Subtotal,
			item.TaxAmount,
			item.Total,
			item.CreatedAt,
			item.CreatedBy,
			item.LastUpdatedAt,
			item.LastUpdatedBy,
		)
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for range items {
		if _, err := results.Exec(); err != nil {
			return apperrors.NewAppError(500, "failed to insert line items", err)
		}
	}
	return nil
}
