package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
)

type PgxSettingsRepository struct {
	db *pgxpool.Pool
}

func newPgxSettingsRepository(db *pgxpool.Pool) portsrepo.SettingsRepositoryFacade {
	return &PgxSettingsRepository{db: db}
}

// Ensure PgxSettingsRepository implements portsrepo.SettingsRepositoryFacade
var _ portsrepo.SettingsRepositoryFacade = (*PgxSettingsRepository)(nil)

var FULL_SETTINGS_SELECT_QUERY = `
SELECT
	s.workspace_id, s.quotation_prefix, s.invoice_prefix, s.credit_note_prefix,
	s.next_quotation_number, s.next_invoice_number, s.next_credit_note_number,
	s.number_padding, s.currency_code, s.payment_terms_days,
	s.company_name, s.company_address, s.company_vat_number, s.company_iban,
	s.created_at, s.created_by, s.last_updated_at, s.last_updated_by
FROM invoice_settings s
`

func (r *PgxSettingsRepository) getSettings(ctx context.Context, q rowQuerier, workspaceID string) (*domain.InvoiceSettings, error) {
	rows, err := q.Query(ctx, FULL_SETTINGS_SELECT_QUERY+`WHERE s.workspace_id = $1`, workspaceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query invoice settings", err)
	}
	defer rows.Close()
	settings, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[domain.InvoiceSettings])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to collect settings row", err)
	}
	return &settings, nil
}

// ensureSettingsQuery lazily inserts the defaults row. ON CONFLICT DO NOTHING
// makes concurrent first-touch callers race harmlessly.
const ensureSettingsQuery = `
	INSERT INTO invoice_settings (
		workspace_id, quotation_prefix, invoice_prefix, credit_note_prefix,
		next_quotation_number, next_invoice_number, next_credit_note_number,
		number_padding, currency_code, payment_terms_days,
		company_name, company_address, company_vat_number, company_iban,
		created_at, created_by, last_updated_at, last_updated_by
	)
	VALUES ($1, $2, $3, $4, 1, 1, 1, $5, 'EUR', 30, '', '', '', '', NOW(), $6, NOW(), $6)
	ON CONFLICT (workspace_id) DO NOTHING;
`

func (r *PgxSettingsRepository) GetOrCreateSettings(ctx context.Context, workspaceID, createdByUserID string) (*domain.InvoiceSettings, error) {
	if _, err := r.db.Exec(ctx, ensureSettingsQuery,
		workspaceID,
		domain.DefaultQuotationPrefix,
		domain.DefaultInvoicePrefix,
		domain.DefaultCreditNotePrefix,
		domain.DefaultNumberPadding,
		createdByUserID,
	); err != nil {
		return nil, apperrors.NewAppError(500, "failed to ensure settings row for workspace "+workspaceID, err)
	}
	return r.getSettings(ctx, r.db, workspaceID)
}

// UpdateSettings writes the configurable fields. The sequence counters are
// deliberately absent from the SET list; only the allocator advances them.
func (r *PgxSettingsRepository) UpdateSettings(ctx context.Context, settings domain.InvoiceSettings) error {
	query := `
		UPDATE invoice_settings
		SET quotation_prefix = $1, invoice_prefix = $2, credit_note_prefix = $3,
			number_padding = $4, currency_code = $5, payment_terms_days = $6,
			company_name = $7, company_address = $8, company_vat_number = $9,
			company_iban = $10, last_updated_at = $11, last_updated_by = $12
		WHERE workspace_id = $13;
	`
	tag, err := r.db.Exec(ctx, query,
		settings.QuotationPrefix,
		settings.InvoicePrefix,
		settings.CreditNotePrefix,
		settings.NumberPadding,
		settings.CurrencyCode,
		settings.PaymentTermsDays,
		settings.CompanyName,
		settings.CompanyAddress,
		settings.CompanyVATNumber,
		settings.CompanyIBAN,
		settings.LastUpdatedAt,
		settings.LastUpdatedBy,
		settings.WorkspaceID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update invoice settings", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func counterColumn(docType domain.DocumentType) string {
	switch docType {
	case domain.DocTypeQuotation:
		return "next_quotation_number"
	case domain.DocTypeCreditNote:
		return "next_credit_note_number"
	default:
		return "next_invoice_number"
	}
}

func (r *PgxSettingsRepository) AllocateNumber(ctx context.Context, workspaceID string, docType domain.DocumentType) (int64, error) {
	seq, err := allocateNumber(ctx, r.db, workspaceID, docType)
	if errors.Is(err, apperrors.ErrNotFound) {
		if _, err := r.GetOrCreateSettings(ctx, workspaceID, "system"); err != nil {
			return 0, err
		}
		return allocateNumber(ctx, r.db, workspaceID, docType)
	}
	return seq, err
}

func (r *PgxSettingsRepository) AllocateNumberInTx(ctx context.Context, tx pgx.Tx, workspaceID string, docType domain.DocumentType) (int64, error) {
	return allocateNumber(ctx, tx, workspaceID, docType)
}

// allocateNumber bumps the counter and returns the pre-increment value in a
// single statement, so two concurrent callers always get distinct sequences.
func allocateNumber(ctx context.Context, q rowQuerier, workspaceID string, docType domain.DocumentType) (int64, error) {
	column := counterColumn(docType)
	query := `
		UPDATE invoice_settings
		SET ` + column + ` = ` + column + ` + 1
		WHERE workspace_id = $1
		RETURNING ` + column + ` - 1;
	`
	rows, err := q.Query(ctx, query, workspaceID)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to allocate document number", err)
	}
	seq, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, apperrors.NewAppError(500, "failed to allocate document number", err)
	}
	return seq, nil
}
