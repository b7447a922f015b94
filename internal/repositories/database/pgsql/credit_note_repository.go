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

type PgxCreditNoteRepository struct {
	db *pgxpool.Pool
}

func newPgxCreditNoteRepository(db *pgxpool.Pool) portsrepo.CreditNoteRepositoryFacade {
	return &PgxCreditNoteRepository{db: db}
}

// Ensure PgxCreditNoteRepository implements portsrepo.CreditNoteRepositoryFacade
var _ portsrepo.CreditNoteRepositoryFacade = (*PgxCreditNoteRepository)(nil)

var FULL_CREDIT_NOTE_SELECT_QUERY = `
SELECT
	cn.credit_note_id, cn.workspace_id, cn.number, cn.contact_id, cn.invoice_id,
	cn.status, cn.currency_code, cn.amount, cn.reason, cn.issued_at, cn.version,
	cn.created_at, cn.created_by, cn.last_updated_at, cn.last_updated_by
FROM credit_notes cn
`

func (r *PgxCreditNoteRepository) getCreditNotes(ctx context.Context, filterQuery string, args ...any) ([]domain.CreditNote, error) {
	rows, err := r.db.Query(ctx, FULL_CREDIT_NOTE_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query credit notes", err)
	}
	defer rows.Close()
	creditNotes, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.CreditNote])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.CreditNote{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect credit note rows", err)
	}
	return creditNotes, nil
}

func (r *PgxCreditNoteRepository) FindCreditNoteByID(ctx context.Context, workspaceID, creditNoteID string) (*domain.CreditNote, error) {
	creditNotes, err := r.getCreditNotes(ctx, `WHERE cn.workspace_id = $1 AND cn.credit_note_id = $2`, workspaceID, creditNoteID)
	if err != nil {
		return nil, err
	}
	if len(creditNotes) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &creditNotes[0], nil
}

func (r *PgxCreditNoteRepository) ListCreditNotes(ctx context.Context, workspaceID string, status *domain.CreditNoteStatus, limit int, nextToken *string) ([]domain.CreditNote, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	filter := `WHERE cn.workspace_id = $1`
	args := []any{workspaceID}
	if status != nil {
		args = append(args, *status)
		filter += ` AND cn.status = $` + strconv.Itoa(len(args))
	}
	if nextToken != nil {
		createdAt, id, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationFailedError("invalid pagination token")
		}
		args = append(args, createdAt, id)
		filter += ` AND (cn.created_at, cn.credit_note_id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}
	filter += ` ORDER BY cn.created_at DESC, cn.credit_note_id DESC LIMIT ` + strconv.Itoa(limit+1)

	creditNotes, err := r.getCreditNotes(ctx, filter, args...)
	if err != nil {
		return nil, nil, err
	}

	var token *string
	if len(creditNotes) > limit {
		creditNotes = creditNotes[:limit]
		last := creditNotes[len(creditNotes)-1]
		t := pagination.EncodeCursor(last.CreatedAt, last.CreditNoteID)
		token = &t
	}
	return creditNotes, token, nil
}

func (r *PgxCreditNoteRepository) ListCreditNotesByInvoiceID(ctx context.Context, invoiceID string) ([]domain.CreditNote, error) {
	return r.getCreditNotes(ctx, `WHERE cn.invoice_id = $1 ORDER BY cn.created_at`, invoiceID)
}

func (r *PgxCreditNoteRepository) SaveCreditNote(ctx context.Context, creditNote domain.CreditNote) error {
	query := `
		INSERT INTO credit_notes (
			credit_note_id, workspace_id, number, contact_id, invoice_id, status,
			currency_code, amount, reason, issued_at, version,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.db.Exec(ctx, query,
		creditNote.CreditNoteID,
		creditNote.WorkspaceID,
		creditNote.Number,
		creditNote.ContactID,
		creditNote.InvoiceID,
		creditNote.Status,
		creditNote.CurrencyCode,
		creditNote.Amount,
		creditNote.Reason,
		creditNote.IssuedAt,
		creditNote.Version,
		creditNote.CreatedAt,
		creditNote.CreatedBy,
		creditNote.LastUpdatedAt,
		creditNote.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return apperrors.NewConflictError("credit note number " + creditNote.Number + " already exists")
			}
			if pgErr.Code == "23503" { // foreign_key_violation
				return apperrors.NewValidationFailedError("contact or invoice does not exist")
			}
		}
		return apperrors.NewAppError(500, "failed to save credit note "+creditNote.CreditNoteID, err)
	}
	return nil
}

func (r *PgxCreditNoteRepository) UpdateCreditNote(ctx context.Context, creditNote domain.CreditNote) error {
	query := `
		UPDATE credit_notes
		SET amount = $1, reason = $2, currency_code = $3, last_updated_at = $4, last_updated_by = $5
		WHERE workspace_id = $6 AND credit_note_id = $7 AND status = 'DRAFT';
	`
	tag, err := r.db.Exec(ctx, query,
		creditNote.Amount,
		creditNote.Reason,
		creditNote.CurrencyCode,
		creditNote.LastUpdatedAt,
		creditNote.LastUpdatedBy,
		creditNote.WorkspaceID,
		creditNote.CreditNoteID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update credit note "+creditNote.CreditNoteID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("credit note " + creditNote.CreditNoteID + " is not an editable draft")
	}
	return nil
}

func (r *PgxCreditNoteRepository) UpdateCreditNoteStatus(ctx context.Context, creditNote domain.CreditNote, updatedByUserID string, now time.Time) error {
	query := `
		UPDATE credit_notes
		SET status = $1, issued_at = $2, last_updated_at = $3, last_updated_by = $4, version = version + 1
		WHERE credit_note_id = $5 AND workspace_id = $6 AND version = $7;
	`
	tag, err := r.db.Exec(ctx, query,
		creditNote.Status,
		creditNote.IssuedAt,
		now,
		updatedByUserID,
		creditNote.CreditNoteID,
		creditNote.WorkspaceID,
		creditNote.Version,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update credit note status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("credit note " + creditNote.CreditNoteID + " was modified concurrently")
	}
	return nil
}

func (r *PgxCreditNoteRepository) DeleteCreditNoteDraft(ctx context.Context, workspaceID, creditNoteID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM credit_notes WHERE workspace_id = $1 AND credit_note_id = $2 AND status = 'DRAFT'`,
		workspaceID, creditNoteID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete credit note "+creditNoteID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("credit note " + creditNoteID + " is not a deletable draft")
	}
	return nil
}
