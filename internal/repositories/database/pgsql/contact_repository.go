package pgsql

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
	"github.com/nextfact/crm_billing_app/internal/utils/pagination"
)

type PgxContactRepository struct {
	db *pgxpool.Pool
}

func newPgxContactRepository(db *pgxpool.Pool) portsrepo.ContactRepositoryFacade {
	return &PgxContactRepository{db: db}
}

// Ensure PgxContactRepository implements portsrepo.ContactRepositoryFacade
var _ portsrepo.ContactRepositoryFacade = (*PgxContactRepository)(nil)

var FULL_CONTACT_SELECT_QUERY = `
SELECT
	c.contact_id, c.workspace_id, c.name, c.email, c.phone, c.company_name,
	c.vat_number, c.notes, c.is_archived,
	c.created_at, c.created_by, c.last_updated_at, c.last_updated_by
FROM contacts c
`

func (r *PgxContactRepository) getContacts(ctx context.Context, filterQuery string, args ...any) ([]domain.Contact, error) {
	rows, err := r.db.Query(ctx, FULL_CONTACT_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query contacts", err)
	}
	defer rows.Close()
	contacts, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Contact])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Contact{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect contact rows", err)
	}
	return contacts, nil
}

func (r *PgxContactRepository) FindContactByID(ctx context.Context, workspaceID, contactID string) (*domain.Contact, error) {
	contacts, err := r.getContacts(ctx, `WHERE c.workspace_id = $1 AND c.contact_id = $2`, workspaceID, contactID)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &contacts[0], nil
}

func (r *PgxContactRepository) ListContacts(ctx context.Context, workspaceID string, limit int, nextToken *string) ([]domain.Contact, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	filter := `WHERE c.workspace_id = $1`
	args := []any{workspaceID}
	if nextToken != nil {
		createdAt, id, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationFailedError("invalid pagination token")
		}
		filter += ` AND (c.created_at, c.contact_id) < ($2, $3)`
		args = append(args, createdAt, id)
	}
	filter += ` ORDER BY c.created_at DESC, c.contact_id DESC LIMIT ` + strconv.Itoa(limit+1)

	contacts, err := r.getContacts(ctx, filter, args...)
	if err != nil {
		return nil, nil, err
	}

	var token *string
	if len(contacts) > limit {
		contacts = contacts[:limit]
		last := contacts[len(contacts)-1]
		t := pagination.EncodeCursor(last.CreatedAt, last.ContactID)
		token = &t
	}
	return contacts, token, nil
}

func (r *PgxContactRepository) SaveContact(ctx context.Context, contact domain.Contact) error {
	query := `
		INSERT INTO contacts (
			contact_id, workspace_id, name, email, phone, company_name, vat_number,
			notes, is_archived, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.db.Exec(ctx, query,
		contact.ContactID,
		contact.WorkspaceID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.CompanyName,
		contact.VATNumber,
		contact.Notes,
		contact.IsArchived,
		contact.CreatedAt,
		contact.CreatedBy,
		contact.LastUpdatedAt,
		contact.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return apperrors.NewConflictError("contact " + contact.ContactID + " already exists")
			}
			if pgErr.Code == "23503" { // foreign_key_violation
				return apperrors.NewValidationFailedError("workspace does not exist")
			}
		}
		return apperrors.NewAppError(500, "failed to save contact "+contact.ContactID, err)
	}
	return nil
}

func (r *PgxContactRepository) UpdateContact(ctx context.Context, contact domain.Contact) error {
	query := `
		UPDATE contacts
		SET name = $1, email = $2, phone = $3, company_name = $4, vat_number = $5,
			notes = $6, last_updated_at = $7, last_updated_by = $8
		WHERE workspace_id = $9 AND contact_id = $10;
	`
	tag, err := r.db.Exec(ctx, query,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.CompanyName,
		contact.VATNumber,
		contact.Notes,
		contact.LastUpdatedAt,
		contact.LastUpdatedBy,
		contact.WorkspaceID,
		contact.ContactID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update contact "+contact.ContactID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxContactRepository) ArchiveContact(ctx context.Context, workspaceID, contactID, updatedByUserID string) error {
	query := `
		UPDATE contacts
		SET is_archived = TRUE, last_updated_at = NOW(), last_updated_by = $1
		WHERE workspace_id = $2 AND contact_id = $3;
	`
	tag, err := r.db.Exec(ctx, query, updatedByUserID, workspaceID, contactID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to archive contact "+contactID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

var FULL_OPPORTUNITY_SELECT_QUERY = `
SELECT
	o.opportunity_id, o.workspace_id, o.contact_id, o.title, o.stage, o.value,
	o.currency_code, o.expected_close, o.closed_at,
	o.created_at, o.created_by, o.last_updated_at, o.last_updated_by
FROM opportunities o
`

func (r *PgxContactRepository) getOpportunities(ctx context.Context, filterQuery string, args ...any) ([]domain.Opportunity, error) {
	rows, err := r.db.Query(ctx, FULL_OPPORTUNITY_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query opportunities", err)
	}
	defer rows.Close()
	opportunities, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Opportunity])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Opportunity{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect opportunity rows", err)
	}
	return opportunities, nil
}

func (r *PgxContactRepository) FindOpportunityByID(ctx context.Context, workspaceID, opportunityID string) (*domain.Opportunity, error) {
	opportunities, err := r.getOpportunities(ctx, `WHERE o.workspace_id = $1 AND o.opportunity_id = $2`, workspaceID, opportunityID)
	if err != nil {
		return nil, err
	}
	if len(opportunities) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &opportunities[0], nil
}

func (r *PgxContactRepository) ListOpportunities(ctx context.Context, workspaceID string) ([]domain.Opportunity, error) {
	return r.getOpportunities(ctx, `WHERE o.workspace_id = $1 ORDER BY o.created_at DESC`, workspaceID)
}

func (r *PgxContactRepository) ListOpportunitiesByContact(ctx context.Context, workspaceID, contactID string) ([]domain.Opportunity, error) {
	return r.getOpportunities(ctx, `WHERE o.workspace_id = $1 AND o.contact_id = $2 ORDER BY o.created_at DESC`, workspaceID, contactID)
}

func (r *PgxContactRepository) ListOpportunitiesByStage(ctx context.Context, workspaceID string, stage domain.OpportunityStage) ([]domain.Opportunity, error) {
	return r.getOpportunities(ctx, `WHERE o.workspace_id = $1 AND o.stage = $2 ORDER BY o.created_at DESC`, workspaceID, stage)
}

func (r *PgxContactRepository) SaveOpportunity(ctx context.Context, opportunity domain.Opportunity) error {
	query := `
		INSERT INTO opportunities (
			opportunity_id, workspace_id, contact_id, title, stage, value, currency_code,
			expected_close, closed_at, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.db.Exec(ctx, query,
		opportunity.OpportunityID,
		opportunity.WorkspaceID,
		opportunity.ContactID,
		opportunity.Title,
		opportunity.Stage,
		opportunity.Value,
		opportunity.CurrencyCode,
		opportunity.ExpectedClose,
		opportunity.ClosedAt,
		opportunity.CreatedAt,
		opportunity.CreatedBy,
		opportunity.LastUpdatedAt,
		opportunity.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return apperrors.NewValidationFailedError("contact does not exist")
		}
		return apperrors.NewAppError(500, "failed to save opportunity "+opportunity.OpportunityID, err)
	}
	return nil
}

func (r *PgxContactRepository) UpdateOpportunity(ctx context.Context, opportunity domain.Opportunity) error {
	query := `
		UPDATE opportunities
		SET title = $1, stage = $2, value = $3, currency_code = $4, expected_close = $5,
			closed_at = $6, last_updated_at = $7, last_updated_by = $8
		WHERE workspace_id = $9 AND opportunity_id = $10;
	`
	tag, err := r.db.Exec(ctx, query,
		opportunity.Title,
		opportunity.Stage,
		opportunity.Value,
		opportunity.CurrencyCode,
		opportunity.ExpectedClose,
		opportunity.ClosedAt,
		opportunity.LastUpdatedAt,
		opportunity.LastUpdatedBy,
		opportunity.WorkspaceID,
		opportunity.OpportunityID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update opportunity "+opportunity.OpportunityID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
