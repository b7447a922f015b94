package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
)

type PgxAgencyRepository struct {
	db *pgxpool.Pool
}

func newPgxAgencyRepository(db *pgxpool.Pool) portsrepo.AgencyRepositoryFacade {
	return &PgxAgencyRepository{db: db}
}

// Ensure PgxAgencyRepository implements portsrepo.AgencyRepositoryFacade
var _ portsrepo.AgencyRepositoryFacade = (*PgxAgencyRepository)(nil)

var FULL_AGENCY_SELECT_QUERY = `
SELECT
	a.agency_id, a.name, a.is_active,
	a.brand_name, a.logo_url, a.accent_color, a.footer_note,
	a.created_at, a.created_by, a.last_updated_at, a.last_updated_by
FROM agencies a
`

func (r *PgxAgencyRepository) getAgencies(ctx context.Context, filterQuery string, args ...any) ([]domain.Agency, error) {
	rows, err := r.db.Query(ctx, FULL_AGENCY_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query agencies", err)
	}
	defer rows.Close()
	agencies, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Agency])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Agency{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect agency rows", err)
	}
	return agencies, nil
}

func (r *PgxAgencyRepository) FindAgencyByID(ctx context.Context, agencyID string) (*domain.Agency, error) {
	agencies, err := r.getAgencies(ctx, `WHERE a.agency_id = $1`, agencyID)
	if err != nil {
		return nil, err
	}
	if len(agencies) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &agencies[0], nil
}

func (r *PgxAgencyRepository) ListAgencies(ctx context.Context) ([]domain.Agency, error) {
	return r.getAgencies(ctx, `ORDER BY a.created_at`)
}

func (r *PgxAgencyRepository) FindBrandingForWorkspace(ctx context.Context, workspaceID string) (*domain.Branding, error) {
	query := `
		SELECT a.brand_name, a.logo_url, a.accent_color, a.footer_note
		FROM agencies a
		JOIN workspaces w ON w.agency_id = a.agency_id
		WHERE w.workspace_id = $1 AND a.is_active = TRUE;
	`
	rows, err := r.db.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query workspace branding", err)
	}
	branding, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[domain.Branding])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Not agency-owned: callers fall back to the default branding.
			return nil, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect branding row", err)
	}
	return &branding, nil
}

func (r *PgxAgencyRepository) SaveAgency(ctx context.Context, agency domain.Agency) error {
	query := `
		INSERT INTO agencies (
			agency_id, name, is_active, brand_name, logo_url, accent_color, footer_note,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.db.Exec(ctx, query,
		agency.AgencyID,
		agency.Name,
		agency.IsActive,
		agency.BrandName,
		agency.LogoURL,
		agency.AccentColor,
		agency.FooterNote,
		agency.CreatedAt,
		agency.CreatedBy,
		agency.LastUpdatedAt,
		agency.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.NewConflictError("agency " + agency.AgencyID + " already exists")
		}
		return apperrors.NewAppError(500, "failed to save agency "+agency.AgencyID, err)
	}
	return nil
}

func (r *PgxAgencyRepository) UpdateAgency(ctx context.Context, agency domain.Agency) error {
	query := `
		UPDATE agencies
		SET name = $1, is_active = $2, brand_name = $3, logo_url = $4, accent_color = $5,
			footer_note = $6, last_updated_at = $7, last_updated_by = $8
		WHERE agency_id = $9;
	`
	tag, err := r.db.Exec(ctx, query,
		agency.Name,
		agency.IsActive,
		agency.BrandName,
		agency.LogoURL,
		agency.AccentColor,
		agency.FooterNote,
		agency.LastUpdatedAt,
		agency.LastUpdatedBy,
		agency.AgencyID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update agency "+agency.AgencyID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxAgencyRepository) AssignWorkspace(ctx context.Context, agencyID, workspaceID, updatedByUserID string) error {
	query := `
		UPDATE workspaces
		SET agency_id = $1, last_updated_at = NOW(), last_updated_by = $2
		WHERE workspace_id = $3;
	`
	tag, err := r.db.Exec(ctx, query, agencyID, updatedByUserID, workspaceID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return apperrors.NewValidationFailedError("agency " + agencyID + " does not exist")
		}
		return apperrors.NewAppError(500, "failed to assign workspace "+workspaceID+" to agency "+agencyID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxAgencyRepository) DetachWorkspace(ctx context.Context, workspaceID, updatedByUserID string) error {
	query := `
		UPDATE workspaces
		SET agency_id = NULL, last_updated_at = NOW(), last_updated_by = $1
		WHERE workspace_id = $2;
	`
	tag, err := r.db.Exec(ctx, query, updatedByUserID, workspaceID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to detach workspace "+workspaceID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
