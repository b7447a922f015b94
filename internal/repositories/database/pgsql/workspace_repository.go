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

type PgxWorkspaceRepository struct {
	BaseRepository
}

// newPgxWorkspaceRepository creates a new repository for workspace data.
func newPgxWorkspaceRepository(pool *pgxpool.Pool) portsrepo.WorkspaceRepositoryWithTx {
	return &PgxWorkspaceRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxWorkspaceRepository implements portsrepo.WorkspaceRepositoryWithTx
var _ portsrepo.WorkspaceRepositoryWithTx = (*PgxWorkspaceRepository)(nil)

var FULL_WORKSPACE_SELECT_QUERY = `
SELECT
	w.workspace_id, w.agency_id, w.name, w.description, w.default_currency_code, w.is_active,
	w.version, w.created_at, w.created_by, w.last_updated_at, w.last_updated_by
FROM workspaces w
`

// getWorkspaces runs the shared select with the given filter clause.
func (r *PgxWorkspaceRepository) getWorkspaces(ctx context.Context, filterQuery string, args ...any) ([]domain.Workspace, error) {
	query := FULL_WORKSPACE_SELECT_QUERY + filterQuery
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query workspaces", err)
	}
	defer rows.Close()
	workspaces, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Workspace])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Workspace{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect workspace rows", err)
	}
	return workspaces, nil
}

func (r *PgxWorkspaceRepository) SaveWorkspace(ctx context.Context, workspace domain.Workspace) error {
	query := `
		INSERT INTO workspaces (
			workspace_id, agency_id, name, description, default_currency_code, is_active,
			version, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		workspace.WorkspaceID,
		workspace.AgencyID,
		workspace.Name,
		workspace.Description,
		workspace.DefaultCurrencyCode,
		workspace.IsActive,
		workspace.Version,
		workspace.CreatedAt,
		workspace.CreatedBy,
		workspace.LastUpdatedAt,
		workspace.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.NewConflictError("workspace ID " + workspace.WorkspaceID + " already exists")
		}
		return apperrors.NewAppError(500, "failed to save workspace "+workspace.WorkspaceID, err)
	}
	return nil
}

func (r *PgxWorkspaceRepository) FindWorkspaceByID(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	workspaces, err := r.getWorkspaces(ctx, `WHERE w.workspace_id = $1`, workspaceID)
	if err != nil {
		return nil, err
	}
	if len(workspaces) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &workspaces[0], nil
}

func (r *PgxWorkspaceRepository) ListWorkspacesByUserID(ctx context.Context, userID string, includeDisabled bool) ([]domain.Workspace, error) {
	filter := `
		JOIN user_workspaces uw ON uw.workspace_id = w.workspace_id
		WHERE uw.user_id = $1 AND uw.role <> 'REMOVED'
	`
	if !includeDisabled {
		filter += ` AND w.is_active = TRUE`
	}
	filter += ` ORDER BY w.created_at`
	return r.getWorkspaces(ctx, filter, userID)
}

func (r *PgxWorkspaceRepository) ListWorkspacesByAgencyID(ctx context.Context, agencyID string) ([]domain.Workspace, error) {
	return r.getWorkspaces(ctx, `WHERE w.agency_id = $1 ORDER BY w.created_at`, agencyID)
}

func (r *PgxWorkspaceRepository) UpdateWorkspaceStatus(ctx context.Context, workspace *domain.Workspace, isActive bool, updatedByUserID string) error {
	query := `
		UPDATE workspaces
		SET is_active = $1, last_updated_at = NOW(), last_updated_by = $2, version = version + 1
		WHERE workspace_id = $3 AND version = $4;
	`
	tag, err := r.Pool.Exec(ctx, query, isActive, updatedByUserID, workspace.WorkspaceID, workspace.Version)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update workspace status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("workspace " + workspace.WorkspaceID + " was modified concurrently")
	}
	workspace.IsActive = isActive
	workspace.Version++
	return nil
}

func (r *PgxWorkspaceRepository) AddUserToWorkspace(ctx context.Context, membership domain.UserWorkspace) error {
	query := `
		INSERT INTO user_workspaces (user_id, workspace_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, workspace_id) DO UPDATE SET role = EXCLUDED.role;
	`
	_, err := r.Pool.Exec(ctx, query,
		membership.UserID,
		membership.WorkspaceID,
		membership.Role,
		membership.JoinedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return apperrors.NewValidationFailedError("user or workspace does not exist")
		}
		return apperrors.NewAppError(500, "failed to add user "+membership.UserID+" to workspace "+membership.WorkspaceID, err)
	}
	return nil
}

func (r *PgxWorkspaceRepository) FindUserWorkspaceRole(ctx context.Context, userID, workspaceID string) (*domain.UserWorkspace, error) {
	query := `
		SELECT uw.user_id, u.name AS user_name, uw.workspace_id, uw.role, uw.joined_at
		FROM user_workspaces uw
		JOIN users u ON u.user_id = uw.user_id
		WHERE uw.user_id = $1 AND uw.workspace_id = $2;
	`
	rows, err := r.Pool.Query(ctx, query, userID, workspaceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query membership", err)
	}
	membership, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[domain.UserWorkspace])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to collect membership row", err)
	}
	return &membership, nil
}

func (r *PgxWorkspaceRepository) ListUsersByWorkspaceID(ctx context.Context, workspaceID string) ([]domain.UserWorkspace, error) {
	query := `
		SELECT uw.user_id, u.name AS user_name, uw.workspace_id, uw.role, uw.joined_at
		FROM user_workspaces uw
		JOIN users u ON u.user_id = uw.user_id
		WHERE uw.workspace_id = $1 AND uw.role <> 'REMOVED'
		ORDER BY uw.joined_at;
	`
	rows, err := r.Pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query workspace members", err)
	}
	members, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.UserWorkspace])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect member rows", err)
	}
	return members, nil
}

func (r *PgxWorkspaceRepository) UpdateUserWorkspaceRole(ctx context.Context, userID, workspaceID string, newRole domain.UserWorkspaceRole) error {
	query := `
		UPDATE user_workspaces
		SET role = $1
		WHERE user_id = $2 AND workspace_id = $3;
	`
	tag, err := r.Pool.Exec(ctx, query, newRole, userID, workspaceID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update membership role", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
