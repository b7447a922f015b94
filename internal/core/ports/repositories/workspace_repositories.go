package repositories

import (
	"context"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// WorkspaceReader defines read operations for workspace data
type WorkspaceReader interface {
	// FindWorkspaceByID retrieves a specific workspace by its unique identifier.
	FindWorkspaceByID(ctx context.Context, workspaceID string) (*domain.Workspace, error)

	// ListWorkspacesByUserID retrieves the workspaces a user is a member of.
	// Inactive workspaces are only included for admins when includeDisabled is set.
	ListWorkspacesByUserID(ctx context.Context, userID string, includeDisabled bool) ([]domain.Workspace, error)

	// ListWorkspacesByAgencyID retrieves all workspaces owned by an agency.
	ListWorkspacesByAgencyID(ctx context.Context, agencyID string) ([]domain.Workspace, error)

	// FindUserWorkspaceRole retrieves a user's membership row in a workspace.
	FindUserWorkspaceRole(ctx context.Context, userID, workspaceID string) (*domain.UserWorkspace, error)

	// ListUsersByWorkspaceID retrieves the memberships of a workspace, excluding REMOVED users.
	ListUsersByWorkspaceID(ctx context.Context, workspaceID string) ([]domain.UserWorkspace, error)
}

// WorkspaceWriter defines write operations for workspace data
type WorkspaceWriter interface {
	// SaveWorkspace persists a new workspace.
	SaveWorkspace(ctx context.Context, workspace domain.Workspace) error

	// UpdateWorkspaceStatus flips the is_active flag with optimistic locking.
	UpdateWorkspaceStatus(ctx context.Context, workspace *domain.Workspace, isActive bool, updatedByUserID string) error

	// AddUserToWorkspace upserts a membership row.
	AddUserToWorkspace(ctx context.Context, membership domain.UserWorkspace) error

	// UpdateUserWorkspaceRole changes a user's role in a workspace.
	UpdateUserWorkspaceRole(ctx context.Context, userID, workspaceID string, newRole domain.UserWorkspaceRole) error
}

// WorkspaceRepositoryFacade combines all workspace-related repository interfaces
type WorkspaceRepositoryFacade interface {
	WorkspaceReader
	WorkspaceWriter
}

// WorkspaceRepositoryWithTx extends WorkspaceRepositoryFacade with transaction capabilities
type WorkspaceRepositoryWithTx interface {
	WorkspaceRepositoryFacade
	TransactionManager
}
