package services

import (
	"context"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// WorkspaceReaderSvc defines read operations for workspace data
type WorkspaceReaderSvc interface {
	// FindWorkspaceByID retrieves a specific workspace by its ID.
	FindWorkspaceByID(ctx context.Context, workspaceID string) (*domain.Workspace, error)

	// ListUserWorkspaces retrieves workspaces a user belongs to.
	ListUserWorkspaces(ctx context.Context, userID string, includeDisabled bool) ([]domain.Workspace, error)

	// ListWorkspaceUsers retrieves all users and their roles for a workspace.
	// Only members of the workspace can access this data.
	ListWorkspaceUsers(ctx context.Context, workspaceID string, requestingUserID string) ([]domain.UserWorkspace, error)
}

// WorkspaceWriterSvc defines write operations for workspace data
type WorkspaceWriterSvc interface {
	// CreateWorkspace persists a new workspace and makes the creator its admin.
	CreateWorkspace(ctx context.Context, name, description, defaultCurrencyCode, creatorUserID string) (*domain.Workspace, error)

	// DeactivateWorkspace marks a workspace as inactive. Admin only.
	DeactivateWorkspace(ctx context.Context, workspaceID string, requestingUserID string) error

	// ActivateWorkspace marks a workspace as active. Admin only.
	ActivateWorkspace(ctx context.Context, workspaceID string, requestingUserID string) error
}

// WorkspaceMembershipSvc defines operations for managing workspace membership
type WorkspaceMembershipSvc interface {
	// AddUserToWorkspace adds a user to a workspace with a specific role.
	AddUserToWorkspace(ctx context.Context, addingUserID, targetUserID, workspaceID string, role domain.UserWorkspaceRole) error

	// RemoveUserFromWorkspace marks a user's membership as REMOVED. Admin only.
	RemoveUserFromWorkspace(ctx context.Context, requestingUserID, targetUserID, workspaceID string) error

	// UpdateUserWorkspaceRole updates a user's role in a workspace. Admin only.
	UpdateUserWorkspaceRole(ctx context.Context, requestingUserID, targetUserID, workspaceID string, newRole domain.UserWorkspaceRole) error
}

// WorkspaceAuthorizerSvc defines operations for workspace authorization
type WorkspaceAuthorizerSvc interface {
	// AuthorizeUserAction checks if a user has the required role (or higher)
	// in a workspace.
	AuthorizeUserAction(ctx context.Context, userID, workspaceID string, requiredRole domain.UserWorkspaceRole) error
}

// WorkspaceSvcFacade combines all workspace-related service interfaces
type WorkspaceSvcFacade interface {
	WorkspaceReaderSvc
	WorkspaceWriterSvc
	WorkspaceMembershipSvc
	WorkspaceAuthorizerSvc
}
