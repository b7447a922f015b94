package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
)

// workspaceService implements the WorkspaceSvcFacade interface
type workspaceService struct {
	BaseService
	workspaceRepo portsrepo.WorkspaceRepositoryFacade
}

// NewWorkspaceService creates a new workspace service with the provided dependencies
func NewWorkspaceService(workspaceRepo portsrepo.WorkspaceRepositoryFacade) portssvc.WorkspaceSvcFacade {
	return &workspaceService{
		workspaceRepo: workspaceRepo,
	}
}

var _ portssvc.WorkspaceSvcFacade = (*workspaceService)(nil)

// FindWorkspaceByID retrieves a workspace by its ID
func (s *workspaceService) FindWorkspaceByID(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	workspace, err := s.workspaceRepo.FindWorkspaceByID(ctx, workspaceID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find workspace by ID",
				slog.String("workspace_id", workspaceID))
		}
		return nil, err
	}
	return workspace, nil
}

// ListUserWorkspaces retrieves all workspaces a user belongs to
func (s *workspaceService) ListUserWorkspaces(ctx context.Context, userID string, includeDisabled bool) ([]domain.Workspace, error) {
	workspaces, err := s.workspaceRepo.ListWorkspacesByUserID(ctx, userID, includeDisabled)
	if err != nil {
		s.LogError(ctx, err, "Failed to list workspaces for user",
			slog.String("user_id", userID))
		return nil, err
	}

	if workspaces == nil {
		return []domain.Workspace{}, nil
	}
	return workspaces, nil
}

// ListWorkspaceUsers retrieves the memberships of a workspace. Any member may
// see the roster.
func (s *workspaceService) ListWorkspaceUsers(ctx context.Context, workspaceID string, requestingUserID string) ([]domain.UserWorkspace, error) {
	if err := s.AuthorizeUserAction(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	members, err := s.workspaceRepo.ListUsersByWorkspaceID(ctx, workspaceID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list workspace users",
			slog.String("workspace_id", workspaceID))
		return nil, err
	}
	return members, nil
}

// CreateWorkspace creates a new workspace and makes the creator its admin
func (s *workspaceService) CreateWorkspace(ctx context.Context, name, description, defaultCurrencyCode, creatorUserID string) (*domain.Workspace, error) {
	now := time.Now()
	workspaceID := uuid.NewString()

	workspace := domain.Workspace{
		WorkspaceID: workspaceID,
		Name:        name,
		Description: description,
		IsActive:    true,
		Version:     1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if defaultCurrencyCode != "" {
		workspace.DefaultCurrencyCode = &defaultCurrencyCode
	}

	if err := s.workspaceRepo.SaveWorkspace(ctx, workspace); err != nil {
		s.LogError(ctx, err, "Failed to save workspace",
			slog.String("workspace_id", workspace.WorkspaceID))
		return nil, err
	}

	// Add creator as an admin to the new workspace
	if err := s.AddUserToWorkspace(ctx, creatorUserID, creatorUserID, workspaceID, domain.RoleAdmin); err != nil {
		s.LogError(ctx, err, "Failed to add creator as admin to new workspace",
			slog.String("workspace_id", workspace.WorkspaceID),
			slog.String("user_id", creatorUserID))
		return nil, err
	}

	s.LogInfo(ctx, "Workspace created",
		slog.String("workspace_id", workspace.WorkspaceID),
		slog.String("creator_id", creatorUserID))
	return &workspace, nil
}

// DeactivateWorkspace marks a workspace as inactive
func (s *workspaceService) DeactivateWorkspace(ctx context.Context, workspaceID string, requestingUserID string) error {
	return s.setWorkspaceActive(ctx, workspaceID, requestingUserID, false)
}

// ActivateWorkspace marks a workspace as active
func (s *workspaceService) ActivateWorkspace(ctx context.Context, workspaceID string, requestingUserID string) error {
	return s.setWorkspaceActive(ctx, workspaceID, requestingUserID, true)
}

func (s *workspaceService) setWorkspaceActive(ctx context.Context, workspaceID, requestingUserID string, active bool) error {
	if err := s.AuthorizeUserAction(ctx, requestingUserID, workspaceID, domain.RoleAdmin); err != nil {
		return err
	}

	workspace, err := s.workspaceRepo.FindWorkspaceByID(ctx, workspaceID)
	if err != nil {
		return err
	}

	if err := s.workspaceRepo.UpdateWorkspaceStatus(ctx, workspace, active, requestingUserID); err != nil {
		s.LogError(ctx, err, "Failed to update workspace status",
			slog.String("workspace_id", workspaceID),
			slog.Bool("active", active))
		return err
	}

	s.LogInfo(ctx, "Workspace status updated",
		slog.String("workspace_id", workspaceID),
		slog.Bool("active", active))
	return nil
}

// AddUserToWorkspace adds a user to a workspace with a specific role
func (s *workspaceService) AddUserToWorkspace(ctx context.Context, addingUserID, targetUserID, workspaceID string, role domain.UserWorkspaceRole) error {
	// Self-assignment is permitted (e.g., creator adding self as admin)
	if addingUserID != targetUserID {
		if err := s.AuthorizeUserAction(ctx, addingUserID, workspaceID, domain.RoleAdmin); err != nil {
			s.LogError(ctx, err, "User not authorized to add members to workspace",
				slog.String("adding_user_id", addingUserID),
				slog.String("workspace_id", workspaceID))
			return err
		}
	}

	membership := domain.UserWorkspace{
		UserID:      targetUserID,
		WorkspaceID: workspaceID,
		Role:        role,
		JoinedAt:    time.Now(),
	}

	if err := s.workspaceRepo.AddUserToWorkspace(ctx, membership); err != nil {
		s.LogError(ctx, err, "Failed to add user to workspace",
			slog.String("target_user_id", targetUserID),
			slog.String("workspace_id", workspaceID))
		return err
	}

	s.LogInfo(ctx, "User added to workspace",
		slog.String("target_user_id", targetUserID),
		slog.String("workspace_id", workspaceID),
		slog.String("role", string(role)))
	return nil
}

// RemoveUserFromWorkspace marks a user's membership as REMOVED
func (s *workspaceService) RemoveUserFromWorkspace(ctx context.Context, requestingUserID, targetUserID, workspaceID string) error {
	if err := s.AuthorizeUserAction(ctx, requestingUserID, workspaceID, domain.RoleAdmin); err != nil {
		return err
	}
	if requestingUserID == targetUserID {
		return apperrors.NewValidationFailedError("admins cannot remove themselves from a workspace")
	}

	if err := s.workspaceRepo.UpdateUserWorkspaceRole(ctx, targetUserID, workspaceID, domain.RoleRemoved); err != nil {
		s.LogError(ctx, err, "Failed to remove user from workspace",
			slog.String("target_user_id", targetUserID),
			slog.String("workspace_id", workspaceID))
		return err
	}
	return nil
}

// UpdateUserWorkspaceRole updates a user's role in a workspace
func (s *workspaceService) UpdateUserWorkspaceRole(ctx context.Context, requestingUserID, targetUserID, workspaceID string, newRole domain.UserWorkspaceRole) error {
	if err := s.AuthorizeUserAction(ctx, requestingUserID, workspaceID, domain.RoleAdmin); err != nil {
		return err
	}
	if newRole == domain.RoleRemoved {
		return apperrors.NewValidationFailedError("use the remove endpoint to revoke membership")
	}

	if err := s.workspaceRepo.UpdateUserWorkspaceRole(ctx, targetUserID, workspaceID, newRole); err != nil {
		s.LogError(ctx, err, "Failed to update member role",
			slog.String("target_user_id", targetUserID),
			slog.String("workspace_id", workspaceID),
			slog.String("new_role", string(newRole)))
		return err
	}
	return nil
}

// AuthorizeUserAction checks if a user has required permissions for a workspace
func (s *workspaceService) AuthorizeUserAction(ctx context.Context, userID, workspaceID string, requiredRole domain.UserWorkspaceRole) error {
	membership, err := s.workspaceRepo.FindUserWorkspaceRole(ctx, userID, workspaceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogDebug(ctx, "User not a member of workspace",
				slog.String("user_id", userID),
				slog.String("workspace_id", workspaceID))
			return apperrors.ErrForbidden
		}
		s.LogError(ctx, err, "Failed to find user workspace role",
			slog.String("user_id", userID),
			slog.String("workspace_id", workspaceID))
		return err
	}

	if !hasRequiredRole(membership.Role, requiredRole) {
		s.LogDebug(ctx, "User does not have required role",
			slog.String("user_id", userID),
			slog.String("workspace_id", workspaceID),
			slog.String("user_role", string(membership.Role)),
			slog.String("required_role", string(requiredRole)))
		return apperrors.ErrForbidden
	}

	return nil
}

// hasRequiredRole checks if the user's role meets or exceeds the required role
func hasRequiredRole(userRole, requiredRole domain.UserWorkspaceRole) bool {
	switch requiredRole {
	case domain.RoleReadOnly:
		return userRole == domain.RoleReadOnly || userRole == domain.RoleMember || userRole == domain.RoleAdmin
	case domain.RoleMember:
		return userRole == domain.RoleMember || userRole == domain.RoleAdmin
	case domain.RoleAdmin:
		return userRole == domain.RoleAdmin
	default:
		return false
	}
}
