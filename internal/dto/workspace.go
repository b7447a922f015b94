package dto

import (
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// --- Workspace DTOs ---

// CreateWorkspaceRequest defines data for creating a new workspace.
type CreateWorkspaceRequest struct {
	Name                string `json:"name" binding:"required"`
	Description         string `json:"description"`
	DefaultCurrencyCode string `json:"defaultCurrencyCode" binding:"required,iso4217"`
}

// WorkspaceResponse defines data returned for a workspace.
type WorkspaceResponse struct {
	WorkspaceID         string    `json:"workspaceID"`
	AgencyID            *string   `json:"agencyID,omitempty"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	DefaultCurrencyCode *string   `json:"defaultCurrencyCode,omitempty"`
	IsActive            bool      `json:"isActive"`
	CreatedAt           time.Time `json:"createdAt"`
	CreatedBy           string    `json:"createdBy"`
	LastUpdatedAt       time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy       string    `json:"lastUpdatedBy"`
}

// ToWorkspaceResponse converts domain.Workspace to DTO.
func ToWorkspaceResponse(w *domain.Workspace) WorkspaceResponse {
	return WorkspaceResponse{
		WorkspaceID:         w.WorkspaceID,
		AgencyID:            w.AgencyID,
		Name:                w.Name,
		Description:         w.Description,
		DefaultCurrencyCode: w.DefaultCurrencyCode,
		IsActive:            w.IsActive,
		CreatedAt:           w.CreatedAt,
		CreatedBy:           w.CreatedBy,
		LastUpdatedAt:       w.LastUpdatedAt,
		LastUpdatedBy:       w.LastUpdatedBy,
	}
}

// ListWorkspacesResponse wraps a list of workspaces.
type ListWorkspacesResponse struct {
	Workspaces []WorkspaceResponse `json:"workspaces"`
}

// ToListWorkspacesResponse converts a slice of domain.Workspace to DTO.
func ToListWorkspacesResponse(ws []domain.Workspace) ListWorkspacesResponse {
	list := make([]WorkspaceResponse, len(ws))
	for i := range ws {
		list[i] = ToWorkspaceResponse(&ws[i])
	}
	return ListWorkspacesResponse{Workspaces: list}
}

// --- Membership DTOs ---

// AddUserToWorkspaceRequest defines data for adding a user to a workspace.
type AddUserToWorkspaceRequest struct {
	UserID string                   `json:"userID" binding:"required"`
	Role   domain.UserWorkspaceRole `json:"role" binding:"required,oneof=ADMIN MEMBER READONLY"`
}

// UpdateMemberRoleRequest defines data for changing a member's role.
type UpdateMemberRoleRequest struct {
	Role domain.UserWorkspaceRole `json:"role" binding:"required,oneof=ADMIN MEMBER READONLY"`
}

// WorkspaceMemberResponse defines data returned for a workspace membership.
type WorkspaceMemberResponse struct {
	UserID   string                   `json:"userID"`
	UserName string                   `json:"userName"`
	Role     domain.UserWorkspaceRole `json:"role"`
	JoinedAt time.Time                `json:"joinedAt"`
}

// ToWorkspaceMemberResponses converts memberships to DTOs.
func ToWorkspaceMemberResponses(members []domain.UserWorkspace) []WorkspaceMemberResponse {
	res := make([]WorkspaceMemberResponse, len(members))
	for i, m := range members {
		res[i] = WorkspaceMemberResponse{
			UserID:   m.UserID,
			UserName: m.UserName,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
	}
	return res
}
