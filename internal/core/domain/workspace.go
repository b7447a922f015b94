package domain

import "time"

// Workspace represents a tenant's isolated data boundary. All CRM and
// invoicing entities hang off exactly one workspace.
type Workspace struct {
	WorkspaceID         string  `json:"workspaceID" db:"workspace_id"`
	AgencyID            *string `json:"agencyID" db:"agency_id"` // Nullable: set when owned by a whitelabel agency
	Name                string  `json:"name" db:"name"`
	Description         string  `json:"description" db:"description"`
	DefaultCurrencyCode *string `json:"defaultCurrencyCode" db:"default_currency_code"`
	IsActive            bool    `json:"isActive" db:"is_active"`
	Version             int64   `json:"version" db:"version"`
	AuditFields
}

// UserWorkspaceRole defines the possible roles a user can have within a workspace.
type UserWorkspaceRole string

const (
	RoleAdmin    UserWorkspaceRole = "ADMIN"
	RoleMember   UserWorkspaceRole = "MEMBER"
	RoleReadOnly UserWorkspaceRole = "READONLY"
	RoleRemoved  UserWorkspaceRole = "REMOVED" // For users who have been removed from the workspace
)

// UserWorkspace represents the membership of a User in a Workspace.
type UserWorkspace struct {
	UserID      string            `json:"userID" db:"user_id"`
	UserName    string            `json:"userName" db:"user_name"`
	WorkspaceID string            `json:"workspaceID" db:"workspace_id"`
	Role        UserWorkspaceRole `json:"role" db:"role"`
	JoinedAt    time.Time         `json:"joinedAt" db:"joined_at"`
}
