package repositories

import (
	"context"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// AgencyReader defines read operations for agency data
type AgencyReader interface {
	FindAgencyByID(ctx context.Context, agencyID string) (*domain.Agency, error)
	ListAgencies(ctx context.Context) ([]domain.Agency, error)

	// FindBrandingForWorkspace resolves the branding to apply when sending a
	// document from the given workspace: the owning agency's branding, or nil
	// when the workspace is not agency-owned.
	FindBrandingForWorkspace(ctx context.Context, workspaceID string) (*domain.Branding, error)
}

// AgencyWriter defines write operations for agency data
type AgencyWriter interface {
	SaveAgency(ctx context.Context, agency domain.Agency) error
	UpdateAgency(ctx context.Context, agency domain.Agency) error

	// AssignWorkspace attaches a workspace to an agency.
	AssignWorkspace(ctx context.Context, agencyID, workspaceID, updatedByUserID string) error

	// DetachWorkspace clears a workspace's agency ownership.
	DetachWorkspace(ctx context.Context, workspaceID, updatedByUserID string) error
}

// AgencyRepositoryFacade combines all agency-related repository interfaces
type AgencyRepositoryFacade interface {
	AgencyReader
	AgencyWriter
}
