package services

import (
	"context"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/nextfact/crm_billing_app/internal/dto"
)

// AgencyReaderSvc defines read operations for whitelabel agencies
type AgencyReaderSvc interface {
	GetAgency(ctx context.Context, agencyID string) (*domain.Agency, error)
	ListAgencies(ctx context.Context) ([]domain.Agency, error)

	// ResolveBranding returns the branding that applies to a workspace: its
	// agency's branding when attached to an active agency, the platform
	// default otherwise.
	ResolveBranding(ctx context.Context, workspaceID string) (domain.Branding, error)
}

// AgencyWriterSvc defines write operations for whitelabel agencies.
// All methods are restricted to super admins at the handler layer.
type AgencyWriterSvc interface {
	CreateAgency(ctx context.Context, req dto.CreateAgencyRequest, creatorUserID string) (*domain.Agency, error)
	UpdateAgency(ctx context.Context, agencyID string, req dto.UpdateAgencyRequest, userID string) (*domain.Agency, error)

	// AssignWorkspace attaches a workspace to an agency. A workspace belongs
	// to at most one agency.
	AssignWorkspace(ctx context.Context, agencyID, workspaceID, userID string) error

	// DetachWorkspace removes a workspace from its agency.
	DetachWorkspace(ctx context.Context, agencyID, workspaceID, userID string) error
}

// AgencySvcFacade combines all agency-related service interfaces
type AgencySvcFacade interface {
	AgencyReaderSvc
	AgencyWriterSvc
}
