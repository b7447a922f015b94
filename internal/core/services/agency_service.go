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
	"github.com/nextfact/crm_billing_app/internal/dto"
)

// agencyService implements the AgencySvcFacade interface. Write operations are
// reached only through super-admin guarded routes; workspace-level roles do
// not apply here.
type agencyService struct {
	BaseService
	agencyRepo    portsrepo.AgencyRepositoryFacade
	workspaceRepo portsrepo.WorkspaceRepositoryFacade
}

// NewAgencyService creates a new agency service with the provided dependencies
func NewAgencyService(agencyRepo portsrepo.AgencyRepositoryFacade, workspaceRepo portsrepo.WorkspaceRepositoryFacade) portssvc.AgencySvcFacade {
	return &agencyService{
		agencyRepo:    agencyRepo,
		workspaceRepo: workspaceRepo,
	}
}

var _ portssvc.AgencySvcFacade = (*agencyService)(nil)

// GetAgency retrieves an agency by ID
func (s *agencyService) GetAgency(ctx context.Context, agencyID string) (*domain.Agency, error) {
	agency, err := s.agencyRepo.FindAgencyByID(ctx, agencyID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find agency", slog.String("agency_id", agencyID))
		}
		return nil, err
	}
	return agency, nil
}

// ListAgencies retrieves all agencies
func (s *agencyService) ListAgencies(ctx context.Context) ([]domain.Agency, error) {
	agencies, err := s.agencyRepo.ListAgencies(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list agencies")
		return nil, err
	}
	if agencies == nil {
		return []domain.Agency{}, nil
	}
	return agencies, nil
}

// ResolveBranding returns the branding that applies to a workspace. Workspaces
// without an active agency fall back to the platform default.
func (s *agencyService) ResolveBranding(ctx context.Context, workspaceID string) (domain.Branding, error) {
	branding, err := s.agencyRepo.FindBrandingForWorkspace(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.DefaultBranding, nil
		}
		s.LogError(ctx, err, "Failed to resolve branding", slog.String("workspace_id", workspaceID))
		return domain.Branding{}, err
	}
	if branding == nil {
		return domain.DefaultBranding, nil
	}
	return *branding, nil
}

// CreateAgency creates a whitelabel agency
func (s *agencyService) CreateAgency(ctx context.Context, req dto.CreateAgencyRequest, creatorUserID string) (*domain.Agency, error) {
	now := time.Now()
	agency := domain.Agency{
		AgencyID: uuid.NewString(),
		Name:     req.Name,
		IsActive: true,
		Branding: domain.Branding{
			BrandName:   req.BrandName,
			LogoURL:     req.LogoURL,
			AccentColor: req.AccentColor,
			FooterNote:  req.FooterNote,
		},
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if agency.BrandName == "" {
		agency.BrandName = req.Name
	}

	if err := s.agencyRepo.SaveAgency(ctx, agency); err != nil {
		s.LogError(ctx, err, "Failed to save agency")
		return nil, err
	}

	s.LogInfo(ctx, "Agency created", slog.String("agency_id", agency.AgencyID))
	return &agency, nil
}

// UpdateAgency applies partial changes to an agency
func (s *agencyService) UpdateAgency(ctx context.Context, agencyID string, req dto.UpdateAgencyRequest, userID string) (*domain.Agency, error) {
	agency, err := s.agencyRepo.FindAgencyByID(ctx, agencyID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		agency.Name = *req.Name
	}
	if req.BrandName != nil {
		agency.BrandName = *req.BrandName
	}
	if req.LogoURL != nil {
		agency.LogoURL = *req.LogoURL
	}
	if req.AccentColor != nil {
		agency.AccentColor = *req.AccentColor
	}
	if req.FooterNote != nil {
		agency.FooterNote = *req.FooterNote
	}
	if req.IsActive != nil {
		agency.IsActive = *req.IsActive
	}
	agency.LastUpdatedAt = time.Now()
	agency.LastUpdatedBy = userID

	if err := s.agencyRepo.UpdateAgency(ctx, *agency); err != nil {
		s.LogError(ctx, err, "Failed to update agency", slog.String("agency_id", agencyID))
		return nil, err
	}
	return agency, nil
}

// AssignWorkspace attaches a workspace to an agency
func (s *agencyService) AssignWorkspace(ctx context.Context, agencyID, workspaceID, userID string) error {
	agency, err := s.agencyRepo.FindAgencyByID(ctx, agencyID)
	if err != nil {
		return err
	}
	if !agency.IsActive {
		return apperrors.NewValidationFailedError("cannot assign workspaces to an inactive agency")
	}

	workspace, err := s.workspaceRepo.FindWorkspaceByID(ctx, workspaceID)
	if err != nil {
		return err
	}
	if workspace.AgencyID != nil && *workspace.AgencyID != agencyID {
		return apperrors.NewConflictError("workspace already belongs to another agency")
	}

	if err := s.agencyRepo.AssignWorkspace(ctx, agencyID, workspaceID, userID); err != nil {
		s.LogError(ctx, err, "Failed to assign workspace to agency",
			slog.String("agency_id", agencyID),
			slog.String("workspace_id", workspaceID))
		return err
	}

	s.LogInfo(ctx, "Workspace assigned to agency",
		slog.String("agency_id", agencyID),
		slog.String("workspace_id", workspaceID))
	return nil
}

// DetachWorkspace removes a workspace from its agency
func (s *agencyService) DetachWorkspace(ctx context.Context, agencyID, workspaceID, userID string) error {
	workspace, err := s.workspaceRepo.FindWorkspaceByID(ctx, workspaceID)
	if err != nil {
		return err
	}
	if workspace.AgencyID == nil || *workspace.AgencyID != agencyID {
		return apperrors.NewValidationFailedError("workspace does not belong to this agency")
	}

	if err := s.agencyRepo.DetachWorkspace(ctx, workspaceID, userID); err != nil {
		s.LogError(ctx, err, "Failed to detach workspace from agency",
			slog.String("agency_id", agencyID),
			slog.String("workspace_id", workspaceID))
		return err
	}
	return nil
}
