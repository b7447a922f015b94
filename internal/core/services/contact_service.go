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

// contactService implements the ContactSvcFacade interface
type contactService struct {
	BaseService
	contactRepo portsrepo.ContactRepositoryFacade
}

// NewContactService creates a new contact service with the provided dependencies
func NewContactService(contactRepo portsrepo.ContactRepositoryFacade, authorizer portssvc.WorkspaceAuthorizerSvc) portssvc.ContactSvcFacade {
	return &contactService{
		BaseService: BaseService{WorkspaceAuthorizer: authorizer},
		contactRepo: contactRepo,
	}
}

var _ portssvc.ContactSvcFacade = (*contactService)(nil)

// GetContact retrieves a contact by ID
func (s *contactService) GetContact(ctx context.Context, workspaceID, contactID, requestingUserID string) (*domain.Contact, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	contact, err := s.contactRepo.FindContactByID(ctx, workspaceID, contactID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find contact", slog.String("contact_id", contactID))
		}
		return nil, err
	}
	return contact, nil
}

// ListContacts retrieves a paginated list of contacts for a workspace
func (s *contactService) ListContacts(ctx context.Context, workspaceID string, includeArchived bool, limit int, nextToken *string, requestingUserID string) ([]domain.Contact, *string, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, nil, err
	}

	contacts, token, err := s.contactRepo.ListContacts(ctx, workspaceID, limit, nextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list contacts", slog.String("workspace_id", workspaceID))
		return nil, nil, err
	}

	if !includeArchived {
		filtered := contacts[:0]
		for _, c := range contacts {
			if !c.IsArchived {
				filtered = append(filtered, c)
			}
		}
		contacts = filtered
	}

	return contacts, token, nil
}

// CreateContact creates a contact in the workspace
func (s *contactService) CreateContact(ctx context.Context, workspaceID string, req dto.CreateContactRequest, creatorUserID string) (*domain.Contact, error) {
	if err := s.AuthorizeUser(ctx, creatorUserID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	now := time.Now()
	contact := domain.Contact{
		ContactID:   uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
		VATNumber:   req.VATNumber,
		Notes:       req.Notes,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.contactRepo.SaveContact(ctx, contact); err != nil {
		s.LogError(ctx, err, "Failed to save contact", slog.String("workspace_id", workspaceID))
		return nil, err
	}

	s.LogInfo(ctx, "Contact created", slog.String("contact_id", contact.ContactID))
	return &contact, nil
}

// UpdateContact applies partial changes to a contact
func (s *contactService) UpdateContact(ctx context.Context, workspaceID, contactID string, req dto.UpdateContactRequest, userID string) (*domain.Contact, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	contact, err := s.contactRepo.FindContactByID(ctx, workspaceID, contactID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.CompanyName != nil {
		contact.CompanyName = *req.CompanyName
	}
	if req.VATNumber != nil {
		contact.VATNumber = *req.VATNumber
	}
	if req.Notes != nil {
		contact.Notes = *req.Notes
	}
	contact.LastUpdatedAt = time.Now()
	contact.LastUpdatedBy = userID

	if err := s.contactRepo.UpdateContact(ctx, *contact); err != nil {
		s.LogError(ctx, err, "Failed to update contact", slog.String("contact_id", contactID))
		return nil, err
	}
	return contact, nil
}

// ArchiveContact hides a contact from default lists
func (s *contactService) ArchiveContact(ctx context.Context, workspaceID, contactID, userID string) error {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return err
	}

	if err := s.contactRepo.ArchiveContact(ctx, workspaceID, contactID, userID); err != nil {
		s.LogError(ctx, err, "Failed to archive contact", slog.String("contact_id", contactID))
		return err
	}

	s.LogInfo(ctx, "Contact archived", slog.String("contact_id", contactID))
	return nil
}

// CreateOpportunity creates an opportunity in the NEW stage
func (s *contactService) CreateOpportunity(ctx context.Context, workspaceID string, req dto.CreateOpportunityRequest, creatorUserID string) (*domain.Opportunity, error) {
	if err := s.AuthorizeUser(ctx, creatorUserID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	// The contact must exist in this workspace.
	if _, err := s.contactRepo.FindContactByID(ctx, workspaceID, req.ContactID); err != nil {
		return nil, err
	}

	now := time.Now()
	opp := domain.Opportunity{
		OpportunityID: uuid.NewString(),
		WorkspaceID:   workspaceID,
		ContactID:     req.ContactID,
		Title:         req.Title,
		Stage:         domain.StageNew,
		Value:         req.Value,
		CurrencyCode:  req.CurrencyCode,
		ExpectedClose: req.ExpectedClose,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.contactRepo.SaveOpportunity(ctx, opp); err != nil {
		s.LogError(ctx, err, "Failed to save opportunity", slog.String("workspace_id", workspaceID))
		return nil, err
	}

	s.LogInfo(ctx, "Opportunity created", slog.String("opportunity_id", opp.OpportunityID))
	return &opp, nil
}

// ListOpportunities retrieves opportunities, optionally filtered by stage
func (s *contactService) ListOpportunities(ctx context.Context, workspaceID string, stage *domain.OpportunityStage, requestingUserID string) ([]domain.Opportunity, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	var (
		opportunities []domain.Opportunity
		err           error
	)
	if stage != nil {
		opportunities, err = s.contactRepo.ListOpportunitiesByStage(ctx, workspaceID, *stage)
	} else {
		opportunities, err = s.contactRepo.ListOpportunities(ctx, workspaceID)
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to list opportunities", slog.String("workspace_id", workspaceID))
		return nil, err
	}
	if opportunities == nil {
		return []domain.Opportunity{}, nil
	}
	return opportunities, nil
}

// MoveOpportunity advances an opportunity to the requested pipeline stage
func (s *contactService) MoveOpportunity(ctx context.Context, workspaceID, opportunityID string, stage domain.OpportunityStage, userID string) (*domain.Opportunity, error) {
	if err := s.AuthorizeUser(ctx, userID, workspaceID, domain.RoleMember); err != nil {
		return nil, err
	}

	opp, err := s.contactRepo.FindOpportunityByID(ctx, workspaceID, opportunityID)
	if err != nil {
		return nil, err
	}

	if err := opp.CanMoveTo(stage); err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}

	now := time.Now()
	opp.Stage = stage
	if stage == domain.StageWon || stage == domain.StageLost {
		opp.ClosedAt = &now
	}
	opp.LastUpdatedAt = now
	opp.LastUpdatedBy = userID

	if err := s.contactRepo.UpdateOpportunity(ctx, *opp); err != nil {
		s.LogError(ctx, err, "Failed to move opportunity", slog.String("opportunity_id", opportunityID))
		return nil, err
	}

	s.LogInfo(ctx, "Opportunity moved",
		slog.String("opportunity_id", opportunityID),
		slog.String("stage", string(stage)))
	return opp, nil
}
