package services

import (
	"context"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/nextfact/crm_billing_app/internal/dto"
)

// ContactReaderSvc defines read operations for contacts
type ContactReaderSvc interface {
	GetContact(ctx context.Context, workspaceID, contactID, requestingUserID string) (*domain.Contact, error)
	ListContacts(ctx context.Context, workspaceID string, includeArchived bool, limit int, nextToken *string, requestingUserID string) ([]domain.Contact, *string, error)
}

// ContactWriterSvc defines write operations for contacts
type ContactWriterSvc interface {
	CreateContact(ctx context.Context, workspaceID string, req dto.CreateContactRequest, creatorUserID string) (*domain.Contact, error)
	UpdateContact(ctx context.Context, workspaceID, contactID string, req dto.UpdateContactRequest, userID string) (*domain.Contact, error)

	// ArchiveContact hides a contact from default lists. Archived contacts
	// stay referenceable from existing documents.
	ArchiveContact(ctx context.Context, workspaceID, contactID, userID string) error
}

// OpportunitySvc defines operations for the sales pipeline
type OpportunitySvc interface {
	CreateOpportunity(ctx context.Context, workspaceID string, req dto.CreateOpportunityRequest, creatorUserID string) (*domain.Opportunity, error)
	ListOpportunities(ctx context.Context, workspaceID string, stage *domain.OpportunityStage, requestingUserID string) ([]domain.Opportunity, error)

	// MoveOpportunity advances an opportunity to the requested pipeline stage.
	// Closed opportunities (WON/LOST) cannot move again.
	MoveOpportunity(ctx context.Context, workspaceID, opportunityID string, stage domain.OpportunityStage, userID string) (*domain.Opportunity, error)
}

// ContactSvcFacade combines all contact-related service interfaces
type ContactSvcFacade interface {
	ContactReaderSvc
	ContactWriterSvc
	OpportunitySvc
}
