package repositories

import (
	"context"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// ContactReader defines read operations for contact data
type ContactReader interface {
	FindContactByID(ctx context.Context, workspaceID, contactID string) (*domain.Contact, error)

	// ListContacts retrieves a paginated list of contacts for a workspace using
	// token-based pagination. Returns the contacts and the next-page token.
	ListContacts(ctx context.Context, workspaceID string, limit int, nextToken *string) ([]domain.Contact, *string, error)
}

// ContactWriter defines write operations for contact data
type ContactWriter interface {
	SaveContact(ctx context.Context, contact domain.Contact) error
	UpdateContact(ctx context.Context, contact domain.Contact) error

	// ArchiveContact hides a contact from active lists without deleting it;
	// historical documents keep their reference.
	ArchiveContact(ctx context.Context, workspaceID, contactID, updatedByUserID string) error
}

// OpportunityReader defines read operations for opportunity data
type OpportunityReader interface {
	FindOpportunityByID(ctx context.Context, workspaceID, opportunityID string) (*domain.Opportunity, error)
	ListOpportunities(ctx context.Context, workspaceID string) ([]domain.Opportunity, error)
	ListOpportunitiesByContact(ctx context.Context, workspaceID, contactID string) ([]domain.Opportunity, error)
	ListOpportunitiesByStage(ctx context.Context, workspaceID string, stage domain.OpportunityStage) ([]domain.Opportunity, error)
}

// OpportunityWriter defines write operations for opportunity data
type OpportunityWriter interface {
	SaveOpportunity(ctx context.Context, opportunity domain.Opportunity) error
	UpdateOpportunity(ctx context.Context, opportunity domain.Opportunity) error
}

// ContactRepositoryFacade combines contact and opportunity repository interfaces;
// the two always live in the same store and are used together by the CRM side.
type ContactRepositoryFacade interface {
	ContactReader
	ContactWriter
	OpportunityReader
	OpportunityWriter
}
