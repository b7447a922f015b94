package dto

import (
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// --- Contact DTOs ---

// CreateContactRequest defines data for creating a contact.
type CreateContactRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone"`
	CompanyName string `json:"companyName"`
	VATNumber   string `json:"vatNumber"`
	Notes       string `json:"notes"`
}

// UpdateContactRequest defines mutable contact fields; pointers distinguish
// "not provided" from zero values.
type UpdateContactRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Phone       *string `json:"phone"`
	CompanyName *string `json:"companyName"`
	VATNumber   *string `json:"vatNumber"`
	Notes       *string `json:"notes"`
}

// ContactResponse defines data returned for a contact.
type ContactResponse struct {
	ContactID   string    `json:"contactID"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	CompanyName string    `json:"companyName"`
	VATNumber   string    `json:"vatNumber"`
	Notes       string    `json:"notes"`
	IsArchived  bool      `json:"isArchived"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ToContactResponse converts domain.Contact to DTO.
func ToContactResponse(c *domain.Contact) ContactResponse {
	return ContactResponse{
		ContactID:   c.ContactID,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		CompanyName: c.CompanyName,
		VATNumber:   c.VATNumber,
		Notes:       c.Notes,
		IsArchived:  c.IsArchived,
		CreatedAt:   c.CreatedAt,
	}
}

// ListContactsResponse wraps a paginated contact list.
type ListContactsResponse struct {
	Contacts  []ContactResponse `json:"contacts"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToListContactsResponse converts contacts plus pagination token to DTO.
func ToListContactsResponse(contacts []domain.Contact, nextToken *string) ListContactsResponse {
	list := make([]ContactResponse, len(contacts))
	for i := range contacts {
		list[i] = ToContactResponse(&contacts[i])
	}
	return ListContactsResponse{Contacts: list, NextToken: nextToken}
}

// --- Opportunity DTOs ---

// CreateOpportunityRequest defines data for creating an opportunity.
type CreateOpportunityRequest struct {
	ContactID     string          `json:"contactID" binding:"required"`
	Title         string          `json:"title" binding:"required"`
	Value         decimal.Decimal `json:"value"`
	CurrencyCode  string          `json:"currencyCode" binding:"required,iso4217"`
	ExpectedClose *time.Time      `json:"expectedClose"`
}

// MoveOpportunityRequest requests a pipeline stage change.
type MoveOpportunityRequest struct {
	Stage domain.OpportunityStage `json:"stage" binding:"required,oneof=NEW QUALIFIED PROPOSAL WON LOST"`
}

// OpportunityResponse defines data returned for an opportunity.
type OpportunityResponse struct {
	OpportunityID string                  `json:"opportunityID"`
	ContactID     string                  `json:"contactID"`
	Title         string                  `json:"title"`
	Stage         domain.OpportunityStage `json:"stage"`
	Value         decimal.Decimal         `json:"value"`
	CurrencyCode  string                  `json:"currencyCode"`
	ExpectedClose *time.Time              `json:"expectedClose,omitempty"`
	ClosedAt      *time.Time              `json:"closedAt,omitempty"`
	CreatedAt     time.Time               `json:"createdAt"`
}

// ToOpportunityResponse converts domain.Opportunity to DTO.
func ToOpportunityResponse(o *domain.Opportunity) OpportunityResponse {
	return OpportunityResponse{
		OpportunityID: o.OpportunityID,
		ContactID:     o.ContactID,
		Title:         o.Title,
		Stage:         o.Stage,
		Value:         o.Value,
		CurrencyCode:  o.CurrencyCode,
		ExpectedClose: o.ExpectedClose,
		ClosedAt:      o.ClosedAt,
		CreatedAt:     o.CreatedAt,
	}
}
