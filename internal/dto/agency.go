package dto

import (
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// CreateAgencyRequest defines data for creating a whitelabel agency.
type CreateAgencyRequest struct {
	Name        string `json:"name" binding:"required"`
	BrandName   string `json:"brandName"`
	LogoURL     string `json:"logoURL" binding:"omitempty,url"`
	AccentColor string `json:"accentColor" binding:"omitempty,hexcolor"`
	FooterNote  string `json:"footerNote"`
}

// UpdateAgencyRequest defines mutable agency fields.
type UpdateAgencyRequest struct {
	Name        *string `json:"name"`
	BrandName   *string `json:"brandName"`
	LogoURL     *string `json:"logoURL" binding:"omitempty,url"`
	AccentColor *string `json:"accentColor" binding:"omitempty,hexcolor"`
	FooterNote  *string `json:"footerNote"`
	IsActive    *bool   `json:"isActive"`
}

// AssignWorkspaceRequest attaches a workspace to an agency.
type AssignWorkspaceRequest struct {
	WorkspaceID string `json:"workspaceID" binding:"required"`
}

// AgencyResponse defines data returned for an agency.
type AgencyResponse struct {
	AgencyID    string    `json:"agencyID"`
	Name        string    `json:"name"`
	BrandName   string    `json:"brandName"`
	LogoURL     string    `json:"logoURL"`
	AccentColor string    `json:"accentColor"`
	FooterNote  string    `json:"footerNote"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ToAgencyResponse converts domain.Agency to DTO.
func ToAgencyResponse(a *domain.Agency) AgencyResponse {
	return AgencyResponse{
		AgencyID:    a.AgencyID,
		Name:        a.Name,
		BrandName:   a.BrandName,
		LogoURL:     a.LogoURL,
		AccentColor: a.AccentColor,
		FooterNote:  a.FooterNote,
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt,
	}
}
