package services

import (
	"context"
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/nextfact/crm_billing_app/internal/dto"
)

// RecurringReaderSvc defines read operations for recurring templates
type RecurringReaderSvc interface {
	GetTemplate(ctx context.Context, workspaceID, templateID, requestingUserID string) (*domain.RecurringTemplate, []domain.TemplateLineItem, error)
	ListTemplates(ctx context.Context, workspaceID string, includeInactive bool, requestingUserID string) ([]domain.RecurringTemplate, error)
}

// RecurringWriterSvc defines write operations for recurring templates
type RecurringWriterSvc interface {
	CreateTemplate(ctx context.Context, workspaceID string, req dto.CreateRecurringTemplateRequest, creatorUserID string) (*domain.RecurringTemplate, error)
	UpdateTemplate(ctx context.Context, workspaceID, templateID string, req dto.UpdateRecurringTemplateRequest, userID string) (*domain.RecurringTemplate, error)

	// PauseTemplate deactivates a template without losing its schedule.
	PauseTemplate(ctx context.Context, workspaceID, templateID, userID string) error

	// ResumeTemplate reactivates a paused template. When its nextRunDate is in
	// the past it is advanced to the next future occurrence.
	ResumeTemplate(ctx context.Context, workspaceID, templateID, userID string) error
}

// RecurringGeneratorSvc runs the scheduled invoice generation pass
type RecurringGeneratorSvc interface {
	// RunDueTemplates claims templates whose nextRunDate has arrived and
	// generates one draft (or auto-sent) invoice per template. A failure on
	// one template does not block the rest; the report counts both outcomes.
	RunDueTemplates(ctx context.Context, now time.Time) (dto.DispatchReport, error)
}

// RecurringSvcFacade combines all recurring-template service interfaces
type RecurringSvcFacade interface {
	RecurringReaderSvc
	RecurringWriterSvc
	RecurringGeneratorSvc
}
