package services

import (
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/utils"
	"github.com/nextfact/crm_billing_app/pkg/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, posthogClient *utils.PosthogClientWrapper) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Workspace goes first: every workspace-scoped service needs its authorizer.
	container.Workspace = NewWorkspaceService(repos.WorkspaceRepo)
	authorizer := container.Workspace.(portssvc.WorkspaceAuthorizerSvc)

	container.User = NewUserService(repos.UserRepo)
	container.Token = NewTokenService(cfg, container.User)
	container.OAuth = NewGoogleOAuthHandlerService(cfg)

	container.Agency = NewAgencyService(repos.AgencyRepo, repos.WorkspaceRepo)
	container.Contact = NewContactService(repos.ContactRepo, authorizer)
	container.Product = NewProductService(repos.ProductRepo, authorizer)
	container.Settings = NewSettingsService(repos.SettingsRepo, authorizer)

	container.Quotation = NewQuotationService(
		repos.QuotationRepo,
		repos.ContactRepo,
		repos.ProductRepo,
		repos.OutboxRepo,
		container.Settings,
		container.Agency,
		authorizer,
	)
	container.Invoice = NewInvoiceService(
		repos.InvoiceRepo,
		repos.ContactRepo,
		repos.ProductRepo,
		repos.OutboxRepo,
		container.Settings,
		container.Agency,
		authorizer,
	)
	container.CreditNote = NewCreditNoteService(
		repos.CreditNoteRepo,
		repos.InvoiceRepo,
		repos.ContactRepo,
		repos.OutboxRepo,
		container.Settings,
		authorizer,
	)
	container.Recurring = NewRecurringService(
		repos.RecurringRepo,
		repos.InvoiceRepo,
		repos.ContactRepo,
		repos.SettingsRepo,
		repos.OutboxRepo,
		container.Agency,
		authorizer,
	)
	container.Outbox = NewOutboxService(
		repos.OutboxRepo,
		repos.QuotationRepo,
		repos.InvoiceRepo,
		posthogClient,
		authorizer,
	)

	return container
}
