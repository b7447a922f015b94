package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	WorkspaceRepo  WorkspaceRepositoryFacade
	UserRepo       UserRepositoryFacade
	AgencyRepo     AgencyRepositoryFacade
	ContactRepo    ContactRepositoryFacade
	ProductRepo    ProductRepositoryFacade
	QuotationRepo  QuotationRepositoryFacade
	InvoiceRepo    InvoiceRepositoryFacade
	CreditNoteRepo CreditNoteRepositoryFacade
	RecurringRepo  RecurringRepositoryWithTx
	SettingsRepo   SettingsRepositoryFacade
	OutboxRepo     OutboxRepositoryFacade
}
