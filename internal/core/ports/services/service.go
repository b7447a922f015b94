package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	User       UserSvcFacade
	Token      TokenSvcFacade
	OAuth      GoogleOAuthHandlerSvcFacade
	Workspace  WorkspaceSvcFacade
	Agency     AgencySvcFacade
	Contact    ContactSvcFacade
	Product    ProductSvcFacade
	Quotation  QuotationSvcFacade
	Invoice    InvoiceSvcFacade
	CreditNote CreditNoteSvcFacade
	Recurring  RecurringSvcFacade
	Outbox     OutboxSvcFacade
	Settings   SettingsSvcFacade
}
