package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		WorkspaceRepo:  newPgxWorkspaceRepository(dbPool),
		UserRepo:       newPgxUserRepository(dbPool),
		AgencyRepo:     newPgxAgencyRepository(dbPool),
		ContactRepo:    newPgxContactRepository(dbPool),
		ProductRepo:    newPgxProductRepository(dbPool),
		QuotationRepo:  newPgxQuotationRepository(dbPool),
		InvoiceRepo:    newPgxInvoiceRepository(dbPool),
		CreditNoteRepo: newPgxCreditNoteRepository(dbPool),
		RecurringRepo:  newPgxRecurringRepository(dbPool),
		SettingsRepo:   newPgxSettingsRepository(dbPool),
		OutboxRepo:     newPgxOutboxRepository(dbPool),
	}
}
