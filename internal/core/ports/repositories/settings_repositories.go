package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// NumberAllocator hands out per-workspace, per-document-type sequence numbers.
// Implementations must perform the increment-and-read as a single atomic
// statement (UPDATE ... RETURNING); a separate read-then-write would hand the
// same number to concurrent callers.
type NumberAllocator interface {
	// AllocateNumber returns the next sequence for the document type, creating
	// the settings row with defaults on first use.
	AllocateNumber(ctx context.Context, workspaceID string, docType domain.DocumentType) (int64, error)

	// AllocateNumberInTx allocates within a caller-managed transaction, used by
	// conversion and the recurring generator so the number and the document
	// commit together.
	AllocateNumberInTx(ctx context.Context, tx pgx.Tx, workspaceID string, docType domain.DocumentType) (int64, error)
}

// SettingsReader defines read operations for invoice settings
type SettingsReader interface {
	// GetOrCreateSettings fetches a workspace's settings, inserting the
	// defaults row if none exists yet.
	GetOrCreateSettings(ctx context.Context, workspaceID, createdByUserID string) (*domain.InvoiceSettings, error)
}

// SettingsWriter defines write operations for invoice settings
type SettingsWriter interface {
	UpdateSettings(ctx context.Context, settings domain.InvoiceSettings) error
}

// SettingsRepositoryFacade combines settings access and number allocation
type SettingsRepositoryFacade interface {
	SettingsReader
	SettingsWriter
	NumberAllocator
}
