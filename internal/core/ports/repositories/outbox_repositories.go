package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// OutboxWriter defines write operations for the outbox queue
type OutboxWriter interface {
	// Enqueue persists a pending event.
	Enqueue(ctx context.Context, event domain.OutboxEvent) error

	// EnqueueInTx persists an event inside the transaction that produced it,
	// so the event exists iff the producing write committed.
	EnqueueInTx(ctx context.Context, tx pgx.Tx, event domain.OutboxEvent) error

	// ClaimDue atomically claims up to limit pending events whose
	// next_attempt_at has passed, bumping their attempt counter. Claims use
	// FOR UPDATE SKIP LOCKED so concurrent dispatcher runs never double-claim.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxEvent, error)

	// MarkProcessed records successful delivery.
	MarkProcessed(ctx context.Context, eventID string, now time.Time) error

	// MarkFailedAttempt records a failed delivery attempt. Events at the max
	// attempt count go terminal FAILED; otherwise next_attempt_at is set per
	// the backoff schedule.
	MarkFailedAttempt(ctx context.Context, eventID string, attemptErr string, nextAttemptAt time.Time, terminal bool) error

	// RequeueFailed resets a terminal FAILED event for another delivery cycle
	// (manual remediation path).
	RequeueFailed(ctx context.Context, eventID string, now time.Time) error
}

// OutboxReader defines read operations for the outbox queue
type OutboxReader interface {
	// ListFailedEvents surfaces terminal failures for manual inspection.
	ListFailedEvents(ctx context.Context, workspaceID string, limit int) ([]domain.OutboxEvent, error)
}

// OutboxRepositoryFacade combines all outbox repository interfaces
type OutboxRepositoryFacade interface {
	OutboxReader
	OutboxWriter
}
