package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
)

type PgxOutboxRepository struct {
	db *pgxpool.Pool
}

func newPgxOutboxRepository(db *pgxpool.Pool) portsrepo.OutboxRepositoryFacade {
	return &PgxOutboxRepository{db: db}
}

// Ensure PgxOutboxRepository implements portsrepo.OutboxRepositoryFacade
var _ portsrepo.OutboxRepositoryFacade = (*PgxOutboxRepository)(nil)

const outboxColumns = `
	oe.event_id, oe.workspace_id, oe.event_type, oe.payload, oe.status,
	oe.attempts, oe.next_attempt_at, oe.last_error, oe.created_at, oe.processed_at`

var FULL_OUTBOX_SELECT_QUERY = `SELECT` + outboxColumns + `
FROM outbox_events oe
`

const insertOutboxQuery = `
	INSERT INTO outbox_events (
		event_id, workspace_id, event_type, payload, status,
		attempts, next_attempt_at, last_error, created_at, processed_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`

func (r *PgxOutboxRepository) Enqueue(ctx context.Context, event domain.OutboxEvent) error {
	return enqueueOutboxEvent(ctx, r.db, event)
}

func (r *PgxOutboxRepository) EnqueueInTx(ctx context.Context, tx pgx.Tx, event domain.OutboxEvent) error {
	return enqueueOutboxEvent(ctx, tx, event)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func enqueueOutboxEvent(ctx context.Context, q execer, event domain.OutboxEvent) error {
	if _, err := q.Exec(ctx, insertOutboxQuery,
		event.EventID,
		event.WorkspaceID,
		event.EventType,
		event.Payload,
		event.Status,
		event.Attempts,
		event.NextAttemptAt,
		event.LastError,
		event.CreatedAt,
		event.ProcessedAt,
	); err != nil {
		return apperrors.NewAppError(500, "failed to enqueue outbox event "+event.EventID, err)
	}
	return nil
}

// ClaimDue picks up pending events whose retry time has passed, bumping the
// attempt counter and pushing next_attempt_at past the claim lease in the
// same statement. The row locks end when this UPDATE auto-commits, so the
// lease, not the locks, is what keeps an overlapping dispatcher pass from
// re-claiming events still in flight; SKIP LOCKED only covers passes racing
// on the claim itself.
func (r *PgxOutboxRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		UPDATE outbox_events oe
		SET attempts = attempts + 1, next_attempt_at = $3
		WHERE oe.event_id IN (
			SELECT event_id FROM outbox_events
			WHERE status = 'PENDING' AND next_attempt_at <= $1
			ORDER BY next_attempt_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING` + outboxColumns + `;
	`
	rows, err := r.db.Query(ctx, query, now, limit, now.Add(domain.OutboxClaimLease))
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to claim outbox events", err)
	}
	defer rows.Close()
	events, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.OutboxEvent])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.OutboxEvent{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect claimed outbox rows", err)
	}
	return events, nil
}

func (r *PgxOutboxRepository) MarkProcessed(ctx context.Context, eventID string, now time.Time) error {
	query := `
		UPDATE outbox_events
		SET status = 'PROCESSED', processed_at = $1, last_error = NULL
		WHERE event_id = $2;
	`
	tag, err := r.db.Exec(ctx, query, now, eventID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark outbox event processed", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxOutboxRepository) MarkFailedAttempt(ctx context.Context, eventID string, attemptErr string, nextAttemptAt time.Time, terminal bool) error {
	var query string
	if terminal {
		query = `
			UPDATE outbox_events
			SET status = 'FAILED', last_error = $1
			WHERE event_id = $2;
		`
		tag, err := r.db.Exec(ctx, query, attemptErr, eventID)
		if err != nil {
			return apperrors.NewAppError(500, "failed to mark outbox event failed", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	}
	query = `
		UPDATE outbox_events
		SET last_error = $1, next_attempt_at = $2
		WHERE event_id = $3;
	`
	tag, err := r.db.Exec(ctx, query, attemptErr, nextAttemptAt, eventID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to record outbox attempt", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxOutboxRepository) RequeueFailed(ctx context.Context, eventID string, now time.Time) error {
	query := `
		UPDATE outbox_events
		SET status = 'PENDING', attempts = 0, next_attempt_at = $1, last_error = NULL
		WHERE event_id = $2 AND status = 'FAILED';
	`
	tag, err := r.db.Exec(ctx, query, now, eventID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to requeue outbox event", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("outbox event " + eventID + " is not in a failed state")
	}
	return nil
}

func (r *PgxOutboxRepository) ListFailedEvents(ctx context.Context, workspaceID string, limit int) ([]domain.OutboxEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := FULL_OUTBOX_SELECT_QUERY + `
		WHERE oe.workspace_id = $1 AND oe.status = 'FAILED'
		ORDER BY oe.created_at DESC
		LIMIT $2;
	`
	rows, err := r.db.Query(ctx, query, workspaceID, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query failed outbox events", err)
	}
	defer rows.Close()
	events, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.OutboxEvent])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.OutboxEvent{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect outbox rows", err)
	}
	return events, nil
}
