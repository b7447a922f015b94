package services

import (
	"context"
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/nextfact/crm_billing_app/internal/dto"
)

// OutboxDispatcherSvc drains the outbox table
type OutboxDispatcherSvc interface {
	// ProcessDue claims pending events whose nextAttemptAt has passed and
	// delivers each one. Delivery failures increment the attempt counter and
	// reschedule with backoff until the attempt limit marks the event failed.
	ProcessDue(ctx context.Context, now time.Time) (dto.DispatchReport, error)
}

// OutboxAdminSvc exposes failed-event inspection and replay
type OutboxAdminSvc interface {
	ListFailedEvents(ctx context.Context, workspaceID string, limit int, requestingUserID string) ([]domain.OutboxEvent, error)

	// RequeueFailedEvent resets a failed event to pending with a fresh
	// attempt budget.
	RequeueFailedEvent(ctx context.Context, workspaceID, eventID, requestingUserID string) error
}

// FollowUpSvc runs the scheduled document follow-up pass
type FollowUpSvc interface {
	// ExpireQuotations marks sent quotations past their validUntil date as
	// expired and emits quotation.expired for each.
	ExpireQuotations(ctx context.Context, now time.Time) (dto.DispatchReport, error)

	// RemindOverdueInvoices emits invoice.overdue for unpaid invoices past
	// their due date, at most once per invoice per day.
	RemindOverdueInvoices(ctx context.Context, now time.Time) (dto.DispatchReport, error)
}

// OutboxSvcFacade combines dispatcher, admin and follow-up interfaces
type OutboxSvcFacade interface {
	OutboxDispatcherSvc
	OutboxAdminSvc
	FollowUpSvc
}
