package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/nextfact/crm_billing_app/internal/utils"
)

// dispatchBatchSize bounds how many events one dispatcher pass claims.
const dispatchBatchSize = 100

// followUpBatchSize bounds the overdue reminder scan.
const followUpBatchSize = 200

// outboxService implements the OutboxSvcFacade interface
type outboxService struct {
	BaseService
	outboxRepo    portsrepo.OutboxRepositoryFacade
	quotationRepo portsrepo.QuotationWriter
	invoiceRepo   portsrepo.InvoiceReader
	posthogClient *utils.PosthogClientWrapper
}

// NewOutboxService creates a new outbox service with the provided dependencies
func NewOutboxService(
	outboxRepo portsrepo.OutboxRepositoryFacade,
	quotationRepo portsrepo.QuotationWriter,
	invoiceRepo portsrepo.InvoiceReader,
	posthogClient *utils.PosthogClientWrapper,
	authorizer portssvc.WorkspaceAuthorizerSvc,
) portssvc.OutboxSvcFacade {
	return &outboxService{
		BaseService:   BaseService{WorkspaceAuthorizer: authorizer},
		outboxRepo:    outboxRepo,
		quotationRepo: quotationRepo,
		invoiceRepo:   invoiceRepo,
		posthogClient: posthogClient,
	}
}

var _ portssvc.OutboxSvcFacade = (*outboxService)(nil)

// ProcessDue claims due pending events and delivers each one. A delivery
// failure reschedules the event with backoff; the attempt that reaches the
// limit marks it FAILED for manual remediation.
func (s *outboxService) ProcessDue(ctx context.Context, now time.Time) (dto.DispatchReport, error) {
	var report dto.DispatchReport

	events, err := s.outboxRepo.ClaimDue(ctx, now, dispatchBatchSize)
	if err != nil {
		s.LogError(ctx, err, "Failed to claim due outbox events")
		return report, err
	}

	for _, event := range events {
		if err := s.deliver(ctx, event); err != nil {
			terminal := event.Attempts >= domain.OutboxMaxAttempts
			nextAttemptAt := now.Add(domain.OutboxBackoffAfter(event.Attempts))
			if markErr := s.outboxRepo.MarkFailedAttempt(ctx, event.EventID, err.Error(), nextAttemptAt, terminal); markErr != nil {
				s.LogError(ctx, markErr, "Failed to record outbox attempt failure", slog.String("event_id", event.EventID))
			}
			if terminal {
				s.LogError(ctx, err, "Outbox event exhausted its attempts",
					slog.String("event_id", event.EventID),
					slog.String("event_type", string(event.EventType)))
			}
			report.Failed++
			continue
		}

		if err := s.outboxRepo.MarkProcessed(ctx, event.EventID, time.Now()); err != nil {
			s.LogError(ctx, err, "Failed to mark outbox event processed", slog.String("event_id", event.EventID))
			report.Failed++
			continue
		}
		report.Processed++
	}

	if report.Processed > 0 || report.Failed > 0 {
		s.LogInfo(ctx, "Outbox dispatch pass finished",
			slog.Int("processed", report.Processed),
			slog.Int("failed", report.Failed))
	}
	return report, nil
}

// deliver hands one event to the configured sinks. Delivery is a structured
// log line plus an analytics capture; webhook fan-out hangs off the same spot.
func (s *outboxService) deliver(ctx context.Context, event domain.OutboxEvent) error {
	var payload map[string]any
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}

	s.LogInfo(ctx, "Delivering outbox event",
		slog.String("event_id", event.EventID),
		slog.String("event_type", string(event.EventType)),
		slog.String("workspace_id", event.WorkspaceID),
		slog.Int("attempt", event.Attempts))

	if s.posthogClient != nil {
		s.posthogClient.Enqueue(event.WorkspaceID, string(event.EventType), payload)
	}
	return nil
}

// ListFailedEvents surfaces terminal failures to workspace admins
func (s *outboxService) ListFailedEvents(ctx context.Context, workspaceID string, limit int, requestingUserID string) ([]domain.OutboxEvent, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleAdmin); err != nil {
		return nil, err
	}

	events, err := s.outboxRepo.ListFailedEvents(ctx, workspaceID, limit)
	if err != nil {
		s.LogError(ctx, err, "Failed to list failed outbox events", slog.String("workspace_id", workspaceID))
		return nil, err
	}
	if events == nil {
		return []domain.OutboxEvent{}, nil
	}
	return events, nil
}

// RequeueFailedEvent resets a FAILED event to pending with a fresh attempt budget
func (s *outboxService) RequeueFailedEvent(ctx context.Context, workspaceID, eventID, requestingUserID string) error {
	if err := s.AuthorizeUser(ctx, requestingUserID, workspaceID, domain.RoleAdmin); err != nil {
		return err
	}

	if err := s.outboxRepo.RequeueFailed(ctx, eventID, time.Now()); err != nil {
		s.LogError(ctx, err, "Failed to requeue outbox event", slog.String("event_id", eventID))
		return err
	}

	s.LogInfo(ctx, "Outbox event requeued", slog.String("event_id", eventID))
	return nil
}

// ExpireQuotations transitions sent quotations past their validity window to
// EXPIRED and emits quotation.expired for each
func (s *outboxService) ExpireQuotations(ctx context.Context, now time.Time) (dto.DispatchReport, error) {
	var report dto.DispatchReport

	expired, err := s.quotationRepo.ExpireSentQuotations(ctx, now)
	if err != nil {
		s.LogError(ctx, err, "Failed to expire quotations")
		return report, err
	}

	for _, quotation := range expired {
		event, err := newOutboxEvent(quotation.WorkspaceID, domain.EventQuotationExpired, map[string]any{
			"quotationID": quotation.QuotationID,
			"number":      quotation.Number,
			"contactID":   quotation.ContactID,
			"validUntil":  quotation.ValidUntil,
		}, now)
		if err != nil {
			report.Failed++
			continue
		}
		if err := s.outboxRepo.Enqueue(ctx, event); err != nil {
			s.LogError(ctx, err, "Failed to enqueue expiry event", slog.String("quotation_id", quotation.QuotationID))
			report.Failed++
			continue
		}
		report.Processed++
	}

	if report.Processed > 0 {
		s.LogInfo(ctx, "Quotations expired", slog.Int("count", report.Processed))
	}
	return report, nil
}

// RemindOverdueInvoices emits invoice.overdue for unpaid invoices past their
// due date. The repository query excludes invoices already reminded today, so
// each invoice gets at most one reminder per day.
func (s *outboxService) RemindOverdueInvoices(ctx context.Context, now time.Time) (dto.DispatchReport, error) {
	var report dto.DispatchReport

	overdue, err := s.invoiceRepo.ListOverdueInvoices(ctx, now, followUpBatchSize)
	if err != nil {
		s.LogError(ctx, err, "Failed to list overdue invoices")
		return report, err
	}

	for _, invoice := range overdue {
		event, err := newOutboxEvent(invoice.WorkspaceID, domain.EventInvoiceOverdue, map[string]any{
			"invoiceID": invoice.InvoiceID,
			"number":    invoice.Number,
			"contactID": invoice.ContactID,
			"dueDate":   invoice.DueDate,
			"amountDue": invoice.AmountDue(),
		}, now)
		if err != nil {
			report.Failed++
			continue
		}
		if err := s.outboxRepo.Enqueue(ctx, event); err != nil {
			s.LogError(ctx, err, "Failed to enqueue overdue reminder", slog.String("invoice_id", invoice.InvoiceID))
			report.Failed++
			continue
		}
		report.Processed++
	}

	if report.Processed > 0 {
		s.LogInfo(ctx, "Overdue reminders queued", slog.Int("count", report.Processed))
	}
	return report, nil
}
