package domain

import (
	"encoding/json"
	"time"
)

// OutboxStatus is the delivery state of an outbox event.
type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "PENDING"
	OutboxProcessed OutboxStatus = "PROCESSED"
	// OutboxFailed is terminal: the event exhausted its attempts and awaits
	// manual remediation.
	OutboxFailed OutboxStatus = "FAILED"
)

// OutboxEventType names the domain events the platform emits.
type OutboxEventType string

const (
	EventQuotationSent     OutboxEventType = "quotation.sent"
	EventQuotationAccepted OutboxEventType = "quotation.accepted"
	EventQuotationExpired  OutboxEventType = "quotation.expired"
	EventInvoiceSent       OutboxEventType = "invoice.sent"
	EventInvoicePaid       OutboxEventType = "invoice.paid"
	EventInvoiceOverdue    OutboxEventType = "invoice.overdue"
	EventCreditNoteIssued  OutboxEventType = "credit_note.issued"
	EventRecurringStamped  OutboxEventType = "recurring.invoice_generated"
)

// OutboxMaxAttempts bounds delivery retries; after this the event goes FAILED.
const OutboxMaxAttempts = 4

// outboxBackoff is the fixed retry schedule. Attempt n (1-based) that fails
// schedules the next try after outboxBackoff[min(n, len)-1].
var outboxBackoff = []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second}

// OutboxClaimLease is how far a claim pushes next_attempt_at into the future.
// Claim-time row locks end with the claiming statement, so the lease is what
// keeps an overlapping dispatcher pass from re-claiming events still in
// flight. A claimed event whose dispatcher dies mid-delivery becomes
// claimable again once the lease expires.
const OutboxClaimLease = 2 * time.Minute

// OutboxBackoffAfter returns the delay before the next attempt, given how many
// attempts have already failed.
func OutboxBackoffAfter(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if attempts > len(outboxBackoff) {
		attempts = len(outboxBackoff)
	}
	return outboxBackoff[attempts-1]
}

// OutboxEvent is a persisted domain event awaiting at-least-once asynchronous
// processing (automations, notifications, webhooks).
type OutboxEvent struct {
	EventID       string          `json:"eventID" db:"event_id"`
	WorkspaceID   string          `json:"workspaceID" db:"workspace_id"`
	EventType     OutboxEventType `json:"eventType" db:"event_type"`
	Payload       json.RawMessage `json:"payload" db:"payload"`
	Status        OutboxStatus    `json:"status" db:"status"`
	Attempts      int             `json:"attempts" db:"attempts"`
	NextAttemptAt time.Time       `json:"nextAttemptAt" db:"next_attempt_at"`
	LastError     *string         `json:"lastError" db:"last_error"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	ProcessedAt   *time.Time      `json:"processedAt" db:"processed_at"`
}
