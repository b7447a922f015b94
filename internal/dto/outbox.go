package dto

import (
	"encoding/json"
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
)

// OutboxEventResponse surfaces an outbox event, used for the failed-event
// inspection endpoint.
type OutboxEventResponse struct {
	EventID       string                 `json:"eventID"`
	EventType     domain.OutboxEventType `json:"eventType"`
	Payload       json.RawMessage        `json:"payload"`
	Status        domain.OutboxStatus    `json:"status"`
	Attempts      int                    `json:"attempts"`
	NextAttemptAt time.Time              `json:"nextAttemptAt"`
	LastError     *string                `json:"lastError,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// ToOutboxEventResponses converts outbox events to DTOs.
func ToOutboxEventResponses(events []domain.OutboxEvent) []OutboxEventResponse {
	res := make([]OutboxEventResponse, len(events))
	for i, e := range events {
		res[i] = OutboxEventResponse{
			EventID:       e.EventID,
			EventType:     e.EventType,
			Payload:       e.Payload,
			Status:        e.Status,
			Attempts:      e.Attempts,
			NextAttemptAt: e.NextAttemptAt,
			LastError:     e.LastError,
			CreatedAt:     e.CreatedAt,
		}
	}
	return res
}

// DispatchReport summarises one dispatcher or generator run, returned by the
// cron trigger endpoints.
type DispatchReport struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}
