package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func timePtr(t time.Time) *time.Time { return &t }

func strPtr(s string) *string { return &s }

func TestQuotation_CanTransitionTo(t *testing.T) {
	allStatuses := []domain.QuotationStatus{
		domain.QuotationDraft, domain.QuotationSent, domain.QuotationAccepted,
		domain.QuotationRejected, domain.QuotationExpired,
	}
	allowed := map[domain.QuotationStatus][]domain.QuotationStatus{
		domain.QuotationDraft: {domain.QuotationSent},
		domain.QuotationSent:  {domain.QuotationAccepted, domain.QuotationRejected, domain.QuotationExpired},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			q := domain.Quotation{Status: from}
			err := q.CanTransitionTo(to)

			isAllowed := false
			for _, a := range allowed[from] {
				if a == to {
					isAllowed = true
				}
			}
			if isAllowed {
				assert.NoError(t, err, "%s -> %s should be allowed", from, to)
			} else {
				var invalid *domain.InvalidTransitionError
				assert.Error(t, err, "%s -> %s should be rejected", from, to)
				assert.True(t, errors.As(err, &invalid))
				assert.Equal(t, string(from), invalid.From)
				assert.Equal(t, string(to), invalid.To)
			}
		}
	}
}

func TestInvoice_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    domain.InvoiceStatus
		to      domain.InvoiceStatus
		wantErr bool
	}{
		{domain.InvoiceDraft, domain.InvoiceSent, false},
		{domain.InvoiceDraft, domain.InvoicePaid, true},
		{domain.InvoiceSent, domain.InvoiceViewed, false},
		{domain.InvoiceSent, domain.InvoicePaid, false},
		{domain.InvoiceSent, domain.InvoiceCancelled, false},
		{domain.InvoiceViewed, domain.InvoicePaid, false},
		{domain.InvoiceViewed, domain.InvoiceCancelled, false},
		{domain.InvoiceViewed, domain.InvoiceSent, true},
		{domain.InvoicePaid, domain.InvoiceCancelled, true},
		{domain.InvoiceCancelled, domain.InvoiceSent, true},
		// OVERDUE is derived, never a stored transition target.
		{domain.InvoiceSent, domain.InvoiceOverdue, true},
	}

	for _, tc := range tests {
		inv := domain.Invoice{Status: tc.from}
		err := inv.CanTransitionTo(tc.to)
		if tc.wantErr {
			assert.Error(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestCreditNote_CanTransitionTo(t *testing.T) {
	cn := domain.CreditNote{Status: domain.CreditNoteDraft}
	assert.NoError(t, cn.CanTransitionTo(domain.CreditNoteIssued))
	assert.Error(t, cn.CanTransitionTo(domain.CreditNoteApplied))

	cn.Status = domain.CreditNoteIssued
	assert.NoError(t, cn.CanTransitionTo(domain.CreditNoteApplied))
	assert.NoError(t, cn.CanTransitionTo(domain.CreditNoteRefunded))
	assert.NoError(t, cn.CanTransitionTo(domain.CreditNoteCancelled))

	cn.Status = domain.CreditNoteCancelled
	assert.Error(t, cn.CanTransitionTo(domain.CreditNoteIssued))
}

func TestInvoice_EffectiveStatus(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	pastDue := timePtr(now.AddDate(0, 0, -3))
	futureDue := timePtr(now.AddDate(0, 0, 3))

	tests := []struct {
		name    string
		invoice domain.Invoice
		want    domain.InvoiceStatus
	}{
		{"sent past due reads overdue", domain.Invoice{Status: domain.InvoiceSent, DueDate: pastDue}, domain.InvoiceOverdue},
		{"viewed past due reads overdue", domain.Invoice{Status: domain.InvoiceViewed, DueDate: pastDue}, domain.InvoiceOverdue},
		{"sent before due stays sent", domain.Invoice{Status: domain.InvoiceSent, DueDate: futureDue}, domain.InvoiceSent},
		{"paid past due stays paid", domain.Invoice{Status: domain.InvoicePaid, DueDate: pastDue}, domain.InvoicePaid},
		{"cancelled past due stays cancelled", domain.Invoice{Status: domain.InvoiceCancelled, DueDate: pastDue}, domain.InvoiceCancelled},
		{"draft past due stays draft", domain.Invoice{Status: domain.InvoiceDraft, DueDate: pastDue}, domain.InvoiceDraft},
		{"no due date never overdue", domain.Invoice{Status: domain.InvoiceSent}, domain.InvoiceSent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.invoice.EffectiveStatus(now))
		})
	}
}

func TestQuotation_IsConverted(t *testing.T) {
	q := domain.Quotation{}
	assert.False(t, q.IsConverted())

	q.ConvertedToInvoiceID = strPtr("")
	assert.False(t, q.IsConverted())

	q.ConvertedToInvoiceID = strPtr("inv-1")
	assert.True(t, q.IsConverted())
}

func TestRecurrenceFrequency_NextAfter(t *testing.T) {
	base := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	next, err := domain.FrequencyWeekly.NextAfter(base)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC), next)

	// Jan 31 + 1 month normalizes per time.AddDate.
	next, err = domain.FrequencyMonthly.NextAfter(base)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), next)

	next, err = domain.FrequencyQuarterly.NextAfter(base)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), next)

	next, err = domain.FrequencyYearly.NextAfter(base)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), next)

	_, err = domain.RecurrenceFrequency("DAILY").NextAfter(base)
	assert.Error(t, err)
}

func TestOutboxBackoffAfter(t *testing.T) {
	assert.Equal(t, 30*time.Second, domain.OutboxBackoffAfter(0))
	assert.Equal(t, 30*time.Second, domain.OutboxBackoffAfter(1))
	assert.Equal(t, 60*time.Second, domain.OutboxBackoffAfter(2))
	assert.Equal(t, 120*time.Second, domain.OutboxBackoffAfter(3))
	assert.Equal(t, 120*time.Second, domain.OutboxBackoffAfter(9))
}

func TestOutboxClaimLease_OutlivesBackoffSchedule(t *testing.T) {
	// A claim without a failure verdict (dispatcher crash) retries no sooner
	// than the slowest scheduled retry would.
	assert.GreaterOrEqual(t, domain.OutboxClaimLease, domain.OutboxBackoffAfter(9))
}

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "FAC-2024-0001", domain.FormatDocumentNumber("FAC", 2024, 1, 4))
	assert.Equal(t, "OFF-2024-0123", domain.FormatDocumentNumber("OFF", 2024, 123, 4))
	assert.Equal(t, "FAC-2024-10000", domain.FormatDocumentNumber("FAC", 2024, 10000, 4))
	// Zero padding falls back to the default.
	assert.Equal(t, "AVR-2025-0007", domain.FormatDocumentNumber("AVR", 2025, 7, 0))
}
