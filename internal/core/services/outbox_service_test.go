package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/core/services"
)

// MockOutboxRepository is a mock type for the OutboxRepositoryFacade interface.
// It extends MockOutboxWriter with the reader side.
type MockOutboxRepository struct {
	MockOutboxWriter
}

func (m *MockOutboxRepository) ListFailedEvents(ctx context.Context, workspaceID string, limit int) ([]domain.OutboxEvent, error) {
	args := m.Called(ctx, workspaceID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OutboxEvent), args.Error(1)
}

// --- Test Suite Setup ---

type OutboxServiceTestSuite struct {
	suite.Suite
	mockOutbox     *MockOutboxRepository
	mockQuotations *MockQuotationRepository
	mockInvoices   *MockInvoiceRepository
	service        portssvc.OutboxSvcFacade
}

func (suite *OutboxServiceTestSuite) SetupTest() {
	suite.mockOutbox = new(MockOutboxRepository)
	suite.mockQuotations = new(MockQuotationRepository)
	suite.mockInvoices = new(MockInvoiceRepository)
	suite.service = services.NewOutboxService(
		suite.mockOutbox,
		suite.mockQuotations,
		suite.mockInvoices,
		nil, // analytics capture is optional
		nil,
	)
}

func pendingEvent(attempts int, payload string) domain.OutboxEvent {
	return domain.OutboxEvent{
		EventID:     uuid.NewString(),
		WorkspaceID: uuid.NewString(),
		EventType:   domain.EventQuotationSent,
		Payload:     json.RawMessage(payload),
		Status:      domain.OutboxPending,
		Attempts:    attempts,
	}
}

// --- Test Cases ---

func (suite *OutboxServiceTestSuite) TestProcessDue_DeliversClaimedEvents() {
	ctx := context.Background()
	now := time.Now()
	events := []domain.OutboxEvent{
		pendingEvent(1, `{"quotationID":"q1"}`),
		pendingEvent(1, `{"quotationID":"q2"}`),
	}

	suite.mockOutbox.On("ClaimDue", ctx, now, mock.AnythingOfType("int")).Return(events, nil).Once()
	suite.mockOutbox.On("MarkProcessed", ctx, events[0].EventID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockOutbox.On("MarkProcessed", ctx, events[1].EventID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	report, err := suite.service.ProcessDue(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(2, report.Processed)
	suite.Equal(0, report.Failed)
	suite.mockOutbox.AssertExpectations(suite.T())
}

func (suite *OutboxServiceTestSuite) TestProcessDue_FailureReschedulesWithBackoff() {
	ctx := context.Background()
	now := time.Now()
	// Broken payload makes delivery fail; first attempt reschedules after 30s.
	event := pendingEvent(1, `{broken`)

	suite.mockOutbox.On("ClaimDue", ctx, now, mock.AnythingOfType("int")).
		Return([]domain.OutboxEvent{event}, nil).Once()
	suite.mockOutbox.On("MarkFailedAttempt", ctx, event.EventID, mock.AnythingOfType("string"),
		now.Add(30*time.Second), false).Return(nil).Once()

	report, err := suite.service.ProcessDue(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(0, report.Processed)
	suite.Equal(1, report.Failed)
	suite.mockOutbox.AssertExpectations(suite.T())
	suite.mockOutbox.AssertNotCalled(suite.T(), "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *OutboxServiceTestSuite) TestProcessDue_FinalAttemptGoesTerminal() {
	ctx := context.Background()
	now := time.Now()
	event := pendingEvent(domain.OutboxMaxAttempts, `{broken`)

	suite.mockOutbox.On("ClaimDue", ctx, now, mock.AnythingOfType("int")).
		Return([]domain.OutboxEvent{event}, nil).Once()
	suite.mockOutbox.On("MarkFailedAttempt", ctx, event.EventID, mock.AnythingOfType("string"),
		mock.AnythingOfType("time.Time"), true).Return(nil).Once()

	report, err := suite.service.ProcessDue(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(1, report.Failed)
	suite.mockOutbox.AssertExpectations(suite.T())
}

func (suite *OutboxServiceTestSuite) TestExpireQuotations_EmitsPerQuotation() {
	ctx := context.Background()
	now := time.Now()
	expired := []domain.Quotation{
		{QuotationID: uuid.NewString(), WorkspaceID: uuid.NewString(), Number: "OFF-2026-0001"},
		{QuotationID: uuid.NewString(), WorkspaceID: uuid.NewString(), Number: "OFF-2026-0002"},
	}

	suite.mockQuotations.On("ExpireSentQuotations", ctx, now).Return(expired, nil).Once()
	suite.mockOutbox.On("Enqueue", ctx, mock.MatchedBy(func(event domain.OutboxEvent) bool {
		return event.EventType == domain.EventQuotationExpired
	})).Return(nil).Twice()

	report, err := suite.service.ExpireQuotations(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(2, report.Processed)
	suite.mockOutbox.AssertExpectations(suite.T())
}

func (suite *OutboxServiceTestSuite) TestRemindOverdueInvoices_EmitsPerInvoice() {
	ctx := context.Background()
	now := time.Now()
	due := now.AddDate(0, 0, -3)
	overdue := []domain.Invoice{
		{
			InvoiceID:   uuid.NewString(),
			WorkspaceID: uuid.NewString(),
			Number:      "FAC-2026-0001",
			Status:      domain.InvoiceSent,
			Total:       dec("100"),
			AmountPaid:  dec("30"),
			DueDate:     &due,
		},
	}

	suite.mockInvoices.On("ListOverdueInvoices", ctx, now, mock.AnythingOfType("int")).
		Return(overdue, nil).Once()
	suite.mockOutbox.On("Enqueue", ctx, mock.MatchedBy(func(event domain.OutboxEvent) bool {
		return event.EventType == domain.EventInvoiceOverdue
	})).Return(nil).Once()

	report, err := suite.service.RemindOverdueInvoices(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(1, report.Processed)
	suite.mockOutbox.AssertExpectations(suite.T())
}

func (suite *OutboxServiceTestSuite) TestRequeueFailedEvent_Delegates() {
	ctx := context.Background()
	eventID := uuid.NewString()

	suite.mockOutbox.On("RequeueFailed", ctx, eventID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.RequeueFailedEvent(ctx, uuid.NewString(), eventID, uuid.NewString())

	suite.Require().NoError(err)
	suite.mockOutbox.AssertExpectations(suite.T())
}

func TestOutboxServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OutboxServiceTestSuite))
}
