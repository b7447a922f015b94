package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portsrepo "github.com/nextfact/crm_billing_app/internal/core/ports/repositories"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/core/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
)

// MockInvoiceRepository is a mock type for the InvoiceRepositoryFacade interface
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindInvoiceByID(ctx context.Context, workspaceID, invoiceID string) (*domain.Invoice, error) {
	args := m.Called(ctx, workspaceID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindLineItemsByInvoiceID(ctx context.Context, invoiceID string) ([]domain.LineItem, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}

func (m *MockInvoiceRepository) ListInvoices(ctx context.Context, workspaceID string, filter portsrepo.InvoiceListFilter, limit int, nextToken *string) ([]domain.Invoice, *string, error) {
	args := m.Called(ctx, workspaceID, filter, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.Invoice), args.Get(1).(*string), args.Error(2)
}

func (m *MockInvoiceRepository) ListPaymentsByInvoiceID(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockInvoiceRepository) ListOverdueInvoices(ctx context.Context, now time.Time, limit int) ([]domain.Invoice, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice, items []domain.LineItem) error {
	args := m.Called(ctx, invoice, items)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveInvoiceInTx(ctx context.Context, tx pgx.Tx, invoice domain.Invoice, items []domain.LineItem) error {
	args := m.Called(ctx, tx, invoice, items)
	return args.Error(0)
}

func (m *MockInvoiceRepository) ReplaceLineItems(ctx context.Context, invoice domain.Invoice, items []domain.LineItem) error {
	args := m.Called(ctx, invoice, items)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateInvoiceStatus(ctx context.Context, invoice domain.Invoice, updatedByUserID string, now time.Time) error {
	args := m.Called(ctx, invoice, updatedByUserID, now)
	return args.Error(0)
}

func (m *MockInvoiceRepository) AddPaymentAndRecalc(ctx context.Context, payment domain.Payment) (*domain.Invoice, error) {
	args := m.Called(ctx, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) DeletePaymentAndRecalc(ctx context.Context, workspaceID, invoiceID, paymentID, updatedByUserID string) (*domain.Invoice, error) {
	args := m.Called(ctx, workspaceID, invoiceID, paymentID, updatedByUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) DeleteInvoiceDraft(ctx context.Context, workspaceID, invoiceID string) error {
	args := m.Called(ctx, workspaceID, invoiceID)
	return args.Error(0)
}

// --- Test Suite Setup ---

type InvoiceServiceTestSuite struct {
	suite.Suite
	mockRepo     *MockInvoiceRepository
	mockContacts *MockContactReader
	mockProducts *MockProductReader
	mockOutbox   *MockOutboxWriter
	mockSettings *MockSettingsService
	mockAgency   *MockAgencyReader
	service      portssvc.InvoiceSvcFacade
}

func (suite *InvoiceServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockInvoiceRepository)
	suite.mockContacts = new(MockContactReader)
	suite.mockProducts = new(MockProductReader)
	suite.mockOutbox = new(MockOutboxWriter)
	suite.mockSettings = new(MockSettingsService)
	suite.mockAgency = new(MockAgencyReader)
	suite.service = services.NewInvoiceService(
		suite.mockRepo,
		suite.mockContacts,
		suite.mockProducts,
		suite.mockOutbox,
		suite.mockSettings,
		suite.mockAgency,
		nil,
	)
}

// --- Test Cases ---

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_CatalogPricing() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	contactID := uuid.NewString()
	productID := uuid.NewString()

	req := dto.CreateInvoiceRequest{
		ContactID:    contactID,
		CurrencyCode: "EUR",
		Items: []dto.LineItemRequest{
			{ProductID: &productID, Quantity: dec("3")},
		},
	}

	suite.mockContacts.On("FindContactByID", ctx, workspaceID, contactID).
		Return(&domain.Contact{ContactID: contactID}, nil).Once()
	suite.mockProducts.On("FindProductsByIDs", ctx, workspaceID, []string{productID}).
		Return(map[string]domain.Product{
			productID: {ProductID: productID, Name: "Hosting", UnitPrice: dec("25"), TaxRate: dec("21"), IsActive: true},
		}, nil).Once()
	suite.mockSettings.On("NextDocumentNumber", ctx, workspaceID, domain.DocTypeInvoice, mock.AnythingOfType("int")).
		Return("FAC-2026-0010", nil).Once()
	suite.mockRepo.On("SaveInvoice", ctx, mock.AnythingOfType("domain.Invoice"), mock.MatchedBy(func(items []domain.LineItem) bool {
		return len(items) == 1 &&
			items[0].Description == "Hosting" &&
			items[0].UnitPrice.Equal(dec("25")) &&
			items[0].Subtotal.Equal(dec("75"))
	})).Return(nil).Once()

	invoice, err := suite.service.CreateInvoice(ctx, workspaceID, req, uuid.NewString())

	suite.Require().NoError(err)
	suite.Equal("FAC-2026-0010", invoice.Number)
	suite.Equal(domain.InvoiceDraft, invoice.Status)
	suite.True(invoice.Subtotal.Equal(dec("75")))
	suite.True(invoice.TaxTotal.Equal(dec("15.75")))
	suite.True(invoice.Total.Equal(dec("90.75")))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_InactiveProductRejected() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	contactID := uuid.NewString()
	productID := uuid.NewString()

	req := dto.CreateInvoiceRequest{
		ContactID: contactID,
		Items:     []dto.LineItemRequest{{ProductID: &productID, Quantity: dec("1")}},
	}

	suite.mockContacts.On("FindContactByID", ctx, workspaceID, contactID).
		Return(&domain.Contact{ContactID: contactID}, nil).Once()
	suite.mockProducts.On("FindProductsByIDs", ctx, workspaceID, []string{productID}).
		Return(map[string]domain.Product{
			productID: {ProductID: productID, Name: "Legacy plan", IsActive: false},
		}, nil).Once()

	invoice, err := suite.service.CreateInvoice(ctx, workspaceID, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(invoice)
	suite.True(errors.Is(err, apperrors.ErrValidation))
}

func (suite *InvoiceServiceTestSuite) TestSendInvoice_StampsDueDateFromSettings() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	invoiceID := uuid.NewString()
	userID := uuid.NewString()

	draft := &domain.Invoice{
		InvoiceID:   invoiceID,
		WorkspaceID: workspaceID,
		Number:      "FAC-2026-0011",
		ContactID:   uuid.NewString(),
		Status:      domain.InvoiceDraft,
		Total:       dec("100"),
		Version:     1,
	}

	suite.mockRepo.On("FindInvoiceByID", ctx, workspaceID, invoiceID).Return(draft, nil).Once()
	suite.mockSettings.On("GetSettings", ctx, workspaceID, userID).
		Return(&domain.InvoiceSettings{WorkspaceID: workspaceID, PaymentTermsDays: 14}, nil).Once()
	suite.mockRepo.On("UpdateInvoiceStatus", ctx, mock.AnythingOfType("domain.Invoice"), userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockAgency.On("ResolveBranding", ctx, workspaceID).Return(domain.DefaultBranding, nil).Once()
	suite.mockOutbox.On("Enqueue", ctx, mock.MatchedBy(func(event domain.OutboxEvent) bool {
		return event.EventType == domain.EventInvoiceSent
	})).Return(nil).Once()

	invoice, err := suite.service.SendInvoice(ctx, workspaceID, invoiceID, userID)

	suite.Require().NoError(err)
	suite.Equal(domain.InvoiceSent, invoice.Status)
	suite.Require().NotNil(invoice.DueDate)
	suite.WithinDuration(time.Now().AddDate(0, 0, 14), *invoice.DueDate, time.Minute)
	suite.Require().NotNil(invoice.SentAt)
	suite.mockSettings.AssertExpectations(suite.T())
}

func (suite *InvoiceServiceTestSuite) TestSendInvoice_KeepsExplicitDueDate() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	invoiceID := uuid.NewString()
	userID := uuid.NewString()
	due := time.Now().AddDate(0, 1, 0)

	draft := &domain.Invoice{
		InvoiceID:   invoiceID,
		WorkspaceID: workspaceID,
		Status:      domain.InvoiceDraft,
		DueDate:     &due,
		Version:     1,
	}

	suite.mockRepo.On("FindInvoiceByID", ctx, workspaceID, invoiceID).Return(draft, nil).Once()
	suite.mockRepo.On("UpdateInvoiceStatus", ctx, mock.AnythingOfType("domain.Invoice"), userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockAgency.On("ResolveBranding", ctx, workspaceID).Return(domain.DefaultBranding, nil).Once()
	suite.mockOutbox.On("Enqueue", ctx, mock.AnythingOfType("domain.OutboxEvent")).Return(nil).Once()

	invoice, err := suite.service.SendInvoice(ctx, workspaceID, invoiceID, userID)

	suite.Require().NoError(err)
	suite.Equal(due, *invoice.DueDate)
	suite.mockSettings.AssertNotCalled(suite.T(), "GetSettings", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestRecordPayment_FullCoverEmitsPaidEvent() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	invoiceID := uuid.NewString()
	userID := uuid.NewString()

	sent := &domain.Invoice{
		InvoiceID:   invoiceID,
		WorkspaceID: workspaceID,
		Number:      "FAC-2026-0012",
		Status:      domain.InvoiceSent,
		Total:       dec("100"),
	}
	paid := &domain.Invoice{
		InvoiceID:   invoiceID,
		WorkspaceID: workspaceID,
		Number:      "FAC-2026-0012",
		Status:      domain.InvoicePaid,
		Total:       dec("100"),
		AmountPaid:  dec("100"),
	}

	req := dto.RecordPaymentRequest{Amount: dec("100"), Method: domain.PaymentBankTransfer}

	suite.mockRepo.On("FindInvoiceByID", ctx, workspaceID, invoiceID).Return(sent, nil).Once()
	suite.mockRepo.On("AddPaymentAndRecalc", ctx, mock.MatchedBy(func(p domain.Payment) bool {
		return p.InvoiceID == invoiceID && p.Amount.Equal(dec("100")) && p.Method == domain.PaymentBankTransfer
	})).Return(paid, nil).Once()
	suite.mockOutbox.On("Enqueue", ctx, mock.MatchedBy(func(event domain.OutboxEvent) bool {
		return event.EventType == domain.EventInvoicePaid
	})).Return(nil).Once()

	updated, err := suite.service.RecordPayment(ctx, workspaceID, invoiceID, req, userID)

	suite.Require().NoError(err)
	suite.Equal(domain.InvoicePaid, updated.Status)
	suite.mockOutbox.AssertExpectations(suite.T())
}

func (suite *InvoiceServiceTestSuite) TestRecordPayment_PartialDoesNotEmit() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	invoiceID := uuid.NewString()

	sent := &domain.Invoice{InvoiceID: invoiceID, Status: domain.InvoiceSent, Total: dec("100")}
	partial := &domain.Invoice{InvoiceID: invoiceID, Status: domain.InvoiceSent, Total: dec("100"), AmountPaid: dec("40")}

	suite.mockRepo.On("FindInvoiceByID", ctx, workspaceID, invoiceID).Return(sent, nil).Once()
	suite.mockRepo.On("AddPaymentAndRecalc", ctx, mock.AnythingOfType("domain.Payment")).Return(partial, nil).Once()

	req := dto.RecordPaymentRequest{Amount: dec("40"), Method: domain.PaymentCash}
	updated, err := suite.service.RecordPayment(ctx, workspaceID, invoiceID, req, uuid.NewString())

	suite.Require().NoError(err)
	suite.Equal(domain.InvoiceSent, updated.Status)
	suite.mockOutbox.AssertNotCalled(suite.T(), "Enqueue", mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestRecordPayment_RejectsNonPositiveAmount() {
	ctx := context.Background()

	req := dto.RecordPaymentRequest{Amount: dec("0"), Method: domain.PaymentCash}
	updated, err := suite.service.RecordPayment(ctx, uuid.NewString(), uuid.NewString(), req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.True(errors.Is(err, apperrors.ErrValidation))
	suite.mockRepo.AssertNotCalled(suite.T(), "FindInvoiceByID", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestRecordPayment_RejectsDraftInvoice() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	invoiceID := uuid.NewString()

	suite.mockRepo.On("FindInvoiceByID", ctx, workspaceID, invoiceID).
		Return(&domain.Invoice{InvoiceID: invoiceID, Status: domain.InvoiceDraft}, nil).Once()

	req := dto.RecordPaymentRequest{Amount: dec("10"), Method: domain.PaymentCard}
	updated, err := suite.service.RecordPayment(ctx, workspaceID, invoiceID, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.True(errors.Is(err, apperrors.ErrValidation))
	suite.mockRepo.AssertNotCalled(suite.T(), "AddPaymentAndRecalc", mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestCancelInvoice_PaidRejected() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	invoiceID := uuid.NewString()

	suite.mockRepo.On("FindInvoiceByID", ctx, workspaceID, invoiceID).
		Return(&domain.Invoice{InvoiceID: invoiceID, Status: domain.InvoicePaid}, nil).Once()

	invoice, err := suite.service.CancelInvoice(ctx, workspaceID, invoiceID, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(invoice)
	suite.True(errors.Is(err, apperrors.ErrValidation))
}

func (suite *InvoiceServiceTestSuite) TestDeleteInvoice_OnlyDraft() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	invoiceID := uuid.NewString()

	suite.mockRepo.On("FindInvoiceByID", ctx, workspaceID, invoiceID).
		Return(&domain.Invoice{InvoiceID: invoiceID, Status: domain.InvoiceSent}, nil).Once()

	err := suite.service.DeleteInvoice(ctx, workspaceID, invoiceID, uuid.NewString())

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrValidation))
	suite.mockRepo.AssertNotCalled(suite.T(), "DeleteInvoiceDraft", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceServiceTestSuite))
}
