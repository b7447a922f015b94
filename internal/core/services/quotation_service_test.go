package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/core/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
)

// MockQuotationRepository is a mock type for the QuotationRepositoryFacade interface
type MockQuotationRepository struct {
	mock.Mock
}

func (m *MockQuotationRepository) FindQuotationByID(ctx context.Context, workspaceID, quotationID string) (*domain.Quotation, error) {
	args := m.Called(ctx, workspaceID, quotationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quotation), args.Error(1)
}

func (m *MockQuotationRepository) FindLineItemsByQuotationID(ctx context.Context, quotationID string) ([]domain.LineItem, error) {
	args := m.Called(ctx, quotationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}

func (m *MockQuotationRepository) ListQuotations(ctx context.Context, workspaceID string, status *domain.QuotationStatus, limit int, nextToken *string) ([]domain.Quotation, *string, error) {
	args := m.Called(ctx, workspaceID, status, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.Quotation), args.Get(1).(*string), args.Error(2)
}

func (m *MockQuotationRepository) SaveQuotation(ctx context.Context, quotation domain.Quotation, items []domain.LineItem) error {
	args := m.Called(ctx, quotation, items)
	return args.Error(0)
}

func (m *MockQuotationRepository) ReplaceLineItems(ctx context.Context, quotation domain.Quotation, items []domain.LineItem) error {
	args := m.Called(ctx, quotation, items)
	return args.Error(0)
}

func (m *MockQuotationRepository) UpdateQuotationStatus(ctx context.Context, quotation domain.Quotation, updatedByUserID string, now time.Time) error {
	args := m.Called(ctx, quotation, updatedByUserID, now)
	return args.Error(0)
}

func (m *MockQuotationRepository) DeleteQuotationDraft(ctx context.Context, workspaceID, quotationID string) error {
	args := m.Called(ctx, workspaceID, quotationID)
	return args.Error(0)
}

func (m *MockQuotationRepository) ConvertToInvoice(ctx context.Context, quotation domain.Quotation, invoice domain.Invoice, items []domain.LineItem) error {
	args := m.Called(ctx, quotation, invoice, items)
	return args.Error(0)
}

func (m *MockQuotationRepository) ExpireSentQuotations(ctx context.Context, now time.Time) ([]domain.Quotation, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Quotation), args.Error(1)
}

// MockContactReader is a mock type for the ContactReader interface
type MockContactReader struct {
	mock.Mock
}

func (m *MockContactReader) FindContactByID(ctx context.Context, workspaceID, contactID string) (*domain.Contact, error) {
	args := m.Called(ctx, workspaceID, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactReader) ListContacts(ctx context.Context, workspaceID string, limit int, nextToken *string) ([]domain.Contact, *string, error) {
	args := m.Called(ctx, workspaceID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.Contact), args.Get(1).(*string), args.Error(2)
}

// MockProductReader is a mock type for the ProductReader interface
type MockProductReader struct {
	mock.Mock
}

func (m *MockProductReader) FindProductByID(ctx context.Context, workspaceID, productID string) (*domain.Product, error) {
	args := m.Called(ctx, workspaceID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductReader) FindProductsByIDs(ctx context.Context, workspaceID string, productIDs []string) (map[string]domain.Product, error) {
	args := m.Called(ctx, workspaceID, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Product), args.Error(1)
}

func (m *MockProductReader) ListProducts(ctx context.Context, workspaceID string, includeInactive bool, limit int, nextToken *string) ([]domain.Product, *string, error) {
	args := m.Called(ctx, workspaceID, includeInactive, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Get(1).(*string), args.Error(2)
}

// MockOutboxWriter is a mock type for the OutboxWriter interface
type MockOutboxWriter struct {
	mock.Mock
}

func (m *MockOutboxWriter) Enqueue(ctx context.Context, event domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOutboxWriter) EnqueueInTx(ctx context.Context, tx pgx.Tx, event domain.OutboxEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

func (m *MockOutboxWriter) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxEvent, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OutboxEvent), args.Error(1)
}

func (m *MockOutboxWriter) MarkProcessed(ctx context.Context, eventID string, now time.Time) error {
	args := m.Called(ctx, eventID, now)
	return args.Error(0)
}

func (m *MockOutboxWriter) MarkFailedAttempt(ctx context.Context, eventID string, attemptErr string, nextAttemptAt time.Time, terminal bool) error {
	args := m.Called(ctx, eventID, attemptErr, nextAttemptAt, terminal)
	return args.Error(0)
}

func (m *MockOutboxWriter) RequeueFailed(ctx context.Context, eventID string, now time.Time) error {
	args := m.Called(ctx, eventID, now)
	return args.Error(0)
}

// MockSettingsService is a mock type for the SettingsSvcFacade interface
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) GetSettings(ctx context.Context, workspaceID, requestingUserID string) (*domain.InvoiceSettings, error) {
	args := m.Called(ctx, workspaceID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceSettings), args.Error(1)
}

func (m *MockSettingsService) UpdateSettings(ctx context.Context, workspaceID string, req dto.UpdateInvoiceSettingsRequest, userID string) (*domain.InvoiceSettings, error) {
	args := m.Called(ctx, workspaceID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceSettings), args.Error(1)
}

func (m *MockSettingsService) NextDocumentNumber(ctx context.Context, workspaceID string, docType domain.DocumentType, year int) (string, error) {
	args := m.Called(ctx, workspaceID, docType, year)
	return args.String(0), args.Error(1)
}

// MockAgencyReader is a mock type for the AgencyReaderSvc interface
type MockAgencyReader struct {
	mock.Mock
}

func (m *MockAgencyReader) GetAgency(ctx context.Context, agencyID string) (*domain.Agency, error) {
	args := m.Called(ctx, agencyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agency), args.Error(1)
}

func (m *MockAgencyReader) ListAgencies(ctx context.Context) ([]domain.Agency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Agency), args.Error(1)
}

func (m *MockAgencyReader) ResolveBranding(ctx context.Context, workspaceID string) (domain.Branding, error) {
	args := m.Called(ctx, workspaceID)
	return args.Get(0).(domain.Branding), args.Error(1)
}

// --- Test Suite Setup ---

type QuotationServiceTestSuite struct {
	suite.Suite
	mockRepo     *MockQuotationRepository
	mockContacts *MockContactReader
	mockProducts *MockProductReader
	mockOutbox   *MockOutboxWriter
	mockSettings *MockSettingsService
	mockAgency   *MockAgencyReader
	service      portssvc.QuotationSvcFacade
}

func (suite *QuotationServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockQuotationRepository)
	suite.mockContacts = new(MockContactReader)
	suite.mockProducts = new(MockProductReader)
	suite.mockOutbox = new(MockOutboxWriter)
	suite.mockSettings = new(MockSettingsService)
	suite.mockAgency = new(MockAgencyReader)
	suite.service = services.NewQuotationService(
		suite.mockRepo,
		suite.mockContacts,
		suite.mockProducts,
		suite.mockOutbox,
		suite.mockSettings,
		suite.mockAgency,
		nil, // authorization is covered by the workspace service tests
	)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// --- Test Cases ---

func (suite *QuotationServiceTestSuite) TestCreateQuotation_Success() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	userID := uuid.NewString()
	contactID := uuid.NewString()

	req := dto.CreateQuotationRequest{
		ContactID:    contactID,
		CurrencyCode: "EUR",
		Items: []dto.LineItemRequest{
			{Description: "Consulting", Quantity: dec("2"), UnitPrice: decPtr("100"), TaxRate: decPtr("21")},
		},
	}

	suite.mockContacts.On("FindContactByID", ctx, workspaceID, contactID).
		Return(&domain.Contact{ContactID: contactID, WorkspaceID: workspaceID, Name: "Acme"}, nil).Once()
	suite.mockSettings.On("NextDocumentNumber", ctx, workspaceID, domain.DocTypeQuotation, mock.AnythingOfType("int")).
		Return("OFF-2026-0001", nil).Once()
	suite.mockRepo.On("SaveQuotation", ctx, mock.AnythingOfType("domain.Quotation"), mock.AnythingOfType("[]domain.LineItem")).
		Return(nil).Once()

	quotation, err := suite.service.CreateQuotation(ctx, workspaceID, req, userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(quotation)
	suite.NotEmpty(quotation.QuotationID)
	suite.Equal("OFF-2026-0001", quotation.Number)
	suite.Equal(domain.QuotationDraft, quotation.Status)
	suite.True(quotation.Subtotal.Equal(dec("200")))
	suite.True(quotation.TaxTotal.Equal(dec("42")))
	suite.True(quotation.Total.Equal(dec("242")))
	suite.Equal(userID, quotation.CreatedBy)
	suite.Equal(int64(1), quotation.Version)

	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockSettings.AssertExpectations(suite.T())
}

func (suite *QuotationServiceTestSuite) TestCreateQuotation_ArchivedContact() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	contactID := uuid.NewString()

	req := dto.CreateQuotationRequest{
		ContactID: contactID,
		Items: []dto.LineItemRequest{
			{Description: "Consulting", Quantity: dec("1"), UnitPrice: decPtr("100")},
		},
	}

	suite.mockContacts.On("FindContactByID", ctx, workspaceID, contactID).
		Return(&domain.Contact{ContactID: contactID, IsArchived: true}, nil).Once()

	quotation, err := suite.service.CreateQuotation(ctx, workspaceID, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(quotation)
	suite.True(errors.Is(err, apperrors.ErrValidation))
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveQuotation", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *QuotationServiceTestSuite) TestCreateQuotation_DocumentDiscount() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	contactID := uuid.NewString()

	req := dto.CreateQuotationRequest{
		ContactID:    contactID,
		CurrencyCode: "EUR",
		Discount:     &dto.DocumentDiscountRequest{Type: domain.DiscountPercent, Value: dec("10")},
		Items: []dto.LineItemRequest{
			{Description: "Licence", Quantity: dec("1"), UnitPrice: decPtr("100"), TaxRate: decPtr("21")},
		},
	}

	suite.mockContacts.On("FindContactByID", ctx, workspaceID, contactID).
		Return(&domain.Contact{ContactID: contactID}, nil).Once()
	suite.mockSettings.On("NextDocumentNumber", ctx, workspaceID, domain.DocTypeQuotation, mock.AnythingOfType("int")).
		Return("OFF-2026-0002", nil).Once()
	suite.mockRepo.On("SaveQuotation", ctx, mock.AnythingOfType("domain.Quotation"), mock.AnythingOfType("[]domain.LineItem")).
		Return(nil).Once()

	quotation, err := suite.service.CreateQuotation(ctx, workspaceID, req, uuid.NewString())

	suite.Require().NoError(err)
	suite.True(quotation.Subtotal.Equal(dec("100")))
	suite.True(quotation.DiscountTotal.Equal(dec("10")))
	suite.Equal(domain.DiscountPercent, quotation.DiscountType)
}

func (suite *QuotationServiceTestSuite) TestUpdateQuotationItems_NonDraftRejected() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	quotationID := uuid.NewString()

	suite.mockRepo.On("FindQuotationByID", ctx, workspaceID, quotationID).
		Return(&domain.Quotation{QuotationID: quotationID, Status: domain.QuotationSent}, nil).Once()

	req := dto.UpdateQuotationItemsRequest{
		Items: []dto.LineItemRequest{{Description: "x", Quantity: dec("1"), UnitPrice: decPtr("1")}},
	}
	quotation, err := suite.service.UpdateQuotationItems(ctx, workspaceID, quotationID, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(quotation)
	suite.True(errors.Is(err, apperrors.ErrValidation))
	suite.mockRepo.AssertNotCalled(suite.T(), "ReplaceLineItems", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *QuotationServiceTestSuite) TestDeleteQuotation_OnlyDraft() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	quotationID := uuid.NewString()

	suite.mockRepo.On("FindQuotationByID", ctx, workspaceID, quotationID).
		Return(&domain.Quotation{QuotationID: quotationID, Status: domain.QuotationAccepted}, nil).Once()

	err := suite.service.DeleteQuotation(ctx, workspaceID, quotationID, uuid.NewString())

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrValidation))
	suite.mockRepo.AssertNotCalled(suite.T(), "DeleteQuotationDraft", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *QuotationServiceTestSuite) TestSendQuotation_EmitsBrandedEvent() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	quotationID := uuid.NewString()
	userID := uuid.NewString()

	draft := &domain.Quotation{
		QuotationID: quotationID,
		WorkspaceID: workspaceID,
		Number:      "OFF-2026-0003",
		ContactID:   uuid.NewString(),
		Status:      domain.QuotationDraft,
		Total:       dec("242"),
		Version:     1,
	}
	branding := domain.Branding{BrandName: "Studio North", AccentColor: "#FF5500"}

	suite.mockRepo.On("FindQuotationByID", ctx, workspaceID, quotationID).Return(draft, nil).Once()
	suite.mockRepo.On("UpdateQuotationStatus", ctx, mock.AnythingOfType("domain.Quotation"), userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockAgency.On("ResolveBranding", ctx, workspaceID).Return(branding, nil).Once()
	suite.mockOutbox.On("Enqueue", ctx, mock.MatchedBy(func(event domain.OutboxEvent) bool {
		return event.EventType == domain.EventQuotationSent &&
			event.WorkspaceID == workspaceID &&
			event.Status == domain.OutboxPending
	})).Return(nil).Once()

	quotation, err := suite.service.SendQuotation(ctx, workspaceID, quotationID, userID)

	suite.Require().NoError(err)
	suite.Equal(domain.QuotationSent, quotation.Status)
	suite.Require().NotNil(quotation.SentAt)
	suite.Equal(int64(2), quotation.Version)

	suite.mockOutbox.AssertExpectations(suite.T())
	suite.mockAgency.AssertExpectations(suite.T())
}

func (suite *QuotationServiceTestSuite) TestSendQuotation_BrandingFailureDoesNotBlock() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	quotationID := uuid.NewString()
	userID := uuid.NewString()

	draft := &domain.Quotation{
		QuotationID: quotationID,
		WorkspaceID: workspaceID,
		Status:      domain.QuotationDraft,
		Version:     1,
	}

	suite.mockRepo.On("FindQuotationByID", ctx, workspaceID, quotationID).Return(draft, nil).Once()
	suite.mockRepo.On("UpdateQuotationStatus", ctx, mock.AnythingOfType("domain.Quotation"), userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockAgency.On("ResolveBranding", ctx, workspaceID).
		Return(domain.Branding{}, errors.New("branding lookup failed")).Once()
	suite.mockOutbox.On("Enqueue", ctx, mock.AnythingOfType("domain.OutboxEvent")).Return(nil).Once()

	quotation, err := suite.service.SendQuotation(ctx, workspaceID, quotationID, userID)

	suite.Require().NoError(err)
	suite.Equal(domain.QuotationSent, quotation.Status)
}

func (suite *QuotationServiceTestSuite) TestSendQuotation_InvalidTransition() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	quotationID := uuid.NewString()

	suite.mockRepo.On("FindQuotationByID", ctx, workspaceID, quotationID).
		Return(&domain.Quotation{QuotationID: quotationID, Status: domain.QuotationRejected}, nil).Once()

	quotation, err := suite.service.SendQuotation(ctx, workspaceID, quotationID, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(quotation)
	suite.True(errors.Is(err, apperrors.ErrValidation))
}

func (suite *QuotationServiceTestSuite) TestConvertToInvoice_Success() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	quotationID := uuid.NewString()
	userID := uuid.NewString()

	accepted := &domain.Quotation{
		QuotationID:   quotationID,
		WorkspaceID:   workspaceID,
		Number:        "OFF-2026-0004",
		ContactID:     uuid.NewString(),
		Status:        domain.QuotationAccepted,
		CurrencyCode:  "EUR",
		Subtotal:      dec("200"),
		TaxTotal:      dec("42"),
		Total:         dec("242"),
		DiscountType:  domain.DiscountNone,
		DiscountValue: decimal.Zero,
	}
	items := []domain.LineItem{
		{LineItemID: uuid.NewString(), QuotationID: &quotationID, Description: "Consulting", Quantity: dec("2"), UnitPrice: dec("100"), Position: 1},
	}

	suite.mockRepo.On("FindQuotationByID", ctx, workspaceID, quotationID).Return(accepted, nil).Once()
	suite.mockRepo.On("FindLineItemsByQuotationID", ctx, quotationID).Return(items, nil).Once()
	suite.mockSettings.On("NextDocumentNumber", ctx, workspaceID, domain.DocTypeInvoice, mock.AnythingOfType("int")).
		Return("FAC-2026-0001", nil).Once()
	suite.mockRepo.On("ConvertToInvoice", ctx, mock.AnythingOfType("domain.Quotation"), mock.MatchedBy(func(inv domain.Invoice) bool {
		return inv.Number == "FAC-2026-0001" &&
			inv.Status == domain.InvoiceDraft &&
			inv.QuotationID != nil && *inv.QuotationID == quotationID &&
			inv.Total.Equal(dec("242"))
	}), mock.MatchedBy(func(copied []domain.LineItem) bool {
		if len(copied) != 1 {
			return false
		}
		return copied[0].QuotationID == nil && copied[0].InvoiceID != nil
	})).Return(nil).Once()

	invoice, err := suite.service.ConvertToInvoice(ctx, workspaceID, quotationID, userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(invoice)
	suite.Equal(accepted.ContactID, invoice.ContactID)
	suite.Equal("FAC-2026-0001", invoice.Number)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *QuotationServiceTestSuite) TestConvertToInvoice_AlreadyConverted() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	quotationID := uuid.NewString()
	existingInvoiceID := uuid.NewString()

	suite.mockRepo.On("FindQuotationByID", ctx, workspaceID, quotationID).
		Return(&domain.Quotation{
			QuotationID:          quotationID,
			Status:               domain.QuotationAccepted,
			ConvertedToInvoiceID: &existingInvoiceID,
		}, nil).Once()

	invoice, err := suite.service.ConvertToInvoice(ctx, workspaceID, quotationID, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(invoice)
	suite.True(errors.Is(err, apperrors.ErrDuplicate))
	suite.mockSettings.AssertNotCalled(suite.T(), "NextDocumentNumber", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *QuotationServiceTestSuite) TestConvertToInvoice_NotAccepted() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	quotationID := uuid.NewString()

	suite.mockRepo.On("FindQuotationByID", ctx, workspaceID, quotationID).
		Return(&domain.Quotation{QuotationID: quotationID, Status: domain.QuotationSent}, nil).Once()

	invoice, err := suite.service.ConvertToInvoice(ctx, workspaceID, quotationID, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(invoice)
	suite.True(errors.Is(err, apperrors.ErrValidation))
}

func TestQuotationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(QuotationServiceTestSuite))
}
