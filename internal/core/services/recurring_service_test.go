package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/core/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
)

// MockRecurringRepository is a mock type for the RecurringRepositoryWithTx interface
type MockRecurringRepository struct {
	mock.Mock
}

func (m *MockRecurringRepository) FindTemplateByID(ctx context.Context, workspaceID, templateID string) (*domain.RecurringTemplate, error) {
	args := m.Called(ctx, workspaceID, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecurringTemplate), args.Error(1)
}

func (m *MockRecurringRepository) FindTemplateLineItems(ctx context.Context, templateID string) ([]domain.TemplateLineItem, error) {
	args := m.Called(ctx, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TemplateLineItem), args.Error(1)
}

func (m *MockRecurringRepository) ListTemplates(ctx context.Context, workspaceID string, includeInactive bool) ([]domain.RecurringTemplate, error) {
	args := m.Called(ctx, workspaceID, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecurringTemplate), args.Error(1)
}

func (m *MockRecurringRepository) SaveTemplate(ctx context.Context, template domain.RecurringTemplate, items []domain.TemplateLineItem) error {
	args := m.Called(ctx, template, items)
	return args.Error(0)
}

func (m *MockRecurringRepository) ReplaceTemplateLineItems(ctx context.Context, template domain.RecurringTemplate, items []domain.TemplateLineItem) error {
	args := m.Called(ctx, template, items)
	return args.Error(0)
}

func (m *MockRecurringRepository) UpdateTemplate(ctx context.Context, template domain.RecurringTemplate) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockRecurringRepository) SetTemplateActive(ctx context.Context, workspaceID, templateID string, active bool, updatedByUserID string, now time.Time) error {
	args := m.Called(ctx, workspaceID, templateID, active, updatedByUserID, now)
	return args.Error(0)
}

func (m *MockRecurringRepository) ClaimDueTemplates(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]domain.RecurringTemplate, error) {
	args := m.Called(ctx, tx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecurringTemplate), args.Error(1)
}

func (m *MockRecurringRepository) MarkTemplateRun(ctx context.Context, tx pgx.Tx, templateID string, nextRunDate time.Time, now time.Time) error {
	args := m.Called(ctx, tx, templateID, nextRunDate, now)
	return args.Error(0)
}

func (m *MockRecurringRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockRecurringRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockRecurringRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// stubTx satisfies pgx.Tx for generator tests. Nested Begin hands back the
// same stub so savepoint traffic can be counted.
type stubTx struct {
	savepoints int
	releases   int
	rollbacks  int
}

func (t *stubTx) Begin(ctx context.Context) (pgx.Tx, error) {
	t.savepoints++
	return t, nil
}

func (t *stubTx) Commit(ctx context.Context) error {
	t.releases++
	return nil
}

func (t *stubTx) Rollback(ctx context.Context) error {
	t.rollbacks++
	return nil
}

func (t *stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *stubTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *stubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (t *stubTx) Conn() *pgx.Conn { return nil }

var _ pgx.Tx = (*stubTx)(nil)

// MockSettingsRepository is a mock type for the SettingsRepositoryFacade interface
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) GetOrCreateSettings(ctx context.Context, workspaceID, createdByUserID string) (*domain.InvoiceSettings, error) {
	args := m.Called(ctx, workspaceID, createdByUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceSettings), args.Error(1)
}

func (m *MockSettingsRepository) UpdateSettings(ctx context.Context, settings domain.InvoiceSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *MockSettingsRepository) AllocateNumber(ctx context.Context, workspaceID string, docType domain.DocumentType) (int64, error) {
	args := m.Called(ctx, workspaceID, docType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSettingsRepository) AllocateNumberInTx(ctx context.Context, tx pgx.Tx, workspaceID string, docType domain.DocumentType) (int64, error) {
	args := m.Called(ctx, tx, workspaceID, docType)
	return args.Get(0).(int64), args.Error(1)
}

// --- Test Suite Setup ---

type RecurringServiceTestSuite struct {
	suite.Suite
	mockRecurring *MockRecurringRepository
	mockInvoices  *MockInvoiceRepository
	mockContacts  *MockContactReader
	mockSettings  *MockSettingsRepository
	mockOutbox    *MockOutboxWriter
	mockAgency    *MockAgencyReader
	tx            *stubTx
	service       portssvc.RecurringSvcFacade
}

func (suite *RecurringServiceTestSuite) SetupTest() {
	suite.mockRecurring = new(MockRecurringRepository)
	suite.mockInvoices = new(MockInvoiceRepository)
	suite.mockContacts = new(MockContactReader)
	suite.mockSettings = new(MockSettingsRepository)
	suite.mockOutbox = new(MockOutboxWriter)
	suite.mockAgency = new(MockAgencyReader)
	suite.tx = new(stubTx)
	suite.service = services.NewRecurringService(
		suite.mockRecurring,
		suite.mockInvoices,
		suite.mockContacts,
		suite.mockSettings,
		suite.mockOutbox,
		suite.mockAgency,
		nil,
	)
}

func dueTemplate(autoSend bool) domain.RecurringTemplate {
	return domain.RecurringTemplate{
		TemplateID:       uuid.NewString(),
		WorkspaceID:      uuid.NewString(),
		ContactID:        uuid.NewString(),
		Name:             "Hosting retainer",
		CurrencyCode:     "EUR",
		Frequency:        domain.FrequencyMonthly,
		NextRunDate:      time.Now().AddDate(0, 0, -1),
		PaymentTermsDays: 14,
		AutoSend:         autoSend,
		IsActive:         true,
		AuditFields:      domain.AuditFields{CreatedBy: uuid.NewString()},
	}
}

func templateSnapshot(templateID string) []domain.TemplateLineItem {
	return []domain.TemplateLineItem{
		{
			TemplateLineItemID: uuid.NewString(),
			TemplateID:         templateID,
			Description:        "Monthly hosting",
			Quantity:           dec("1"),
			UnitPrice:          dec("100"),
			TaxRate:            dec("21"),
			Position:           1,
		},
	}
}

func defaultSettings(workspaceID string) *domain.InvoiceSettings {
	return &domain.InvoiceSettings{
		WorkspaceID:      workspaceID,
		QuotationPrefix:  domain.DefaultQuotationPrefix,
		InvoicePrefix:    domain.DefaultInvoicePrefix,
		CreditNotePrefix: domain.DefaultCreditNotePrefix,
		NumberPadding:    domain.DefaultNumberPadding,
		CurrencyCode:     "EUR",
		PaymentTermsDays: 30,
	}
}

// --- Test Cases ---

func (suite *RecurringServiceTestSuite) TestCreateTemplate_Success() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	contactID := uuid.NewString()
	userID := uuid.NewString()
	req := dto.CreateRecurringTemplateRequest{
		ContactID:   contactID,
		Name:        "Hosting retainer",
		Frequency:   domain.FrequencyMonthly,
		NextRunDate: time.Now().AddDate(0, 0, 1),
		AutoSend:    true,
		Items: []dto.TemplateLineItemRequest{
			{Description: "Monthly hosting", Quantity: dec("1"), UnitPrice: dec("100"), TaxRate: dec("21")},
			{Description: "Backups", Quantity: dec("1"), UnitPrice: dec("10"), TaxRate: dec("21")},
		},
	}

	suite.mockContacts.On("FindContactByID", ctx, workspaceID, contactID).
		Return(&domain.Contact{ContactID: contactID, WorkspaceID: workspaceID}, nil).Once()
	suite.mockRecurring.On("SaveTemplate", ctx,
		mock.MatchedBy(func(t domain.RecurringTemplate) bool {
			return t.IsActive && t.AutoSend && t.Name == req.Name && t.CreatedBy == userID
		}),
		mock.MatchedBy(func(items []domain.TemplateLineItem) bool {
			return len(items) == 2 && items[0].Position == 1 && items[1].Position == 2
		})).Return(nil).Once()

	template, err := suite.service.CreateTemplate(ctx, workspaceID, req, userID)

	suite.Require().NoError(err)
	suite.True(template.IsActive)
	suite.Equal(domain.FrequencyMonthly, template.Frequency)
	suite.mockRecurring.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestCreateTemplate_ArchivedContactFails() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	contactID := uuid.NewString()
	req := dto.CreateRecurringTemplateRequest{
		ContactID:   contactID,
		Name:        "Hosting retainer",
		Frequency:   domain.FrequencyMonthly,
		NextRunDate: time.Now(),
		Items:       []dto.TemplateLineItemRequest{{Description: "Hosting", Quantity: dec("1"), UnitPrice: dec("100")}},
	}

	suite.mockContacts.On("FindContactByID", ctx, workspaceID, contactID).
		Return(&domain.Contact{ContactID: contactID, IsArchived: true}, nil).Once()

	_, err := suite.service.CreateTemplate(ctx, workspaceID, req, uuid.NewString())

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRecurring.AssertNotCalled(suite.T(), "SaveTemplate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RecurringServiceTestSuite) TestCreateTemplate_NonPositiveQuantityFails() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	contactID := uuid.NewString()
	req := dto.CreateRecurringTemplateRequest{
		ContactID:   contactID,
		Name:        "Hosting retainer",
		Frequency:   domain.FrequencyMonthly,
		NextRunDate: time.Now(),
		Items:       []dto.TemplateLineItemRequest{{Description: "Hosting", Quantity: dec("0"), UnitPrice: dec("100")}},
	}

	suite.mockContacts.On("FindContactByID", ctx, workspaceID, contactID).
		Return(&domain.Contact{ContactID: contactID}, nil).Once()

	_, err := suite.service.CreateTemplate(ctx, workspaceID, req, uuid.NewString())

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *RecurringServiceTestSuite) TestResumeTemplate_AdvancesStaleSchedule() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	templateID := uuid.NewString()
	userID := uuid.NewString()
	template := dueTemplate(false)
	template.TemplateID = templateID
	template.WorkspaceID = workspaceID
	template.Frequency = domain.FrequencyWeekly
	template.NextRunDate = time.Now().AddDate(0, 0, -70)
	template.IsActive = false

	suite.mockRecurring.On("FindTemplateByID", ctx, workspaceID, templateID).Return(&template, nil).Once()
	suite.mockRecurring.On("UpdateTemplate", ctx, mock.MatchedBy(func(t domain.RecurringTemplate) bool {
		// The schedule must land in the future without back-filling the pause.
		return t.NextRunDate.After(time.Now()) && t.NextRunDate.Before(time.Now().AddDate(0, 0, 8))
	})).Return(nil).Once()
	suite.mockRecurring.On("SetTemplateActive", ctx, workspaceID, templateID, true, userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	err := suite.service.ResumeTemplate(ctx, workspaceID, templateID, userID)

	suite.Require().NoError(err)
	suite.mockRecurring.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestResumeTemplate_FutureScheduleUntouched() {
	ctx := context.Background()
	workspaceID := uuid.NewString()
	templateID := uuid.NewString()
	userID := uuid.NewString()
	template := dueTemplate(false)
	template.TemplateID = templateID
	template.WorkspaceID = workspaceID
	template.NextRunDate = time.Now().AddDate(0, 0, 5)

	suite.mockRecurring.On("FindTemplateByID", ctx, workspaceID, templateID).Return(&template, nil).Once()
	suite.mockRecurring.On("SetTemplateActive", ctx, workspaceID, templateID, true, userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	err := suite.service.ResumeTemplate(ctx, workspaceID, templateID, userID)

	suite.Require().NoError(err)
	suite.mockRecurring.AssertNotCalled(suite.T(), "UpdateTemplate", mock.Anything, mock.Anything)
	suite.mockRecurring.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestRunDueTemplates_StampsInvoice() {
	ctx := context.Background()
	now := time.Now()
	template := dueTemplate(false)

	suite.mockRecurring.On("Begin", ctx).Return(suite.tx, nil).Once()
	suite.mockRecurring.On("Rollback", ctx, mock.Anything).Return(nil)
	suite.mockRecurring.On("ClaimDueTemplates", ctx, mock.Anything, now, mock.AnythingOfType("int")).
		Return([]domain.RecurringTemplate{template}, nil).Once()
	suite.mockRecurring.On("FindTemplateLineItems", ctx, template.TemplateID).
		Return(templateSnapshot(template.TemplateID), nil).Once()
	suite.mockSettings.On("GetOrCreateSettings", ctx, template.WorkspaceID, "system").
		Return(defaultSettings(template.WorkspaceID), nil).Once()
	suite.mockSettings.On("AllocateNumberInTx", ctx, mock.Anything, template.WorkspaceID, domain.DocTypeInvoice).
		Return(int64(7), nil).Once()
	wantNumber := fmt.Sprintf("FAC-%d-0007", now.Year())
	suite.mockInvoices.On("SaveInvoiceInTx", ctx, mock.Anything,
		mock.MatchedBy(func(inv domain.Invoice) bool {
			return inv.Number == wantNumber &&
				inv.Status == domain.InvoiceDraft &&
				inv.Total.Equal(dec("121")) &&
				inv.DueDate != nil
		}),
		mock.MatchedBy(func(items []domain.LineItem) bool {
			return len(items) == 1 && items[0].InvoiceID != nil && items[0].Description == "Monthly hosting"
		})).Return(nil).Once()
	suite.mockRecurring.On("MarkTemplateRun", ctx, mock.Anything, template.TemplateID,
		mock.MatchedBy(func(next time.Time) bool { return next.After(now) }),
		now).Return(nil).Once()
	suite.mockOutbox.On("EnqueueInTx", ctx, mock.Anything, mock.MatchedBy(func(event domain.OutboxEvent) bool {
		return event.EventType == domain.EventRecurringStamped
	})).Return(nil).Once()
	suite.mockRecurring.On("Commit", ctx, mock.Anything).Return(nil).Once()

	report, err := suite.service.RunDueTemplates(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(1, report.Processed)
	suite.Equal(0, report.Failed)
	suite.mockRecurring.AssertExpectations(suite.T())
	suite.mockInvoices.AssertExpectations(suite.T())
	suite.mockOutbox.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestRunDueTemplates_AutoSendEmitsInvoiceSent() {
	ctx := context.Background()
	now := time.Now()
	template := dueTemplate(true)

	suite.mockRecurring.On("Begin", ctx).Return(suite.tx, nil).Once()
	suite.mockRecurring.On("Rollback", ctx, mock.Anything).Return(nil)
	suite.mockRecurring.On("ClaimDueTemplates", ctx, mock.Anything, now, mock.AnythingOfType("int")).
		Return([]domain.RecurringTemplate{template}, nil).Once()
	suite.mockRecurring.On("FindTemplateLineItems", ctx, template.TemplateID).
		Return(templateSnapshot(template.TemplateID), nil).Once()
	suite.mockSettings.On("GetOrCreateSettings", ctx, template.WorkspaceID, "system").
		Return(defaultSettings(template.WorkspaceID), nil).Once()
	suite.mockSettings.On("AllocateNumberInTx", ctx, mock.Anything, template.WorkspaceID, domain.DocTypeInvoice).
		Return(int64(8), nil).Once()
	suite.mockInvoices.On("SaveInvoiceInTx", ctx, mock.Anything,
		mock.MatchedBy(func(inv domain.Invoice) bool {
			return inv.Status == domain.InvoiceSent && inv.SentAt != nil
		}),
		mock.Anything).Return(nil).Once()
	suite.mockRecurring.On("MarkTemplateRun", ctx, mock.Anything, template.TemplateID,
		mock.AnythingOfType("time.Time"), now).Return(nil).Once()
	suite.mockAgency.On("ResolveBranding", ctx, template.WorkspaceID).Return(domain.DefaultBranding, nil).Once()
	suite.mockOutbox.On("EnqueueInTx", ctx, mock.Anything, mock.MatchedBy(func(event domain.OutboxEvent) bool {
		return event.EventType == domain.EventRecurringStamped
	})).Return(nil).Once()
	suite.mockOutbox.On("EnqueueInTx", ctx, mock.Anything, mock.MatchedBy(func(event domain.OutboxEvent) bool {
		return event.EventType == domain.EventInvoiceSent
	})).Return(nil).Once()
	suite.mockRecurring.On("Commit", ctx, mock.Anything).Return(nil).Once()

	report, err := suite.service.RunDueTemplates(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(1, report.Processed)
	suite.mockAgency.AssertExpectations(suite.T())
	suite.mockOutbox.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestRunDueTemplates_FailureDoesNotBlockSiblings() {
	ctx := context.Background()
	now := time.Now()
	broken := dueTemplate(false)
	healthy := dueTemplate(false)

	suite.mockRecurring.On("Begin", ctx).Return(suite.tx, nil).Once()
	suite.mockRecurring.On("Rollback", ctx, mock.Anything).Return(nil)
	suite.mockRecurring.On("ClaimDueTemplates", ctx, mock.Anything, now, mock.AnythingOfType("int")).
		Return([]domain.RecurringTemplate{broken, healthy}, nil).Once()
	suite.mockRecurring.On("FindTemplateLineItems", ctx, broken.TemplateID).
		Return(templateSnapshot(broken.TemplateID), nil).Once()
	suite.mockRecurring.On("FindTemplateLineItems", ctx, healthy.TemplateID).
		Return(templateSnapshot(healthy.TemplateID), nil).Once()
	suite.mockSettings.On("GetOrCreateSettings", ctx, broken.WorkspaceID, "system").
		Return(defaultSettings(broken.WorkspaceID), nil).Once()
	suite.mockSettings.On("GetOrCreateSettings", ctx, healthy.WorkspaceID, "system").
		Return(defaultSettings(healthy.WorkspaceID), nil).Once()
	suite.mockSettings.On("AllocateNumberInTx", ctx, mock.Anything, broken.WorkspaceID, domain.DocTypeInvoice).
		Return(int64(3), nil).Once()
	suite.mockSettings.On("AllocateNumberInTx", ctx, mock.Anything, healthy.WorkspaceID, domain.DocTypeInvoice).
		Return(int64(4), nil).Once()
	suite.mockInvoices.On("SaveInvoiceInTx", ctx, mock.Anything,
		mock.MatchedBy(func(inv domain.Invoice) bool { return inv.WorkspaceID == broken.WorkspaceID }),
		mock.Anything).Return(errors.New("duplicate key value violates unique constraint")).Once()
	suite.mockInvoices.On("SaveInvoiceInTx", ctx, mock.Anything,
		mock.MatchedBy(func(inv domain.Invoice) bool { return inv.WorkspaceID == healthy.WorkspaceID }),
		mock.Anything).Return(nil).Once()
	suite.mockRecurring.On("MarkTemplateRun", ctx, mock.Anything, healthy.TemplateID,
		mock.AnythingOfType("time.Time"), now).Return(nil).Once()
	suite.mockOutbox.On("EnqueueInTx", ctx, mock.Anything, mock.MatchedBy(func(event domain.OutboxEvent) bool {
		return event.EventType == domain.EventRecurringStamped && event.WorkspaceID == healthy.WorkspaceID
	})).Return(nil).Once()
	suite.mockRecurring.On("Commit", ctx, mock.Anything).Return(nil).Once()

	report, err := suite.service.RunDueTemplates(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(1, report.Processed)
	suite.Equal(1, report.Failed)
	// One savepoint per template; only the broken one rolls back.
	suite.Equal(2, suite.tx.savepoints)
	suite.Equal(1, suite.tx.rollbacks)
	suite.Equal(1, suite.tx.releases)
	suite.mockRecurring.AssertNotCalled(suite.T(), "MarkTemplateRun", mock.Anything, mock.Anything, broken.TemplateID, mock.Anything, mock.Anything)
	suite.mockRecurring.AssertExpectations(suite.T())
	suite.mockInvoices.AssertExpectations(suite.T())
	suite.mockOutbox.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestRunDueTemplates_EmptySnapshotSkipsTemplate() {
	ctx := context.Background()
	now := time.Now()
	template := dueTemplate(false)

	suite.mockRecurring.On("Begin", ctx).Return(suite.tx, nil).Once()
	suite.mockRecurring.On("Rollback", ctx, mock.Anything).Return(nil)
	suite.mockRecurring.On("ClaimDueTemplates", ctx, mock.Anything, now, mock.AnythingOfType("int")).
		Return([]domain.RecurringTemplate{template}, nil).Once()
	suite.mockRecurring.On("FindTemplateLineItems", ctx, template.TemplateID).
		Return([]domain.TemplateLineItem{}, nil).Once()
	suite.mockRecurring.On("Commit", ctx, mock.Anything).Return(nil).Once()

	report, err := suite.service.RunDueTemplates(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(0, report.Processed)
	suite.Equal(1, report.Failed)
	suite.mockInvoices.AssertNotCalled(suite.T(), "SaveInvoiceInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockRecurring.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestRunDueTemplates_NothingDue() {
	ctx := context.Background()
	now := time.Now()

	suite.mockRecurring.On("Begin", ctx).Return(suite.tx, nil).Once()
	suite.mockRecurring.On("Rollback", ctx, mock.Anything).Return(nil)
	suite.mockRecurring.On("ClaimDueTemplates", ctx, mock.Anything, now, mock.AnythingOfType("int")).
		Return([]domain.RecurringTemplate{}, nil).Once()
	suite.mockRecurring.On("Commit", ctx, mock.Anything).Return(nil).Once()

	report, err := suite.service.RunDueTemplates(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(0, report.Processed)
	suite.Equal(0, report.Failed)
	suite.mockRecurring.AssertExpectations(suite.T())
}

func TestRecurringServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RecurringServiceTestSuite))
}
