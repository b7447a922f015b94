package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/nextfact/crm_billing_app/internal/apperrors"
	"github.com/nextfact/crm_billing_app/internal/core/domain"
	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/nextfact/crm_billing_app/internal/middleware"
)

// --- Mock QuotationService ---
type MockQuotationService struct {
	mock.Mock
}

func (m *MockQuotationService) GetQuotation(ctx context.Context, workspaceID, quotationID, requestingUserID string) (*domain.Quotation, []domain.LineItem, error) {
	args := m.Called(ctx, workspaceID, quotationID, requestingUserID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Quotation), args.Get(1).([]domain.LineItem), args.Error(2)
}

func (m *MockQuotationService) ListQuotations(ctx context.Context, workspaceID string, status *domain.QuotationStatus, limit int, nextToken *string, requestingUserID string) ([]domain.Quotation, *string, error) {
	args := m.Called(ctx, workspaceID, status, limit, nextToken, requestingUserID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.Quotation), args.Get(1).(*string), args.Error(2)
}

func (m *MockQuotationService) CreateQuotation(ctx context.Context, workspaceID string, req dto.CreateQuotationRequest, creatorUserID string) (*domain.Quotation, error) {
	args := m.Called(ctx, workspaceID, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quotation), args.Error(1)
}

func (m *MockQuotationService) UpdateQuotationItems(ctx context.Context, workspaceID, quotationID string, req dto.UpdateQuotationItemsRequest, userID string) (*domain.Quotation, error) {
	args := m.Called(ctx, workspaceID, quotationID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quotation), args.Error(1)
}

func (m *MockQuotationService) DeleteQuotation(ctx context.Context, workspaceID, quotationID, userID string) error {
	args := m.Called(ctx, workspaceID, quotationID, userID)
	return args.Error(0)
}

func (m *MockQuotationService) SendQuotation(ctx context.Context, workspaceID, quotationID, userID string) (*domain.Quotation, error) {
	args := m.Called(ctx, workspaceID, quotationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quotation), args.Error(1)
}

func (m *MockQuotationService) MarkQuotationAccepted(ctx context.Context, workspaceID, quotationID, userID string) (*domain.Quotation, error) {
	args := m.Called(ctx, workspaceID, quotationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quotation), args.Error(1)
}

func (m *MockQuotationService) MarkQuotationRejected(ctx context.Context, workspaceID, quotationID, userID string) (*domain.Quotation, error) {
	args := m.Called(ctx, workspaceID, quotationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quotation), args.Error(1)
}

func (m *MockQuotationService) ConvertToInvoice(ctx context.Context, workspaceID, quotationID, userID string) (*domain.Invoice, error) {
	args := m.Called(ctx, workspaceID, quotationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.QuotationSvcFacade = (*MockQuotationService)(nil)

// decimalPtr returns a pointer to the provided decimal.Decimal value.
func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// --- Test Suite ---
type QuotationHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockService *MockQuotationService
	jwtSecret   string
}

// generateTestToken creates a dummy JWT for testing.
func (suite *QuotationHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "crm-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *QuotationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockService = new(MockQuotationService)

	registerCustomValidations()

	v1 := suite.router.Group("/api/v1/workspaces/:workspace_id")
	registerQuotationRoutes(v1, suite.mockService)
}

// --- Test Cases ---

func (suite *QuotationHandlerTestSuite) TestCreateQuotation_Success() {
	workspaceID := uuid.NewString()
	userID := uuid.NewString()
	contactID := uuid.NewString()

	expected := &domain.Quotation{
		QuotationID:  uuid.NewString(),
		WorkspaceID:  workspaceID,
		Number:       "OFF-2026-0001",
		ContactID:    contactID,
		Status:       domain.QuotationDraft,
		CurrencyCode: "EUR",
		Subtotal:     decimal.NewFromInt(200),
		TaxTotal:     decimal.NewFromInt(42),
		Total:        decimal.NewFromInt(242),
	}

	suite.mockService.On("CreateQuotation",
		mock.Anything,
		workspaceID,
		mock.MatchedBy(func(req dto.CreateQuotationRequest) bool {
			return req.ContactID == contactID && len(req.Items) == 1
		}),
		userID,
	).Return(expected, nil).Once()

	body, _ := json.Marshal(dto.CreateQuotationRequest{
		ContactID: contactID,
		Items: []dto.LineItemRequest{
			{Description: "Consulting", Quantity: decimal.NewFromInt(2), UnitPrice: decimalPtr(decimal.NewFromInt(100)), TaxRate: decimalPtr(decimal.NewFromInt(21))},
		},
	})
	url := fmt.Sprintf("/api/v1/workspaces/%s/quotations", workspaceID)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusCreated, w.Code)

	var resp dto.QuotationResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(expected.QuotationID, resp.QuotationID)
	suite.Equal("OFF-2026-0001", resp.Number)
	suite.Equal(domain.QuotationDraft, resp.Status)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *QuotationHandlerTestSuite) TestSendQuotation_Success() {
	workspaceID := uuid.NewString()
	quotationID := uuid.NewString()
	userID := uuid.NewString()
	sentAt := time.Now()

	expected := &domain.Quotation{
		QuotationID: quotationID,
		WorkspaceID: workspaceID,
		Number:      "OFF-2026-0002",
		Status:      domain.QuotationSent,
		SentAt:      &sentAt,
	}

	suite.mockService.On("SendQuotation", mock.Anything, workspaceID, quotationID, userID).
		Return(expected, nil).Once()

	url := fmt.Sprintf("/api/v1/workspaces/%s/quotations/%s/send", workspaceID, quotationID)
	req, _ := http.NewRequest(http.MethodPost, url, nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.QuotationResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(domain.QuotationSent, resp.Status)
	suite.NotNil(resp.SentAt)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *QuotationHandlerTestSuite) TestConvertQuotation_AlreadyConvertedReturnsConflict() {
	workspaceID := uuid.NewString()
	quotationID := uuid.NewString()
	userID := uuid.NewString()

	suite.mockService.On("ConvertToInvoice", mock.Anything, workspaceID, quotationID, userID).
		Return(nil, apperrors.NewConflictError("quotation already converted")).Once()

	url := fmt.Sprintf("/api/v1/workspaces/%s/quotations/%s/convert", workspaceID, quotationID)
	req, _ := http.NewRequest(http.MethodPost, url, nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusConflict, w.Code)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *QuotationHandlerTestSuite) TestCreateQuotation_MissingTokenRejected() {
	url := fmt.Sprintf("/api/v1/workspaces/%s/quotations", uuid.NewString())
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "CreateQuotation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Run Test Suite ---
func TestQuotationHandler(t *testing.T) {
	suite.Run(t, new(QuotationHandlerTestSuite))
}
