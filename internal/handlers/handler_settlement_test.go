package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/valr-fintech/treasury-ledger/internal/apperrors"
	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
	portssvc "github.com/valr-fintech/treasury-ledger/internal/core/ports/services"
	"github.com/valr-fintech/treasury-ledger/internal/dto"
	"github.com/valr-fintech/treasury-ledger/internal/handlers"
)

// --- Mock SettlementService ---
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) GetSettlementByID(ctx context.Context, settlementID string) (*domain.Settlement, error) {
	args := m.Called(ctx, settlementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

func (m *MockSettlementService) ListSettlementsByAccount(ctx context.Context, accountID string, limit int, offset int) ([]domain.Settlement, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Settlement), args.Error(1)
}

func (m *MockSettlementService) ReconcileAccount(ctx context.Context, accountID string) (*domain.ReconciliationReport, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationReport), args.Error(1)
}

func (m *MockSettlementService) ApplySettlement(ctx context.Context, accountID string, req dto.ApplySettlementRequest, userID string) (*domain.Settlement, error) {
	args := m.Called(ctx, accountID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

func (m *MockSettlementService) DispatchSettlement(ctx context.Context, settlementID string, userID string) (*domain.Settlement, error) {
	args := m.Called(ctx, settlementID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

func (m *MockSettlementService) CompleteSettlement(ctx context.Context, settlementID string, userID string) (*domain.Settlement, error) {
	args := m.Called(ctx, settlementID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

func (m *MockSettlementService) FailSettlement(ctx context.Context, settlementID string, errorCode, errorMessage string, userID string) (*domain.Settlement, error) {
	args := m.Called(ctx, settlementID, errorCode, errorMessage, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

func (m *MockSettlementService) CancelSettlement(ctx context.Context, settlementID string, userID string) (*domain.Settlement, error) {
	args := m.Called(ctx, settlementID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

func (m *MockSettlementService) RetrySettlement(ctx context.Context, settlementID string, userID string) (*domain.Settlement, error) {
	args := m.Called(ctx, settlementID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.SettlementSvcFacade = (*MockSettlementService)(nil)

// --- Test Suite ---

type SettlementHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockService *MockSettlementService
}

func (suite *SettlementHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.mockService = new(MockSettlementService)
	v1 := suite.router.Group("/api/v1")
	noLimit := func(c *gin.Context) { c.Next() }
	handlers.RegisterSettlementRoutes(v1, suite.mockService, noLimit)
}

// --- Test Cases ---

func (suite *SettlementHandlerTestSuite) TestReconcileAccount_Consistent() {
	report := &domain.ReconciliationReport{
		AccountID:  "acc-1",
		Consistent: true,
		Sides: []domain.SideReconciliation{{
			Side:          domain.SupplierSide,
			LedgerBalance: decimal.RequireFromString("1000"),
			SettledNet:    decimal.RequireFromString("1000"),
			Drift:         decimal.Zero,
		}},
	}
	suite.mockService.On("ReconcileAccount", mock.Anything, "acc-1").Return(report, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/float-accounts/acc-1/reconciliation", nil)
	w := httptest.NewRecorder()

	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ReconciliationResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp.Consistent)
	suite.Require().Len(resp.Sides, 1)
	suite.True(resp.Sides[0].Consistent)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *SettlementHandlerTestSuite) TestReconcileAccount_DriftReturnsConflictWithReport() {
	report := &domain.ReconciliationReport{
		AccountID:  "acc-1",
		Consistent: false,
		Sides: []domain.SideReconciliation{{
			Side:          domain.SupplierSide,
			LedgerBalance: decimal.RequireFromString("1000"),
			SettledNet:    decimal.RequireFromString("900"),
			Drift:         decimal.RequireFromString("100"),
		}},
	}
	suite.mockService.On("ReconcileAccount", mock.Anything, "acc-1").
		Return(report, apperrors.ErrIntegrity).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/float-accounts/acc-1/reconciliation", nil)
	w := httptest.NewRecorder()

	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusConflict, w.Code)
	var resp struct {
		Error  string                     `json:"error"`
		Report dto.ReconciliationResponse `json:"report"`
	}
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.False(resp.Report.Consistent)
	suite.Require().Len(resp.Report.Sides, 1)
	suite.True(decimal.RequireFromString("100").Equal(resp.Report.Sides[0].Drift))
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *SettlementHandlerTestSuite) TestReconcileAccount_NotFound() {
	suite.mockService.On("ReconcileAccount", mock.Anything, "missing").
		Return(nil, apperrors.ErrNotFound).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/float-accounts/missing/reconciliation", nil)
	w := httptest.NewRecorder()

	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockService.AssertExpectations(suite.T())
}

func TestSettlementHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementHandlerTestSuite))
}
