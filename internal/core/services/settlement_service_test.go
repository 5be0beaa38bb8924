package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/valr-fintech/treasury-ledger/internal/apperrors"
	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
	portssvc "github.com/valr-fintech/treasury-ledger/internal/core/ports/services"
	"github.com/valr-fintech/treasury-ledger/internal/core/services"
	"github.com/valr-fintech/treasury-ledger/internal/dto"
)

// --- Test Suite ---

type SettlementServiceTestSuite struct {
	suite.Suite
	mockSettlementRepo *MockSettlementRepository
	mockAccountRepo    *MockFloatAccountRepository
	mockNetting        *MockNettingService
	service            portssvc.SettlementSvcFacade
}

func (suite *SettlementServiceTestSuite) SetupTest() {
	suite.mockSettlementRepo = new(MockSettlementRepository)
	suite.mockAccountRepo = new(MockFloatAccountRepository)
	suite.mockNetting = new(MockNettingService)
	suite.service = services.NewSettlementService(
		suite.mockSettlementRepo,
		suite.mockAccountRepo,
		services.WithNettingService(suite.mockNetting),
	)
}

func activeSupplierAccount(accountID string) *domain.FloatAccount {
	return &domain.FloatAccount{
		AccountID: accountID,
		Role:      domain.SupplierOnly,
		Status:    domain.StatusActive,
		Balance:   decimal.RequireFromString("1000"),
	}
}

func activeDualRoleAccount(accountID string) *domain.FloatAccount {
	return &domain.FloatAccount{
		AccountID:              accountID,
		Role:                   domain.DualRole,
		Status:                 domain.StatusActive,
		SupplierBalance:        decimal.RequireFromString("500"),
		MerchantBalance:        decimal.RequireFromString("100"),
		NetSettlementThreshold: decimal.RequireFromString("1000"),
	}
}

func validApplyRequest() dto.ApplySettlementRequest {
	return dto.ApplySettlementRequest{
		SettlementType: domain.Topup,
		Direction:      domain.Inbound,
		Amount:         decimal.RequireFromString("100"),
		Fee:            decimal.RequireFromString("5.75"),
		Rail:           domain.RailEFT,
	}
}

// --- ApplySettlement ---

func (suite *SettlementServiceTestSuite) TestApplySettlement_Success() {
	ctx := context.Background()
	accountID := uuid.NewString()
	userID := uuid.NewString()
	req := validApplyRequest()

	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(activeSupplierAccount(accountID), nil).Once()
	suite.mockSettlementRepo.On("SaveSettlement", ctx, mock.MatchedBy(func(s domain.Settlement) bool {
		return s.FloatAccountID == accountID &&
			s.Status == domain.SettlementPending &&
			s.NetAmount.Equal(decimal.RequireFromString("94.25")) &&
			s.Currency == domain.DefaultCurrency &&
			s.CreatedBy == userID
	})).Return(nil).Once()

	settlement, err := suite.service.ApplySettlement(ctx, accountID, req, userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(settlement)
	suite.Equal(domain.SettlementPending, settlement.Status)
	suite.True(settlement.NetAmount.Equal(req.Amount.Sub(req.Fee)))
	suite.NotEmpty(settlement.SettlementID)
	// Creation never touches the account balance; that happens on completion.
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "UpdateBalancesInTx")
	suite.mockSettlementRepo.AssertExpectations(suite.T())
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestApplySettlement_SupplierOnlyForcesSupplierSide() {
	ctx := context.Background()
	accountID := uuid.NewString()
	req := validApplyRequest()
	req.BalanceSide = domain.MerchantSide // ignored for supplier-only accounts

	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(activeSupplierAccount(accountID), nil).Once()
	suite.mockSettlementRepo.On("SaveSettlement", ctx, mock.MatchedBy(func(s domain.Settlement) bool {
		return s.BalanceSide == domain.SupplierSide
	})).Return(nil).Once()

	settlement, err := suite.service.ApplySettlement(ctx, accountID, req, "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.SupplierSide, settlement.BalanceSide)
	suite.mockSettlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestApplySettlement_ClosedAccountConflict() {
	ctx := context.Background()
	accountID := uuid.NewString()
	account := activeSupplierAccount(accountID)
	account.Status = domain.StatusClosed

	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(account, nil).Once()

	settlement, err := suite.service.ApplySettlement(ctx, accountID, validApplyRequest(), "user-1")

	suite.Require().Error(err)
	suite.Nil(settlement)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockSettlementRepo.AssertNotCalled(suite.T(), "SaveSettlement")
}

func (suite *SettlementServiceTestSuite) TestApplySettlement_FeeExceedsAmount() {
	ctx := context.Background()
	accountID := uuid.NewString()
	req := validApplyRequest()
	req.Fee = decimal.RequireFromString("150")

	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(activeSupplierAccount(accountID), nil).Once()

	settlement, err := suite.service.ApplySettlement(ctx, accountID, req, "user-1")

	suite.Require().Error(err)
	suite.Nil(settlement)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SettlementServiceTestSuite) TestApplySettlement_UnknownType() {
	ctx := context.Background()
	accountID := uuid.NewString()
	req := validApplyRequest()
	req.SettlementType = domain.SettlementType("REFUND")

	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(activeSupplierAccount(accountID), nil).Once()

	_, err := suite.service.ApplySettlement(ctx, accountID, req, "user-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SettlementServiceTestSuite) TestApplySettlement_AccountNotFound() {
	ctx := context.Background()
	accountID := uuid.NewString()

	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(nil, apperrors.ErrNotFound).Once()

	settlement, err := suite.service.ApplySettlement(ctx, accountID, validApplyRequest(), "user-1")

	suite.Require().Error(err)
	suite.Nil(settlement)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- DispatchSettlement ---

func (suite *SettlementServiceTestSuite) TestDispatchSettlement_Success() {
	ctx := context.Background()
	settlementID := uuid.NewString()
	pending := &domain.Settlement{
		SettlementID:   settlementID,
		FloatAccountID: "acc-1",
		Status:         domain.SettlementPending,
		Rail:           domain.RailEFT,
	}

	suite.mockSettlementRepo.On("FindSettlementByID", ctx, settlementID).Return(pending, nil).Once()
	suite.mockSettlementRepo.On("UpdateSettlement", ctx, mock.MatchedBy(func(s domain.Settlement) bool {
		return s.Status == domain.SettlementProcessing && s.ProcessedAt != nil
	})).Return(nil).Once()

	settlement, err := suite.service.DispatchSettlement(ctx, settlementID, "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.SettlementProcessing, settlement.Status)
	suite.mockSettlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestDispatchSettlement_InvokesRail() {
	ctx := context.Background()
	settlementID := uuid.NewString()
	dispatcher := new(MockRailDispatcher)
	svc := services.NewSettlementService(
		suite.mockSettlementRepo,
		suite.mockAccountRepo,
		services.WithRailDispatcher(dispatcher, time.Second),
	)

	pending := &domain.Settlement{
		SettlementID: settlementID,
		Status:       domain.SettlementPending,
		Rail:         domain.RailPayShap,
	}

	suite.mockSettlementRepo.On("FindSettlementByID", ctx, settlementID).Return(pending, nil).Once()
	suite.mockSettlementRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("domain.Settlement")).Return(nil).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(s domain.Settlement) bool {
		return s.SettlementID == settlementID && s.Status == domain.SettlementProcessing
	})).Return(nil).Once()

	_, err := svc.DispatchSettlement(ctx, settlementID, "user-1")

	suite.Require().NoError(err)
	dispatcher.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestDispatchSettlement_RailErrorLeavesProcessing() {
	ctx := context.Background()
	settlementID := uuid.NewString()
	dispatcher := new(MockRailDispatcher)
	svc := services.NewSettlementService(
		suite.mockSettlementRepo,
		suite.mockAccountRepo,
		services.WithRailDispatcher(dispatcher, time.Second),
	)

	pending := &domain.Settlement{
		SettlementID: settlementID,
		Status:       domain.SettlementPending,
		Rail:         domain.RailEFT,
	}

	suite.mockSettlementRepo.On("FindSettlementByID", ctx, settlementID).Return(pending, nil).Once()
	suite.mockSettlementRepo.On("UpdateSettlement", ctx, mock.AnythingOfType("domain.Settlement")).Return(nil).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.AnythingOfType("domain.Settlement")).Return(assert.AnError).Once()

	// An ambiguous rail outcome is surfaced to reconciliation, not guessed:
	// dispatch itself still succeeds and the settlement stays processing.
	settlement, err := svc.DispatchSettlement(ctx, settlementID, "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.SettlementProcessing, settlement.Status)
	dispatcher.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestDispatchSettlement_AlreadyTerminal() {
	ctx := context.Background()
	settlementID := uuid.NewString()
	completed := &domain.Settlement{
		SettlementID: settlementID,
		Status:       domain.SettlementCompleted,
	}

	suite.mockSettlementRepo.On("FindSettlementByID", ctx, settlementID).Return(completed, nil).Once()

	settlement, err := suite.service.DispatchSettlement(ctx, settlementID, "user-1")

	suite.Require().Error(err)
	suite.Nil(settlement)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockSettlementRepo.AssertNotCalled(suite.T(), "UpdateSettlement")
}

// --- CompleteSettlement ---

func (suite *SettlementServiceTestSuite) TestCompleteSettlement_Success() {
	ctx := context.Background()
	settlementID := uuid.NewString()
	accountID := uuid.NewString()
	userID := uuid.NewString()

	completed := &domain.Settlement{
		SettlementID:   settlementID,
		FloatAccountID: accountID,
		BalanceSide:    domain.SupplierSide,
		Direction:      domain.Inbound,
		NetAmount:      decimal.RequireFromString("94.25"),
		BalanceBefore:  decimal.RequireFromString("1000"),
		BalanceAfter:   decimal.RequireFromString("1094.25"),
		Status:         domain.SettlementCompleted,
	}

	suite.mockSettlementRepo.On("CompleteSettlement", ctx, settlementID, userID, mock.AnythingOfType("time.Time")).
		Return(completed, nil).Once()
	suite.mockAccountRepo.On("UpdateSettlementSchedule", ctx, accountID,
		mock.AnythingOfType("*time.Time"), (*time.Time)(nil), userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(activeSupplierAccount(accountID), nil).Once()

	settlement, err := suite.service.CompleteSettlement(ctx, settlementID, userID)

	suite.Require().NoError(err)
	suite.Equal(domain.SettlementCompleted, settlement.Status)
	suite.True(settlement.BalanceAfter.Equal(settlement.BalanceBefore.Add(settlement.SignedNetAmount())))
	// Supplier-only accounts have no net position to evaluate.
	suite.mockNetting.AssertNotCalled(suite.T(), "EvaluateAccount")
	suite.mockSettlementRepo.AssertExpectations(suite.T())
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestCompleteSettlement_TriggersNettingForDualRole() {
	ctx := context.Background()
	settlementID := uuid.NewString()
	accountID := uuid.NewString()
	userID := uuid.NewString()

	completed := &domain.Settlement{
		SettlementID:   settlementID,
		FloatAccountID: accountID,
		Status:         domain.SettlementCompleted,
	}

	suite.mockSettlementRepo.On("CompleteSettlement", ctx, settlementID, userID, mock.AnythingOfType("time.Time")).
		Return(completed, nil).Once()
	suite.mockAccountRepo.On("UpdateSettlementSchedule", ctx, accountID,
		mock.AnythingOfType("*time.Time"), (*time.Time)(nil), userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(activeDualRoleAccount(accountID), nil).Once()
	suite.mockNetting.On("EvaluateAccount", ctx, accountID, userID).Return(nil, nil).Once()

	_, err := suite.service.CompleteSettlement(ctx, settlementID, userID)

	suite.Require().NoError(err)
	suite.mockNetting.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestCompleteSettlement_RepoError() {
	ctx := context.Background()
	settlementID := uuid.NewString()
	expectedErr := assert.AnError

	suite.mockSettlementRepo.On("CompleteSettlement", ctx, settlementID, "user-1", mock.AnythingOfType("time.Time")).
		Return(nil, expectedErr).Once()

	settlement, err := suite.service.CompleteSettlement(ctx, settlementID, "user-1")

	suite.Require().Error(err)
	suite.Nil(settlement)
	suite.ErrorIs(err, expectedErr)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "UpdateSettlementSchedule")
}

// --- FailSettlement ---

func (suite *SettlementServiceTestSuite) TestFailSettlement_Success() {
	ctx := context.Background()
	settlementID := uuid.NewString()
	processing := &domain.Settlement{
		SettlementID: settlementID,
		Status:       domain.SettlementProcessing,
	}

	suite.mockSettlementRepo.On("FindSettlementByID", ctx, settlementID).Return(processing, nil).Once()
	suite.mockSettlementRepo.On("UpdateSettlement", ctx, mock.MatchedBy(func(s domain.Settlement) bool {
		return s.Status == domain.SettlementFailed && s.ErrorCode == "RAIL_TIMEOUT"
	})).Return(nil).Once()

	settlement, err := suite.service.FailSettlement(ctx, settlementID, "RAIL_TIMEOUT", "bank did not respond", "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.SettlementFailed, settlement.Status)
	suite.mockSettlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestFailSettlement_RequiresProcessing() {
	ctx := context.Background()
	settlementID := uuid.NewString()
	pending := &domain.Settlement{
		SettlementID: settlementID,
		Status:       domain.SettlementPending,
	}

	suite.mockSettlementRepo.On("FindSettlementByID", ctx, settlementID).Return(pending, nil).Once()

	_, err := suite.service.FailSettlement(ctx, settlementID, "X", "y", "user-1")

	suite.ErrorIs(err, apperrors.ErrConflict)
}

// --- CancelSettlement ---

func (suite *SettlementServiceTestSuite) TestCancelSettlement_Success() {
	ctx := context.Background()
	settlementID := uuid.NewString()
	pending := &domain.Settlement{
		SettlementID: settlementID,
		Status:       domain.SettlementPending,
	}

	suite.mockSettlementRepo.On("FindSettlementByID", ctx, settlementID).Return(pending, nil).Once()
	suite.mockSettlementRepo.On("UpdateSettlement", ctx, mock.MatchedBy(func(s domain.Settlement) bool {
		return s.Status == domain.SettlementCancelled
	})).Return(nil).Once()

	settlement, err := suite.service.CancelSettlement(ctx, settlementID, "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.SettlementCancelled, settlement.Status)
	suite.mockSettlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestCancelSettlement_CompletedCannotBeCancelled() {
	ctx := context.Background()
	settlementID := uuid.NewString()
	completed := &domain.Settlement{
		SettlementID: settlementID,
		Status:       domain.SettlementCompleted,
	}

	suite.mockSettlementRepo.On("FindSettlementByID", ctx, settlementID).Return(completed, nil).Once()

	_, err := suite.service.CancelSettlement(ctx, settlementID, "user-1")

	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockSettlementRepo.AssertNotCalled(suite.T(), "UpdateSettlement")
}

// --- RetrySettlement ---

func (suite *SettlementServiceTestSuite) TestRetrySettlement_CreatesFreshPending() {
	ctx := context.Background()
	settlementID := uuid.NewString()
	userID := uuid.NewString()
	failed := &domain.Settlement{
		SettlementID:   settlementID,
		FloatAccountID: "acc-1",
		BalanceSide:    domain.SupplierSide,
		SettlementType: domain.Withdrawal,
		Direction:      domain.Outbound,
		Amount:         decimal.RequireFromString("200"),
		Fee:            decimal.RequireFromString("4.75"),
		NetAmount:      decimal.RequireFromString("195.25"),
		Status:         domain.SettlementFailed,
		Currency:       domain.DefaultCurrency,
		Rail:           domain.RailEFT,
		ErrorCode:      "RAIL_TIMEOUT",
	}

	suite.mockSettlementRepo.On("FindSettlementByID", ctx, settlementID).Return(failed, nil).Once()
	suite.mockSettlementRepo.On("SaveSettlement", ctx, mock.MatchedBy(func(s domain.Settlement) bool {
		return s.SettlementID != settlementID &&
			s.Status == domain.SettlementPending &&
			s.ErrorCode == "" &&
			s.Amount.Equal(failed.Amount) &&
			s.NetAmount.Equal(failed.NetAmount)
	})).Return(nil).Once()

	retry, err := suite.service.RetrySettlement(ctx, settlementID, userID)

	suite.Require().NoError(err)
	suite.NotEqual(settlementID, retry.SettlementID)
	suite.Equal(domain.SettlementPending, retry.Status)
	// The failed original is never mutated.
	suite.Equal(domain.SettlementFailed, failed.Status)
	suite.mockSettlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestRetrySettlement_OnlyFailedCanRetry() {
	ctx := context.Background()

	for _, status := range []domain.SettlementStatus{
		domain.SettlementPending, domain.SettlementProcessing,
		domain.SettlementCompleted, domain.SettlementCancelled,
	} {
		settlementID := uuid.NewString()
		suite.mockSettlementRepo.On("FindSettlementByID", ctx, settlementID).
			Return(&domain.Settlement{SettlementID: settlementID, Status: status}, nil).Once()

		_, err := suite.service.RetrySettlement(ctx, settlementID, "user-1")

		suite.ErrorIs(err, apperrors.ErrConflict, "status %s", status)
	}
	suite.mockSettlementRepo.AssertNotCalled(suite.T(), "SaveSettlement")
}

// --- ListSettlementsByAccount ---

func (suite *SettlementServiceTestSuite) TestListSettlementsByAccount_DefaultsPagination() {
	ctx := context.Background()
	expected := []domain.Settlement{{SettlementID: "stl-1"}}

	suite.mockSettlementRepo.On("ListSettlementsByAccount", ctx, "acc-1", 20, 0).Return(expected, nil).Once()

	settlements, err := suite.service.ListSettlementsByAccount(ctx, "acc-1", 0, -5)

	suite.Require().NoError(err)
	suite.Equal(expected, settlements)
	suite.mockSettlementRepo.AssertExpectations(suite.T())
}

// --- ReconcileAccount ---

func (suite *SettlementServiceTestSuite) TestReconcileAccount_DualRoleConsistent() {
	ctx := context.Background()
	accountID := uuid.NewString()
	account := activeDualRoleAccount(accountID)

	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(account, nil).Once()
	suite.mockSettlementRepo.On("SumCompletedNetAmounts", ctx, accountID, domain.SupplierSide).
		Return(decimal.RequireFromString("500"), nil).Once()
	suite.mockSettlementRepo.On("SumCompletedNetAmounts", ctx, accountID, domain.MerchantSide).
		Return(decimal.RequireFromString("100"), nil).Once()

	report, err := suite.service.ReconcileAccount(ctx, accountID)

	suite.Require().NoError(err)
	suite.True(report.Consistent)
	suite.Require().Len(report.Sides, 2)
	suite.True(report.Sides[0].Drift.IsZero())
	suite.True(report.Sides[1].Drift.IsZero())
	suite.mockSettlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestReconcileAccount_DriftReturnsIntegrityError() {
	ctx := context.Background()
	accountID := uuid.NewString()
	account := activeSupplierAccount(accountID) // balance 1000

	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(account, nil).Once()
	suite.mockSettlementRepo.On("SumCompletedNetAmounts", ctx, accountID, domain.SupplierSide).
		Return(decimal.RequireFromString("900"), nil).Once()

	report, err := suite.service.ReconcileAccount(ctx, accountID)

	suite.Require().ErrorIs(err, apperrors.ErrIntegrity)
	suite.Require().NotNil(report)
	suite.False(report.Consistent)
	suite.Require().Len(report.Sides, 1)
	suite.True(decimal.RequireFromString("100").Equal(report.Sides[0].Drift))
	suite.mockSettlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestReconcileAccount_SupplierOnlySkipsMerchantSide() {
	ctx := context.Background()
	accountID := uuid.NewString()
	account := activeSupplierAccount(accountID)

	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(account, nil).Once()
	suite.mockSettlementRepo.On("SumCompletedNetAmounts", ctx, accountID, domain.SupplierSide).
		Return(decimal.RequireFromString("1000"), nil).Once()

	report, err := suite.service.ReconcileAccount(ctx, accountID)

	suite.Require().NoError(err)
	suite.Require().Len(report.Sides, 1)
	suite.Equal(domain.SupplierSide, report.Sides[0].Side)
	suite.mockSettlementRepo.AssertNotCalled(suite.T(), "SumCompletedNetAmounts", ctx, accountID, domain.MerchantSide)
}

func (suite *SettlementServiceTestSuite) TestReconcileAccount_RepoErrorPropagates() {
	ctx := context.Background()
	accountID := uuid.NewString()

	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(activeSupplierAccount(accountID), nil).Once()
	suite.mockSettlementRepo.On("SumCompletedNetAmounts", ctx, accountID, domain.SupplierSide).
		Return(decimal.Zero, assert.AnError).Once()

	report, err := suite.service.ReconcileAccount(ctx, accountID)

	suite.Require().ErrorIs(err, assert.AnError)
	suite.Nil(report)
}

// --- Run Suite ---
func TestSettlementService(t *testing.T) {
	suite.Run(t, new(SettlementServiceTestSuite))
}
