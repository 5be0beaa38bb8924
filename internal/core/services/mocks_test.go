package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
)

// --- Mock FloatAccountRepository ---

type MockFloatAccountRepository struct {
	mock.Mock
}

func (m *MockFloatAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.FloatAccount, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FloatAccount), args.Error(1)
}

func (m *MockFloatAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.FloatAccount, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FloatAccount), args.Error(1)
}

func (m *MockFloatAccountRepository) SaveAccount(ctx context.Context, account domain.FloatAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockFloatAccountRepository) UpdateStatus(ctx context.Context, accountID string, status domain.AccountStatus, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, status, userID, now)
	return args.Error(0)
}

func (m *MockFloatAccountRepository) UpdateSettlementSchedule(ctx context.Context, accountID string, lastAt, nextAt *time.Time, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, lastAt, nextAt, userID, now)
	return args.Error(0)
}

func (m *MockFloatAccountRepository) FindAccountByIDForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.FloatAccount, error) {
	args := m.Called(ctx, tx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FloatAccount), args.Error(1)
}

func (m *MockFloatAccountRepository) UpdateBalancesInTx(ctx context.Context, tx pgx.Tx, account *domain.FloatAccount, userID string, now time.Time) error {
	args := m.Called(ctx, tx, account, userID, now)
	return args.Error(0)
}

// --- Mock SettlementRepository ---

type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) FindSettlementByID(ctx context.Context, settlementID string) (*domain.Settlement, error) {
	args := m.Called(ctx, settlementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) ListSettlementsByAccount(ctx context.Context, accountID string, limit int, offset int) ([]domain.Settlement, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) SumCompletedNetAmounts(ctx context.Context, accountID string, side domain.BalanceSide) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, side)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockSettlementRepository) SaveSettlement(ctx context.Context, settlement domain.Settlement) error {
	args := m.Called(ctx, settlement)
	return args.Error(0)
}

func (m *MockSettlementRepository) UpdateSettlement(ctx context.Context, settlement domain.Settlement) error {
	args := m.Called(ctx, settlement)
	return args.Error(0)
}

func (m *MockSettlementRepository) CompleteSettlement(ctx context.Context, settlementID string, userID string, now time.Time) (*domain.Settlement, error) {
	args := m.Called(ctx, settlementID, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

// --- Mock TransactionCounter ---

type MockTransactionCounter struct {
	mock.Mock
}

func (m *MockTransactionCounter) Count(ctx context.Context, accountID string, class domain.TransactionClass, periodStart time.Time) (int64, error) {
	args := m.Called(ctx, accountID, class, periodStart)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionCounter) Increment(ctx context.Context, accountID string, class domain.TransactionClass, now time.Time) (int64, error) {
	args := m.Called(ctx, accountID, class, now)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock NettingService ---

type MockNettingService struct {
	mock.Mock
}

func (m *MockNettingService) EvaluateAccount(ctx context.Context, accountID string, userID string) (*domain.Settlement, error) {
	args := m.Called(ctx, accountID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

// --- Mock RailDispatcher ---

type MockRailDispatcher struct {
	mock.Mock
}

func (m *MockRailDispatcher) Dispatch(ctx context.Context, settlement domain.Settlement) error {
	args := m.Called(ctx, settlement)
	return args.Error(0)
}
