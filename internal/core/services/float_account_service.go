package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valr-fintech/treasury-ledger/internal/apperrors"
	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
	portsrepo "github.com/valr-fintech/treasury-ledger/internal/core/ports/repositories"
	portssvc "github.com/valr-fintech/treasury-ledger/internal/core/ports/services"
	"github.com/valr-fintech/treasury-ledger/internal/dto"
)

// defaultNetSettlementThreshold applies to dual-role accounts created without
// an explicit threshold. Deliberately non-zero so a freshly onboarded entity
// does not fire a settlement on its first cent of imbalance.
var defaultNetSettlementThreshold = decimal.NewFromInt(1000)

// floatAccountService implements the FloatAccountSvcFacade interface.
type floatAccountService struct {
	BaseService
	accountRepo portsrepo.FloatAccountRepositoryFacade
}

// NewFloatAccountService creates a new float account service.
func NewFloatAccountService(repo portsrepo.FloatAccountRepositoryFacade) portssvc.FloatAccountSvcFacade {
	return &floatAccountService{accountRepo: repo}
}

// Ensure floatAccountService implements the FloatAccountSvcFacade interface
var _ portssvc.FloatAccountSvcFacade = (*floatAccountService)(nil)

// CreateAccount onboards a new float account.
func (s *floatAccountService) CreateAccount(ctx context.Context, req dto.CreateFloatAccountRequest, userID string) (*domain.FloatAccount, error) {
	if req.MinimumBalance.IsNegative() {
		return nil, fmt.Errorf("%w: minimum balance must not be negative", apperrors.ErrValidation)
	}
	if req.MaximumBalance != nil && req.MaximumBalance.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: maximum balance must be positive when set", apperrors.ErrValidation)
	}

	threshold := defaultNetSettlementThreshold
	if req.NetSettlementThreshold != nil {
		if req.NetSettlementThreshold.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: net settlement threshold must be positive", apperrors.ErrValidation)
		}
		threshold = *req.NetSettlementThreshold
	}

	now := time.Now().UTC()
	account := domain.FloatAccount{
		AccountID:              req.AccountID,
		DisplayName:            req.DisplayName,
		Role:                   req.Role,
		Status:                 domain.StatusActive,
		MinimumBalance:         req.MinimumBalance,
		MaximumBalance:         req.MaximumBalance,
		MaxSupplierBalance:     req.MaxSupplierBalance,
		MaxMerchantBalance:     req.MaxMerchantBalance,
		NetSettlementThreshold: threshold,
		AutoSettlementEnabled:  req.AutoSettlementEnabled,
		SettlementPeriod:       req.SettlementPeriod,
		FundingMethod:          req.FundingMethod,
		BankAccountNumber:      req.BankAccountNumber,
		BankCode:               req.BankCode,
		BankName:               req.BankName,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save float account",
			slog.String("account_id", account.AccountID))
		return nil, err
	}

	s.LogInfo(ctx, "Float account created",
		slog.String("account_id", account.AccountID),
		slog.String("role", string(account.Role)))
	return &account, nil
}

// GetAccountByID retrieves a float account.
func (s *floatAccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.FloatAccount, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ListAccounts retrieves a paginated list of float accounts.
func (s *floatAccountService) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.FloatAccount, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.accountRepo.ListAccounts(ctx, limit, offset)
}

// UpdateStatus suspends, closes, or reactivates an account. Closed accounts
// stay closed: the row persists for audit and can never go active again.
func (s *floatAccountService) UpdateStatus(ctx context.Context, accountID string, status domain.AccountStatus, userID string) (*domain.FloatAccount, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Status == domain.StatusClosed {
		return nil, fmt.Errorf("%w: account %s is closed", apperrors.ErrConflict, accountID)
	}
	if account.Status == status {
		return account, nil
	}

	now := time.Now().UTC()
	if err := s.accountRepo.UpdateStatus(ctx, accountID, status, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to update account status",
			slog.String("account_id", accountID),
			slog.String("status", string(status)))
		return nil, err
	}

	account.Status = status
	account.LastUpdatedAt = now
	account.LastUpdatedBy = userID

	s.LogInfo(ctx, "Float account status updated",
		slog.String("account_id", accountID),
		slog.String("status", string(status)))
	return account, nil
}

// GetNetPosition returns the dual-role net snapshot for reporting.
func (s *floatAccountService) GetNetPosition(ctx context.Context, accountID string) (*domain.NetPosition, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Role != domain.DualRole {
		return nil, fmt.Errorf("%w: account %s is not a dual-role account", apperrors.ErrValidation, accountID)
	}

	return &domain.NetPosition{
		AccountID:          account.AccountID,
		NetBalance:         account.NetBalance(),
		Direction:          account.SettlementDirection(),
		RequiresSettlement: account.RequiresSettlement(),
	}, nil
}

// GetUtilization computes the balance utilization percentage for a side.
func (s *floatAccountService) GetUtilization(ctx context.Context, accountID string, side domain.BalanceSide) (decimal.Decimal, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.UtilizationPercentage(side), nil
}
