package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/valr-fintech/treasury-ledger/internal/apperrors"
	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
	portsrepo "github.com/valr-fintech/treasury-ledger/internal/core/ports/repositories"
	portssvc "github.com/valr-fintech/treasury-ledger/internal/core/ports/services"
	"github.com/valr-fintech/treasury-ledger/internal/dto"
)

// settlementService implements the SettlementSvcFacade interface.
// Balance mutation is deferred until a settlement completes; creation and
// dispatch never touch the float account.
type settlementService struct {
	BaseService
	settlementRepo portsrepo.SettlementRepositoryFacade
	accountRepo    portsrepo.FloatAccountRepositoryFacade
	nettingSvc     portssvc.NettingSvcFacade
	dispatcher     portssvc.RailDispatcher
	railTimeout    time.Duration
}

// SettlementOption is a functional option for configuring the settlement service
type SettlementOption func(*settlementService)

// WithNettingService adds the net settlement coordinator, re-evaluated after
// every dual-role completion.
func WithNettingService(svc portssvc.NettingSvcFacade) SettlementOption {
	return func(s *settlementService) {
		s.nettingSvc = svc
	}
}

// WithRailDispatcher adds an external payment rail dispatcher invoked on dispatch.
func WithRailDispatcher(d portssvc.RailDispatcher, timeout time.Duration) SettlementOption {
	return func(s *settlementService) {
		s.dispatcher = d
		s.railTimeout = timeout
	}
}

// NewSettlementService creates a new settlement service with the provided options
func NewSettlementService(settlementRepo portsrepo.SettlementRepositoryFacade, accountRepo portsrepo.FloatAccountRepositoryFacade, options ...SettlementOption) portssvc.SettlementSvcFacade {
	svc := &settlementService{
		settlementRepo: settlementRepo,
		accountRepo:    accountRepo,
		railTimeout:    30 * time.Second,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure settlementService implements the SettlementSvcFacade interface
var _ portssvc.SettlementSvcFacade = (*settlementService)(nil)

func (s *settlementService) validateApply(account *domain.FloatAccount, req dto.ApplySettlementRequest) (domain.BalanceSide, error) {
	if !domain.ValidSettlementType(req.SettlementType) {
		return "", fmt.Errorf("%w: unknown settlement type %q", apperrors.ErrValidation, req.SettlementType)
	}
	if !domain.ValidDirection(req.Direction) {
		return "", fmt.Errorf("%w: unknown settlement direction %q", apperrors.ErrValidation, req.Direction)
	}
	if !domain.ValidRail(req.Rail) {
		return "", fmt.Errorf("%w: unknown payment rail %q", apperrors.ErrValidation, req.Rail)
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return "", fmt.Errorf("%w: amount must be positive, got %s", apperrors.ErrValidation, req.Amount.String())
	}
	if req.Fee.IsNegative() {
		return "", fmt.Errorf("%w: fee must not be negative, got %s", apperrors.ErrValidation, req.Fee.String())
	}
	if req.Fee.GreaterThan(req.Amount) {
		return "", fmt.Errorf("%w: fee %s exceeds amount %s", apperrors.ErrValidation, req.Fee.String(), req.Amount.String())
	}
	if account.Status == domain.StatusClosed {
		return "", fmt.Errorf("%w: account %s is closed", apperrors.ErrConflict, account.AccountID)
	}

	side := req.BalanceSide
	if account.Role == domain.SupplierOnly {
		side = domain.SupplierSide
	} else if side == "" {
		side = domain.SupplierSide
	}
	return side, nil
}

// ApplySettlement is the single entry point for recording a balance movement.
// The settlement starts pending; the paired balance mutation happens inside
// the completion transaction, never here.
func (s *settlementService) ApplySettlement(ctx context.Context, accountID string, req dto.ApplySettlementRequest, userID string) (*domain.Settlement, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	side, err := s.validateApply(account, req)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	now := time.Now().UTC()
	settlement := domain.Settlement{
		SettlementID:         uuid.NewString(),
		FloatAccountID:       account.AccountID,
		BalanceSide:          side,
		SettlementType:       req.SettlementType,
		Direction:            req.Direction,
		Amount:               req.Amount,
		Fee:                  req.Fee,
		NetAmount:            req.Amount.Sub(req.Fee),
		Status:               domain.SettlementPending,
		Currency:             currency,
		Rail:                 req.Rail,
		SupplierReference:    req.SupplierReference,
		BankReference:        req.BankReference,
		TransactionReference: req.TransactionReference,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.settlementRepo.SaveSettlement(ctx, settlement); err != nil {
		s.LogError(ctx, err, "Failed to save settlement",
			slog.String("settlement_id", settlement.SettlementID),
			slog.String("account_id", accountID))
		return nil, err
	}

	s.LogInfo(ctx, "Settlement created",
		slog.String("settlement_id", settlement.SettlementID),
		slog.String("account_id", accountID),
		slog.String("type", string(settlement.SettlementType)),
		slog.String("direction", string(settlement.Direction)),
		slog.String("amount", settlement.Amount.String()))
	return &settlement, nil
}

// GetSettlementByID retrieves a settlement.
func (s *settlementService) GetSettlementByID(ctx context.Context, settlementID string) (*domain.Settlement, error) {
	return s.settlementRepo.FindSettlementByID(ctx, settlementID)
}

// ListSettlementsByAccount retrieves an account's settlements, newest first.
func (s *settlementService) ListSettlementsByAccount(ctx context.Context, accountID string, limit int, offset int) ([]domain.Settlement, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.settlementRepo.ListSettlementsByAccount(ctx, accountID, limit, offset)
}

// ReconcileAccount audits balance conservation for an account. Accounts open
// at zero and only completed settlements move balances, so each side's
// persisted balance must equal the signed sum of its completed settlements.
func (s *settlementService) ReconcileAccount(ctx context.Context, accountID string) (*domain.ReconciliationReport, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	sides := []domain.BalanceSide{domain.SupplierSide}
	if account.Role == domain.DualRole {
		sides = append(sides, domain.MerchantSide)
	}

	report := &domain.ReconciliationReport{
		AccountID:  accountID,
		Consistent: true,
		CheckedAt:  time.Now().UTC(),
	}
	for _, side := range sides {
		settled, err := s.settlementRepo.SumCompletedNetAmounts(ctx, accountID, side)
		if err != nil {
			s.LogError(ctx, err, "Failed to sum completed settlements",
				slog.String("account_id", accountID),
				slog.String("balance_side", string(side)))
			return nil, err
		}
		ledger := account.BalanceFor(side)
		entry := domain.SideReconciliation{
			Side:          side,
			LedgerBalance: ledger,
			SettledNet:    settled,
			Drift:         ledger.Sub(settled),
		}
		if !entry.Consistent() {
			report.Consistent = false
		}
		report.Sides = append(report.Sides, entry)
	}

	if !report.Consistent {
		s.LogError(ctx, apperrors.ErrIntegrity, "Balance drift detected during reconciliation",
			slog.String("account_id", accountID))
		return report, fmt.Errorf("%w: ledger balance diverges from completed settlement trail for account %s", apperrors.ErrIntegrity, accountID)
	}
	return report, nil
}

// DispatchSettlement moves pending -> processing and hands the settlement to
// the configured payment rail. A rail call that errs or times out leaves the
// settlement in processing for manual reconciliation: an ambiguous rail
// outcome is never guessed.
func (s *settlementService) DispatchSettlement(ctx context.Context, settlementID string, userID string) (*domain.Settlement, error) {
	settlement, err := s.settlementRepo.FindSettlementByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := settlement.MarkProcessing(now); err != nil {
		return nil, err
	}
	settlement.LastUpdatedAt = now
	settlement.LastUpdatedBy = userID

	if err := s.settlementRepo.UpdateSettlement(ctx, *settlement); err != nil {
		s.LogError(ctx, err, "Failed to update settlement to processing",
			slog.String("settlement_id", settlementID))
		return nil, err
	}

	if s.dispatcher != nil {
		railCtx, cancel := context.WithTimeout(ctx, s.railTimeout)
		defer cancel()
		if err := s.dispatcher.Dispatch(railCtx, *settlement); err != nil {
			s.LogError(ctx, err, "Rail dispatch did not confirm; settlement left processing",
				slog.String("settlement_id", settlementID),
				slog.String("rail", string(settlement.Rail)))
		}
	}

	s.LogInfo(ctx, "Settlement dispatched",
		slog.String("settlement_id", settlementID),
		slog.String("rail", string(settlement.Rail)))
	return settlement, nil
}

// CompleteSettlement moves processing -> completed. The repository performs
// the atomic apply: account row lock, balance mutation, and the settlement's
// before/after snapshot commit together or not at all.
func (s *settlementService) CompleteSettlement(ctx context.Context, settlementID string, userID string) (*domain.Settlement, error) {
	now := time.Now().UTC()
	settlement, err := s.settlementRepo.CompleteSettlement(ctx, settlementID, userID, now)
	if err != nil {
		s.LogError(ctx, err, "Failed to complete settlement",
			slog.String("settlement_id", settlementID))
		return nil, err
	}

	if err := s.accountRepo.UpdateSettlementSchedule(ctx, settlement.FloatAccountID, &now, nil, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to stamp last settlement time",
			slog.String("account_id", settlement.FloatAccountID))
	}

	s.LogInfo(ctx, "Settlement completed",
		slog.String("settlement_id", settlementID),
		slog.String("account_id", settlement.FloatAccountID),
		slog.String("balance_after", settlement.BalanceAfter.String()))

	// Every dual-role mutation re-evaluates the net position.
	s.evaluateNetPosition(ctx, settlement.FloatAccountID, userID)

	return settlement, nil
}

func (s *settlementService) evaluateNetPosition(ctx context.Context, accountID string, userID string) {
	if s.nettingSvc == nil {
		return
	}
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil || account.Role != domain.DualRole {
		return
	}
	emitted, err := s.nettingSvc.EvaluateAccount(ctx, accountID, userID)
	if err != nil {
		s.LogError(ctx, err, "Net settlement evaluation failed",
			slog.String("account_id", accountID))
		return
	}
	if emitted != nil {
		s.LogInfo(ctx, "Automatic net settlement raised",
			slog.String("account_id", accountID),
			slog.String("settlement_id", emitted.SettlementID),
			slog.String("amount", emitted.NetAmount.String()))
	}
}

// FailSettlement moves processing -> failed with the rail's error detail.
// No balance was applied, so nothing needs reversing.
func (s *settlementService) FailSettlement(ctx context.Context, settlementID string, errorCode, errorMessage string, userID string) (*domain.Settlement, error) {
	settlement, err := s.settlementRepo.FindSettlementByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	if err := settlement.MarkFailed(errorCode, errorMessage); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	settlement.LastUpdatedAt = now
	settlement.LastUpdatedBy = userID

	if err := s.settlementRepo.UpdateSettlement(ctx, *settlement); err != nil {
		s.LogError(ctx, err, "Failed to update settlement to failed",
			slog.String("settlement_id", settlementID))
		return nil, err
	}

	s.LogInfo(ctx, "Settlement failed",
		slog.String("settlement_id", settlementID),
		slog.String("error_code", errorCode))
	return settlement, nil
}

// CancelSettlement administratively cancels a pending or processing settlement.
func (s *settlementService) CancelSettlement(ctx context.Context, settlementID string, userID string) (*domain.Settlement, error) {
	settlement, err := s.settlementRepo.FindSettlementByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	if err := settlement.Cancel(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	settlement.LastUpdatedAt = now
	settlement.LastUpdatedBy = userID

	if err := s.settlementRepo.UpdateSettlement(ctx, *settlement); err != nil {
		s.LogError(ctx, err, "Failed to update settlement to cancelled",
			slog.String("settlement_id", settlementID))
		return nil, err
	}

	s.LogInfo(ctx, "Settlement cancelled", slog.String("settlement_id", settlementID))
	return settlement, nil
}

// RetrySettlement creates a fresh pending settlement copying a failed one.
// The original record is never mutated; the full audit trail is preserved.
func (s *settlementService) RetrySettlement(ctx context.Context, settlementID string, userID string) (*domain.Settlement, error) {
	original, err := s.settlementRepo.FindSettlementByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if original.Status != domain.SettlementFailed {
		return nil, fmt.Errorf("%w: settlement %s is %s, only failed settlements can be retried",
			apperrors.ErrConflict, settlementID, original.Status)
	}

	now := time.Now().UTC()
	retry := domain.Settlement{
		SettlementID:         uuid.NewString(),
		FloatAccountID:       original.FloatAccountID,
		BalanceSide:          original.BalanceSide,
		SettlementType:       original.SettlementType,
		Direction:            original.Direction,
		Amount:               original.Amount,
		Fee:                  original.Fee,
		NetAmount:            original.NetAmount,
		Status:               domain.SettlementPending,
		Currency:             original.Currency,
		Rail:                 original.Rail,
		SupplierReference:    original.SupplierReference,
		BankReference:        original.BankReference,
		TransactionReference: original.TransactionReference,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.settlementRepo.SaveSettlement(ctx, retry); err != nil {
		s.LogError(ctx, err, "Failed to save retry settlement",
			slog.String("original_settlement_id", settlementID))
		return nil, err
	}

	s.LogInfo(ctx, "Settlement retry created",
		slog.String("original_settlement_id", settlementID),
		slog.String("settlement_id", retry.SettlementID))
	return &retry, nil
}
