package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/valr-fintech/treasury-ledger/internal/apperrors"
	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
	portsrepo "github.com/valr-fintech/treasury-ledger/internal/core/ports/repositories"
	portssvc "github.com/valr-fintech/treasury-ledger/internal/core/ports/services"
)

// nettingService implements the NettingSvcFacade interface. It owns the
// decision of when an automatic net settlement fires; the emission itself is
// just a pending settlement handed to the normal lifecycle.
type nettingService struct {
	BaseService
	accountRepo    portsrepo.FloatAccountRepositoryFacade
	settlementRepo portsrepo.SettlementRepositoryFacade
}

// NewNettingService creates the net settlement coordinator.
func NewNettingService(accountRepo portsrepo.FloatAccountRepositoryFacade, settlementRepo portsrepo.SettlementRepositoryFacade) portssvc.NettingSvcFacade {
	return &nettingService{
		accountRepo:    accountRepo,
		settlementRepo: settlementRepo,
	}
}

// Ensure nettingService implements the NettingSvcFacade interface
var _ portssvc.NettingSvcFacade = (*nettingService)(nil)

// EvaluateAccount re-evaluates the account's net position and emits a pending
// net settlement when auto settlement is enabled, the account is active, and
// the threshold has been reached. The account's balances are never mutated
// here; the emitted settlement mutates them when it completes.
func (s *nettingService) EvaluateAccount(ctx context.Context, accountID string, userID string) (*domain.Settlement, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Role != domain.DualRole {
		return nil, fmt.Errorf("%w: account %s is not a dual-role account", apperrors.ErrValidation, accountID)
	}

	if !account.AutoSettlementEnabled || !account.IsActive() || !account.RequiresSettlement() {
		return nil, nil
	}

	direction := account.SettlementDirection()
	now := time.Now().UTC()
	scheduledFor := nextSettlementBoundary(account.SettlementPeriod, now)

	// A payout pays the entity from its supplier-side surplus; a collection
	// recovers the platform's exposure from the merchant side. Both reduce the
	// dominant side of the net position, so the account's balance movement is
	// outbound either way.
	settlement := domain.Settlement{
		SettlementID:   uuid.NewString(),
		FloatAccountID: account.AccountID,
		Direction:      domain.Outbound,
		Amount:         account.NetBalance().Abs(),
		NetAmount:      account.NetBalance().Abs(),
		Status:         domain.SettlementPending,
		Currency:       domain.DefaultCurrency,
		Rail:           domain.RailEFT,
		ScheduledFor:   &scheduledFor,
		TransactionReference: fmt.Sprintf("NETSETTLE-%s-%s",
			account.AccountID, now.Format("20060102T150405")),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if direction == domain.DirectionPayout {
		settlement.BalanceSide = domain.SupplierSide
		settlement.SettlementType = domain.Withdrawal
	} else {
		settlement.BalanceSide = domain.MerchantSide
		settlement.SettlementType = domain.Adjustment
	}

	if err := s.settlementRepo.SaveSettlement(ctx, settlement); err != nil {
		s.LogError(ctx, err, "Failed to save net settlement",
			slog.String("account_id", accountID))
		return nil, err
	}

	if err := s.accountRepo.UpdateSettlementSchedule(ctx, accountID, nil, &scheduledFor, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to stamp next settlement time",
			slog.String("account_id", accountID))
	}

	s.LogInfo(ctx, "Net settlement emitted",
		slog.String("account_id", accountID),
		slog.String("settlement_id", settlement.SettlementID),
		slog.String("direction", string(direction)),
		slog.String("amount", settlement.Amount.String()),
		slog.Time("scheduled_for", scheduledFor))
	return &settlement, nil
}

// nextSettlementBoundary computes when an emitted net settlement should run:
// immediately for real-time accounts, otherwise the next UTC period boundary.
func nextSettlementBoundary(period domain.SettlementPeriod, now time.Time) time.Time {
	now = now.UTC()
	switch period {
	case domain.PeriodDaily:
		next := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
		return next
	case domain.PeriodWeekly:
		// Next Monday 00:00 UTC.
		daysAhead := (int(time.Monday) - int(now.Weekday()) + 7) % 7
		if daysAhead == 0 {
			daysAhead = 7
		}
		next := now.Truncate(24 * time.Hour).AddDate(0, 0, daysAhead)
		return next
	case domain.PeriodMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	default: // real-time
		return now
	}
}
