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
	"github.com/valr-fintech/treasury-ledger/internal/platform/config"
	"github.com/valr-fintech/treasury-ledger/internal/utils/vat"
)

// Volume tier boundaries (monthly transaction count, class-scoped) and their
// VAT-inclusive fees. Counts at or above negotiatedTierFloor require an
// explicitly configured rate.
var (
	tierOneFee   = decimal.RequireFromString("5.75") // 0 - 999
	tierTwoFee   = decimal.RequireFromString("4.75") // 1,000 - 9,999
	tierThreeFee = decimal.RequireFromString("4.00") // 10,000 - 49,999
)

const (
	tierTwoFloor        int64 = 1_000
	tierThreeFloor      int64 = 10_000
	negotiatedTierFloor int64 = 50_000
)

// feeService implements the FeeSvcFacade interface.
type feeService struct {
	BaseService
	cfg     config.FeeConfig
	counter portsrepo.TransactionCounter
}

// NewFeeService creates the fee calculator, validating its configuration up
// front. A missing negotiated-tier rate is allowed here; quoting for the
// 50,000+ tier fails closed instead.
func NewFeeService(cfg config.FeeConfig, counter portsrepo.TransactionCounter) (portssvc.FeeSvcFacade, error) {
	if err := vat.ValidateRate(cfg.VATRate); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrConfiguration, err)
	}
	if cfg.MarkupInclVAT.IsNegative() {
		return nil, fmt.Errorf("%w: markup must not be negative, got %s", apperrors.ErrConfiguration, cfg.MarkupInclVAT.String())
	}
	if cfg.ProxyValidationFee.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: proxy validation fee must be positive, got %s", apperrors.ErrConfiguration, cfg.ProxyValidationFee.String())
	}
	if cfg.NegotiatedTierFee != nil && cfg.NegotiatedTierFee.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: negotiated tier fee must be positive, got %s", apperrors.ErrConfiguration, cfg.NegotiatedTierFee.String())
	}
	return &feeService{cfg: cfg, counter: counter}, nil
}

// Ensure feeService implements the FeeSvcFacade interface
var _ portssvc.FeeSvcFacade = (*feeService)(nil)

// tierFee returns the VAT-inclusive tier fee for a monthly transaction count.
// The 50,000+ tier has no default: negotiated pricing must be explicit, so an
// unset override is refused rather than silently reusing the lower tier.
func (s *feeService) tierFee(monthlyCount int64) (decimal.Decimal, error) {
	switch {
	case monthlyCount < tierTwoFloor:
		return tierOneFee, nil
	case monthlyCount < tierThreeFloor:
		return tierTwoFee, nil
	case monthlyCount < negotiatedTierFloor:
		return tierThreeFee, nil
	default:
		if s.cfg.NegotiatedTierFee == nil {
			return decimal.Zero, fmt.Errorf("%w: no negotiated fee configured for monthly volumes of %d and above",
				apperrors.ErrConfiguration, negotiatedTierFloor)
		}
		return *s.cfg.NegotiatedTierFee, nil
	}
}

// QuoteFee computes the fee breakdown for one transaction of the given class.
func (s *feeService) QuoteFee(ctx context.Context, accountID string, class domain.TransactionClass, now time.Time) (*domain.FeeBreakdown, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account ID is required", apperrors.ErrValidation)
	}
	if !domain.ValidTransactionClass(class) {
		return nil, fmt.Errorf("%w: unknown transaction class %q", apperrors.ErrValidation, class)
	}

	count, err := s.counter.Count(ctx, accountID, class, now)
	if err != nil {
		s.LogError(ctx, err, "Failed to read monthly transaction count",
			slog.String("account_id", accountID),
			slog.String("transaction_class", string(class)))
		return nil, fmt.Errorf("failed to read monthly transaction count: %w", err)
	}

	gross, err := s.tierFee(count)
	if err != nil {
		s.LogError(ctx, err, "Fee tier resolution refused",
			slog.String("account_id", accountID),
			slog.Int64("monthly_count", count))
		return nil, err
	}

	switch class {
	case domain.PushPayment:
		return s.pushPaymentBreakdown(gross), nil
	default:
		return s.requestToPayBreakdown(gross), nil
	}
}

// pushPaymentBreakdown charges tier fee plus the fixed markup. The tier fee is
// a cost of sale whose VAT is reclaimable input VAT; the markup is revenue
// whose VAT is owed as output VAT, so the net VAT payable is the markup's VAT.
func (s *feeService) pushPaymentBreakdown(gross decimal.Decimal) *domain.FeeBreakdown {
	feeExVAT, vatOnFee := vat.ExtractInclusive(gross, s.cfg.VATRate)
	markupExVAT, vatOnMarkup := vat.ExtractInclusive(s.cfg.MarkupInclVAT, s.cfg.VATRate)

	totalOutputVAT := vatOnFee.Add(vatOnMarkup)
	return &domain.FeeBreakdown{
		GrossFeeInclVAT:        gross,
		FeeExVAT:               feeExVAT,
		VATOnFee:               vatOnFee,
		MarkupInclVAT:          s.cfg.MarkupInclVAT,
		MarkupExVAT:            markupExVAT,
		VATOnMarkup:            vatOnMarkup,
		TotalUserChargeInclVAT: gross.Add(s.cfg.MarkupInclVAT),
		TotalOutputVAT:         totalOutputVAT,
		NetVATPayable:          totalOutputVAT.Sub(vatOnFee),
		NetRevenueExVAT:        markupExVAT,
	}
}

// requestToPayBreakdown is a pure pass-through: no markup, zero net revenue,
// and output VAT on the user charge cancels against input VAT on the cost.
func (s *feeService) requestToPayBreakdown(gross decimal.Decimal) *domain.FeeBreakdown {
	feeExVAT, vatOnFee := vat.ExtractInclusive(gross, s.cfg.VATRate)

	return &domain.FeeBreakdown{
		GrossFeeInclVAT:        gross,
		FeeExVAT:               feeExVAT,
		VATOnFee:               vatOnFee,
		MarkupInclVAT:          decimal.Zero,
		MarkupExVAT:            decimal.Zero,
		VATOnMarkup:            decimal.Zero,
		TotalUserChargeInclVAT: gross,
		TotalOutputVAT:         vatOnFee,
		NetVATPayable:          decimal.Zero,
		NetRevenueExVAT:        decimal.Zero,
	}
}

// QuoteProxyValidation is the flat fee for proxy validation without payment.
// Not tiered and not counted against monthly volumes.
func (s *feeService) QuoteProxyValidation() *domain.FeeBreakdown {
	gross := s.cfg.ProxyValidationFee
	feeExVAT, vatOnFee := vat.ExtractInclusive(gross, s.cfg.VATRate)

	return &domain.FeeBreakdown{
		GrossFeeInclVAT:        gross,
		FeeExVAT:               feeExVAT,
		VATOnFee:               vatOnFee,
		MarkupInclVAT:          decimal.Zero,
		MarkupExVAT:            decimal.Zero,
		VATOnMarkup:            decimal.Zero,
		TotalUserChargeInclVAT: gross,
		TotalOutputVAT:         vatOnFee,
		NetVATPayable:          vatOnFee,
		NetRevenueExVAT:        feeExVAT,
	}
}

// RecordTransaction increments the account's class-scoped monthly counter.
func (s *feeService) RecordTransaction(ctx context.Context, accountID string, class domain.TransactionClass, now time.Time) (int64, error) {
	if accountID == "" {
		return 0, fmt.Errorf("%w: account ID is required", apperrors.ErrValidation)
	}
	if !domain.ValidTransactionClass(class) {
		return 0, fmt.Errorf("%w: unknown transaction class %q", apperrors.ErrValidation, class)
	}
	count, err := s.counter.Increment(ctx, accountID, class, now)
	if err != nil {
		s.LogError(ctx, err, "Failed to increment monthly transaction count",
			slog.String("account_id", accountID),
			slog.String("transaction_class", string(class)))
		return 0, fmt.Errorf("failed to increment monthly transaction count: %w", err)
	}
	return count, nil
}
