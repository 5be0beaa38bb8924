package services

import (
	"context"
	"time"

	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
)

// FeeSvcFacade computes volume-tiered, VAT-inclusive fees and their
// accounting decomposition. All quote operations are pure apart from reading
// the monthly transaction counter.
type FeeSvcFacade interface {
	// QuoteFee computes the fee breakdown for one transaction of the given
	// class, using the account's class-scoped count for the calendar month
	// containing now.
	QuoteFee(ctx context.Context, accountID string, class domain.TransactionClass, now time.Time) (*domain.FeeBreakdown, error)

	// QuoteProxyValidation computes the flat proxy-validation fee breakdown.
	// Independent of monthly volumes.
	QuoteProxyValidation() *domain.FeeBreakdown

	// RecordTransaction increments the account's monthly counter for the
	// class, returning the new count.
	RecordTransaction(ctx context.Context, accountID string, class domain.TransactionClass, now time.Time) (int64, error)
}
