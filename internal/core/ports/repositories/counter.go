package repositories

import (
	"context"
	"time"

	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
)

// TransactionCounter is the monthly transaction-count oracle consumed by the
// fee calculator. Counts are scoped per account and per transaction class over
// UTC calendar months.
type TransactionCounter interface {
	// Count returns the number of transactions recorded for the account and
	// class in the calendar month containing periodStart.
	Count(ctx context.Context, accountID string, class domain.TransactionClass, periodStart time.Time) (int64, error)

	// Increment records one more transaction for the account and class in the
	// calendar month containing now, returning the new count.
	Increment(ctx context.Context, accountID string, class domain.TransactionClass, now time.Time) (int64, error)
}
