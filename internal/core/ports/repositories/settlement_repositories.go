package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
)

// SettlementReader defines read operations for settlement data
type SettlementReader interface {
	// FindSettlementByID retrieves a settlement by its unique identifier.
	FindSettlementByID(ctx context.Context, settlementID string) (*domain.Settlement, error)

	// ListSettlementsByAccount retrieves a paginated list of settlements for
	// one float account, newest first.
	ListSettlementsByAccount(ctx context.Context, accountID string, limit int, offset int) ([]domain.Settlement, error)

	// SumCompletedNetAmounts returns the sum of signed net amounts of all
	// completed settlements for an account side. Used by reconciliation to
	// audit balance conservation.
	SumCompletedNetAmounts(ctx context.Context, accountID string, side domain.BalanceSide) (decimal.Decimal, error)
}

// SettlementWriter defines write operations for settlement data
type SettlementWriter interface {
	// SaveSettlement persists a new settlement in pending state.
	SaveSettlement(ctx context.Context, settlement domain.Settlement) error

	// UpdateSettlement persists a non-completing state change (processing,
	// failed, cancelled) together with its timestamps and error fields.
	UpdateSettlement(ctx context.Context, settlement domain.Settlement) error

	// CompleteSettlement performs the atomic apply: locks the float account
	// row, mutates the balance, stamps the settlement's before/after snapshot
	// and completed status, and commits everything in a single transaction.
	// Both writes commit or neither does. The returned settlement reflects
	// the completed state.
	CompleteSettlement(ctx context.Context, settlementID string, userID string, now time.Time) (*domain.Settlement, error)
}

// SettlementRepositoryFacade combines all settlement repository interfaces
type SettlementRepositoryFacade interface {
	SettlementReader
	SettlementWriter
}
