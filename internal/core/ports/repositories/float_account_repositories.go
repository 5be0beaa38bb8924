package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
)

// FloatAccountReader defines read operations for float account data
type FloatAccountReader interface {
	// FindAccountByID retrieves a specific float account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.FloatAccount, error)

	// ListAccounts retrieves a paginated list of float accounts.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.FloatAccount, error)
}

// FloatAccountWriter defines write operations for float account data
type FloatAccountWriter interface {
	// SaveAccount persists a new float account.
	SaveAccount(ctx context.Context, account domain.FloatAccount) error

	// UpdateStatus changes an account's lifecycle status. Closing is terminal;
	// the row is never deleted.
	UpdateStatus(ctx context.Context, accountID string, status domain.AccountStatus, userID string, now time.Time) error

	// UpdateSettlementSchedule stamps the last/next settlement times after a
	// net settlement has been emitted or completed.
	UpdateSettlementSchedule(ctx context.Context, accountID string, lastAt, nextAt *time.Time, userID string, now time.Time) error
}

// FloatAccountTransactionSupport defines operations used inside the atomic
// settlement apply.
type FloatAccountTransactionSupport interface {
	// FindAccountByIDForUpdate selects an account and locks its row for update
	// within a transaction. This is the per-account serialization point.
	FindAccountByIDForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.FloatAccount, error)

	// UpdateBalancesInTx writes an account's balance columns within a given
	// transaction. The caller must hold the row lock.
	UpdateBalancesInTx(ctx context.Context, tx pgx.Tx, account *domain.FloatAccount, userID string, now time.Time) error
}

// FloatAccountRepositoryFacade combines all float-account repository interfaces
type FloatAccountRepositoryFacade interface {
	FloatAccountReader
	FloatAccountWriter
	FloatAccountTransactionSupport
}
