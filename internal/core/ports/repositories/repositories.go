package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager defines operations for managing database transactions
type TransactionManager interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Commit(ctx context.Context, tx pgx.Tx) error
	Rollback(ctx context.Context, tx pgx.Tx) error
}

// RepositoryProvider holds all repository implementations for injection into
// the service container.
type RepositoryProvider struct {
	FloatAccountRepo FloatAccountRepositoryFacade
	SettlementRepo   SettlementRepositoryFacade
	CounterRepo      TransactionCounter
}
