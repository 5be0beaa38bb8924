package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/valr-fintech/treasury-ledger/internal/core/ports/repositories"
)

// NewRepositoryProvider wires the pgx-backed repositories. The transaction
// counter lives in Redis and is injected separately.
func NewRepositoryProvider(dbPool *pgxpool.Pool, counter portsrepo.TransactionCounter) portsrepo.RepositoryProvider {
	accountRepo := newPgxFloatAccountRepository(dbPool)
	settlementRepo := newPgxSettlementRepository(dbPool, accountRepo)

	return portsrepo.RepositoryProvider{
		FloatAccountRepo: accountRepo,
		SettlementRepo:   settlementRepo,
		CounterRepo:      counter,
	}
}
