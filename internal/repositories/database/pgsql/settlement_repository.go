package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/valr-fintech/treasury-ledger/internal/apperrors"
	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
	portsrepo "github.com/valr-fintech/treasury-ledger/internal/core/ports/repositories"
	"github.com/valr-fintech/treasury-ledger/internal/models"
)

const settlementColumns = `
	settlement_id, float_account_id, balance_side, settlement_type, direction,
	amount, fee, net_amount, balance_before, balance_after,
	status, currency, rail,
	supplier_reference, bank_reference, transaction_reference,
	error_code, error_message,
	scheduled_for, processed_at, completed_at,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxSettlementRepository struct {
	BaseRepository
	accountRepo portsrepo.FloatAccountRepositoryFacade
}

// newPgxSettlementRepository creates a new repository for settlement data.
func newPgxSettlementRepository(pool *pgxpool.Pool, accountRepo portsrepo.FloatAccountRepositoryFacade) portsrepo.SettlementRepositoryFacade {
	return &PgxSettlementRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxSettlementRepository implements portsrepo.SettlementRepositoryFacade
var _ portsrepo.SettlementRepositoryFacade = (*PgxSettlementRepository)(nil)

func toModelSettlement(d domain.Settlement) models.Settlement {
	return models.Settlement{
		SettlementID:         d.SettlementID,
		FloatAccountID:       d.FloatAccountID,
		BalanceSide:          string(d.BalanceSide),
		SettlementType:       string(d.SettlementType),
		Direction:            string(d.Direction),
		Amount:               d.Amount,
		Fee:                  d.Fee,
		NetAmount:            d.NetAmount,
		BalanceBefore:        d.BalanceBefore,
		BalanceAfter:         d.BalanceAfter,
		Status:               string(d.Status),
		Currency:             d.Currency,
		Rail:                 string(d.Rail),
		SupplierReference:    d.SupplierReference,
		BankReference:        d.BankReference,
		TransactionReference: d.TransactionReference,
		ErrorCode:            d.ErrorCode,
		ErrorMessage:         d.ErrorMessage,
		ScheduledFor:         d.ScheduledFor,
		ProcessedAt:          d.ProcessedAt,
		CompletedAt:          d.CompletedAt,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainSettlement(m models.Settlement) domain.Settlement {
	return domain.Settlement{
		SettlementID:         m.SettlementID,
		FloatAccountID:       m.FloatAccountID,
		BalanceSide:          domain.BalanceSide(m.BalanceSide),
		SettlementType:       domain.SettlementType(m.SettlementType),
		Direction:            domain.SettlementDirection(m.Direction),
		Amount:               m.Amount,
		Fee:                  m.Fee,
		NetAmount:            m.NetAmount,
		BalanceBefore:        m.BalanceBefore,
		BalanceAfter:         m.BalanceAfter,
		Status:               domain.SettlementStatus(m.Status),
		Currency:             m.Currency,
		Rail:                 domain.PaymentRail(m.Rail),
		SupplierReference:    m.SupplierReference,
		BankReference:        m.BankReference,
		TransactionReference: m.TransactionReference,
		ErrorCode:            m.ErrorCode,
		ErrorMessage:         m.ErrorMessage,
		ScheduledFor:         m.ScheduledFor,
		ProcessedAt:          m.ProcessedAt,
		CompletedAt:          m.CompletedAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

func scanSettlement(row pgx.Row) (*models.Settlement, error) {
	var m models.Settlement
	err := row.Scan(
		&m.SettlementID, &m.FloatAccountID, &m.BalanceSide, &m.SettlementType, &m.Direction,
		&m.Amount, &m.Fee, &m.NetAmount, &m.BalanceBefore, &m.BalanceAfter,
		&m.Status, &m.Currency, &m.Rail,
		&m.SupplierReference, &m.BankReference, &m.TransactionReference,
		&m.ErrorCode, &m.ErrorMessage,
		&m.ScheduledFor, &m.ProcessedAt, &m.CompletedAt,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveSettlement persists a new settlement in pending state.
func (r *PgxSettlementRepository) SaveSettlement(ctx context.Context, settlement domain.Settlement) error {
	m := toModelSettlement(settlement)

	query := `
		INSERT INTO settlements (` + settlementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.SettlementID, m.FloatAccountID, m.BalanceSide, m.SettlementType, m.Direction,
		m.Amount, m.Fee, m.NetAmount, m.BalanceBefore, m.BalanceAfter,
		m.Status, m.Currency, m.Rail,
		m.SupplierReference, m.BankReference, m.TransactionReference,
		m.ErrorCode, m.ErrorMessage,
		m.ScheduledFor, m.ProcessedAt, m.CompletedAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // Unique violation
				return fmt.Errorf("%w: settlement with ID %s already exists", apperrors.ErrDuplicate, m.SettlementID)
			case "23503": // FK violation
				return fmt.Errorf("%w: float account %s", apperrors.ErrNotFound, m.FloatAccountID)
			}
		}
		return fmt.Errorf("failed to save settlement %s: %w", m.SettlementID, err)
	}
	return nil
}

// FindSettlementByID retrieves a settlement by its ID.
func (r *PgxSettlementRepository) FindSettlementByID(ctx context.Context, settlementID string) (*domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE settlement_id = $1;`

	m, err := scanSettlement(r.Pool.QueryRow(ctx, query, settlementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: settlement %s", apperrors.ErrNotFound, settlementID)
		}
		return nil, fmt.Errorf("failed to find settlement %s: %w", settlementID, err)
	}

	settlement := toDomainSettlement(*m)
	return &settlement, nil
}

// ListSettlementsByAccount retrieves an account's settlements, newest first.
func (r *PgxSettlementRepository) ListSettlementsByAccount(ctx context.Context, accountID string, limit int, offset int) ([]domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + `
		FROM settlements
		WHERE float_account_id = $1
		ORDER BY created_at DESC, settlement_id DESC
		LIMIT $2 OFFSET $3;`

	rows, err := r.Pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements for account %s: %w", accountID, err)
	}
	defer rows.Close()

	settlements := make([]domain.Settlement, 0, limit)
	for rows.Next() {
		m, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement row: %w", err)
		}
		settlements = append(settlements, toDomainSettlement(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlement rows: %w", err)
	}
	return settlements, nil
}

// SumCompletedNetAmounts sums the signed net amounts of completed settlements
// for one account side. Reconciliation compares this against the persisted
// balance; a mismatch is a data-integrity alert, never silently corrected.
func (r *PgxSettlementRepository) SumCompletedNetAmounts(ctx context.Context, accountID string, side domain.BalanceSide) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN direction = 'OUTBOUND' THEN -net_amount ELSE net_amount END), 0)
		FROM settlements
		WHERE float_account_id = $1 AND balance_side = $2 AND status = 'COMPLETED';
	`
	var sum decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, accountID, string(side)).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum completed settlements for account %s: %w", accountID, err)
	}
	return sum, nil
}

// UpdateSettlement persists a non-completing state change.
func (r *PgxSettlementRepository) UpdateSettlement(ctx context.Context, settlement domain.Settlement) error {
	m := toModelSettlement(settlement)

	query := `
		UPDATE settlements
		SET status = $2, error_code = $3, error_message = $4,
		    processed_at = $5, completed_at = $6,
		    last_updated_at = $7, last_updated_by = $8
		WHERE settlement_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.SettlementID, m.Status, m.ErrorCode, m.ErrorMessage,
		m.ProcessedAt, m.CompletedAt,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update settlement %s: %w", m.SettlementID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: settlement %s", apperrors.ErrNotFound, m.SettlementID)
	}
	return nil
}

// CompleteSettlement performs the atomic apply. Within one transaction it
// locks the settlement row, locks the float account row, mutates the balance
// through the domain, stamps the settlement's before/after snapshot and
// completed status, and commits. Both writes land or neither does; the
// balance/settlement pairing invariant holds by construction.
func (r *PgxSettlementRepository) CompleteSettlement(ctx context.Context, settlementID string, userID string, now time.Time) (*domain.Settlement, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx) // No-op once committed

	lockQuery := `SELECT ` + settlementColumns + ` FROM settlements WHERE settlement_id = $1 FOR UPDATE;`
	m, err := scanSettlement(tx.QueryRow(ctx, lockQuery, settlementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: settlement %s", apperrors.ErrNotFound, settlementID)
		}
		return nil, fmt.Errorf("failed to lock settlement %s: %w", settlementID, err)
	}
	settlement := toDomainSettlement(*m)

	account, err := r.accountRepo.FindAccountByIDForUpdate(ctx, tx, settlement.FloatAccountID)
	if err != nil {
		return nil, err
	}

	balanceBefore := account.BalanceFor(settlement.BalanceSide)

	var balanceAfter decimal.Decimal
	if settlement.Direction == domain.Inbound {
		balanceAfter, err = account.Credit(settlement.NetAmount, settlement.BalanceSide)
	} else {
		balanceAfter, err = account.Debit(settlement.NetAmount, settlement.BalanceSide)
	}
	if err != nil {
		return nil, err
	}

	if err := settlement.MarkCompleted(now, balanceBefore, balanceAfter); err != nil {
		return nil, err
	}
	settlement.LastUpdatedAt = now
	settlement.LastUpdatedBy = userID

	if err := r.accountRepo.UpdateBalancesInTx(ctx, tx, account, userID, now); err != nil {
		return nil, err
	}

	updateQuery := `
		UPDATE settlements
		SET status = $2, balance_before = $3, balance_after = $4,
		    completed_at = $5, last_updated_at = $6, last_updated_by = $7
		WHERE settlement_id = $1;
	`
	if _, err := tx.Exec(ctx, updateQuery,
		settlement.SettlementID, string(settlement.Status),
		settlement.BalanceBefore, settlement.BalanceAfter,
		settlement.CompletedAt, settlement.LastUpdatedAt, settlement.LastUpdatedBy,
	); err != nil {
		return nil, fmt.Errorf("failed to complete settlement %s: %w", settlementID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &settlement, nil
}
