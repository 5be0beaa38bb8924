package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valr-fintech/treasury-ledger/internal/apperrors"
	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
	portsrepo "github.com/valr-fintech/treasury-ledger/internal/core/ports/repositories"
	"github.com/valr-fintech/treasury-ledger/internal/models"
)

const floatAccountColumns = `
	account_id, display_name, role, status,
	balance, minimum_balance, maximum_balance,
	supplier_balance, merchant_balance, max_supplier_balance, max_merchant_balance,
	net_settlement_threshold, auto_settlement_enabled,
	settlement_period, funding_method,
	last_settlement_at, next_settlement_at,
	bank_account_number, bank_code, bank_name,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxFloatAccountRepository struct {
	BaseRepository
}

// newPgxFloatAccountRepository creates a new repository for float account data.
func newPgxFloatAccountRepository(pool *pgxpool.Pool) portsrepo.FloatAccountRepositoryFacade {
	return &PgxFloatAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxFloatAccountRepository implements portsrepo.FloatAccountRepositoryFacade
var _ portsrepo.FloatAccountRepositoryFacade = (*PgxFloatAccountRepository)(nil)

// Helper to convert domain.FloatAccount to models.FloatAccount for DB storage
func toModelFloatAccount(d domain.FloatAccount) models.FloatAccount {
	return models.FloatAccount{
		AccountID:              d.AccountID,
		DisplayName:            d.DisplayName,
		Role:                   string(d.Role),
		Status:                 string(d.Status),
		Balance:                d.Balance,
		MinimumBalance:         d.MinimumBalance,
		MaximumBalance:         d.MaximumBalance,
		SupplierBalance:        d.SupplierBalance,
		MerchantBalance:        d.MerchantBalance,
		MaxSupplierBalance:     d.MaxSupplierBalance,
		MaxMerchantBalance:     d.MaxMerchantBalance,
		NetSettlementThreshold: d.NetSettlementThreshold,
		AutoSettlementEnabled:  d.AutoSettlementEnabled,
		SettlementPeriod:       string(d.SettlementPeriod),
		FundingMethod:          string(d.FundingMethod),
		LastSettlementAt:       d.LastSettlementAt,
		NextSettlementAt:       d.NextSettlementAt,
		BankAccountNumber:      d.BankAccountNumber,
		BankCode:               d.BankCode,
		BankName:               d.BankName,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

// Helper to convert models.FloatAccount from DB to domain.FloatAccount
func toDomainFloatAccount(m models.FloatAccount) domain.FloatAccount {
	return domain.FloatAccount{
		AccountID:              m.AccountID,
		DisplayName:            m.DisplayName,
		Role:                   domain.AccountRole(m.Role),
		Status:                 domain.AccountStatus(m.Status),
		Balance:                m.Balance,
		MinimumBalance:         m.MinimumBalance,
		MaximumBalance:         m.MaximumBalance,
		SupplierBalance:        m.SupplierBalance,
		MerchantBalance:        m.MerchantBalance,
		MaxSupplierBalance:     m.MaxSupplierBalance,
		MaxMerchantBalance:     m.MaxMerchantBalance,
		NetSettlementThreshold: m.NetSettlementThreshold,
		AutoSettlementEnabled:  m.AutoSettlementEnabled,
		SettlementPeriod:       domain.SettlementPeriod(m.SettlementPeriod),
		FundingMethod:          domain.FundingMethod(m.FundingMethod),
		LastSettlementAt:       m.LastSettlementAt,
		NextSettlementAt:       m.NextSettlementAt,
		BankAccountNumber:      m.BankAccountNumber,
		BankCode:               m.BankCode,
		BankName:               m.BankName,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

func scanFloatAccount(row pgx.Row) (*models.FloatAccount, error) {
	var m models.FloatAccount
	err := row.Scan(
		&m.AccountID, &m.DisplayName, &m.Role, &m.Status,
		&m.Balance, &m.MinimumBalance, &m.MaximumBalance,
		&m.SupplierBalance, &m.MerchantBalance, &m.MaxSupplierBalance, &m.MaxMerchantBalance,
		&m.NetSettlementThreshold, &m.AutoSettlementEnabled,
		&m.SettlementPeriod, &m.FundingMethod,
		&m.LastSettlementAt, &m.NextSettlementAt,
		&m.BankAccountNumber, &m.BankCode, &m.BankName,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveAccount persists a new float account.
func (r *PgxFloatAccountRepository) SaveAccount(ctx context.Context, account domain.FloatAccount) error {
	m := toModelFloatAccount(account)

	query := `
		INSERT INTO float_accounts (` + floatAccountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.AccountID, m.DisplayName, m.Role, m.Status,
		m.Balance, m.MinimumBalance, m.MaximumBalance,
		m.SupplierBalance, m.MerchantBalance, m.MaxSupplierBalance, m.MaxMerchantBalance,
		m.NetSettlementThreshold, m.AutoSettlementEnabled,
		m.SettlementPeriod, m.FundingMethod,
		m.LastSettlementAt, m.NextSettlementAt,
		m.BankAccountNumber, m.BankCode, m.BankName,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: float account with ID %s already exists", apperrors.ErrDuplicate, m.AccountID)
		}
		return fmt.Errorf("failed to save float account %s: %w", m.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves a float account by its ID.
func (r *PgxFloatAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.FloatAccount, error) {
	query := `SELECT ` + floatAccountColumns + ` FROM float_accounts WHERE account_id = $1;`

	m, err := scanFloatAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: float account %s", apperrors.ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("failed to find float account %s: %w", accountID, err)
	}

	account := toDomainFloatAccount(*m)
	return &account, nil
}

// ListAccounts retrieves a paginated list of float accounts.
func (r *PgxFloatAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.FloatAccount, error) {
	query := `SELECT ` + floatAccountColumns + `
		FROM float_accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2;`

	rows, err := r.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list float accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.FloatAccount, 0, limit)
	for rows.Next() {
		m, err := scanFloatAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan float account row: %w", err)
		}
		accounts = append(accounts, toDomainFloatAccount(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate float account rows: %w", err)
	}
	return accounts, nil
}

// UpdateStatus changes an account's lifecycle status.
func (r *PgxFloatAccountRepository) UpdateStatus(ctx context.Context, accountID string, status domain.AccountStatus, userID string, now time.Time) error {
	query := `
		UPDATE float_accounts
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, accountID, string(status), now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of float account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: float account %s", apperrors.ErrNotFound, accountID)
	}
	return nil
}

// UpdateSettlementSchedule stamps last/next settlement times. Nil arguments
// leave the corresponding column untouched.
func (r *PgxFloatAccountRepository) UpdateSettlementSchedule(ctx context.Context, accountID string, lastAt, nextAt *time.Time, userID string, now time.Time) error {
	query := `
		UPDATE float_accounts
		SET last_settlement_at = COALESCE($2, last_settlement_at),
		    next_settlement_at = COALESCE($3, next_settlement_at),
		    last_updated_at = $4, last_updated_by = $5
		WHERE account_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, accountID, lastAt, nextAt, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update settlement schedule of float account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: float account %s", apperrors.ErrNotFound, accountID)
	}
	return nil
}

// FindAccountByIDForUpdate selects an account and locks its row within the
// given transaction. Two settlements against the same account serialize here.
func (r *PgxFloatAccountRepository) FindAccountByIDForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.FloatAccount, error) {
	query := `SELECT ` + floatAccountColumns + ` FROM float_accounts WHERE account_id = $1 FOR UPDATE;`

	m, err := scanFloatAccount(tx.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: float account %s", apperrors.ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("failed to lock float account %s: %w", accountID, err)
	}

	account := toDomainFloatAccount(*m)
	return &account, nil
}

// UpdateBalancesInTx writes the balance columns within a transaction whose
// row lock the caller already holds.
func (r *PgxFloatAccountRepository) UpdateBalancesInTx(ctx context.Context, tx pgx.Tx, account *domain.FloatAccount, userID string, now time.Time) error {
	query := `
		UPDATE float_accounts
		SET balance = $2, supplier_balance = $3, merchant_balance = $4,
		    last_updated_at = $5, last_updated_by = $6
		WHERE account_id = $1;
	`
	tag, err := tx.Exec(ctx, query,
		account.AccountID, account.Balance, account.SupplierBalance, account.MerchantBalance,
		now, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update balances of float account %s: %w", account.AccountID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: float account %s", apperrors.ErrNotFound, account.AccountID)
	}
	return nil
}
