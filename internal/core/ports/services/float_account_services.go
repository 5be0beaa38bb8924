package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
	"github.com/valr-fintech/treasury-ledger/internal/dto"
)

// FloatAccountReaderSvc defines read operations for float account data
type FloatAccountReaderSvc interface {
	// GetAccountByID retrieves a specific float account by its unique identifier.
	GetAccountByID(ctx context.Context, accountID string) (*domain.FloatAccount, error)

	// ListAccounts retrieves a paginated list of float accounts.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.FloatAccount, error)

	// GetNetPosition returns the dual-role net balance, its direction, and
	// whether the settlement threshold has been reached.
	GetNetPosition(ctx context.Context, accountID string) (*domain.NetPosition, error)

	// GetUtilization computes the balance utilization percentage for a side.
	GetUtilization(ctx context.Context, accountID string, side domain.BalanceSide) (decimal.Decimal, error)
}

// FloatAccountWriterSvc defines write operations for float account data
type FloatAccountWriterSvc interface {
	// CreateAccount onboards a new float account.
	CreateAccount(ctx context.Context, req dto.CreateFloatAccountRequest, userID string) (*domain.FloatAccount, error)

	// UpdateStatus suspends, closes, or reactivates an account. Closed is terminal.
	UpdateStatus(ctx context.Context, accountID string, status domain.AccountStatus, userID string) (*domain.FloatAccount, error)
}

// FloatAccountSvcFacade combines all float-account service interfaces
type FloatAccountSvcFacade interface {
	FloatAccountReaderSvc
	FloatAccountWriterSvc
}
