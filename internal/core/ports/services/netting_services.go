package services

import (
	"context"

	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
)

// NettingSvcFacade re-evaluates a dual-role account's net position after every
// mutation and raises automatic net settlements when the threshold is crossed.
type NettingSvcFacade interface {
	// EvaluateAccount checks the account's net position. When auto settlement
	// is enabled, the account is active, and the threshold is reached, it
	// emits a pending settlement for the absolute net balance and returns it.
	// Returns (nil, nil) when no settlement is due. Never mutates the account
	// balances itself.
	EvaluateAccount(ctx context.Context, accountID string, userID string) (*domain.Settlement, error)
}
