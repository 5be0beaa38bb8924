package services

import (
	"context"

	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
	"github.com/valr-fintech/treasury-ledger/internal/dto"
)

// SettlementReaderSvc defines read operations for settlements
type SettlementReaderSvc interface {
	// GetSettlementByID retrieves a settlement by its unique identifier.
	GetSettlementByID(ctx context.Context, settlementID string) (*domain.Settlement, error)

	// ListSettlementsByAccount retrieves a paginated list of an account's
	// settlements, newest first.
	ListSettlementsByAccount(ctx context.Context, accountID string, limit int, offset int) ([]domain.Settlement, error)

	// ReconcileAccount audits balance conservation: each side's persisted
	// balance must equal the sum of its completed settlements' signed net
	// amounts. A non-zero drift is returned alongside ErrIntegrity; the
	// report is still populated so callers can surface the detail.
	ReconcileAccount(ctx context.Context, accountID string) (*domain.ReconciliationReport, error)
}

// SettlementWriterSvc defines the settlement lifecycle operations
type SettlementWriterSvc interface {
	// ApplySettlement is the single entry point for recording a balance
	// movement. It validates the request against the float account and creates
	// the settlement in pending state; the balance itself mutates only when
	// the settlement completes.
	ApplySettlement(ctx context.Context, accountID string, req dto.ApplySettlementRequest, userID string) (*domain.Settlement, error)

	// DispatchSettlement moves pending -> processing, handing the settlement
	// to its payment rail.
	DispatchSettlement(ctx context.Context, settlementID string, userID string) (*domain.Settlement, error)

	// CompleteSettlement moves processing -> completed and atomically applies
	// the balance mutation with the before/after snapshot.
	CompleteSettlement(ctx context.Context, settlementID string, userID string) (*domain.Settlement, error)

	// FailSettlement moves processing -> failed with the rail's error detail.
	// Failed settlements are never retried in place; RetrySettlement issues a
	// fresh settlement instead.
	FailSettlement(ctx context.Context, settlementID string, errorCode, errorMessage string, userID string) (*domain.Settlement, error)

	// CancelSettlement administratively cancels a pending or processing
	// settlement. No balance effect.
	CancelSettlement(ctx context.Context, settlementID string, userID string) (*domain.Settlement, error)

	// RetrySettlement creates a new pending settlement copying a failed one,
	// under a fresh settlement ID. The original record is left untouched.
	RetrySettlement(ctx context.Context, settlementID string, userID string) (*domain.Settlement, error)
}

// SettlementSvcFacade combines all settlement service interfaces
type SettlementSvcFacade interface {
	SettlementReaderSvc
	SettlementWriterSvc
}

// RailDispatcher hands a settlement to an external payment rail. The rail
// reports completion or failure asynchronously through the settlement
// lifecycle operations. Implementations live outside this engine.
type RailDispatcher interface {
	Dispatch(ctx context.Context, settlement domain.Settlement) error
}
