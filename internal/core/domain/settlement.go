package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valr-fintech/treasury-ledger/internal/apperrors"
)

// SettlementType classifies the business reason for a balance movement.
type SettlementType string

const (
	Topup      SettlementType = "TOPUP"
	Withdrawal SettlementType = "WITHDRAWAL"
	Adjustment SettlementType = "ADJUSTMENT"
	Fee        SettlementType = "FEE"
	Commission SettlementType = "COMMISSION"
)

// SettlementDirection indicates whether the movement increases (inbound) or
// decreases (outbound) the float account's balance.
type SettlementDirection string

const (
	Inbound  SettlementDirection = "INBOUND"
	Outbound SettlementDirection = "OUTBOUND"
)

// SettlementStatus is the lifecycle state of a settlement.
// pending -> processing -> {completed | failed | cancelled}.
// All three terminal states are absorbing.
type SettlementStatus string

const (
	SettlementPending    SettlementStatus = "PENDING"
	SettlementProcessing SettlementStatus = "PROCESSING"
	SettlementCompleted  SettlementStatus = "COMPLETED"
	SettlementFailed     SettlementStatus = "FAILED"
	SettlementCancelled  SettlementStatus = "CANCELLED"
)

// PaymentRail is the method used to move money for a settlement.
type PaymentRail string

const (
	RailEFT     PaymentRail = "EFT"
	RailRTGS    PaymentRail = "RTGS"
	RailPayShap PaymentRail = "PAYSHAP"
	RailCard    PaymentRail = "CARD"
	RailCash    PaymentRail = "CASH"
)

// DefaultCurrency is the ledger's settlement currency.
const DefaultCurrency = "ZAR"

// Settlement is an immutable-once-terminal record of one balance movement
// against one float account. Balance mutation happens only on the transition
// to completed; BalanceBefore/BalanceAfter are stamped inside that same
// transaction.
type Settlement struct {
	SettlementID   string              `json:"settlementID"`
	FloatAccountID string              `json:"floatAccountID"`
	BalanceSide    BalanceSide         `json:"balanceSide"`
	SettlementType SettlementType      `json:"settlementType"`
	Direction      SettlementDirection `json:"direction"`

	Amount    decimal.Decimal `json:"amount"` // gross movement
	Fee       decimal.Decimal `json:"fee"`
	NetAmount decimal.Decimal `json:"netAmount"`

	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`

	Status   SettlementStatus `json:"status"`
	Currency string           `json:"currency"`
	Rail     PaymentRail      `json:"rail"`

	SupplierReference    string `json:"supplierReference"`
	BankReference        string `json:"bankReference"`
	TransactionReference string `json:"transactionReference"`

	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`

	ScheduledFor *time.Time `json:"scheduledFor"`
	ProcessedAt  *time.Time `json:"processedAt"`
	CompletedAt  *time.Time `json:"completedAt"`

	AuditFields
}

// SignedNetAmount is the net amount with the direction's sign applied:
// positive for inbound, negative for outbound.
func (s *Settlement) SignedNetAmount() decimal.Decimal {
	if s.Direction == Outbound {
		return s.NetAmount.Neg()
	}
	return s.NetAmount
}

// IsTerminal reports whether the settlement has reached an absorbing state.
func (s *Settlement) IsTerminal() bool {
	switch s.Status {
	case SettlementCompleted, SettlementFailed, SettlementCancelled:
		return true
	}
	return false
}

func (s *Settlement) transitionError(target SettlementStatus) error {
	return fmt.Errorf("%w: settlement %s cannot move from %s to %s",
		apperrors.ErrConflict, s.SettlementID, s.Status, target)
}

// MarkProcessing moves pending -> processing, recording dispatch time.
func (s *Settlement) MarkProcessing(now time.Time) error {
	if s.Status != SettlementPending {
		return s.transitionError(SettlementProcessing)
	}
	s.Status = SettlementProcessing
	s.ProcessedAt = &now
	return nil
}

// MarkCompleted moves processing -> completed, recording the balance snapshot
// taken inside the atomic apply. The movement is final from here on; any
// reversal requires a fresh compensating settlement.
func (s *Settlement) MarkCompleted(now time.Time, balanceBefore, balanceAfter decimal.Decimal) error {
	if s.Status != SettlementProcessing {
		return s.transitionError(SettlementCompleted)
	}
	if !balanceAfter.Equal(balanceBefore.Add(s.SignedNetAmount())) {
		return fmt.Errorf("%w: settlement %s balance snapshot does not reconcile: %s + %s != %s",
			apperrors.ErrIntegrity, s.SettlementID,
			balanceBefore.String(), s.SignedNetAmount().String(), balanceAfter.String())
	}
	s.Status = SettlementCompleted
	s.BalanceBefore = balanceBefore
	s.BalanceAfter = balanceAfter
	s.CompletedAt = &now
	return nil
}

// MarkFailed moves processing -> failed with the rail's error details.
// No balance was applied, so there is nothing to reverse.
func (s *Settlement) MarkFailed(errorCode, errorMessage string) error {
	if s.Status != SettlementProcessing {
		return s.transitionError(SettlementFailed)
	}
	s.Status = SettlementFailed
	s.ErrorCode = errorCode
	s.ErrorMessage = errorMessage
	return nil
}

// Cancel moves pending or processing -> cancelled. Administrative only; a
// settlement that already completed or failed can never be cancelled.
func (s *Settlement) Cancel() error {
	if s.Status != SettlementPending && s.Status != SettlementProcessing {
		return s.transitionError(SettlementCancelled)
	}
	s.Status = SettlementCancelled
	return nil
}

// ValidSettlementType reports whether t is a known settlement type.
func ValidSettlementType(t SettlementType) bool {
	switch t {
	case Topup, Withdrawal, Adjustment, Fee, Commission:
		return true
	}
	return false
}

// ValidDirection reports whether d is a known settlement direction.
func ValidDirection(d SettlementDirection) bool {
	return d == Inbound || d == Outbound
}

// ValidRail reports whether r is a known payment rail.
func ValidRail(r PaymentRail) bool {
	switch r {
	case RailEFT, RailRTGS, RailPayShap, RailCard, RailCash:
		return true
	}
	return false
}

// SideReconciliation compares one balance side of a float account against its
// completed settlement trail. Accounts open at zero, so the ledger balance and
// the settled net must agree exactly.
type SideReconciliation struct {
	Side          BalanceSide
	LedgerBalance decimal.Decimal
	SettledNet    decimal.Decimal
	Drift         decimal.Decimal
}

// Consistent reports whether the side has no drift.
func (r SideReconciliation) Consistent() bool {
	return r.Drift.IsZero()
}

// ReconciliationReport is the account-level balance conservation audit.
type ReconciliationReport struct {
	AccountID  string
	Sides      []SideReconciliation
	Consistent bool
	CheckedAt  time.Time
}
