package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valr-fintech/treasury-ledger/internal/apperrors"
)

// AccountRole distinguishes a plain supplier float from a dual-role entity
// that holds both a supplier-side and a merchant-side balance.
type AccountRole string

const (
	SupplierOnly AccountRole = "SUPPLIER_ONLY"
	DualRole     AccountRole = "DUAL_ROLE"
)

// BalanceSide selects which balance a mutation targets on a dual-role
// account. Supplier-only accounts carry a single balance and ignore the side.
type BalanceSide string

const (
	SupplierSide BalanceSide = "SUPPLIER"
	MerchantSide BalanceSide = "MERCHANT"
)

// AccountStatus is the lifecycle state of a float account. Closed is terminal;
// the row is kept for audit and is never hard-deleted.
type AccountStatus string

const (
	StatusActive    AccountStatus = "ACTIVE"
	StatusSuspended AccountStatus = "SUSPENDED"
	StatusClosed    AccountStatus = "CLOSED"
)

// SettlementPeriod is how often an account's float is settled out.
type SettlementPeriod string

const (
	PeriodRealTime SettlementPeriod = "REAL_TIME"
	PeriodDaily    SettlementPeriod = "DAILY"
	PeriodWeekly   SettlementPeriod = "WEEKLY"
	PeriodMonthly  SettlementPeriod = "MONTHLY"
)

// FundingMethod indicates how the float is funded relative to usage.
type FundingMethod string

const (
	Prefunded FundingMethod = "PREFUNDED"
	Postpaid  FundingMethod = "POSTPAID"
	Hybrid    FundingMethod = "HYBRID"
)

// NetDirection is the direction of a dual-role account's net position.
type NetDirection string

const (
	DirectionPayout     NetDirection = "PAYOUT"     // platform owes the entity
	DirectionCollection NetDirection = "COLLECTION" // entity owes the platform
	DirectionBalanced   NetDirection = "BALANCED"
)

// FloatAccount is the balance-bearing entity of the ledger. Balances are only
// ever mutated through Credit/Debit, each paired with exactly one Settlement
// record by the repository's atomic apply.
type FloatAccount struct {
	AccountID   string        `json:"accountID"`
	DisplayName string        `json:"displayName"`
	Role        AccountRole   `json:"role"`
	Status      AccountStatus `json:"status"`

	// Supplier-only balance. Unused for dual-role accounts.
	Balance        decimal.Decimal  `json:"balance"`
	MinimumBalance decimal.Decimal  `json:"minimumBalance"`
	MaximumBalance *decimal.Decimal `json:"maximumBalance"` // nil when no cap configured

	// Dual-role balances. NetBalance is derived, never stored independently.
	SupplierBalance    decimal.Decimal  `json:"supplierBalance"`
	MerchantBalance    decimal.Decimal  `json:"merchantBalance"`
	MaxSupplierBalance *decimal.Decimal `json:"maxSupplierBalance"`
	MaxMerchantBalance *decimal.Decimal `json:"maxMerchantBalance"`

	NetSettlementThreshold decimal.Decimal `json:"netSettlementThreshold"`
	AutoSettlementEnabled  bool            `json:"autoSettlementEnabled"`

	SettlementPeriod SettlementPeriod `json:"settlementPeriod"`
	FundingMethod    FundingMethod    `json:"fundingMethod"`

	LastSettlementAt *time.Time `json:"lastSettlementAt"`
	NextSettlementAt *time.Time `json:"nextSettlementAt"`

	// Opaque bank routing fields for payout. No validation happens here.
	BankAccountNumber string `json:"bankAccountNumber"`
	BankCode          string `json:"bankCode"`
	BankName          string `json:"bankName"`

	AuditFields
}

// IsActive reports whether the account is in the active state. Derived from
// Status so the two can never contradict each other.
func (a *FloatAccount) IsActive() bool {
	return a.Status == StatusActive
}

// NetBalance is the dual-role net position: supplier side minus merchant side.
func (a *FloatAccount) NetBalance() decimal.Decimal {
	return a.SupplierBalance.Sub(a.MerchantBalance)
}

func (a *FloatAccount) validateMutation(amount decimal.Decimal, side BalanceSide) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive, got %s", apperrors.ErrValidation, amount.String())
	}
	if a.Role == DualRole && side != SupplierSide && side != MerchantSide {
		return fmt.Errorf("%w: unknown balance side %q", apperrors.ErrValidation, side)
	}
	return nil
}

// Credit increases the targeted balance and returns the post-mutation value.
// Configured maximum-balance caps are enforced here; nothing mutates on error.
func (a *FloatAccount) Credit(amount decimal.Decimal, side BalanceSide) (decimal.Decimal, error) {
	if err := a.validateMutation(amount, side); err != nil {
		return decimal.Zero, err
	}

	if a.Role == SupplierOnly {
		next := a.Balance.Add(amount)
		if a.MaximumBalance != nil && next.GreaterThan(*a.MaximumBalance) {
			return decimal.Zero, fmt.Errorf("%w: credit of %s would exceed maximum balance %s",
				apperrors.ErrValidation, amount.String(), a.MaximumBalance.String())
		}
		a.Balance = next
		return a.Balance, nil
	}

	if side == SupplierSide {
		next := a.SupplierBalance.Add(amount)
		if a.MaxSupplierBalance != nil && next.GreaterThan(*a.MaxSupplierBalance) {
			return decimal.Zero, fmt.Errorf("%w: credit of %s would exceed maximum supplier balance %s",
				apperrors.ErrValidation, amount.String(), a.MaxSupplierBalance.String())
		}
		a.SupplierBalance = next
		return a.SupplierBalance, nil
	}

	next := a.MerchantBalance.Add(amount)
	if a.MaxMerchantBalance != nil && next.GreaterThan(*a.MaxMerchantBalance) {
		return decimal.Zero, fmt.Errorf("%w: credit of %s would exceed maximum merchant balance %s",
			apperrors.ErrValidation, amount.String(), a.MaxMerchantBalance.String())
	}
	a.MerchantBalance = next
	return a.MerchantBalance, nil
}

// Debit decreases the targeted balance and returns the post-mutation value.
// Debits are not blocked by insufficient balance: floats may legitimately go
// negative pending settlement. Callers needing a hard floor must check
// HasSufficientBalance first.
func (a *FloatAccount) Debit(amount decimal.Decimal, side BalanceSide) (decimal.Decimal, error) {
	if err := a.validateMutation(amount, side); err != nil {
		return decimal.Zero, err
	}

	if a.Role == SupplierOnly {
		a.Balance = a.Balance.Sub(amount)
		return a.Balance, nil
	}
	if side == SupplierSide {
		a.SupplierBalance = a.SupplierBalance.Sub(amount)
		return a.SupplierBalance, nil
	}
	a.MerchantBalance = a.MerchantBalance.Sub(amount)
	return a.MerchantBalance, nil
}

// BalanceFor returns the current balance on the given side without mutating.
func (a *FloatAccount) BalanceFor(side BalanceSide) decimal.Decimal {
	if a.Role == SupplierOnly {
		return a.Balance
	}
	if side == MerchantSide {
		return a.MerchantBalance
	}
	return a.SupplierBalance
}

// HasSufficientBalance reports whether the targeted balance covers the amount.
func (a *FloatAccount) HasSufficientBalance(amount decimal.Decimal, side BalanceSide) bool {
	return a.BalanceFor(side).GreaterThanOrEqual(amount)
}

// UtilizationPercentage is balance / maximum * 100 on the given side.
// Returns zero when no maximum is configured.
func (a *FloatAccount) UtilizationPercentage(side BalanceSide) decimal.Decimal {
	var max *decimal.Decimal
	switch {
	case a.Role == SupplierOnly:
		max = a.MaximumBalance
	case side == MerchantSide:
		max = a.MaxMerchantBalance
	default:
		max = a.MaxSupplierBalance
	}
	if max == nil || max.IsZero() {
		return decimal.Zero
	}
	return a.BalanceFor(side).Div(*max).Mul(decimal.NewFromInt(100))
}

// RequiresSettlement reports whether the dual-role net position has reached
// the configured threshold. Always false for supplier-only accounts.
func (a *FloatAccount) RequiresSettlement() bool {
	if a.Role != DualRole {
		return false
	}
	return a.NetBalance().Abs().GreaterThanOrEqual(a.NetSettlementThreshold)
}

// NetPosition is a read-only snapshot of a dual-role account's net state,
// served to reporting and admin surfaces.
type NetPosition struct {
	AccountID          string          `json:"accountID"`
	NetBalance         decimal.Decimal `json:"netBalance"`
	Direction          NetDirection    `json:"direction"`
	RequiresSettlement bool            `json:"requiresSettlement"`
}

// SettlementDirection classifies the dual-role net position.
func (a *FloatAccount) SettlementDirection() NetDirection {
	net := a.NetBalance()
	switch {
	case net.IsPositive():
		return DirectionPayout
	case net.IsNegative():
		return DirectionCollection
	default:
		return DirectionBalanced
	}
}
