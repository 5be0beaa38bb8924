package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditFields holds standard audit columns shared by all tables.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	CreatedBy     string    `db:"created_by"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
	LastUpdatedBy string    `db:"last_updated_by"`
}

// FloatAccount mirrors the float_accounts table. Nullable decimals use
// pointers; the account is never hard-deleted, closing is a status change.
type FloatAccount struct {
	AccountID   string `db:"account_id"`
	DisplayName string `db:"display_name"`
	Role        string `db:"role"`
	Status      string `db:"status"`

	Balance        decimal.Decimal  `db:"balance"`
	MinimumBalance decimal.Decimal  `db:"minimum_balance"`
	MaximumBalance *decimal.Decimal `db:"maximum_balance"`

	SupplierBalance    decimal.Decimal  `db:"supplier_balance"`
	MerchantBalance    decimal.Decimal  `db:"merchant_balance"`
	MaxSupplierBalance *decimal.Decimal `db:"max_supplier_balance"`
	MaxMerchantBalance *decimal.Decimal `db:"max_merchant_balance"`

	NetSettlementThreshold decimal.Decimal `db:"net_settlement_threshold"`
	AutoSettlementEnabled  bool            `db:"auto_settlement_enabled"`

	SettlementPeriod string `db:"settlement_period"`
	FundingMethod    string `db:"funding_method"`

	LastSettlementAt *time.Time `db:"last_settlement_at"`
	NextSettlementAt *time.Time `db:"next_settlement_at"`

	BankAccountNumber string `db:"bank_account_number"`
	BankCode          string `db:"bank_code"`
	BankName          string `db:"bank_name"`

	AuditFields
}
