package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement mirrors the settlements table. The foreign key to float_accounts
// is restrict-on-delete, cascade-on-update.
type Settlement struct {
	SettlementID   string `db:"settlement_id"`
	FloatAccountID string `db:"float_account_id"`
	BalanceSide    string `db:"balance_side"`
	SettlementType string `db:"settlement_type"`
	Direction      string `db:"direction"`

	Amount    decimal.Decimal `db:"amount"`
	Fee       decimal.Decimal `db:"fee"`
	NetAmount decimal.Decimal `db:"net_amount"`

	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`

	Status   string `db:"status"`
	Currency string `db:"currency"`
	Rail     string `db:"rail"`

	SupplierReference    string `db:"supplier_reference"`
	BankReference        string `db:"bank_reference"`
	TransactionReference string `db:"transaction_reference"`

	ErrorCode    string `db:"error_code"`
	ErrorMessage string `db:"error_message"`

	ScheduledFor *time.Time `db:"scheduled_for"`
	ProcessedAt  *time.Time `db:"processed_at"`
	CompletedAt  *time.Time `db:"completed_at"`

	AuditFields
}
