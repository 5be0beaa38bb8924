package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
)

// ApplySettlementRequest records a balance movement against a float account.
// The settlement is created pending; the balance mutates on completion.
type ApplySettlementRequest struct {
	SettlementType domain.SettlementType      `json:"settlementType" binding:"required,oneof=TOPUP WITHDRAWAL ADJUSTMENT FEE COMMISSION"`
	Direction      domain.SettlementDirection `json:"direction" binding:"required,oneof=INBOUND OUTBOUND"`
	BalanceSide    domain.BalanceSide         `json:"balanceSide" binding:"omitempty,oneof=SUPPLIER MERCHANT"`

	Amount decimal.Decimal `json:"amount" binding:"required"`
	Fee    decimal.Decimal `json:"fee"`

	Rail     domain.PaymentRail `json:"rail" binding:"required,oneof=EFT RTGS PAYSHAP CARD CASH"`
	Currency string             `json:"currency"`

	SupplierReference    string `json:"supplierReference"`
	BankReference        string `json:"bankReference"`
	TransactionReference string `json:"transactionReference"`
}

// FailSettlementRequest carries the rail's failure detail.
type FailSettlementRequest struct {
	ErrorCode    string `json:"errorCode" binding:"required"`
	ErrorMessage string `json:"errorMessage" binding:"required"`
}

// SettlementResponse defines the data returned for a settlement.
type SettlementResponse struct {
	SettlementID   string                     `json:"settlementID"`
	FloatAccountID string                     `json:"floatAccountID"`
	BalanceSide    domain.BalanceSide         `json:"balanceSide"`
	SettlementType domain.SettlementType      `json:"settlementType"`
	Direction      domain.SettlementDirection `json:"direction"`

	Amount    decimal.Decimal `json:"amount"`
	Fee       decimal.Decimal `json:"fee"`
	NetAmount decimal.Decimal `json:"netAmount"`

	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`

	Status   domain.SettlementStatus `json:"status"`
	Currency string                  `json:"currency"`
	Rail     domain.PaymentRail      `json:"rail"`

	SupplierReference    string `json:"supplierReference,omitempty"`
	BankReference        string `json:"bankReference,omitempty"`
	TransactionReference string `json:"transactionReference,omitempty"`

	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	ProcessedAt  *time.Time `json:"processedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`

	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// ToSettlementResponse converts a domain.Settlement to its response DTO.
func ToSettlementResponse(s *domain.Settlement) SettlementResponse {
	return SettlementResponse{
		SettlementID:         s.SettlementID,
		FloatAccountID:       s.FloatAccountID,
		BalanceSide:          s.BalanceSide,
		SettlementType:       s.SettlementType,
		Direction:            s.Direction,
		Amount:               s.Amount,
		Fee:                  s.Fee,
		NetAmount:            s.NetAmount,
		BalanceBefore:        s.BalanceBefore,
		BalanceAfter:         s.BalanceAfter,
		Status:               s.Status,
		Currency:             s.Currency,
		Rail:                 s.Rail,
		SupplierReference:    s.SupplierReference,
		BankReference:        s.BankReference,
		TransactionReference: s.TransactionReference,
		ErrorCode:            s.ErrorCode,
		ErrorMessage:         s.ErrorMessage,
		ScheduledFor:         s.ScheduledFor,
		ProcessedAt:          s.ProcessedAt,
		CompletedAt:          s.CompletedAt,
		CreatedAt:            s.CreatedAt,
		CreatedBy:            s.CreatedBy,
		LastUpdatedAt:        s.LastUpdatedAt,
		LastUpdatedBy:        s.LastUpdatedBy,
	}
}

// ToListSettlementResponse converts a slice of settlements to response DTOs.
func ToListSettlementResponse(settlements []domain.Settlement) []SettlementResponse {
	res := make([]SettlementResponse, len(settlements))
	for i, s := range settlements {
		res[i] = ToSettlementResponse(&s)
	}
	return res
}

// SideReconciliationResponse is one balance side of a reconciliation report.
type SideReconciliationResponse struct {
	Side          domain.BalanceSide `json:"side"`
	LedgerBalance decimal.Decimal    `json:"ledgerBalance"`
	SettledNet    decimal.Decimal    `json:"settledNet"`
	Drift         decimal.Decimal    `json:"drift"`
	Consistent    bool               `json:"consistent"`
}

// ReconciliationResponse is the balance conservation audit for an account.
type ReconciliationResponse struct {
	AccountID  string                       `json:"accountID"`
	Sides      []SideReconciliationResponse `json:"sides"`
	Consistent bool                         `json:"consistent"`
	CheckedAt  time.Time                    `json:"checkedAt"`
}

// ToReconciliationResponse converts a domain report to its response DTO.
func ToReconciliationResponse(r *domain.ReconciliationReport) ReconciliationResponse {
	sides := make([]SideReconciliationResponse, len(r.Sides))
	for i, s := range r.Sides {
		sides[i] = SideReconciliationResponse{
			Side:          s.Side,
			LedgerBalance: s.LedgerBalance,
			SettledNet:    s.SettledNet,
			Drift:         s.Drift,
			Consistent:    s.Consistent(),
		}
	}
	return ReconciliationResponse{
		AccountID:  r.AccountID,
		Sides:      sides,
		Consistent: r.Consistent,
		CheckedAt:  r.CheckedAt,
	}
}
