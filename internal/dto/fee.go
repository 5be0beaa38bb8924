package dto

import (
	"github.com/shopspring/decimal"

	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
)

// QuoteFeeRequest asks for the fee a user would be charged for one
// transaction of the given class, at the account's current monthly volume.
type QuoteFeeRequest struct {
	AccountID        string                  `json:"accountID" binding:"required"`
	TransactionClass domain.TransactionClass `json:"transactionClass" binding:"required,oneof=PUSH_PAYMENT REQUEST_TO_PAY"`
}

// FeeBreakdownResponse mirrors domain.FeeBreakdown for API consumers.
type FeeBreakdownResponse struct {
	GrossFeeInclVAT decimal.Decimal `json:"grossFeeInclVAT"`
	FeeExVAT        decimal.Decimal `json:"feeExVAT"`
	VATOnFee        decimal.Decimal `json:"vatOnFee"`

	MarkupInclVAT decimal.Decimal `json:"markupInclVAT"`
	MarkupExVAT   decimal.Decimal `json:"markupExVAT"`
	VATOnMarkup   decimal.Decimal `json:"vatOnMarkup"`

	TotalUserChargeInclVAT decimal.Decimal `json:"totalUserChargeInclVAT"`
	TotalOutputVAT         decimal.Decimal `json:"totalOutputVAT"`
	NetVATPayable          decimal.Decimal `json:"netVATPayable"`
	NetRevenueExVAT        decimal.Decimal `json:"netRevenueExVAT"`
}

// ToFeeBreakdownResponse converts a domain.FeeBreakdown to its response DTO.
func ToFeeBreakdownResponse(fb *domain.FeeBreakdown) FeeBreakdownResponse {
	return FeeBreakdownResponse{
		GrossFeeInclVAT:        fb.GrossFeeInclVAT,
		FeeExVAT:               fb.FeeExVAT,
		VATOnFee:               fb.VATOnFee,
		MarkupInclVAT:          fb.MarkupInclVAT,
		MarkupExVAT:            fb.MarkupExVAT,
		VATOnMarkup:            fb.VATOnMarkup,
		TotalUserChargeInclVAT: fb.TotalUserChargeInclVAT,
		TotalOutputVAT:         fb.TotalOutputVAT,
		NetVATPayable:          fb.NetVATPayable,
		NetRevenueExVAT:        fb.NetRevenueExVAT,
	}
}

// RecordTransactionRequest registers one processed transaction against the
// account's monthly volume for a class. The advancing count is what moves the
// account across fee tiers.
type RecordTransactionRequest struct {
	AccountID        string                  `json:"accountID" binding:"required"`
	TransactionClass domain.TransactionClass `json:"transactionClass" binding:"required,oneof=PUSH_PAYMENT REQUEST_TO_PAY"`
}

// RecordTransactionResponse returns the account's updated monthly count.
type RecordTransactionResponse struct {
	AccountID        string                  `json:"accountID"`
	TransactionClass domain.TransactionClass `json:"transactionClass"`
	MonthlyCount     int64                   `json:"monthlyCount"`
}
