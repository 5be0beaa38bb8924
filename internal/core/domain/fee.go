package domain

import "github.com/shopspring/decimal"

// TransactionClass is a real-time payment initiation direction. Monthly volume
// counters are scoped per class, never pooled.
type TransactionClass string

const (
	// PushPayment is a credit push initiated by the payer. The user charge is
	// the tier fee plus a fixed markup.
	PushPayment TransactionClass = "PUSH_PAYMENT"
	// RequestToPay is a payee-initiated request. The user charge is the tier
	// fee only, passed through at cost.
	RequestToPay TransactionClass = "REQUEST_TO_PAY"
)

// ValidTransactionClass reports whether c is a known transaction class.
func ValidTransactionClass(c TransactionClass) bool {
	return c == PushPayment || c == RequestToPay
}

// FeeBreakdown decomposes a VAT-inclusive user charge into its cost-of-sale
// and revenue portions with their VAT splits. The tier-fee portion is treated
// as a cost of sale (input VAT, reclaimable); the markup portion, present only
// on push payments, is net revenue (output VAT owed).
type FeeBreakdown struct {
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
