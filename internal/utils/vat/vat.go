package vat

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StandardRate is the South African VAT rate applied to payment fees.
var StandardRate = decimal.NewFromFloat(0.15)

// ExtractInclusive splits a VAT-inclusive amount into its ex-VAT and VAT
// portions: vat = round(amount * rate / (1 + rate)), exVAT = amount - vat.
// Rounding is half-up to the minor currency unit, so exVAT + vat always
// reconstructs the inclusive amount exactly.
func ExtractInclusive(amount, rate decimal.Decimal) (exVAT, vatPortion decimal.Decimal) {
	one := decimal.NewFromInt(1)
	vatPortion = amount.Mul(rate).Div(one.Add(rate)).Round(2)
	exVAT = amount.Sub(vatPortion)
	return exVAT, vatPortion
}

// ValidateRate rejects rates that cannot be used for inclusive extraction.
func ValidateRate(rate decimal.Decimal) error {
	if rate.LessThanOrEqual(decimal.Zero) || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("vat rate must be in (0, 1), got %s", rate.String())
	}
	return nil
}
