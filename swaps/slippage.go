package swaps

import "github.com/shopspring/decimal"

// Slippage tolerance bounds for providers that expose a user
// adjustable value.
var (
	SlippageMin     = decimal.RequireFromString("0.5")
	SlippageMax     = decimal.NewFromInt(10)
	SlippageStep    = decimal.RequireFromString("0.5")
	SlippageDefault = decimal.NewFromInt(3)
)

// SlippageMinReceive computes the minimum acceptable receive amount
// for a quoted amount under the given tolerance percentage:
// amount / (1 + pct/100). A zero tolerance returns the amount itself.
func SlippageMinReceive(amount, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		return amount
	}
	divisor := decimal.NewFromInt(1).Add(pct.Div(decimal.NewFromInt(100)))
	return amount.DivRound(divisor, 18)
}

// ClampSlippage sanitizes a quote-supplied tolerance. Values outside
// [SlippageMin, SlippageMax] come from malformed upstream data and
// are replaced by the provider default rather than trusted.
func ClampSlippage(v decimal.Decimal) decimal.Decimal {
	if v.LessThan(SlippageMin) || v.GreaterThan(SlippageMax) {
		return SlippageDefault
	}
	return v
}
