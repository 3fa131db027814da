package swaps

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Limits is a provider's min/max swap amount for a pair, sourced
// externally and treated as read-only here. Nil bounds are unknown.
type Limits struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// CheckLimits compares amount against limits without any network
// call. It returns nil when the amount is inside (or the bounds are
// unknown), or a *ProviderError with ReasonOutOfLimits carrying the
// formatted bounds.
func CheckLimits(provider, coin string, limits Limits, amount decimal.Decimal) *ProviderError {
	below := limits.Min != nil && amount.LessThan(*limits.Min)
	above := limits.Max != nil && amount.GreaterThan(*limits.Max)
	if !below && !above {
		return nil
	}

	msg := fmt.Sprintf("the current swap limits for this exchange are between %s and %s %s",
		formatBound(limits.Min), formatBound(limits.Max), coin)
	return &ProviderError{
		Provider: provider,
		Reason:   ReasonOutOfLimits,
		Message:  msg,
	}
}

func formatBound(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
