package thorswap

import (
	"strings"

	"github.com/shopspring/decimal"

	"swapcore/swaps"
)

// providerNames maps sub-provider keys to display names for the
// collapsed route path.
var providerNames = map[string]string{
	"UNISWAPV2": "Uniswap V2",
	"UNISWAPV3": "Uniswap V3",
	"THORCHAIN": "THORChain",
	"ZEROX":     "0x",
	"ONEINCH":   "1inch",
	"SUSHISWAP": "SushiSwap",
	"KYBER":     "KyberSwap",
}

// BestRoute picks the route flagged optimal, falling back to the
// first. Returns nil for an empty set.
func BestRoute(routes []Route) *Route {
	for i := range routes {
		if routes[i].Optimal {
			return &routes[i]
		}
	}
	if len(routes) > 0 {
		return &routes[0]
	}
	return nil
}

// RouteByKey finds the route whose leading provider matches key,
// falling back to the best route when the key is unknown.
func RouteByKey(routes []Route, key string) *Route {
	if key == "" {
		return BestRoute(routes)
	}
	for i := range routes {
		if len(routes[i].Providers) > 0 && strings.EqualFold(routes[i].Providers[0], key) {
			return &routes[i]
		}
	}
	return BestRoute(routes)
}

// RouteKey returns the stable key of a route: its leading provider.
func RouteKey(r *Route) string {
	if r == nil || len(r.Providers) == 0 {
		return ""
	}
	return r.Providers[0]
}

// SpenderAddress resolves the contract a token approval must target
// for the route: approvalTarget, else contract, else targetAddress.
func SpenderAddress(r *Route) string {
	switch {
	case r == nil:
		return ""
	case r.ApprovalTarget != "":
		return r.ApprovalTarget
	case r.Contract != "":
		return r.Contract
	case r.TargetAddress != "":
		return r.TargetAddress
	default:
		return ""
	}
}

// ProvidersPath collapses an ordered multi-hop route into a single
// display string, e.g. "THORChain > Uniswap V3".
func ProvidersPath(r *Route) string {
	if r == nil {
		return ""
	}
	hops := r.Providers
	if len(r.SubProviders) > len(hops) {
		hops = r.SubProviders
	}
	names := make([]string, 0, len(hops))
	for _, hop := range hops {
		if name, ok := providerNames[strings.ToUpper(hop)]; ok {
			names = append(names, name)
		} else {
			names = append(names, hop)
		}
	}
	return strings.Join(names, " > ")
}

// EstimatedSeconds sums the route's per-leg time estimates.
func EstimatedSeconds(r *Route) int64 {
	if r == nil {
		return 0
	}
	totalMs := r.TimeEstimates.InboundMs +
		r.TimeEstimates.OutboundMs +
		r.TimeEstimates.StreamingMs +
		r.TimeEstimates.SwapMs
	return totalMs / 1000
}

// RouteSlippage sanitizes the route-reported slippage tolerance.
// Values outside the allowed bounds fall back to the default instead
// of being trusted verbatim.
func RouteSlippage(r *Route) decimal.Decimal {
	if r == nil || r.Meta.SlippagePercentage == "" {
		return swaps.SlippageDefault
	}
	v, err := decimal.NewFromString(r.Meta.SlippagePercentage.String())
	if err != nil {
		return swaps.SlippageDefault
	}
	return swaps.ClampSlippage(v)
}
