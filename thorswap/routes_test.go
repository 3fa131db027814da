package thorswap

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestRoute(t *testing.T) {
	routes := []Route{
		{Providers: []string{"UNISWAPV3"}},
		{Providers: []string{"THORCHAIN"}, Optimal: true},
		{Providers: []string{"ONEINCH"}},
	}
	best := BestRoute(routes)
	require.NotNil(t, best)
	assert.Equal(t, "THORCHAIN", RouteKey(best))

	// No optimal flag: first route wins.
	best = BestRoute(routes[:1])
	require.NotNil(t, best)
	assert.Equal(t, "UNISWAPV3", RouteKey(best))

	assert.Nil(t, BestRoute(nil))
}

func TestRouteByKey(t *testing.T) {
	routes := []Route{
		{Providers: []string{"UNISWAPV3"}},
		{Providers: []string{"THORCHAIN"}, Optimal: true},
	}

	r := RouteByKey(routes, "uniswapv3")
	require.NotNil(t, r)
	assert.Equal(t, "UNISWAPV3", RouteKey(r))

	// Unknown key falls back to the optimal route.
	r = RouteByKey(routes, "nope")
	require.NotNil(t, r)
	assert.Equal(t, "THORCHAIN", RouteKey(r))

	r = RouteByKey(routes, "")
	require.NotNil(t, r)
	assert.Equal(t, "THORCHAIN", RouteKey(r))
}

func TestSpenderAddressFallbackChain(t *testing.T) {
	r := &Route{
		ApprovalTarget: "0xaaa",
		Contract:       "0xbbb",
		TargetAddress:  "0xccc",
	}
	assert.Equal(t, "0xaaa", SpenderAddress(r))

	r.ApprovalTarget = ""
	assert.Equal(t, "0xbbb", SpenderAddress(r))

	r.Contract = ""
	assert.Equal(t, "0xccc", SpenderAddress(r))

	r.TargetAddress = ""
	assert.Equal(t, "", SpenderAddress(r))
	assert.Equal(t, "", SpenderAddress(nil))
}

func TestProvidersPath(t *testing.T) {
	r := &Route{Providers: []string{"THORCHAIN", "UNISWAPV3"}}
	assert.Equal(t, "THORChain > Uniswap V3", ProvidersPath(r))

	// Sub-providers expand the path when they carry more hops.
	r.SubProviders = []string{"THORCHAIN", "UNISWAPV3", "SUSHISWAP"}
	assert.Equal(t, "THORChain > Uniswap V3 > SushiSwap", ProvidersPath(r))

	// Unknown hops pass through verbatim.
	assert.Equal(t, "MYSTERYDEX", ProvidersPath(&Route{Providers: []string{"MYSTERYDEX"}}))
	assert.Equal(t, "", ProvidersPath(nil))
}

func TestEstimatedSeconds(t *testing.T) {
	r := &Route{TimeEstimates: RouteTimeEstimates{
		InboundMs:   60000,
		OutboundMs:  30000,
		StreamingMs: 15000,
		SwapMs:      5000,
	}}
	assert.Equal(t, int64(110), EstimatedSeconds(r))
	assert.Equal(t, int64(0), EstimatedSeconds(nil))
}

func TestRouteSlippage(t *testing.T) {
	withSlippage := func(s string) *Route {
		return &Route{Meta: RouteMeta{SlippagePercentage: json.Number(s)}}
	}

	assert.True(t, RouteSlippage(withSlippage("1")).Equal(decimal.NewFromInt(1)))
	assert.True(t, RouteSlippage(withSlippage("10")).Equal(decimal.NewFromInt(10)))

	// Out-of-range and malformed values fall back to the default.
	def := decimal.NewFromInt(3)
	assert.True(t, RouteSlippage(withSlippage("0.1")).Equal(def))
	assert.True(t, RouteSlippage(withSlippage("50")).Equal(def))
	assert.True(t, RouteSlippage(withSlippage("garbage")).Equal(def))
	assert.True(t, RouteSlippage(&Route{}).Equal(def))
	assert.True(t, RouteSlippage(nil).Equal(def))
}
