package changelly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"swapcore/config"
	"swapcore/rates"
	"swapcore/swaps"
	"swapcore/walletsvc"
)

type fakeWallet struct{}

func (fakeWallet) DepositAddress(context.Context, *swaps.Wallet) (string, error) {
	return "0x1111111111111111111111111111111111111111", nil
}

func (fakeWallet) AssetPrecision(coin, chain, tokenAddress string) (walletsvc.Precision, error) {
	if coin == "eth" || coin == "btc" {
		return walletsvc.Precision{UnitToSatoshi: 1e8, UnitDecimals: 8}, nil
	}
	return walletsvc.Precision{}, fmt.Errorf("unknown asset %s", coin)
}

// rpcHandler answers getPairsParams and getFixRateForAmount, echoing
// the request id unless mangleID is set.
type rpcHandler struct {
	pairs    []PairParams
	fixRates []FixRateResult
	rpcErr   *rpcError
	mangleID bool
}

func (h *rpcHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := req.ID
	if h.mangleID {
		id = "not-" + id
	}
	resp := rpcResponse{JSONRPC: "2.0", ID: id}

	if h.rpcErr != nil {
		resp.Error = h.rpcErr
	} else {
		var result any
		switch req.Method {
		case "getPairsParams":
			result = h.pairs
		case "getFixRateForAmount":
			result = h.fixRates
		default:
			http.Error(w, "unknown method "+req.Method, http.StatusBadRequest)
			return
		}
		raw, _ := json.Marshal(result)
		resp.Result = raw
	}

	json.NewEncoder(w).Encode(resp)
}

func newTestProvider(t *testing.T, h http.Handler, cfg config.ProviderConfig) (*Provider, func()) {
	t.Helper()
	srv := httptest.NewServer(h)
	client := NewClient(srv.URL, "test-key", nil)

	source := rates.NewStaticSource()
	source.Set(swaps.Asset{Chain: "ETH", Symbol: "ETH"}, "USD", decimal.RequireFromString("2500"))

	p := NewProvider(client, cfg, fakeWallet{}, rates.NewService(source), "USD", zap.NewNop())
	return p, srv.Close
}

func btcToEthRequest(amount string) swaps.QuoteRequest {
	return swaps.QuoteRequest{
		AmountFrom: decimal.RequireFromString(amount),
		CoinFrom:   "btc",
		ChainFrom:  "btc",
		CoinTo:     "eth",
		ChainTo:    "eth",
		WalletFrom: &swaps.Wallet{ID: "w1", Coin: "btc", Chain: "btc"},
		WalletTo:   &swaps.Wallet{ID: "w2", Coin: "eth", Chain: "eth"},
	}
}

func TestGetQuote(t *testing.T) {
	h := &rpcHandler{
		pairs: []PairParams{{MinAmountFixed: "0.001", MaxAmountFixed: "10"}},
		fixRates: []FixRateResult{{
			ID:       "rate-lock-1",
			Rate:     "18.2",
			AmountTo: "9.1",
		}},
	}
	p, cleanup := newTestProvider(t, h, config.ProviderConfig{})
	defer cleanup()

	quote, err := p.GetQuote(context.Background(), btcToEthRequest("0.5"))
	require.NoError(t, err)

	assert.True(t, quote.AmountReceiving.Equal(decimal.RequireFromString("9.1")))
	assert.True(t, quote.Rate.Equal(decimal.RequireFromString("18.2")))
	assert.Equal(t, "rate-lock-1", quote.CorrelationID)
	assert.Equal(t, "$45500.00", quote.RateFiat) // 18.2 * 2500
	require.Len(t, quote.Routes, 1)
	assert.True(t, quote.Routes[0].Optimal)
}

func TestGetQuoteOmitsFiatWithoutPrecision(t *testing.T) {
	h := &rpcHandler{
		fixRates: []FixRateResult{{ID: "r", Rate: "1.5", AmountTo: "3"}},
	}
	p, cleanup := newTestProvider(t, h, config.ProviderConfig{})
	defer cleanup()

	req := btcToEthRequest("2")
	req.CoinTo = "shib" // no precision registered
	req.WalletTo.Coin = "shib"

	quote, err := p.GetQuote(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, quote.RateFiat)
	assert.True(t, quote.AmountReceiving.Equal(decimal.RequireFromString("3")))
}

func TestGetQuoteDisabled(t *testing.T) {
	p, cleanup := newTestProvider(t, &rpcHandler{}, config.ProviderConfig{
		Disabled:        true,
		DisabledMessage: "down for maintenance",
	})
	defer cleanup()

	_, err := p.GetQuote(context.Background(), btcToEthRequest("0.5"))
	var perr *swaps.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, swaps.ReasonDisabled, perr.Reason)
	assert.Equal(t, "down for maintenance", perr.Message)
}

func TestLimitsHonorsCallerContext(t *testing.T) {
	var fetches int
	h := &rpcHandler{
		pairs: []PairParams{{MinAmountFixed: "0.001", MaxAmountFixed: "10"}},
	}
	counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		h.ServeHTTP(w, r)
	})
	p, cleanup := newTestProvider(t, counting, config.ProviderConfig{})
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	limits := p.Limits(ctx, btcToEthRequest("0.5"))
	assert.Nil(t, limits.Min)
	assert.Nil(t, limits.Max)
	assert.Zero(t, fetches)

	limits = p.Limits(context.Background(), btcToEthRequest("0.5"))
	require.NotNil(t, limits.Min)
	require.NotNil(t, limits.Max)
	assert.True(t, limits.Max.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, 1, fetches)
}

func TestGetQuoteOutOfLimits(t *testing.T) {
	h := &rpcHandler{
		pairs: []PairParams{{MinAmountFixed: "0.001", MaxAmountFixed: "10"}},
	}
	p, cleanup := newTestProvider(t, h, config.ProviderConfig{})
	defer cleanup()

	_, err := p.GetQuote(context.Background(), btcToEthRequest("100"))
	var perr *swaps.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, swaps.ReasonOutOfLimits, perr.Reason)
	assert.Contains(t, perr.Message, "0.001")
	assert.Contains(t, perr.Message, "10")
}

func TestGetQuoteEmptyResultMeansPairDisabled(t *testing.T) {
	h := &rpcHandler{fixRates: []FixRateResult{}}
	p, cleanup := newTestProvider(t, h, config.ProviderConfig{})
	defer cleanup()

	_, err := p.GetQuote(context.Background(), btcToEthRequest("0.5"))
	var perr *swaps.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, swaps.ReasonNoRouteFound, perr.Reason)
	assert.Contains(t, perr.Message, "temporarily disabled")
}

func TestGetQuoteCorrelationMismatch(t *testing.T) {
	h := &rpcHandler{
		fixRates: []FixRateResult{{ID: "r", Rate: "1", AmountTo: "1"}},
		mangleID: true,
	}
	p, cleanup := newTestProvider(t, h, config.ProviderConfig{})
	defer cleanup()

	_, err := p.GetQuote(context.Background(), btcToEthRequest("0.5"))
	var perr *swaps.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, swaps.ReasonMalformedResponse, perr.Reason)
}

func TestGetQuoteRPCError(t *testing.T) {
	h := &rpcHandler{rpcErr: &rpcError{Code: -32600, Message: "invalid pair"}}
	p, cleanup := newTestProvider(t, h, config.ProviderConfig{})
	defer cleanup()

	_, err := p.GetQuote(context.Background(), btcToEthRequest("0.5"))
	var perr *swaps.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, swaps.ReasonNoRouteFound, perr.Reason)
	assert.Equal(t, "invalid pair", perr.Message)
}

func TestGetQuoteNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusBadGateway)
	}))
	defer srv.Close()

	source := rates.NewStaticSource()
	p := NewProvider(NewClient(srv.URL, "k", nil), config.ProviderConfig{},
		fakeWallet{}, rates.NewService(source), "USD", zap.NewNop())

	_, err := p.GetQuote(context.Background(), btcToEthRequest("0.5"))
	var perr *swaps.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, swaps.ReasonNetworkError, perr.Reason)
}

func TestSupportsPair(t *testing.T) {
	p, cleanup := newTestProvider(t, &rpcHandler{}, config.ProviderConfig{})
	defer cleanup()

	assert.True(t, p.SupportsPair(btcToEthRequest("1")))

	restricted := btcToEthRequest("1")
	restricted.Country = "US"
	assert.False(t, p.SupportsPair(restricted))

	unsupported := btcToEthRequest("1")
	unsupported.CoinFrom = "xmr"
	assert.False(t, p.SupportsPair(unsupported))

	p.SupportedCoins = map[string]bool{"btc/btc": true} // eth missing
	assert.False(t, p.SupportsPair(btcToEthRequest("1")))
}

func TestFixedCurrencyAbbreviation(t *testing.T) {
	assert.Equal(t, "usdt20", FixedCurrencyAbbreviation("USDT", "ETH"))
	assert.Equal(t, "usdtrx", FixedCurrencyAbbreviation("usdt", "tron"))
	assert.Equal(t, "btc", FixedCurrencyAbbreviation("BTC", "BTC"))
	assert.Equal(t, "eth", FixedCurrencyAbbreviation("ETH", "ETH"))
}
