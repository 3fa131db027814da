package thorswap

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swapcore/config"
	"swapcore/rates"
	"swapcore/swaps"
	"swapcore/walletsvc"
)

const (
	ProviderKey = "thorswap"
	displayName = "THORSwap"
)

// Provider adapts the multi-route aggregator to the normalized quote
// contract. Token spends from the source wallet require an ERC-20
// approval for the selected route's spender contract.
type Provider struct {
	client   *Client
	cfg      config.ProviderConfig
	wallet   walletsvc.Service
	rates    *rates.Service
	fiatCode string
	log      *zap.Logger

	// PreloadedLimits are supplied from partner preload data; the zero
	// value means no known bounds.
	PreloadedLimits swaps.Limits
}

func NewProvider(client *Client, cfg config.ProviderConfig, wallet walletsvc.Service, rateSvc *rates.Service, fiatCode string, log *zap.Logger) *Provider {
	return &Provider{
		client:   client,
		cfg:      cfg,
		wallet:   wallet,
		rates:    rateSvc,
		fiatCode: fiatCode,
		log:      log,
	}
}

func (p *Provider) Key() string         { return ProviderKey }
func (p *Provider) DisplayName() string { return displayName }

func (p *Provider) SupportsPair(req swaps.QuoteRequest) bool {
	return IsCoinSupported(req.CoinFrom, req.ChainFrom) && IsCoinSupported(req.CoinTo, req.ChainTo)
}

func (p *Provider) Limits(context.Context, swaps.QuoteRequest) swaps.Limits {
	return p.PreloadedLimits
}

func (p *Provider) GetQuote(ctx context.Context, req swaps.QuoteRequest) (swaps.NormalizedQuote, error) {
	if p.cfg.Disabled {
		msg := p.cfg.DisabledMessage
		if msg == "" {
			msg = "Can't get rates at this moment. Please try again later"
		}
		return swaps.NormalizedQuote{}, &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonDisabled,
			Message:  msg,
		}
	}

	if perr := swaps.CheckLimits(ProviderKey, req.CoinFrom, p.Limits(ctx, req), req.AmountFrom); perr != nil {
		return swaps.NormalizedQuote{}, perr
	}

	params := QuoteParams{
		SellAsset:        FixedAsset(req.CoinFrom, req.ChainFrom, req.WalletFrom.TokenAddress),
		BuyAsset:         FixedAsset(req.CoinTo, req.ChainTo, req.WalletTo.TokenAddress),
		SellAmount:       req.AmountFrom,
		SenderAddress:    req.WalletFrom.Address,
		RecipientAddress: req.WalletTo.Address,
	}
	if p.cfg.AffiliateAddress != "" {
		params.AffiliateAddress = p.cfg.AffiliateAddress
		params.AffiliateBasisPoints = p.cfg.AffiliateBasisPoints
		if params.AffiliateBasisPoints == 0 {
			params.AffiliateBasisPoints = 100 // 1%
		}
	}

	resp, err := p.client.GetSwapQuote(ctx, params)
	if err != nil {
		return swaps.NormalizedQuote{}, &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonNetworkError,
			Message:  displayName + " is not available at this moment. Please try again later.",
			Err:      err,
		}
	}

	if len(resp.Routes) == 0 {
		msg := "Can't get rates at this moment. Please try again later"
		if resp.Code != "" && resp.Type != "" && resp.Message != "" {
			msg = resp.Message
		}
		return swaps.NormalizedQuote{}, &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonNoRouteFound,
			Message:  msg,
		}
	}

	return p.normalize(ctx, req, resp)
}

func (p *Provider) normalize(ctx context.Context, req swaps.QuoteRequest, resp *QuoteResponse) (swaps.NormalizedQuote, error) {
	best := BestRoute(resp.Routes)

	normalized := make([]swaps.Route, 0, len(resp.Routes))
	for i := range resp.Routes {
		r := &resp.Routes[i]
		out, err := decimal.NewFromString(r.ExpectedOutput)
		if err != nil {
			p.log.Debug("skipping route with unparseable output",
				zap.String("route", RouteKey(r)),
				zap.String("expected_output", r.ExpectedOutput))
			continue
		}
		normalized = append(normalized, swaps.Route{
			Key:              RouteKey(r),
			Path:             ProvidersPath(r),
			AmountReceiving:  out,
			Optimal:          r.Optimal,
			SpenderAddress:   SpenderAddress(r),
			Slippage:         RouteSlippage(r),
			EstimatedSeconds: EstimatedSeconds(r),
		})
	}

	amountTo, err := decimal.NewFromString(best.ExpectedOutput)
	if err != nil || len(normalized) == 0 {
		return swaps.NormalizedQuote{}, &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonMalformedResponse,
			Message:  fmt.Sprintf("unparseable expected output %q", best.ExpectedOutput),
			Err:      err,
		}
	}

	quote := swaps.NormalizedQuote{
		AmountReceiving:  amountTo,
		Routes:           normalized,
		SelectedRouteKey: RouteKey(best),
		Slippage:         RouteSlippage(best),
		EstimatedSeconds: EstimatedSeconds(best),
		RequiresApproval: req.WalletFrom.IsToken(),
		CorrelationID:    resp.QuoteID,
	}

	if req.AmountFrom.IsPositive() {
		quote.Rate = amountTo.DivRound(req.AmountFrom, 18)
	}

	if _, err := p.wallet.AssetPrecision(req.CoinTo, req.ChainTo, req.WalletTo.TokenAddress); err == nil {
		if fiat, ferr := p.rates.ToFiat(ctx, quote.Rate, req.ToAsset(), p.fiatCode); ferr == nil {
			quote.RateFiat = rates.FormatFiat(fiat, p.fiatCode)
		}
	} else {
		p.log.Debug("precision lookup failed, omitting fiat rate", zap.Error(err))
	}

	return quote, nil
}
