package nearintents

import (
	"context"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swapcore/config"
	"swapcore/rates"
	"swapcore/swaps"
	"swapcore/walletsvc"
)

const (
	ProviderKey = "nearintents"
	displayName = "NEAR Intents"

	// slippageBasisPoints is the tolerance requested on dry quotes, 1%.
	slippageBasisPoints = 100
)

// Provider quotes swaps through the Near Intents 1click API. Quotes are
// requested dry: no deposit address is reserved during an aggregation
// round. Funding is a plain transfer to a deposit address, so token
// spends never need an ERC-20 approval here.
type Provider struct {
	client   *Client
	cfg      config.ProviderConfig
	wallet   walletsvc.Service
	rates    *rates.Service
	fiatCode string
	log      *zap.Logger
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
	if _, ok := AssetToTokenID(req.FromAsset()); !ok {
		return false
	}
	_, ok := AssetToTokenID(req.ToAsset())
	return ok
}

// Limits are not published by the 1click API; out-of-range amounts
// surface as quote failures instead.
func (p *Provider) Limits(context.Context, swaps.QuoteRequest) swaps.Limits {
	return swaps.Limits{}
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

	originID, ok := AssetToTokenID(req.FromAsset())
	if !ok {
		return swaps.NormalizedQuote{}, &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonPairNotSupported,
			Message:  "pair not supported",
		}
	}
	destID, ok := AssetToTokenID(req.ToAsset())
	if !ok {
		return swaps.NormalizedQuote{}, &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonPairNotSupported,
			Message:  "pair not supported",
		}
	}

	prec, err := p.wallet.AssetPrecision(req.CoinFrom, req.ChainFrom, req.WalletFrom.TokenAddress)
	if err != nil {
		return swaps.NormalizedQuote{}, &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonMalformedResponse,
			Message:  "unknown precision for source asset",
			Err:      err,
		}
	}
	amount := req.AmountFrom.Shift(int32(prec.UnitDecimals)).Truncate(0).String()

	deadline := time.Now().Add(10 * time.Minute)
	quoteReq := *oneclick.NewQuoteRequest(
		true,                // dry
		"EXACT_INPUT",       // swapType
		slippageBasisPoints, // slippageTolerance
		originID,            // originAsset
		"ORIGIN_CHAIN",      // depositType
		destID,              // destinationAsset
		amount,              // amount
		req.WalletFrom.Address, // refundTo
		"ORIGIN_CHAIN",      // refundType
		req.WalletTo.Address, // recipient
		"DESTINATION_CHAIN", // recipientType
		deadline,            // deadline
	)

	resp, err := p.client.GetQuote(ctx, quoteReq)
	if err != nil {
		return swaps.NormalizedQuote{}, &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonNetworkError,
			Message:  displayName + " is not available at this moment. Please try again later.",
			Err:      err,
		}
	}

	return p.normalize(ctx, req, resp)
}

func (p *Provider) normalize(ctx context.Context, req swaps.QuoteRequest, resp *oneclick.QuoteResponse) (swaps.NormalizedQuote, error) {
	amountTo, err := decimal.NewFromString(resp.Quote.AmountOutFormatted)
	if err != nil {
		return swaps.NormalizedQuote{}, &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonMalformedResponse,
			Message:  "unparseable output amount",
			Err:      err,
		}
	}
	if amountTo.IsZero() {
		return swaps.NormalizedQuote{}, &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonNoRouteFound,
			Message:  "Can't get rates at this moment. Please try again later",
		}
	}

	slippage := decimal.NewFromInt(slippageBasisPoints).Div(decimal.NewFromInt(100))

	quote := swaps.NormalizedQuote{
		AmountReceiving: amountTo,
		Routes: []swaps.Route{{
			Key:             ProviderKey,
			Path:            displayName,
			AmountReceiving: amountTo,
			Optimal:         true,
			Slippage:        slippage,
		}},
		SelectedRouteKey: ProviderKey,
		Slippage:         slippage,
		CorrelationID:    resp.CorrelationId,
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
