package changelly

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swapcore/config"
	"swapcore/rates"
	"swapcore/swaps"
	"swapcore/walletsvc"
)

const (
	ProviderKey = "changelly"
	displayName = "Changelly"
)

// Provider adapts the fixed-rate API to the normalized quote contract.
type Provider struct {
	client   *Client
	cfg      config.ProviderConfig
	wallet   walletsvc.Service
	rates    *rates.Service
	fiatCode string
	log      *zap.Logger

	// Pair limits barely move; cache them so the limit filter can run
	// without a network call on every round.
	limits *rates.Cache[swaps.Limits]

	// SupportedCoins optionally narrows the capability table with a
	// preloaded list from the exchange, keyed coin/chain lowercase.
	SupportedCoins map[string]bool
}

func NewProvider(client *Client, cfg config.ProviderConfig, wallet walletsvc.Service, rateSvc *rates.Service, fiatCode string, log *zap.Logger) *Provider {
	return &Provider{
		client:   client,
		cfg:      cfg,
		wallet:   wallet,
		rates:    rateSvc,
		fiatCode: fiatCode,
		log:      log,
		limits:   rates.NewCache[swaps.Limits](10 * time.Minute),
	}
}

func (p *Provider) Key() string         { return ProviderKey }
func (p *Provider) DisplayName() string { return displayName }

func (p *Provider) SupportsPair(req swaps.QuoteRequest) bool {
	if !IsCountrySupported(req.Country) {
		return false
	}
	if !IsCoinSupported(req.CoinFrom, req.ChainFrom) || !IsCoinSupported(req.CoinTo, req.ChainTo) {
		return false
	}
	if p.SupportedCoins != nil {
		if !p.SupportedCoins[req.CoinFrom+"/"+req.ChainFrom] || !p.SupportedCoins[req.CoinTo+"/"+req.ChainTo] {
			return false
		}
	}
	return true
}

// Limits returns the cached pair limits, fetching them on first use.
// Unknown limits never block a quote attempt.
func (p *Provider) Limits(ctx context.Context, req swaps.QuoteRequest) swaps.Limits {
	from := FixedCurrencyAbbreviation(req.CoinFrom, req.ChainFrom)
	to := FixedCurrencyAbbreviation(req.CoinTo, req.ChainTo)

	limits, err := p.limits.GetOrFetch(from+">"+to, func() (swaps.Limits, error) {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pairs, err := p.client.GetPairsParams(ctx, from, to)
		if err != nil {
			return swaps.Limits{}, fmt.Errorf("fetching pair params: %w", err)
		}
		if len(pairs) == 0 {
			return swaps.Limits{}, fmt.Errorf("no pair params for %s>%s", from, to)
		}
		var l swaps.Limits
		if min, err := decimal.NewFromString(pairs[0].MinAmountFixed); err == nil {
			l.Min = &min
		}
		if max, err := decimal.NewFromString(pairs[0].MaxAmountFixed); err == nil {
			l.Max = &max
		}
		return l, nil
	})
	if err != nil {
		p.log.Debug("pair limits unavailable", zap.Error(err))
		return swaps.Limits{}
	}
	return limits
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

	results, err := p.client.GetFixRateForAmount(ctx, FixRateRequest{
		From:       FixedCurrencyAbbreviation(req.CoinFrom, req.ChainFrom),
		To:         FixedCurrencyAbbreviation(req.CoinTo, req.ChainTo),
		AmountFrom: req.AmountFrom.String(),
	})
	if err != nil {
		return swaps.NormalizedQuote{}, p.classify(err)
	}

	if len(results) == 0 {
		return swaps.NormalizedQuote{}, &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonNoRouteFound,
			Message: fmt.Sprintf("%s has temporarily disabled the %s(%s)-%s(%s) pair",
				displayName, req.CoinFrom, req.ChainFrom, req.CoinTo, req.ChainTo),
		}
	}

	return p.normalize(ctx, req, results[0])
}

func (p *Provider) normalize(ctx context.Context, req swaps.QuoteRequest, result FixRateResult) (swaps.NormalizedQuote, error) {
	amountTo, err := decimal.NewFromString(result.AmountTo)
	if err != nil {
		return swaps.NormalizedQuote{}, &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonMalformedResponse,
			Message:  fmt.Sprintf("unparseable receive amount %q", result.AmountTo),
			Err:      err,
		}
	}
	rate, err := decimal.NewFromString(result.Rate)
	if err != nil {
		return swaps.NormalizedQuote{}, &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonMalformedResponse,
			Message:  fmt.Sprintf("unparseable rate %q", result.Rate),
			Err:      err,
		}
	}

	quote := swaps.NormalizedQuote{
		AmountReceiving:  amountTo,
		Rate:             rate,
		SelectedRouteKey: result.ID,
		CorrelationID:    result.ID,
		Routes: []swaps.Route{{
			Key:             result.ID,
			Path:            displayName,
			AmountReceiving: amountTo,
			Optimal:         true,
		}},
	}

	// Fiat display is best-effort: a missing precision or rate omits
	// the fiat fields and keeps the crypto amounts.
	if _, err := p.wallet.AssetPrecision(req.CoinTo, req.ChainTo, req.WalletTo.TokenAddress); err == nil {
		if fiat, ferr := p.rates.ToFiat(ctx, rate, req.ToAsset(), p.fiatCode); ferr == nil {
			quote.RateFiat = rates.FormatFiat(fiat, p.fiatCode)
		}
	} else {
		p.log.Debug("precision lookup failed, omitting fiat rate", zap.Error(err))
	}

	return quote, nil
}

// classify converts transport and protocol failures into the typed
// taxonomy. Correlation id mismatches are malformed responses, not
// network errors.
func (p *Provider) classify(err error) *swaps.ProviderError {
	var mismatch *errIDMismatch
	if errors.As(err, &mismatch) {
		return &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonMalformedResponse,
			Message:  mismatch.Error(),
			Err:      err,
		}
	}
	var rpcErr *rpcError
	if errors.As(err, &rpcErr) {
		return &swaps.ProviderError{
			Provider: ProviderKey,
			Reason:   swaps.ReasonNoRouteFound,
			Message:  rpcErr.Message,
			Err:      err,
		}
	}
	return &swaps.ProviderError{
		Provider: ProviderKey,
		Reason:   swaps.ReasonNetworkError,
		Message:  displayName + " is not available at this moment. Please try again later.",
		Err:      err,
	}
}
