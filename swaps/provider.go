package swaps

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrorReason classifies a provider failure for display and retry policy.
type ErrorReason string

const (
	// ReasonDisabled means the provider is administratively disabled.
	// User-facing, never retried within a round.
	ReasonDisabled ErrorReason = "disabled"
	// ReasonOutOfLimits means the requested amount is outside the
	// provider's min/max. Recomputed automatically when the amount changes.
	ReasonOutOfLimits ErrorReason = "out_of_limits"
	// ReasonNoRouteFound means the provider has no route for the pair.
	// Terminal for the round; the provider is hidden rather than shown failed.
	ReasonNoRouteFound ErrorReason = "no_route_found"
	// ReasonPairNotSupported means the pair is outside the provider's
	// capability table. Same surface as ReasonNoRouteFound.
	ReasonPairNotSupported ErrorReason = "pair_not_supported"
	// ReasonNetworkError covers transport failures and non-2xx responses.
	ReasonNetworkError ErrorReason = "network_error"
	// ReasonMalformedResponse covers undecodable bodies and correlation
	// id mismatches.
	ReasonMalformedResponse ErrorReason = "malformed_response"
)

// ProviderError is the typed failure every adapter returns. No other
// error kind crosses the adapter boundary.
type ProviderError struct {
	Provider string
	Reason   ErrorReason
	Message  string
	Err      error // underlying cause, may be nil
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Provider + ": " + e.Message
	}
	return e.Provider + ": " + string(e.Reason)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// AsProviderError extracts a *ProviderError from err, converting
// unclassified errors to ReasonNetworkError so the engine always has
// a typed failure to surface.
func AsProviderError(provider string, err error) *ProviderError {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return &ProviderError{
		Provider: provider,
		Reason:   ReasonNetworkError,
		Message:  "Could not get crypto offer. Please try again later.",
		Err:      err,
	}
}

// NormalizedQuote is the common shape adapters reduce provider
// responses to. The selector and the engine operate only on these
// fields, never on provider payloads.
type NormalizedQuote struct {
	AmountReceiving decimal.Decimal
	Rate            decimal.Decimal
	RateFiat        string // formatted fiat rate, empty when precision lookup failed
	// Routes holds the provider's route options, already normalized.
	// Single-route providers return exactly one entry.
	Routes []Route
	// SelectedRouteKey names the route the quote's headline numbers
	// come from.
	SelectedRouteKey string
	EstimatedSeconds int64
	// Slippage is the provider-reported tolerance after clamping, zero
	// when the provider has no slippage concept.
	Slippage decimal.Decimal
	// RequiresApproval is set when spending the source asset needs an
	// ERC-20 allowance for the route's spender contract.
	RequiresApproval bool
	// CorrelationID ties the quote back to the provider's own id, used
	// by checkout flows outside this core.
	CorrelationID string
}

// Route is one normalized route option inside a quote. Multi-hop
// provider routes are collapsed into the display Path ("A > B > C").
type Route struct {
	Key              string // provider-specific route key, e.g. leading sub-provider
	Path             string
	AmountReceiving  decimal.Decimal
	Optimal          bool
	SpenderAddress   string // approval target for token spends, empty when N/A
	Slippage         decimal.Decimal
	EstimatedSeconds int64
}

// Provider is one exchange backend integration. Implementations are
// pure request/response and hold no per-round state.
type Provider interface {
	// Key returns the stable provider identifier, e.g. "changelly".
	Key() string
	// DisplayName returns the human-readable provider name.
	DisplayName() string
	// SupportsPair checks the pair against the provider capability
	// table, optionally narrowed by a preloaded supported-coin list
	// and the request country.
	SupportsPair(req QuoteRequest) bool
	// Limits returns the provider's cached amount limits for the pair.
	// A zero value means no known limits.
	Limits(ctx context.Context, req QuoteRequest) Limits
	// GetQuote fetches and normalizes one quote. Failures are always
	// *ProviderError.
	GetQuote(ctx context.Context, req QuoteRequest) (NormalizedQuote, error)
}
