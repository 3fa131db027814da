package swaps

import "github.com/shopspring/decimal"

// OfferState is an offer's lifecycle phase within one round. An offer
// starts Loading and transitions exactly once to one of the terminal
// states; a new round builds fresh offers instead of mutating old ones.
type OfferState string

const (
	OfferLoading     OfferState = "loading"
	OfferSuccess     OfferState = "success"
	OfferOutOfLimits OfferState = "out_of_limits"
	OfferError       OfferState = "error"
)

// ApprovalState is the ERC-20 allowance machine state surfaced on an
// offer that requires a token spending approval.
type ApprovalState string

const (
	ApprovalUnknown      ApprovalState = "unknown"
	ApprovalChecking     ApprovalState = "checking"
	ApprovalSufficient   ApprovalState = "sufficient"
	ApprovalInsufficient ApprovalState = "insufficient_needs_approval"
	ApprovalPending      ApprovalState = "approval_pending"
	ApprovalConfirming   ApprovalState = "approval_confirming"
	ApprovalFailed       ApprovalState = "failed"
)

// Terminal reports whether the approval machine has settled.
func (s ApprovalState) Terminal() bool {
	return s == ApprovalSufficient || s == ApprovalFailed
}

// Offer is one provider's result for the current round.
type Offer struct {
	ProviderKey string
	DisplayName string
	State       OfferState

	AmountReceiving  decimal.Decimal
	Rate             decimal.Decimal
	RateFiat         string
	MinReceive       decimal.Decimal // slippage-adjusted minimum receive
	Slippage         decimal.Decimal
	HasSlippageOpts  bool
	EstimatedSeconds int64

	Routes           []Route
	SelectedRouteKey string
	ProvidersPath    string

	RequiresApproval bool
	Approval         ApprovalState

	ErrorMsg string // set for OfferError and OfferOutOfLimits
}

// Viable reports whether the offer can participate in best-offer
// selection: a successful quote with a parseable, non-zero amount.
func (o Offer) Viable() bool {
	return o.State == OfferSuccess && o.AmountReceiving.IsPositive()
}

// Hidden reports whether the offer should be dropped from display
// entirely instead of shown as failed.
func (o Offer) Hidden() bool {
	return o.State == OfferError && o.ErrorMsg == ""
}
