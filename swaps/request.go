package swaps

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// QuoteRequest is the immutable input of one aggregation round.
type QuoteRequest struct {
	AmountFrom decimal.Decimal
	CoinFrom   string
	ChainFrom  string
	CoinTo     string
	ChainTo    string
	WalletFrom *Wallet
	WalletTo   *Wallet
	Country    string // optional ISO country code, narrows provider eligibility
}

// Key returns the identity tuple used for debounce coalescing and
// round supersession. Two requests with equal keys describe the same
// round.
func (r QuoteRequest) Key() string {
	var fromID, toID string
	if r.WalletFrom != nil {
		fromID = r.WalletFrom.ID
	}
	if r.WalletTo != nil {
		toID = r.WalletTo.ID
	}
	return fmt.Sprintf("%s|%s.%s>%s.%s|%s>%s",
		r.AmountFrom.String(), r.ChainFrom, r.CoinFrom, r.ChainTo, r.CoinTo, fromID, toID)
}

// Validate is the gate applied before a round fires. A failing request
// never reaches the network.
func (r QuoteRequest) Validate() error {
	if r.WalletFrom == nil || r.WalletTo == nil {
		return fmt.Errorf("both source and destination wallets are required")
	}
	if r.CoinFrom == "" || r.ChainFrom == "" || r.CoinTo == "" || r.ChainTo == "" {
		return fmt.Errorf("source and destination assets are required")
	}
	if r.AmountFrom.IsZero() || r.AmountFrom.IsNegative() {
		return fmt.Errorf("amount must be greater than zero")
	}
	if r.WalletFrom.Balance.IsPositive() && r.AmountFrom.GreaterThan(r.WalletFrom.Balance) {
		return fmt.Errorf("amount %s exceeds spendable balance %s",
			r.AmountFrom, r.WalletFrom.Balance)
	}
	return nil
}

// FromAsset returns the source asset of the request.
func (r QuoteRequest) FromAsset() Asset {
	return NewAsset(r.CoinFrom, r.ChainFrom, r.WalletFrom.TokenAddress)
}

// ToAsset returns the destination asset of the request.
func (r QuoteRequest) ToAsset() Asset {
	return NewAsset(r.CoinTo, r.ChainTo, r.WalletTo.TokenAddress)
}
