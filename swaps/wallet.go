package swaps

import "github.com/shopspring/decimal"

// Wallet is the minimal view of a user wallet that quoting needs.
// Key material and signing live in the external wallet service.
type Wallet struct {
	ID           string
	Coin         string // currency abbreviation, lowercase
	Chain        string // chain identifier, lowercase
	TokenAddress string // ERC-20 contract address, empty for native assets
	Address      string // known receive address, may be empty until derived
	Balance      decimal.Decimal
}

// IsToken reports whether the wallet holds a contract token rather
// than a chain-native asset.
func (w *Wallet) IsToken() bool {
	return w != nil && w.TokenAddress != ""
}

// Asset returns the wallet's asset in CHAIN.SYMBOL[-CONTRACT] notation.
func (w *Wallet) Asset() Asset {
	return NewAsset(w.Coin, w.Chain, w.TokenAddress)
}
