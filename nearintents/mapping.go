package nearintents

import (
	"strings"

	"swapcore/swaps"
)

// assetToTokenID maps CHAIN.SYMBOL notation to Near Intents 1click
// token IDs. ERC-20 tokens are keyed with their contract suffix.
var assetToTokenID = map[string]string{
	"BTC.BTC":   "nep141:btc.omft.near",
	"ETH.ETH":   "nep141:eth.omft.near",
	"SOL.SOL":   "nep141:sol.omft.near",
	"DOGE.DOGE": "nep141:doge.omft.near",
	"XRP.XRP":   "nep141:xrp.omft.near",
	"LTC.LTC":   "nep141:ltc.omft.near",

	"ETH.USDC-0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48":  "nep141:eth-0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48.omft.near",
	"ETH.USDT-0xdac17f958d2ee523a2206206994597c13d831ec7":  "nep141:eth-0xdac17f958d2ee523a2206206994597c13d831ec7.omft.near",
	"BASE.USDC-0x833589fcd6edb6e08f4c7c32d4f71b54bda02913": "nep141:base-0x833589fcd6edb6e08f4c7c32d4f71b54bda02913.omft.near",
}

// AssetToTokenID looks up the Near Intents token ID for an asset.
func AssetToTokenID(asset swaps.Asset) (string, bool) {
	key := asset.Chain + "." + asset.Symbol
	if asset.ContractAddress != "" {
		key += "-" + strings.ToLower(asset.ContractAddress)
	}
	id, ok := assetToTokenID[key]
	return id, ok
}
