package thorswap

import (
	"strings"

	"swapcore/swaps"
)

// supportedNativeCoins are the chain-native assets the aggregator routes.
var supportedNativeCoins = map[string]bool{
	"btc":  true,
	"bch":  true,
	"ltc":  true,
	"doge": true,
	"eth":  true,
	"avax": true,
	"atom": true,
	"rune": true,
}

// supportedEthTokens is the curated ERC-20 capability table on Ethereum.
var supportedEthTokens = map[string]bool{
	"usdc": true,
	"usdt": true,
	"dai":  true,
	"wbtc": true,
	"link": true,
	"aave": true,
	"uni":  true,
	"mkr":  true,
	"snx":  true,
	"comp": true,
	"crv":  true,
	"ldo":  true,
}

// IsCoinSupported checks a coin/chain pair against the capability table.
func IsCoinSupported(coin, chain string) bool {
	c := strings.ToLower(coin)
	switch strings.ToLower(chain) {
	case "eth":
		if c == "eth" {
			return true
		}
		return supportedEthTokens[c]
	default:
		return supportedNativeCoins[c]
	}
}

// FixedAsset renders a wallet's asset in the CHAIN.SYMBOL-CONTRACT
// notation the aggregator expects.
func FixedAsset(coin, chain, tokenAddress string) string {
	return swaps.NewAsset(coin, chain, tokenAddress).String()
}
