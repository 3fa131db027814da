package changelly

import "strings"

// fixedAbbreviations maps coin+chain to the ticker Changelly expects
// where it differs from the plain abbreviation.
var fixedAbbreviations = map[string]string{
	"usdt/eth":    "usdt20",
	"usdt/tron":   "usdtrx",
	"matic/matic": "maticpolygon",
	"usdc/matic":  "usdcmatic",
	"eth/arb":     "etharb",
	"eth/base":    "ethbase",
	"bnb/bsc":     "bnbbsc",
	"usdc/sol":    "usdcsol",
}

// FixedCurrencyAbbreviation returns the ticker to send to the API
// for a coin on a chain.
func FixedCurrencyAbbreviation(coin, chain string) string {
	key := strings.ToLower(coin) + "/" + strings.ToLower(chain)
	if fixed, ok := fixedAbbreviations[key]; ok {
		return fixed
	}
	return strings.ToLower(coin)
}

// supportedCoins is the curated capability table for the exchange.
var supportedCoins = map[string]bool{
	"btc/btc":     true,
	"bch/bch":     true,
	"ltc/ltc":     true,
	"doge/doge":   true,
	"eth/eth":     true,
	"eth/arb":     true,
	"eth/base":    true,
	"usdc/eth":    true,
	"usdt/eth":    true,
	"dai/eth":     true,
	"wbtc/eth":    true,
	"shib/eth":    true,
	"matic/matic": true,
	"sol/sol":     true,
	"xrp/xrp":     true,
}

// restrictedCountries lists countries the exchange does not serve.
var restrictedCountries = map[string]bool{
	"US": true,
}

// IsCoinSupported checks the coin/chain pair against the capability table.
func IsCoinSupported(coin, chain string) bool {
	return supportedCoins[strings.ToLower(coin)+"/"+strings.ToLower(chain)]
}

// IsCountrySupported reports whether the exchange serves the country.
// An empty country is not restricted.
func IsCountrySupported(country string) bool {
	if country == "" {
		return true
	}
	return !restrictedCountries[strings.ToUpper(country)]
}
