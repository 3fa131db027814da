package nearintents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"swapcore/swaps"
)

func TestAssetToTokenID(t *testing.T) {
	id, ok := AssetToTokenID(swaps.Asset{Chain: "BTC", Symbol: "BTC"})
	assert.True(t, ok)
	assert.Equal(t, "nep141:btc.omft.near", id)

	// Token lookups are case-insensitive on the contract.
	id, ok = AssetToTokenID(swaps.Asset{
		Chain:           "ETH",
		Symbol:          "USDC",
		ContractAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
	})
	assert.True(t, ok)
	assert.Equal(t, "nep141:eth-0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48.omft.near", id)

	_, ok = AssetToTokenID(swaps.Asset{Chain: "XMR", Symbol: "XMR"})
	assert.False(t, ok)
}
