package swaps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAsset(t *testing.T) {
	a, err := ParseAsset("BTC.BTC")
	require.NoError(t, err)
	assert.Equal(t, Asset{Chain: "BTC", Symbol: "BTC"}, a)
	assert.True(t, a.IsNative())

	a, err = ParseAsset("eth.usdc-0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	require.NoError(t, err)
	assert.Equal(t, "ETH", a.Chain)
	assert.Equal(t, "USDC", a.Symbol)
	assert.Equal(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", a.ContractAddress)
	assert.False(t, a.IsNative())
}

func TestParseAssetInvalid(t *testing.T) {
	for _, s := range []string{"", "BTC", ".BTC", "BTC."} {
		_, err := ParseAsset(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestAssetStringRoundTrip(t *testing.T) {
	for _, s := range []string{"BTC.BTC", "ETH.USDC-0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"} {
		a, err := ParseAsset(s)
		require.NoError(t, err)
		assert.Equal(t, s, a.String())
	}
}
