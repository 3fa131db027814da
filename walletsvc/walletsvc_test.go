package walletsvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"swapcore/swaps"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestDeriveAddressKnownVector(t *testing.T) {
	addr, err := DeriveAddress(testMnemonic, 0)
	require.NoError(t, err)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", addr.Hex())
}

func TestDeriveAddressIndexesDiffer(t *testing.T) {
	a0, err := DeriveAddress(testMnemonic, 0)
	require.NoError(t, err)
	a1, err := DeriveAddress(testMnemonic, 1)
	require.NoError(t, err)
	assert.NotEqual(t, a0, a1)
}

func TestDepositAddressCached(t *testing.T) {
	s := NewHDService(testMnemonic, zap.NewNop())
	ctx := context.Background()

	w1 := &swaps.Wallet{ID: "w1", Coin: "eth", Chain: "eth"}
	first, err := s.DepositAddress(ctx, w1)
	require.NoError(t, err)

	again, err := s.DepositAddress(ctx, w1)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	w2 := &swaps.Wallet{ID: "w2", Coin: "eth", Chain: "eth"}
	other, err := s.DepositAddress(ctx, w2)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestDepositAddressPrefersWalletRecord(t *testing.T) {
	s := NewHDService(testMnemonic, zap.NewNop())
	w := &swaps.Wallet{ID: "w1", Address: "0xdeadbeef"}

	addr, err := s.DepositAddress(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", addr)
}

func TestAssetPrecisionDefaults(t *testing.T) {
	s := NewHDService(testMnemonic, zap.NewNop())

	p, err := s.AssetPrecision("btc", "btc", "")
	require.NoError(t, err)
	assert.Equal(t, Precision{UnitToSatoshi: 1e8, UnitDecimals: 8}, p)

	p, err = s.AssetPrecision("ETH", "eth", "")
	require.NoError(t, err)
	assert.Equal(t, 18, p.UnitDecimals)

	_, err = s.AssetPrecision("xmr", "xmr", "")
	assert.Error(t, err)
}

func TestAssetPrecisionRegisteredTokens(t *testing.T) {
	s := NewHDService(testMnemonic, zap.NewNop())
	contract := "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

	_, err := s.AssetPrecision("usdc", "eth", contract)
	assert.Error(t, err, "unregistered token has no precision")

	s.RegisterToken(contract, 6)
	p, err := s.AssetPrecision("usdc", "eth", contract)
	require.NoError(t, err)
	assert.Equal(t, Precision{UnitToSatoshi: 1e6, UnitDecimals: 6}, p)

	// Lookup is case-insensitive on the contract address.
	p, err = s.AssetPrecision("usdc", "eth", "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	require.NoError(t, err)
	assert.Equal(t, int64(1e6), p.UnitToSatoshi)
}
