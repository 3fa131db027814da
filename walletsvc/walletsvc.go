// Package walletsvc is the boundary to the wallet service: deposit
// address resolution and asset precision lookup. Transaction signing
// and broadcast stay on the wallet side; this core only ever receives
// a transaction id back.
package walletsvc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"swapcore/swaps"
)

// Precision describes how an asset's display unit maps to its
// smallest on-chain unit.
type Precision struct {
	UnitToSatoshi int64
	UnitDecimals  int
}

// Service is what the quoting core needs from the wallet service.
type Service interface {
	// DepositAddress returns the wallet's deposit address, creating
	// one if the wallet has none yet.
	DepositAddress(ctx context.Context, w *swaps.Wallet) (string, error)
	// AssetPrecision returns the unit precision for an asset. Lookup
	// failure is not fatal to quoting: callers omit fiat fields and
	// continue.
	AssetPrecision(coin, chain, tokenAddress string) (Precision, error)
}

// defaultPrecisions covers chain-native assets. Token precisions are
// registered per contract.
var defaultPrecisions = map[string]Precision{
	"btc":   {UnitToSatoshi: 1e8, UnitDecimals: 8},
	"bch":   {UnitToSatoshi: 1e8, UnitDecimals: 8},
	"ltc":   {UnitToSatoshi: 1e8, UnitDecimals: 8},
	"doge":  {UnitToSatoshi: 1e8, UnitDecimals: 8},
	"eth":   {UnitToSatoshi: 1e18, UnitDecimals: 18},
	"matic": {UnitToSatoshi: 1e18, UnitDecimals: 18},
}

// HDService derives deposit addresses from a BIP-39 mnemonic and
// serves precision lookups from a registered token table. It is the
// in-process implementation used by the CLI and tests.
type HDService struct {
	mnemonic string
	log      *zap.Logger

	mu        sync.Mutex
	addresses map[string]string // wallet ID → derived address
	indexes   map[string]uint32 // wallet ID → derivation index
	nextIndex uint32

	tokenPrecisions map[string]Precision // lowercase contract address → precision
}

func NewHDService(mnemonic string, log *zap.Logger) *HDService {
	return &HDService{
		mnemonic:        mnemonic,
		log:             log,
		addresses:       make(map[string]string),
		indexes:         make(map[string]uint32),
		tokenPrecisions: make(map[string]Precision),
	}
}

// RegisterToken records the precision of an ERC-20 token contract.
func (s *HDService) RegisterToken(tokenAddress string, decimals int) {
	p := Precision{UnitToSatoshi: 1, UnitDecimals: decimals}
	for i := 0; i < decimals; i++ {
		p.UnitToSatoshi *= 10
	}
	s.mu.Lock()
	s.tokenPrecisions[strings.ToLower(tokenAddress)] = p
	s.mu.Unlock()
}

func (s *HDService) AssetPrecision(coin, chain, tokenAddress string) (Precision, error) {
	if tokenAddress != "" {
		s.mu.Lock()
		p, ok := s.tokenPrecisions[strings.ToLower(tokenAddress)]
		s.mu.Unlock()
		if !ok {
			return Precision{}, fmt.Errorf("no precision registered for token %s on %s", tokenAddress, chain)
		}
		return p, nil
	}
	if p, ok := defaultPrecisions[strings.ToLower(coin)]; ok {
		return p, nil
	}
	return Precision{}, fmt.Errorf("no precision known for %s.%s", chain, coin)
}

// DepositAddress returns the wallet's receive address, deriving and
// caching one when the wallet record carries none.
func (s *HDService) DepositAddress(ctx context.Context, w *swaps.Wallet) (string, error) {
	if w == nil {
		return "", fmt.Errorf("nil wallet")
	}
	if w.Address != "" {
		return w.Address, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if addr, ok := s.addresses[w.ID]; ok {
		return addr, nil
	}

	index, ok := s.indexes[w.ID]
	if !ok {
		index = s.nextIndex
		s.indexes[w.ID] = index
		s.nextIndex++
	}

	addr, err := DeriveAddress(s.mnemonic, index)
	if err != nil {
		return "", fmt.Errorf("deriving address for wallet %s: %w", w.ID, err)
	}

	s.addresses[w.ID] = addr.Hex()
	s.log.Debug("derived deposit address",
		zap.String("wallet_id", w.ID),
		zap.Uint32("index", index),
		zap.String("address", addr.Hex()))

	return addr.Hex(), nil
}
