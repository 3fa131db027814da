// Package rates supplies fiat conversion for quoted amounts. The rate
// table itself comes from an external source; this package caches and
// formats.
package rates

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"swapcore/swaps"
)

// Source provides the current fiat price of one whole unit of an asset.
type Source interface {
	FiatRate(ctx context.Context, asset swaps.Asset, fiatCode string) (decimal.Decimal, error)
}

// Service caches Source lookups and converts asset amounts to fiat.
type Service struct {
	source Source
	cache  *Cache[decimal.Decimal]
}

func NewService(source Source) *Service {
	return &Service{
		source: source,
		cache:  NewCache[decimal.Decimal](5 * time.Minute),
	}
}

// ToFiat converts an asset amount to the given fiat currency.
func (s *Service) ToFiat(ctx context.Context, amount decimal.Decimal, asset swaps.Asset, fiatCode string) (decimal.Decimal, error) {
	key := asset.String() + "|" + strings.ToUpper(fiatCode)
	rate, err := s.cache.GetOrFetch(key, func() (decimal.Decimal, error) {
		return s.source.FiatRate(ctx, asset, fiatCode)
	})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("fiat rate for %s: %w", asset, err)
	}
	return amount.Mul(rate), nil
}

// FormatFiat renders a fiat amount for display: symbol prefix for USD,
// code suffix otherwise.
func FormatFiat(amount decimal.Decimal, fiatCode string) string {
	code := strings.ToUpper(fiatCode)
	if code == "USD" {
		return "$" + amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " " + code
}

// StaticSource is a Source backed by a fixed in-memory table, used by
// the CLI when no live rate feed is wired and by tests.
type StaticSource struct {
	mu    sync.RWMutex
	table map[string]decimal.Decimal // "CHAIN.SYMBOL|FIAT" → price
}

func NewStaticSource() *StaticSource {
	return &StaticSource{table: make(map[string]decimal.Decimal)}
}

// Set records the fiat price of one whole unit of the asset.
func (s *StaticSource) Set(asset swaps.Asset, fiatCode string, price decimal.Decimal) {
	s.mu.Lock()
	s.table[staticKey(asset, fiatCode)] = price
	s.mu.Unlock()
}

func (s *StaticSource) FiatRate(_ context.Context, asset swaps.Asset, fiatCode string) (decimal.Decimal, error) {
	s.mu.RLock()
	price, ok := s.table[staticKey(asset, fiatCode)]
	s.mu.RUnlock()
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no rate for %s in %s", asset, fiatCode)
	}
	return price, nil
}

func staticKey(asset swaps.Asset, fiatCode string) string {
	return asset.Chain + "." + asset.Symbol + "|" + strings.ToUpper(fiatCode)
}
