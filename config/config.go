package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// ProviderConfig is the externally supplied, read-only per-provider
// block.
type ProviderConfig struct {
	// Disabled turns the provider off administratively. The message is
	// surfaced to the user in place of quotes.
	Disabled        bool   `json:"disabled"`
	DisabledMessage string `json:"disabled_message"`

	// Removed hides the provider entirely: it is not consulted and not
	// shown as failed.
	Removed bool `json:"removed"`

	APIKey string `json:"api_key"`

	AffiliateAddress     string `json:"affiliate_address"`
	AffiliateBasisPoints int    `json:"affiliate_basis_points"` // 100 = 1%
}

type Config struct {
	// BIP39 mnemonic for deposit address derivation
	Mnemonic string `json:"mnemonic"`

	// Path to SQLite database for API traffic and round history
	DatabasePath string `json:"database_path"`

	// Fiat currency for rate display (default USD)
	FiatCode string `json:"fiat_code"`

	// Base URL of the allowance indexing service
	AllowanceIndexerURL string `json:"allowance_indexer_url"`

	// Provider endpoint overrides; empty uses each provider's default
	Endpoints map[string]string `json:"endpoints"`

	Providers map[string]ProviderConfig `json:"providers"`

	// Engine timings in milliseconds (defaults: 2000 debounce, 3500 settle)
	DebounceMs int `json:"debounce_ms"`
	SettleMs   int `json:"settle_ms"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Mnemonic == "" {
		return fmt.Errorf("mnemonic is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.AllowanceIndexerURL == "" {
		return fmt.Errorf("allowance_indexer_url is required")
	}
	if c.FiatCode == "" {
		c.FiatCode = "USD"
	}
	if c.DebounceMs == 0 {
		c.DebounceMs = 2000
	}
	if c.SettleMs == 0 {
		c.SettleMs = 3500
	}
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	return nil
}

// Provider returns the block for a provider key, zero value when absent.
func (c *Config) Provider(key string) ProviderConfig {
	return c.Providers[key]
}

// Endpoint returns the endpoint override for a provider, empty when absent.
func (c *Config) Endpoint(key string) string {
	if c.Endpoints == nil {
		return ""
	}
	return c.Endpoints[key]
}
