package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"mnemonic": "abandon abandon abandon",
		"database_path": "/tmp/swapcore.db",
		"allowance_indexer_url": "https://indexer.example.com"
	}`))
	require.NoError(t, err)

	assert.Equal(t, "USD", cfg.FiatCode)
	assert.Equal(t, 2000, cfg.DebounceMs)
	assert.Equal(t, 3500, cfg.SettleMs)
	assert.NotNil(t, cfg.Providers)
}

func TestLoadProviderBlocks(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"mnemonic": "m",
		"database_path": "d",
		"allowance_indexer_url": "u",
		"endpoints": {"changelly": "http://localhost:9999"},
		"providers": {
			"changelly": {"api_key": "k1", "disabled": true, "disabled_message": "back soon"},
			"thorswap": {"removed": true}
		}
	}`))
	require.NoError(t, err)

	ch := cfg.Provider("changelly")
	assert.True(t, ch.Disabled)
	assert.Equal(t, "back soon", ch.DisabledMessage)
	assert.Equal(t, "k1", ch.APIKey)

	assert.True(t, cfg.Provider("thorswap").Removed)
	assert.Equal(t, ProviderConfig{}, cfg.Provider("unknown"))
	assert.Equal(t, "http://localhost:9999", cfg.Endpoint("changelly"))
	assert.Equal(t, "", cfg.Endpoint("thorswap"))
}

func TestLoadRejectsMissingFields(t *testing.T) {
	_, err := Load(writeConfig(t, `{"database_path": "d", "allowance_indexer_url": "u"}`))
	assert.ErrorContains(t, err, "mnemonic")

	_, err = Load(writeConfig(t, `{"mnemonic": "m", "allowance_indexer_url": "u"}`))
	assert.ErrorContains(t, err, "database_path")

	_, err = Load(writeConfig(t, `{"mnemonic": "m", "database_path": "d"}`))
	assert.ErrorContains(t, err, "allowance_indexer_url")
}

func TestLoadRejectsBadJSON(t *testing.T) {
	_, err := Load(writeConfig(t, `{not json`))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
