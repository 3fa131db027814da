package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMigrationsApply(t *testing.T) {
	store := openTestStore(t)

	var count int
	err := store.conn.QueryRow(`SELECT COUNT(*) FROM api_requests`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	err = store.conn.QueryRow(`SELECT COUNT(*) FROM quote_rounds`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestInsertAPIRequest(t *testing.T) {
	store := openTestStore(t)

	err := store.InsertAPIRequest(context.Background(), InsertAPIRequestParams{
		Provider:       "changelly",
		Method:         "POST",
		URL:            "https://api.changelly.com/v2",
		RequestBody:    ToNullString(`{"method":"getFixRateForAmount"}`),
		ResponseStatus: sql.NullInt64{Int64: 200, Valid: true},
		DurationMs:     sql.NullInt64{Int64: 42, Valid: true},
	})
	require.NoError(t, err)

	var provider string
	var status int64
	err = store.conn.QueryRow(
		`SELECT provider, response_status FROM api_requests`).Scan(&provider, &status)
	require.NoError(t, err)
	assert.Equal(t, "changelly", provider)
	assert.Equal(t, int64(200), status)
}

func TestInsertQuoteRound(t *testing.T) {
	store := openTestStore(t)

	err := store.InsertQuoteRound(context.Background(), InsertQuoteRoundParams{
		Seq:              3,
		CoinFrom:         "usdc",
		ChainFrom:        "eth",
		CoinTo:           "eth",
		ChainTo:          "eth",
		AmountFrom:       "1000",
		SelectedProvider: ToNullString("thorswap"),
		AmountReceiving:  ToNullString("0.33"),
		OfferCount:       2,
	})
	require.NoError(t, err)

	var selected string
	var offers int
	err = store.conn.QueryRow(
		`SELECT selected_provider, offer_count FROM quote_rounds WHERE seq = 3`).Scan(&selected, &offers)
	require.NoError(t, err)
	assert.Equal(t, "thorswap", selected)
	assert.Equal(t, 2, offers)
}

func TestToNullString(t *testing.T) {
	assert.False(t, ToNullString("").Valid)
	assert.True(t, ToNullString("x").Valid)
}
