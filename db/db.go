// Package db persists provider API traffic and finalized quote
// rounds to SQLite.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	conn *sql.DB
}

func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

type InsertAPIRequestParams struct {
	Provider        string
	Method          string
	URL             string
	RequestHeaders  sql.NullString
	RequestBody     sql.NullString
	ResponseStatus  sql.NullInt64
	ResponseHeaders sql.NullString
	ResponseBody    sql.NullString
	Error           sql.NullString
	DurationMs      sql.NullInt64
}

func (s *Store) InsertAPIRequest(ctx context.Context, arg InsertAPIRequestParams) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO api_requests (
			provider, method, url, request_headers, request_body,
			response_status, response_headers, response_body, error, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Provider, arg.Method, arg.URL, arg.RequestHeaders, arg.RequestBody,
		arg.ResponseStatus, arg.ResponseHeaders, arg.ResponseBody, arg.Error, arg.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("inserting api request: %w", err)
	}
	return nil
}

// APIRequestRecord is one recorded provider API call.
type APIRequestRecord struct {
	Provider       string
	Method         string
	URL            string
	RequestBody    sql.NullString
	ResponseStatus sql.NullInt64
	ResponseBody   sql.NullString
	Error          sql.NullString
	DurationMs     sql.NullInt64
}

// LatestAPIRequest returns the most recently recorded API call. It
// returns sql.ErrNoRows when nothing has been recorded yet.
func (s *Store) LatestAPIRequest(ctx context.Context) (APIRequestRecord, error) {
	var rec APIRequestRecord
	err := s.conn.QueryRowContext(ctx, `
		SELECT provider, method, url, request_body, response_status,
		       response_body, error, duration_ms
		FROM api_requests ORDER BY id DESC LIMIT 1`).
		Scan(&rec.Provider, &rec.Method, &rec.URL, &rec.RequestBody,
			&rec.ResponseStatus, &rec.ResponseBody, &rec.Error, &rec.DurationMs)
	if err != nil {
		return APIRequestRecord{}, err
	}
	return rec, nil
}

type InsertQuoteRoundParams struct {
	Seq              uint64
	CoinFrom         string
	ChainFrom        string
	CoinTo           string
	ChainTo          string
	AmountFrom       string
	SelectedProvider sql.NullString
	AmountReceiving  sql.NullString
	OfferCount       int
	Warning          sql.NullString
}

// InsertQuoteRound records one finalized aggregation round.
func (s *Store) InsertQuoteRound(ctx context.Context, arg InsertQuoteRoundParams) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO quote_rounds (
			seq, coin_from, chain_from, coin_to, chain_to, amount_from,
			selected_provider, amount_receiving, offer_count, warning
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Seq, arg.CoinFrom, arg.ChainFrom, arg.CoinTo, arg.ChainTo, arg.AmountFrom,
		arg.SelectedProvider, arg.AmountReceiving, arg.OfferCount, arg.Warning,
	)
	if err != nil {
		return fmt.Errorf("inserting quote round: %w", err)
	}
	return nil
}

// ToNullString wraps a string, treating empty as NULL.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
