// Package apilog records provider API traffic to the database for
// debugging quote discrepancies after the fact.
package apilog

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"swapcore/db"
)

const maxBodySize = 64 * 1024 // 64KB

// Transport is an http.RoundTripper that logs all requests and
// responses to the database.
type Transport struct {
	inner    http.RoundTripper
	provider string
	store    *db.Store
	log      *zap.Logger
}

// NewHTTPClient builds an HTTP client whose traffic is recorded under
// the given provider key. A nil store returns a plain client.
func NewHTTPClient(provider string, store *db.Store, log *zap.Logger) *http.Client {
	client := &http.Client{Timeout: 30 * time.Second}
	if store == nil {
		return client
	}
	client.Transport = &Transport{
		inner:    http.DefaultTransport,
		provider: provider,
		store:    store,
		log:      log,
	}
	return client
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var reqBody []byte
	if req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}

	start := time.Now()
	resp, err := t.inner.RoundTrip(req)
	duration := time.Since(start).Milliseconds()

	params := db.InsertAPIRequestParams{
		Provider:       t.provider,
		Method:         req.Method,
		URL:            req.URL.String(),
		RequestHeaders: db.ToNullString(headerString(req.Header)),
		RequestBody:    db.ToNullString(truncate(string(reqBody))),
		DurationMs:     sql.NullInt64{Int64: duration, Valid: true},
	}

	if err != nil {
		params.Error = db.ToNullString(err.Error())
	} else {
		var respBody []byte
		if resp.Body != nil {
			respBody, _ = io.ReadAll(resp.Body)
			resp.Body = io.NopCloser(bytes.NewReader(respBody))
		}
		params.ResponseStatus = sql.NullInt64{Int64: int64(resp.StatusCode), Valid: true}
		params.ResponseHeaders = db.ToNullString(headerString(resp.Header))
		params.ResponseBody = db.ToNullString(truncate(string(respBody)))
	}

	// Insert asynchronously so logging never slows the quote path.
	go func() {
		if dbErr := t.store.InsertAPIRequest(context.Background(), params); dbErr != nil {
			t.log.Warn("failed to record api request",
				zap.String("method", params.Method),
				zap.String("url", params.URL),
				zap.Error(dbErr))
		}
	}()

	return resp, err
}

func headerString(h http.Header) string {
	var buf bytes.Buffer
	h.Write(&buf)
	return buf.String()
}

func truncate(s string) string {
	if len(s) > maxBodySize {
		return s[:maxBodySize] + "...[truncated]"
	}
	return s
}
