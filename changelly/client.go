// Package changelly integrates the Changelly fixed-rate exchange API.
package changelly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultBaseURL = "https://api.changelly.com/v2"

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("changelly rpc error %d: %s", e.Code, e.Message)
}

// errIDMismatch marks a response whose echoed id does not belong to
// the request, which can happen with out-of-order responses on a
// shared transport. Callers classify it as a malformed response.
type errIDMismatch struct {
	want, got string
}

func (e *errIDMismatch) Error() string {
	return fmt.Sprintf("changelly response id %q does not match request id %q", e.got, e.want)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// call performs one JSON-RPC request. Each request carries a fresh
// correlation id; a response that echoes a different id is rejected.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	id := uuid.NewString()
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", method, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d: %s", method, resp.StatusCode, string(body))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("parsing %s response: %w", method, err)
	}
	if rpcResp.ID != id {
		return &errIDMismatch{want: id, got: rpcResp.ID}
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("parsing %s result: %w", method, err)
	}
	return nil
}

// FixRateRequest asks for a fixed-rate quote for a concrete amount.
type FixRateRequest struct {
	From       string `json:"from"`
	To         string `json:"to"`
	AmountFrom string `json:"amountFrom"`
}

// FixRateResult is one fixed-rate offer. Rate carries the quoted
// exchange rate; ID is the rate lock used at checkout.
type FixRateResult struct {
	ID         string `json:"id"`
	Rate       string `json:"result"`
	From       string `json:"from"`
	To         string `json:"to"`
	AmountFrom string `json:"amountFrom"`
	AmountTo   string `json:"amountTo"`
}

// GetFixRateForAmount returns fixed-rate offers for the pair. An empty
// list means the pair is temporarily disabled upstream.
func (c *Client) GetFixRateForAmount(ctx context.Context, reqData FixRateRequest) ([]FixRateResult, error) {
	var results []FixRateResult
	if err := c.call(ctx, "getFixRateForAmount", []FixRateRequest{reqData}, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// PairParams carries the amount limits of one trading pair.
type PairParams struct {
	From           string `json:"from"`
	To             string `json:"to"`
	MinAmountFixed string `json:"minAmountFixed"`
	MaxAmountFixed string `json:"maxAmountFixed"`
}

// GetPairsParams returns the amount limits for the pair.
func (c *Client) GetPairsParams(ctx context.Context, from, to string) ([]PairParams, error) {
	params := []map[string]string{{"from": from, "to": to}}
	var results []PairParams
	if err := c.call(ctx, "getPairsParams", params, &results); err != nil {
		return nil, err
	}
	return results, nil
}
