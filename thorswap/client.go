// Package thorswap integrates the THORSwap aggregator, which returns
// multiple candidate routes across sub-providers per quote.
package thorswap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://api.thorswap.net/aggregator"

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

// QuoteParams describe one swap quote request.
type QuoteParams struct {
	SellAsset            string // CHAIN.SYMBOL[-CONTRACT] notation
	BuyAsset             string
	SellAmount           decimal.Decimal
	SenderAddress        string
	RecipientAddress     string
	AffiliateAddress     string
	AffiliateBasisPoints int
}

// RouteFee is one fee component of a route, keyed by chain in Route.Fees.
type RouteFee struct {
	Type     string `json:"type"`
	Asset    string `json:"asset"`
	TotalFee string `json:"totalFee"`
}

// RouteTimeEstimates are per-leg durations in milliseconds.
type RouteTimeEstimates struct {
	InboundMs   int64 `json:"inboundMs"`
	OutboundMs  int64 `json:"outboundMs"`
	StreamingMs int64 `json:"streamingMs"`
	SwapMs      int64 `json:"swapMs"`
}

// RouteMeta carries route metadata; SlippagePercentage arrives as an
// arbitrary number and is sanitized downstream.
type RouteMeta struct {
	SlippagePercentage json.Number `json:"slippagePercentage"`
}

// Route is one candidate route in a quote response.
type Route struct {
	Providers      []string              `json:"providers"`
	SubProviders   []string              `json:"subProviders"`
	Path           string                `json:"path"`
	ExpectedOutput string                `json:"expectedOutput"`
	Optimal        bool                  `json:"optimal"`
	ApprovalTarget string                `json:"approvalTarget"`
	Contract       string                `json:"contract"`
	TargetAddress  string                `json:"targetAddress"`
	Fees           map[string][]RouteFee `json:"fees"`
	Meta           RouteMeta             `json:"meta"`
	TimeEstimates  RouteTimeEstimates    `json:"timeEstimates"`
}

// QuoteResponse is the raw aggregator response. Error fields are
// populated instead of routes on upstream failures.
type QuoteResponse struct {
	QuoteID string  `json:"quoteId"`
	Routes  []Route `json:"routes"`

	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

// GetSwapQuote fetches candidate routes for the pair and amount.
func (c *Client) GetSwapQuote(ctx context.Context, params QuoteParams) (*QuoteResponse, error) {
	q := url.Values{}
	q.Set("sellAsset", params.SellAsset)
	q.Set("buyAsset", params.BuyAsset)
	q.Set("sellAmount", params.SellAmount.String())
	if params.SenderAddress != "" {
		q.Set("senderAddress", params.SenderAddress)
	}
	if params.RecipientAddress != "" {
		q.Set("recipientAddress", params.RecipientAddress)
	}
	if params.AffiliateAddress != "" {
		q.Set("affiliateAddress", params.AffiliateAddress)
		q.Set("affiliateBasisPoints", strconv.Itoa(params.AffiliateBasisPoints))
	}

	reqURL := fmt.Sprintf("%s/tokens/quote?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting quote: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading quote response: %w", err)
	}

	// Upstream reports pair errors with a JSON body and a non-2xx
	// status; decode either way so the message survives.
	var quote QuoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("quote API returned %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("parsing quote: %w", err)
	}

	return &quote, nil
}
