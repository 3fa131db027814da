// Package allowance drives the ERC-20 allowance check → approve →
// poll-until-confirmed flow against a blockchain-indexing service.
package allowance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Approval is one spender entry from the indexing service.
type Approval struct {
	Spender struct {
		Address string `json:"address"`
	} `json:"spender"`
	Token struct {
		Address string `json:"address"`
	} `json:"token"`
	Value string `json:"value"` // allowance in smallest units
}

type approvalsPage struct {
	Result []Approval `json:"result"`
	Cursor string     `json:"cursor"` // empty on the last page
}

// Indexer queries a wallet's token approvals from an HTTP indexing
// service with cursor pagination.
type Indexer struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewIndexer(baseURL string, httpClient *http.Client, log *zap.Logger) *Indexer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Indexer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// Allowance resolves the on-chain allowance in smallest units for the
// (owner, spender, token) tuple. It pages through the service until
// the matching entry is found; exhausting pagination without a match
// means no approval exists and resolves to zero, not an error.
func (ix *Indexer) Allowance(ctx context.Context, chain string, owner, spender, token common.Address) (*big.Int, error) {
	cursor := ""
	for {
		page, err := ix.fetchPage(ctx, chain, owner, cursor)
		if err != nil {
			return nil, err
		}

		for _, a := range page.Result {
			if !strings.EqualFold(a.Spender.Address, spender.Hex()) ||
				!strings.EqualFold(a.Token.Address, token.Hex()) {
				continue
			}
			value, ok := new(big.Int).SetString(a.Value, 10)
			if !ok {
				return nil, fmt.Errorf("indexer returned unparseable allowance %q", a.Value)
			}
			return value, nil
		}

		if page.Cursor == "" {
			ix.log.Debug("no approval found for spender, treating allowance as zero",
				zap.String("owner", owner.Hex()),
				zap.String("spender", spender.Hex()))
			return big.NewInt(0), nil
		}
		cursor = page.Cursor
	}
}

func (ix *Indexer) fetchPage(ctx context.Context, chain string, owner common.Address, cursor string) (*approvalsPage, error) {
	params := url.Values{}
	params.Set("chain", chain)
	params.Set("ownerAddress", owner.Hex())
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	reqURL := fmt.Sprintf("%s/approvals?%s", ix.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := ix.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting approvals: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading approvals response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("approvals API returned %d: %s", resp.StatusCode, string(body))
	}

	var page approvalsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("parsing approvals: %w", err)
	}

	return &page, nil
}
