package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/observability"
)

// Default client configuration.
const (
	DefaultGatewayURL = "https://solana-gateway.moralis.io"
	DefaultNetwork    = "mainnet"
	DefaultTimeout    = 30 * time.Second
	DefaultPageLimit  = 250
	DefaultMaxPages   = 8
)

// Client fetches wallet swap history from a Moralis-style Solana gateway.
type Client struct {
	baseURL  string
	network  string
	apiKey   string
	client   *http.Client
	limit    int
	maxPages int
	now      func() time.Time
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the gateway base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithNetwork overrides the network path segment.
func WithNetwork(n string) ClientOption {
	return func(c *Client) { c.network = n }
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.client = h }
}

// WithPageLimit sets the per-page record limit.
func WithPageLimit(limit int) ClientOption {
	return func(c *Client) { c.limit = limit }
}

// WithMaxPages caps cursor-follow depth for one wallet.
func WithMaxPages(n int) ClientOption {
	return func(c *Client) { c.maxPages = n }
}

// WithClock injects the time source used for records missing a timestamp.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// NewClient creates a swap feed client. Returns ErrMissingAPIKey when the
// key is empty.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		baseURL:  DefaultGatewayURL,
		network:  DefaultNetwork,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: DefaultTimeout},
		limit:    DefaultPageLimit,
		maxPages: DefaultMaxPages,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// swapsPage covers the envelope variants the gateway has shipped: the
// record list under swaps or result (or as the bare body), the
// continuation cursor under cursor, nextCursor, next, or page.nextCursor.
type swapsPage struct {
	Swaps      []*swapRecord `json:"swaps"`
	Result     []*swapRecord `json:"result"`
	Cursor     string        `json:"cursor"`
	NextCursor string        `json:"nextCursor"`
	Next       string        `json:"next"`
	Page       *struct {
		NextCursor string `json:"nextCursor"`
	} `json:"page"`
}

func (p *swapsPage) records() []*swapRecord {
	if len(p.Swaps) > 0 {
		return p.Swaps
	}
	return p.Result
}

func (p *swapsPage) nextCursor() string {
	if p.Cursor != "" {
		return p.Cursor
	}
	if p.NextCursor != "" {
		return p.NextCursor
	}
	if p.Next != "" {
		return p.Next
	}
	if p.Page != nil {
		return p.Page.NextCursor
	}
	return ""
}

// Swaps fetches the wallet's swap history, following the continuation
// cursor up to the configured page cap, and returns normalized swaps
// sorted oldest first by the caller's convention (the gateway returns
// newest first; ordering is handled downstream).
func (c *Client) Swaps(ctx context.Context, wallet string) ([]*domain.RawSwap, error) {
	var out []*domain.RawSwap
	cursor := ""

	for page := 0; page < c.maxPages; page++ {
		body, err := c.fetchPage(ctx, wallet, cursor)
		if err != nil {
			return nil, err
		}
		observability.RecordFeedPage()

		for _, rec := range body.records() {
			swap := normalize(rec, wallet, c.now)
			if swap == nil {
				observability.RecordSwapDropped()
				continue
			}
			observability.RecordSwapNormalized()
			out = append(out, swap)
		}

		cursor = body.nextCursor()
		if cursor == "" || len(body.records()) == 0 {
			break
		}
	}

	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, wallet, cursor string) (*swapsPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.limit))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	u := fmt.Sprintf("%s/account/%s/%s/swaps?%s", c.baseURL, c.network, wallet, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("feed status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed response: %w", err)
	}

	// The body is either an envelope object or a bare record array.
	var page swapsPage
	if err := json.Unmarshal(raw, &page); err != nil {
		var bare []*swapRecord
		if err2 := json.Unmarshal(raw, &bare); err2 != nil {
			return nil, fmt.Errorf("decode feed response: %w", err)
		}
		page.Swaps = bare
	}
	return &page, nil
}

var _ Source = (*Client)(nil)
