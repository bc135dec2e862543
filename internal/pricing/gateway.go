package pricing

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

	"wallet-ledger/internal/classify"
	"wallet-ledger/internal/domain"
)

// Default gateway configuration.
const (
	DefaultGatewayURL = "https://solana-gateway.moralis.io"
	DefaultNetwork    = "mainnet"
	DefaultTimeout    = 30 * time.Second

	lamportsPerSol = 1e9
)

// Gateway implements Provider against a Moralis-style Solana gateway.
type Gateway struct {
	baseURL string
	network string
	apiKey  string
	client  *http.Client
}

// GatewayOption configures Gateway.
type GatewayOption func(*Gateway)

// WithBaseURL overrides the gateway base URL.
func WithBaseURL(u string) GatewayOption {
	return func(g *Gateway) { g.baseURL = strings.TrimRight(u, "/") }
}

// WithNetwork overrides the network path segment.
func WithNetwork(n string) GatewayOption {
	return func(g *Gateway) { g.network = n }
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *Gateway) { g.client = c }
}

// NewGateway creates a provider client. Returns ErrMissingAPIKey when the
// key is empty: price resolution cannot start unauthenticated.
func NewGateway(apiKey string, opts ...GatewayOption) (*Gateway, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	g := &Gateway{
		baseURL: DefaultGatewayURL,
		network: DefaultNetwork,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// get performs an authenticated GET and decodes the JSON body into out.
func (g *Gateway) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := g.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", g.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gateway status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

// priceResponse covers the field variants observed across gateway versions.
type priceResponse struct {
	UsdPrice    *float64 `json:"usdPrice"`
	PriceUsd    *float64 `json:"priceUsd"`
	Price       *float64 `json:"price"`
	SolanaPrice *string  `json:"solanaPrice"`
	NativePrice *struct {
		Value    string `json:"value"`
		Decimals *int   `json:"decimals"`
	} `json:"nativePrice"`
}

// TokenPrice resolves the unit price of a mint. The USD price is taken
// from the first populated field of usdPrice, priceUsd, price; the SOL
// price prefers nativePrice (lamport-denominated) over solanaPrice.
func (g *Gateway) TokenPrice(ctx context.Context, mint string, timestamp int64) (*domain.PricePoint, error) {
	query := url.Values{}
	if timestamp > 0 {
		query.Set("timestamp", strconv.FormatInt(timestamp, 10))
	}

	var resp priceResponse
	path := fmt.Sprintf("/token/%s/%s/price", g.network, mint)
	if err := g.get(ctx, path, query, &resp); err != nil {
		return nil, err
	}

	point := &domain.PricePoint{
		MintAddress: mint,
		Timestamp:   timestamp,
		PriceUsd:    firstFloat(resp.UsdPrice, resp.PriceUsd, resp.Price),
		Source:      "moralis",
		FetchedAt:   time.Now().Unix(),
	}

	if resp.NativePrice != nil {
		decimals := 9
		if resp.NativePrice.Decimals != nil {
			decimals = *resp.NativePrice.Decimals
		}
		raw, err := strconv.ParseFloat(resp.NativePrice.Value, 64)
		if err == nil {
			point.PriceSol = raw / pow10(decimals)
		}
	} else if resp.SolanaPrice != nil {
		if v, err := strconv.ParseFloat(*resp.SolanaPrice, 64); err == nil {
			point.PriceSol = v
		}
	}

	return point, nil
}

// metadataResponse is the gateway token metadata shape.
type metadataResponse struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// TokenMetadata resolves symbol and name, defaulting to "MEME"/"Unknown"
// when the gateway omits them.
func (g *Gateway) TokenMetadata(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	var resp metadataResponse
	path := fmt.Sprintf("/token/%s/%s/metadata", g.network, mint)
	if err := g.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	meta := &domain.TokenMetadata{
		MintAddress: mint,
		Symbol:      resp.Symbol,
		Name:        resp.Name,
		FetchedAt:   time.Now().Unix(),
	}
	if meta.Symbol == "" {
		meta.Symbol = UnknownSymbol
	}
	if meta.Name == "" {
		meta.Name = UnknownName
	}
	return meta, nil
}

// bondingResponse is the launch-platform bonding status shape.
type bondingResponse struct {
	Status string `json:"status"`
}

// BondingStatus reports liquidity status. A token counts as bonded only
// when the provider names a concrete post-bonding status; "bonding" and
// "unknown" both report false, matching the degraded-lookup mapping in
// the resolver.
func (g *Gateway) BondingStatus(ctx context.Context, mint string) (*domain.BondingStatus, error) {
	var resp bondingResponse
	path := fmt.Sprintf("/token/%s/%s/bonding-status", g.network, mint)
	if err := g.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	status := strings.ToLower(resp.Status)
	if status == "" {
		status = "unknown"
	}
	return &domain.BondingStatus{
		Status:   status,
		IsBonded: status != "bonding" && status != "unknown",
	}, nil
}

// flexFloat decodes a JSON number or a numeric string. The account
// endpoints mix both encodings for the same field across versions.
type flexFloat struct {
	value float64
	set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f.value = v
	f.set = true
	return nil
}

// nativeBalanceResponse covers the native balance shapes observed across
// gateway versions.
type nativeBalanceResponse struct {
	NativeBalance *struct {
		Lamports flexFloat `json:"lamports"`
		Sol      flexFloat `json:"sol"`
	} `json:"nativeBalance"`
	Lamports flexFloat `json:"lamports"`
	Balance  flexFloat `json:"balance"`
	Result   *struct {
		Lamports flexFloat `json:"lamports"`
	} `json:"result"`
}

func (r *nativeBalanceResponse) sol() float64 {
	var lamports float64
	switch {
	case r.NativeBalance != nil && r.NativeBalance.Lamports.set:
		lamports = r.NativeBalance.Lamports.value
	case r.Lamports.set:
		lamports = r.Lamports.value
	case r.Balance.set:
		lamports = r.Balance.value
	case r.Result != nil && r.Result.Lamports.set:
		lamports = r.Result.Lamports.value
	}
	if r.NativeBalance != nil && r.NativeBalance.Sol.set {
		return r.NativeBalance.Sol.value
	}
	return lamports / lamportsPerSol
}

// tokenBalanceRecord is one wallet token holding as the gateway reports it.
type tokenBalanceRecord struct {
	Mint         string `json:"mint"`
	Address      string `json:"address"`
	TokenAddress string `json:"tokenAddress"`

	Amount        flexFloat `json:"amount"`
	AmountDecimal flexFloat `json:"amountDecimal"`
	AmountRaw     flexFloat `json:"amountRaw"`
	RawAmount     flexFloat `json:"rawAmount"`
	Decimals      int       `json:"decimals"`
}

func (t *tokenBalanceRecord) mint() string {
	if t.Mint != "" {
		return t.Mint
	}
	if t.Address != "" {
		return t.Address
	}
	return t.TokenAddress
}

func (t *tokenBalanceRecord) quantity() float64 {
	if t.Amount.set {
		return t.Amount.value
	}
	if t.AmountDecimal.set {
		return t.AmountDecimal.value
	}
	raw := t.AmountRaw
	if !raw.set {
		raw = t.RawAmount
	}
	if !raw.set {
		return 0
	}
	return raw.value / pow10(t.Decimals)
}

// tokenBalances parses the /tokens body: an object wrapping the list
// under "tokens" or "result", or a bare array.
func tokenBalances(raw json.RawMessage) []tokenBalanceRecord {
	var envelope struct {
		Tokens []tokenBalanceRecord `json:"tokens"`
		Result []tokenBalanceRecord `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if len(envelope.Tokens) > 0 {
			return envelope.Tokens
		}
		if len(envelope.Result) > 0 {
			return envelope.Result
		}
	}
	var bare []tokenBalanceRecord
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare
	}
	return nil
}

// WalletBalances reads the wallet's native SOL balance and its USDC
// holding from the account endpoints.
func (g *Gateway) WalletBalances(ctx context.Context, wallet string) (*domain.WalletBalances, error) {
	var native nativeBalanceResponse
	path := fmt.Sprintf("/account/%s/%s/balance", g.network, wallet)
	if err := g.get(ctx, path, nil, &native); err != nil {
		return nil, err
	}

	balances := &domain.WalletBalances{Sol: native.sol()}

	var raw json.RawMessage
	path = fmt.Sprintf("/account/%s/%s/tokens", g.network, wallet)
	if err := g.get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	for _, token := range tokenBalances(raw) {
		if token.mint() == classify.UsdcMint {
			balances.Usdc = token.quantity()
			break
		}
	}
	return balances, nil
}

// firstFloat returns the first non-nil value, or 0.
func firstFloat(candidates ...*float64) float64 {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return 0
}

func pow10(n int) float64 {
	out := 1.0
	for i := 0; i < n; i++ {
		out *= 10
	}
	return out
}

var _ Provider = (*Gateway)(nil)
