package feed

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"wallet-ledger/internal/domain"
)

// flexFloat decodes a JSON number or a numeric string. Provider payloads
// mix both encodings for the same field across versions.
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
		// Unparseable amounts degrade to unset rather than failing the swap.
		return nil
	}
	f.value = v
	f.set = true
	return nil
}

// legRecord covers the leg shapes observed across feed provider versions.
type legRecord struct {
	Mint         string `json:"mint"`
	Address      string `json:"address"`
	TokenAddress string `json:"tokenAddress"`

	Amount          flexFloat `json:"amount"`
	AmountFormatted flexFloat `json:"amountFormatted"`
	AmountDecimal   flexFloat `json:"amountDecimal"`
	AmountRaw       flexFloat `json:"amountRaw"`
	RawAmount       flexFloat `json:"rawAmount"`
	Decimals        int       `json:"decimals"`
}

// swapRecord is one raw feed entry before normalization.
type swapRecord struct {
	Signature            string `json:"signature"`
	TransactionSignature string `json:"transactionSignature"`

	BlockTimestamp int64 `json:"blockTimestamp"`
	BlockTime      int64 `json:"blockTime"`
	Timestamp      int64 `json:"timestamp"`

	WalletAddress string `json:"walletAddress"`
	Source        string `json:"source"`

	TokenIn  *legRecord `json:"tokenIn"`
	TokenOut *legRecord `json:"tokenOut"`
}

// legMint resolves the mint address from the first populated of
// mint, address, tokenAddress.
func legMint(leg *legRecord) string {
	if leg == nil {
		return ""
	}
	if leg.Mint != "" {
		return leg.Mint
	}
	if leg.Address != "" {
		return leg.Address
	}
	return leg.TokenAddress
}

// legAmount resolves the decimal-adjusted amount. Precedence: amount,
// amountFormatted, amountDecimal, then amountRaw/rawAmount divided by
// 10^decimals.
func legAmount(leg *legRecord) float64 {
	if leg == nil {
		return 0
	}
	if leg.Amount.set {
		return leg.Amount.value
	}
	if leg.AmountFormatted.set {
		return leg.AmountFormatted.value
	}
	if leg.AmountDecimal.set {
		return leg.AmountDecimal.value
	}
	raw := leg.AmountRaw
	if !raw.set {
		raw = leg.RawAmount
	}
	if !raw.set {
		return 0
	}
	return raw.value / math.Pow10(leg.Decimals)
}

// NormalizeVenue maps the free-form venue string reported by the feed
// onto a small recognized set.
func NormalizeVenue(source string) string {
	s := strings.ToLower(source)
	switch {
	case strings.Contains(s, "pump"):
		return "pumpfun"
	case strings.Contains(s, "raydium"):
		return "raydium"
	case strings.Contains(s, "jupiter"):
		return "jupiter"
	case strings.Contains(s, "meteora"):
		return "meteora"
	case strings.Contains(s, "orca"):
		return "orca"
	case s != "":
		return s
	default:
		return "unknown"
	}
}

// normalize converts one feed record into a RawSwap. Records without a
// signature are dropped (nil return): the signature is the idempotency
// key downstream.
func normalize(rec *swapRecord, wallet string, now func() time.Time) *domain.RawSwap {
	if rec == nil {
		return nil
	}

	signature := rec.Signature
	if signature == "" {
		signature = rec.TransactionSignature
	}
	if signature == "" {
		return nil
	}

	timestamp := rec.BlockTimestamp
	if timestamp == 0 {
		timestamp = rec.BlockTime
	}
	if timestamp == 0 {
		timestamp = rec.Timestamp
	}
	if timestamp == 0 {
		timestamp = now().Unix()
	}

	swap := &domain.RawSwap{
		Signature:    signature,
		Timestamp:    timestamp,
		OwnerAddress: wallet,
		Source:       NormalizeVenue(rec.Source),
	}
	if rec.TokenIn != nil {
		if mint := legMint(rec.TokenIn); mint != "" {
			swap.LegIn = &domain.SwapLeg{
				Mint:     mint,
				Amount:   legAmount(rec.TokenIn),
				Decimals: rec.TokenIn.Decimals,
			}
		}
	}
	if rec.TokenOut != nil {
		if mint := legMint(rec.TokenOut); mint != "" {
			swap.LegOut = &domain.SwapLeg{
				Mint:     mint,
				Amount:   legAmount(rec.TokenOut),
				Decimals: rec.TokenOut.Decimals,
			}
		}
	}
	return swap
}

var _ json.Unmarshaler = (*flexFloat)(nil)
