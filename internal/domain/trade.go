package domain

// Trade is a directional, mint-scoped economic event derived from one RawSwap.
// Corresponds to the trades table in PostgreSQL.
type Trade struct {
	Signature     string  // transaction signature (unique across the system)
	AccountID     string  // owning account (empty for ad-hoc profile runs)
	MintAddress   string  // position-asset mint
	Symbol        string  // resolved token symbol
	Side          string  // "buy" | "sell"
	Quantity      float64 // position-asset units, decimal-adjusted
	AmountUsd     float64 // trade notional in USD
	AmountSol     float64 // trade notional in SOL
	ProfitLossUsd float64 // realized PnL for sells, 0 for buys
	Timestamp     int64   // Unix timestamp in seconds
	Source        string  // venue label
	PriceSource   string  // how the notional was valued
}

// Trade side constants
const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"
)

// Price source constants. "unavailable" means the provider could not price
// the asset and the notional degraded to zero.
const (
	PriceSourceQuoteLeg    = "quote_leg"
	PriceSourceOracle      = "oracle"
	PriceSourceUnavailable = "unavailable"
)
