package domain

// SwapLeg is one side of a swap as reported by the feed provider,
// already normalized to decimal-adjusted units.
type SwapLeg struct {
	Mint     string  // token mint address
	Amount   float64 // decimal-adjusted amount
	Decimals int     // declared mint decimals
}

// RawSwap represents one on-chain swap event for a wallet.
// Immutable once observed; sourced from the feed, never mutated.
type RawSwap struct {
	Signature    string   // transaction signature, unique id
	Timestamp    int64    // Unix timestamp in seconds
	OwnerAddress string   // wallet that initiated the swap
	LegIn        *SwapLeg // leg the wallet gave up (nullable)
	LegOut       *SwapLeg // leg the wallet received (nullable)
	Source       string   // venue label: "pumpfun" | "raydium" | "jupiter" | ...
}
