package domain

// PricePoint is a resolved unit price for a mint at a point in time.
// Corresponds to the token_prices cache table in PostgreSQL.
type PricePoint struct {
	MintAddress string  // token mint address
	Timestamp   int64   // Unix seconds; 0 means "latest"
	PriceUsd    float64 // USD per token
	PriceSol    float64 // SOL per token
	IsBonded    bool    // token has on-chain liquidity
	Source      string  // provider label, e.g. "moralis"
	FetchedAt   int64   // when the price was resolved (seconds)
}

// TokenMetadata holds resolved symbol and name for a mint.
// Corresponds to the token_metadata cache table in PostgreSQL.
type TokenMetadata struct {
	MintAddress string // token mint address
	Symbol      string // short ticker, "MEME" when unresolvable
	Name        string // full name, "Unknown" when unresolvable
	FetchedAt   int64  // when metadata was resolved (seconds)
}

// BondingStatus reports whether a launch-platform token has transitioned
// to having on-chain liquidity.
type BondingStatus struct {
	Status   string // provider status string, lowercased
	IsBonded bool   // false while still on the bonding curve
}

// WalletBalances holds the quote-asset balances of a wallet as reported
// by the provider's account endpoints. Trade reconstruction cannot
// derive these: quote assets never enter the position ledger.
type WalletBalances struct {
	Sol  float64 // native SOL balance
	Usdc float64 // USDC token balance
}
