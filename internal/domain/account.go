package domain

// Account represents a leaderboard account owning one wallet.
// Corresponds to the accounts table in PostgreSQL.
type Account struct {
	ID                 string  // account id (uuid)
	Username           string  // display handle
	WalletAddress      string  // Solana wallet address
	PnlPercent         float64 // summary: PnL percentage over volume
	TotalProfitUsd     float64 // summary: realized profit
	TotalTrades        int     // summary: persisted trade count
	LastTradeTimestamp int64   // summary: Unix seconds, 0 if never traded
	Active             bool    // inactive accounts are skipped by batch runs
	CreatedAt          int64   // record creation timestamp (seconds)
}
