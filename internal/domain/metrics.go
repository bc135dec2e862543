package domain

// AccountMetrics aggregates the full trade history of one wallet.
// It is a pure function of the ordered trade stream up to "now" and is
// recomputed fully on each reconstruction run, never mutated incrementally.
type AccountMetrics struct {
	TotalVolumeUsd         float64 // sum of all trade notional
	RealizedProfitUsd      float64 // sum of sell PnL
	UnrealizedProfitUsd    float64 // sum of open position unrealized PnL
	TotalProfitUsd         float64 // realized + unrealized
	PnlPercent             float64 // totalProfit / totalVolume * 100
	WinRate                float64 // profitable sells / total sells * 100
	AvgHoldDurationSeconds float64 // quantity-weighted across consumed lots
	TopWinUsd              float64 // max single-sell PnL
	TotalTrades            int     // buys + sells
	TotalSells             int     // sell count
	LastTradeTimestamp     int64   // Unix seconds of most recent trade, 0 if none
	SolBalance             float64 // wallet SOL balance from the provider, best effort
	UsdcBalance            float64 // wallet USDC balance from the provider, best effort
}
