package domain

// Lot is an open inventory entry created by a buy. Lots live inside a
// per-mint FIFO queue and are consumed oldest-first by sells.
type Lot struct {
	Quantity    float64 // remaining unsold quantity
	UnitCostUsd float64 // USD cost per token at acquisition
	UnitCostSol float64 // SOL cost per token at acquisition
	AcquiredAt  int64   // Unix timestamp of the buy (seconds)
}

// PositionSummary describes the current holdings for one mint, derived from
// the lots still open after a full replay.
type PositionSummary struct {
	MintAddress   string  // position-asset mint
	Symbol        string  // resolved token symbol
	Quantity      float64 // total open quantity
	AvgCostUsd    float64 // quantity-weighted USD cost basis
	MarkPriceUsd  float64 // current resolved price
	MarkValueUsd  float64 // quantity * mark price
	UnrealizedUsd float64 // (mark price - avg cost) * quantity
}
